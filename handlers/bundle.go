package handlers

// HandlerBundle carries every HTTP handler the router wires up, so routing
// takes one dependency instead of five.
type HandlerBundle struct {
	Profiles     *ProfileHandler
	Slots        *SlotHandler
	Appointments *AppointmentHandler
	Wallet       *WalletHandler
	Chat         *ChatHandler
}
