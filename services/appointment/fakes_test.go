package appointment

import (
	"context"
	"sync"
	"time"

	"github.com/hibiken/asynq"

	appointmentRepo "medilink/database/repository/appointment"
	"medilink/models"
	"medilink/utils"
)

// memBackend is an in-memory stand-in for the store, mirroring the
// conditional-update semantics the repositories rely on. A single mutex makes
// every operation atomic, which is what the store transactions guarantee.
type memBackend struct {
	mu       sync.Mutex
	appts    map[string]*models.Appointment
	slots    map[string]*models.AvailabilitySlot
	patients map[string]*models.PatientProfile
	doctors  map[string]*models.DoctorProfile
	txns     []*models.Transaction
	refunds  []*models.Refund
}

func newMemBackend() *memBackend {
	return &memBackend{
		appts:    map[string]*models.Appointment{},
		slots:    map[string]*models.AvailabilitySlot{},
		patients: map[string]*models.PatientProfile{},
		doctors:  map[string]*models.DoctorProfile{},
	}
}

func copyAppt(a *models.Appointment) *models.Appointment {
	cp := *a
	return &cp
}

type fakeApptRepo struct{ b *memBackend }

func (r *fakeApptRepo) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	a, ok := r.b.appts[id]
	if !ok {
		return nil, utils.NotFoundErr("appointment %s not found", id)
	}
	return copyAppt(a), nil
}

func (r *fakeApptRepo) ListByPatient(_ context.Context, patientID string) ([]models.Appointment, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	var out []models.Appointment
	for _, a := range r.b.appts {
		if a.PatientID == patientID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeApptRepo) ListByDoctor(_ context.Context, doctorID string) ([]models.Appointment, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	var out []models.Appointment
	for _, a := range r.b.appts {
		if a.DoctorID == doctorID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeApptRepo) ListOverdueUpcoming(_ context.Context, cutoff time.Time) ([]models.Appointment, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	var out []models.Appointment
	for _, a := range r.b.appts {
		if a.Status == models.StatusUpcoming && a.ScheduledEnd.Before(cutoff) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeApptRepo) LinkChatRoom(_ context.Context, id, roomID string) error {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	a, ok := r.b.appts[id]
	if !ok {
		return utils.NotFoundErr("appointment %s not found", id)
	}
	a.ChatRoomID = roomID
	return nil
}

func (r *fakeApptRepo) CreateWithSlot(_ context.Context, appt *models.Appointment, payment *models.Transaction) error {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()

	slot, ok := r.b.slots[appt.SlotID]
	if !ok {
		return utils.NotFoundErr("slot %s not found", appt.SlotID)
	}
	if slot.Booked {
		return utils.SlotUnavailableErr("slot %s is already booked", appt.SlotID)
	}
	p, ok := r.b.patients[appt.PatientID]
	if !ok {
		return utils.NotFoundErr("patient %s not found", appt.PatientID)
	}
	if p.WalletBalance < appt.Price {
		return utils.InsufficientFundsErr("patient %s has insufficient wallet balance", appt.PatientID)
	}

	slot.Booked = true
	slot.AppointmentID = appt.ID
	slot.PatientID = appt.PatientID
	p.WalletBalance -= appt.Price
	r.b.txns = append(r.b.txns, payment)
	r.b.appts[appt.ID] = copyAppt(appt)
	return nil
}

func (r *fakeApptRepo) Transition(_ context.Context, id string, expect models.AppointmentStatus, eff appointmentRepo.TransitionEffects) (*models.Appointment, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()

	a, ok := r.b.appts[id]
	if !ok {
		return nil, utils.NotFoundErr("appointment %s not found", id)
	}
	if a.Status != expect {
		return nil, utils.ConflictErr("appointment %s changed state concurrently", id)
	}

	now := time.Now()
	a.Status = eff.To
	a.UpdatedAt = now
	if eff.ReasonNote != "" {
		a.ReasonNote = eff.ReasonNote
	}
	if eff.SetPaymentStatus != "" {
		a.PaymentStatus = eff.SetPaymentStatus
	}
	if eff.StampActualStart {
		a.ActualStart = &now
	}
	if eff.StampActualEnd {
		a.ActualEnd = &now
	}
	if eff.ReleaseSlot {
		if slot, ok := r.b.slots[a.SlotID]; ok {
			slot.Booked = false
			slot.AppointmentID = ""
			slot.PatientID = ""
		}
	}
	if eff.Refund != nil {
		r.b.refunds = append(r.b.refunds, eff.Refund)
	}
	return copyAppt(a), nil
}

func (r *fakeApptRepo) CompleteWithPayout(_ context.Context, id string, payout *models.Transaction) (*models.Appointment, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()

	a, ok := r.b.appts[id]
	if !ok {
		return nil, utils.NotFoundErr("appointment %s not found", id)
	}
	if a.Status != models.StatusInProgress {
		return nil, utils.ConflictErr("appointment %s is not in progress", id)
	}
	d, ok := r.b.doctors[a.DoctorID]
	if !ok {
		return nil, utils.NotFoundErr("doctor %s not found", a.DoctorID)
	}

	now := time.Now()
	a.Status = models.StatusCompleted
	a.PaymentStatus = models.PaymentReleased
	a.ActualEnd = &now
	a.UpdatedAt = now
	d.WalletBalance += payout.Amount
	r.b.txns = append(r.b.txns, payout)
	return copyAppt(a), nil
}

func (r *fakeApptRepo) RequestExtension(_ context.Context, id, requesterID string) (*models.Appointment, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()

	a, ok := r.b.appts[id]
	if !ok {
		return nil, utils.NotFoundErr("appointment %s not found", id)
	}
	if a.Status != models.StatusInProgress {
		return nil, utils.InvalidStateErr("appointment %s is not in progress", id)
	}
	if a.ExtensionRequested {
		return nil, utils.AlreadyRequestedErr("extension already requested for appointment %s", id)
	}
	a.ExtensionRequested = true
	a.ExtensionRequestedBy = requesterID
	a.UpdatedAt = time.Now()
	return copyAppt(a), nil
}

func (r *fakeApptRepo) AcceptExtension(_ context.Context, id string, fee *models.Transaction, extendBy time.Duration) (*models.Appointment, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()

	p, ok := r.b.patients[fee.UserID]
	if !ok {
		return nil, utils.NotFoundErr("patient %s not found", fee.UserID)
	}
	if p.WalletBalance < fee.Amount {
		return nil, utils.InsufficientFundsErr("patient %s has insufficient wallet balance", fee.UserID)
	}

	a, ok := r.b.appts[id]
	if !ok {
		return nil, utils.NotFoundErr("appointment %s not found", id)
	}
	switch {
	case a.Status != models.StatusInProgress:
		return nil, utils.InvalidStateErr("appointment %s is not in progress", id)
	case !a.ExtensionRequested:
		return nil, utils.InvalidStateErr("no extension requested for appointment %s", id)
	case a.ExtensionGranted:
		return nil, utils.InvalidStateErr("extension already granted for appointment %s", id)
	}

	p.WalletBalance -= fee.Amount
	a.ScheduledEnd = a.ScheduledEnd.Add(extendBy)
	a.ExtensionGranted = true
	a.UpdatedAt = time.Now()
	r.b.txns = append(r.b.txns, fee)
	return copyAppt(a), nil
}

type fakeSlots struct{ b *memBackend }

func (s *fakeSlots) CreateManyIfNoOverlap(_ context.Context, doctorID string, start, end time.Time, slots []models.AvailabilitySlot) error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	for _, existing := range s.b.slots {
		if existing.DoctorID == doctorID && start.Before(existing.End) && end.After(existing.Start) {
			return utils.ConflictErr("availability window overlaps existing slots")
		}
	}
	for i := range slots {
		cp := slots[i]
		s.b.slots[cp.ID] = &cp
	}
	return nil
}

func (s *fakeSlots) GetByID(_ context.Context, id string) (*models.AvailabilitySlot, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	sl, ok := s.b.slots[id]
	if !ok {
		return nil, utils.NotFoundErr("slot %s not found", id)
	}
	cp := *sl
	return &cp, nil
}

func (s *fakeSlots) ListByDoctor(_ context.Context, doctorID string, from, to time.Time) ([]models.AvailabilitySlot, error) {
	return nil, nil
}

func (s *fakeSlots) ListAvailableByDoctor(_ context.Context, doctorID string, from time.Time) ([]models.AvailabilitySlot, error) {
	return nil, nil
}

func (s *fakeSlots) DeleteUnbooked(_ context.Context, _, _ string) error { return nil }

type fakeWallet struct{ b *memBackend }

func (w *fakeWallet) GetBalance(_ context.Context, role models.Role, userID string) (float64, error) {
	w.b.mu.Lock()
	defer w.b.mu.Unlock()
	if role == models.RoleDoctor {
		if d, ok := w.b.doctors[userID]; ok {
			return d.WalletBalance, nil
		}
	} else if p, ok := w.b.patients[userID]; ok {
		return p.WalletBalance, nil
	}
	return 0, utils.NotFoundErr("user %s not found", userID)
}

func (w *fakeWallet) GetTransaction(_ context.Context, id string) (*models.Transaction, error) {
	w.b.mu.Lock()
	defer w.b.mu.Unlock()
	for _, t := range w.b.txns {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, utils.NotFoundErr("transaction %s not found", id)
}

func (w *fakeWallet) GetPaymentByAppointment(_ context.Context, appointmentID string) (*models.Transaction, error) {
	w.b.mu.Lock()
	defer w.b.mu.Unlock()
	for _, t := range w.b.txns {
		if t.AppointmentID == appointmentID && t.Type == models.TxnPayment && t.Role == models.RolePatient {
			return t, nil
		}
	}
	return nil, utils.NotFoundErr("no payment for appointment %s", appointmentID)
}

func (w *fakeWallet) GetByGatewayRef(_ context.Context, ref string) (*models.Transaction, error) {
	return nil, utils.NotFoundErr("no transaction for gateway ref %s", ref)
}

func (w *fakeWallet) ListTransactions(_ context.Context, userID string) ([]models.Transaction, error) {
	w.b.mu.Lock()
	defer w.b.mu.Unlock()
	var out []models.Transaction
	for _, t := range w.b.txns {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (w *fakeWallet) Debit(_ context.Context, txn *models.Transaction) error   { return nil }
func (w *fakeWallet) Credit(_ context.Context, txn *models.Transaction) error  { return nil }
func (w *fakeWallet) InsertRefund(_ context.Context, r *models.Refund) error   { return nil }
func (w *fakeWallet) GetRefund(_ context.Context, id string) (*models.Refund, error) {
	return nil, utils.NotFoundErr("refund %s not found", id)
}
func (w *fakeWallet) ListRefunds(_ context.Context, _ models.RefundStatus) ([]models.Refund, error) {
	return nil, nil
}
func (w *fakeWallet) SetRefundDecision(_ context.Context, id string, _ models.RefundStatus) (*models.Refund, error) {
	return nil, utils.NotFoundErr("refund %s not found", id)
}
func (w *fakeWallet) ProcessRefund(_ context.Context, id string, _ *models.Transaction) (*models.Refund, error) {
	return nil, utils.NotFoundErr("refund %s not found", id)
}

type fakeProfiles struct{ b *memBackend }

func (p *fakeProfiles) GetPatient(_ context.Context, id string) (*models.PatientProfile, error) {
	p.b.mu.Lock()
	defer p.b.mu.Unlock()
	pr, ok := p.b.patients[id]
	if !ok {
		return nil, utils.NotFoundErr("patient %s not found", id)
	}
	cp := *pr
	return &cp, nil
}

func (p *fakeProfiles) GetDoctor(_ context.Context, id string) (*models.DoctorProfile, error) {
	p.b.mu.Lock()
	defer p.b.mu.Unlock()
	d, ok := p.b.doctors[id]
	if !ok {
		return nil, utils.NotFoundErr("doctor %s not found", id)
	}
	cp := *d
	return &cp, nil
}

func (p *fakeProfiles) CreatePatient(_ context.Context, pr *models.PatientProfile) error {
	p.b.mu.Lock()
	defer p.b.mu.Unlock()
	p.b.patients[pr.ID] = pr
	return nil
}

func (p *fakeProfiles) CreateDoctor(_ context.Context, d *models.DoctorProfile) error {
	p.b.mu.Lock()
	defer p.b.mu.Unlock()
	p.b.doctors[d.ID] = d
	return nil
}

func (p *fakeProfiles) SetPatientFCMToken(_ context.Context, _, _ string) error { return nil }
func (p *fakeProfiles) SetDoctorFCMToken(_ context.Context, _, _ string) error  { return nil }

type fakeQueue struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (q *fakeQueue) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{}, nil
}

// harness wires a service over the in-memory backend with one doctor, one
// patient, and one published free slot.
type harness struct {
	b       *memBackend
	svc     *DefaultAppointmentService
	queue   *fakeQueue
	doctor  *models.DoctorProfile
	patient *models.PatientProfile
	slot    *models.AvailabilitySlot
}

func newHarness() *harness {
	b := newMemBackend()
	start := time.Now().Add(24 * time.Hour).Truncate(time.Minute)
	doctor := &models.DoctorProfile{ID: "doc-1", Name: "Dr. Abebe", SessionRate: 50, WalletBalance: 0}
	patient := &models.PatientProfile{ID: "pat-1", Name: "Hana", WalletBalance: 200}
	slot := &models.AvailabilitySlot{
		ID:       "slot-1",
		DoctorID: doctor.ID,
		Start:    start,
		End:      start.Add(models.SlotDuration),
	}
	b.doctors[doctor.ID] = doctor
	b.patients[patient.ID] = patient
	b.slots[slot.ID] = slot

	queue := &fakeQueue{}
	svc := &DefaultAppointmentService{
		Repo:     &fakeApptRepo{b: b},
		Slots:    &fakeSlots{b: b},
		Wallet:   &fakeWallet{b: b},
		Profiles: &fakeProfiles{b: b},
		Queue:    queue,
	}
	return &harness{b: b, svc: svc, queue: queue, doctor: doctor, patient: patient, slot: slot}
}

func (h *harness) book(ctx context.Context) *models.Appointment {
	appt, err := h.svc.Create(ctx, h.patient.ID, models.CreateAppointmentRequest{SlotID: h.slot.ID})
	if err != nil {
		panic(err)
	}
	return appt
}

// force moves an appointment straight to the given status, bypassing the
// table, so tests can stage a starting state.
func (h *harness) force(id string, status models.AppointmentStatus) {
	h.b.mu.Lock()
	defer h.b.mu.Unlock()
	h.b.appts[id].Status = status
}
