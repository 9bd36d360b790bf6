package appointment

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	appointmentRepo "medilink/database/repository/appointment"
	profileRepo "medilink/database/repository/profile"
	slotRepo "medilink/database/repository/slot"
	walletRepo "medilink/database/repository/wallet"
	"medilink/models"
	"medilink/services/notification"
)

// AppointmentService owns the consultation lifecycle: booking against a free
// slot, table-validated status transitions, the extension handshake, and the
// no-show sweep.
type AppointmentService interface {
	Create(ctx context.Context, patientID string, req models.CreateAppointmentRequest) (*models.Appointment, error)
	Get(ctx context.Context, callerID string, callerRole models.Role, appointmentID string) (*models.Appointment, error)
	ListForUser(ctx context.Context, userID string, role models.Role) ([]models.Appointment, error)
	UpdateStatus(ctx context.Context, callerID string, callerRole models.Role, appointmentID string, req models.UpdateStatusRequest) (*models.Appointment, error)

	RequestExtension(ctx context.Context, callerID string, callerRole models.Role, appointmentID string) (*models.Appointment, error)
	AcceptExtension(ctx context.Context, callerID string, callerRole models.Role, appointmentID string) (*models.Appointment, error)

	// MarkOverdueNoShows is the periodic sweep: UPCOMING appointments whose
	// scheduled end already passed become NO_SHOW with slot release and refund.
	MarkOverdueNoShows(ctx context.Context, now time.Time) (int, error)
}

// TaskEnqueuer is the slice of asynq.Client the service needs; satisfied by
// *asynq.Client in production and by fakes in tests.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// DefaultAppointmentService is the production implementation.
type DefaultAppointmentService struct {
	Repo     appointmentRepo.AppointmentRepository
	Slots    slotRepo.SlotRepository
	Wallet   walletRepo.WalletRepository
	Profiles profileRepo.ProfileRepository
	Notifier notification.NotificationService
	Queue    TaskEnqueuer // nil disables reminder scheduling
}
