package scheduling

import "context"

// Repository is the remote-store surface the scheduling services depend on.
// The store is the sole authority on persistence and on conflicts: a create
// or update it rejects must surface as the matching sentinel error even when
// the local pre-checks passed.
type Repository interface {
	// ListByDoctorDate returns all appointments for a doctor on a date,
	// regardless of status.
	ListByDoctorDate(ctx context.Context, doctorID string, date Date) ([]*Appointment, error)

	// ListByPatient returns all appointments held by a patient.
	ListByPatient(ctx context.Context, patientID string) ([]*Appointment, error)

	// GetByID returns one appointment or ErrAppointmentNotFound.
	GetByID(ctx context.Context, id string) (*Appointment, error)

	// Create writes a new appointment; the store assigns the id and sets the
	// status to pending. A failed create leaves no state behind.
	Create(ctx context.Context, a *Appointment) (*Appointment, error)

	// UpdateStatus writes a single status change.
	UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error)

	// Reschedule atomically updates date and time on the existing record,
	// preserving id and status. The store treats the body as the full update
	// payload, so the caller re-sends reason and notes unchanged.
	Reschedule(ctx context.Context, id string, date Date, slot, reason, notes string) (*Appointment, error)
}
