package scheduling

import (
	"context"
	"fmt"
)

// Rescheduler moves an active appointment to a new date and slot while
// keeping its identity, history and status.
type Rescheduler struct {
	catalog *Catalog
	repo    Repository
}

func NewRescheduler(catalog *Catalog, repo Repository) *Rescheduler {
	return &Rescheduler{catalog: catalog, repo: repo}
}

// Reschedule validates the target slot against the doctor's occupancy on the
// new date, excluding the appointment being moved so it can keep its own
// slot, then issues a single store write.
func (r *Rescheduler) Reschedule(ctx context.Context, id string, newDate Date, newTime string) (*Appointment, error) {
	if newDate.IsZero() {
		return nil, fmt.Errorf("date is required")
	}
	if !r.catalog.Contains(newTime) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSlot, newTime)
	}

	appt, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt.Status.Terminal() {
		return nil, fmt.Errorf("%w: cannot reschedule a %s appointment", ErrInvalidTransition, appt.Status)
	}

	others, err := r.repo.ListByDoctorDate(ctx, appt.DoctorID, newDate)
	if err != nil {
		return nil, fmt.Errorf("list appointments for %s on %s: %w", appt.DoctorID, newDate, err)
	}
	for _, other := range others {
		if other.ID == appt.ID {
			continue
		}
		if other.Active() && other.Time == newTime {
			return nil, ErrSlotUnavailable
		}
	}

	updated, err := r.repo.Reschedule(ctx, id, newDate, newTime, appt.Reason, appt.Notes)
	if err != nil {
		return nil, fmt.Errorf("reschedule: %w", err)
	}
	return updated, nil
}
