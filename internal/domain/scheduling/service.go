package scheduling

import (
	"context"
	"fmt"
)

// Service implements slot derivation and the appointment lifecycle. All
// conflict pre-checks are optimistic UX shortcuts against the most recently
// fetched store state; the store's own write rejection is the final word and
// is surfaced through the same sentinel errors (see repo_http.go).
type Service struct {
	catalog *Catalog
	repo    Repository
}

func NewService(catalog *Catalog, repo Repository) *Service {
	return &Service{catalog: catalog, repo: repo}
}

// Catalog exposes the fixed slot catalog.
func (s *Service) Catalog() *Catalog { return s.catalog }

// BookedSlots returns the set of time labels occupied by an active
// appointment for the doctor on the date. A missing doctor or zero date
// short-circuits to an empty set without a remote call.
func (s *Service) BookedSlots(ctx context.Context, doctorID string, date Date) (map[string]struct{}, error) {
	booked := make(map[string]struct{})
	if doctorID == "" || date.IsZero() {
		return booked, nil
	}

	appts, err := s.repo.ListByDoctorDate(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("list appointments for %s on %s: %w", doctorID, date, err)
	}
	for _, a := range appts {
		if a.Active() {
			booked[a.Time] = struct{}{}
		}
	}
	return booked, nil
}

// FreeSlots returns the catalog's labels, in catalog order, that are not
// occupied for the doctor on the date.
func (s *Service) FreeSlots(ctx context.Context, doctorID string, date Date) ([]string, error) {
	booked, err := s.BookedSlots(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	free := make([]string, 0, s.catalog.Len())
	for _, label := range s.catalog.Times() {
		if _, taken := booked[label]; !taken {
			free = append(free, label)
		}
	}
	return free, nil
}

// BookingRequest carries the fields of a patient booking action.
type BookingRequest struct {
	PatientID string `json:"patient_id"`
	DoctorID  string `json:"doctor_id"`
	Date      Date   `json:"date"`
	Time      string `json:"time"`
	Reason    string `json:"reason"`
	Notes     string `json:"notes"`
}

// Book creates a new pending appointment. It checks the duplicate-active-
// booking rule, then the slot-conflict rule, then issues a single store
// write. A failed write leaves no state behind; a conflict the store detects
// after the pre-checks passed surfaces as the matching sentinel.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if req.PatientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}
	if req.DoctorID == "" {
		return nil, fmt.Errorf("doctor_id is required")
	}
	if req.Date.IsZero() {
		return nil, fmt.Errorf("date is required")
	}
	if req.Reason == "" {
		return nil, ErrReasonRequired
	}
	if !s.catalog.Contains(req.Time) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSlot, req.Time)
	}

	existing, err := s.repo.ListByPatient(ctx, req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("list patient appointments: %w", err)
	}
	for _, a := range existing {
		if a.DoctorID == req.DoctorID && a.Active() {
			return nil, ErrDuplicateBooking
		}
	}

	booked, err := s.BookedSlots(ctx, req.DoctorID, req.Date)
	if err != nil {
		return nil, err
	}
	if _, taken := booked[req.Time]; taken {
		return nil, ErrSlotUnavailable
	}

	created, err := s.repo.Create(ctx, &Appointment{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Date:      req.Date,
		Time:      req.Time,
		Reason:    req.Reason,
		Notes:     req.Notes,
		Status:    StatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return created, nil
}

// SetStatus applies one legal transition to an appointment. An illegal
// request fails with ErrInvalidTransition and changes nothing.
func (s *Service) SetStatus(ctx context.Context, id string, newStatus Status) (*Appointment, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, newStatus)
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if !CanTransition(appt.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, newStatus)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, newStatus)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	return updated, nil
}

// ListForDoctor returns all of a doctor's appointments on a date.
func (s *Service) ListForDoctor(ctx context.Context, doctorID string, date Date) ([]*Appointment, error) {
	return s.repo.ListByDoctorDate(ctx, doctorID, date)
}

// ListForPatient returns all of a patient's appointments.
func (s *Service) ListForPatient(ctx context.Context, patientID string) ([]*Appointment, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

// Get returns one appointment by id.
func (s *Service) Get(ctx context.Context, id string) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}
