package scheduling

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

var validStatuses = map[Status]bool{
	StatusPending:   true,
	StatusConfirmed: true,
	StatusCancelled: true,
	StatusCompleted: true,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool { return validStatuses[s] }

// Active reports whether an appointment in this status occupies its slot and
// counts toward the one-active-per-patient/doctor rule.
func (s Status) Active() bool { return s == StatusPending || s == StatusConfirmed }

// Terminal reports whether no further transitions are permitted.
func (s Status) Terminal() bool { return s == StatusCancelled || s == StatusCompleted }

// transitions is the legal state table:
// pending → confirmed | cancelled, confirmed → cancelled | completed.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
}

// CanTransition reports whether from → to is a legal status change.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Date is a calendar date with no time component. It marshals as 2006-01-02
// and carries no timezone; the clinic runs on a single canonical clock.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a 2006-01-02 string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool { return d == Date{} }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Appointment is one booking of a doctor's slot by a patient. The id is
// opaque and assigned by the remote store at creation.
type Appointment struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	DoctorID  string    `json:"doctor_id"`
	Date      Date      `json:"date"`
	Time      string    `json:"time"`
	Reason    string    `json:"reason"`
	Notes     string    `json:"notes,omitempty"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Active reports whether the appointment currently occupies its slot.
func (a *Appointment) Active() bool { return a.Status.Active() }
