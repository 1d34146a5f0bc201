package scheduling

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/clinicdesk/clinicdesk/internal/platform/store"
)

// HTTPRepository implements Repository against the remote clinic store.
type HTTPRepository struct {
	client *store.Client
}

// NewHTTPRepository creates a store-backed appointment repository.
func NewHTTPRepository(client *store.Client) *HTTPRepository {
	return &HTTPRepository{client: client}
}

func (r *HTTPRepository) ListByDoctorDate(ctx context.Context, doctorID string, date Date) ([]*Appointment, error) {
	q := url.Values{}
	q.Set("doctor", doctorID)
	q.Set("date", date.String())

	var out []*Appointment
	if err := r.client.Get(ctx, "/appointments", q, &out); err != nil {
		return nil, mapRemoteError(err)
	}
	return out, nil
}

func (r *HTTPRepository) ListByPatient(ctx context.Context, patientID string) ([]*Appointment, error) {
	q := url.Values{}
	q.Set("patient", patientID)

	var out []*Appointment
	if err := r.client.Get(ctx, "/appointments", q, &out); err != nil {
		return nil, mapRemoteError(err)
	}
	return out, nil
}

func (r *HTTPRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	var out Appointment
	if err := r.client.Get(ctx, "/appointments/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, mapRemoteError(err)
	}
	return &out, nil
}

type createRequest struct {
	PatientID string `json:"patientId"`
	DoctorID  string `json:"doctorId"`
	Date      Date   `json:"date"`
	Time      string `json:"time"`
	Reason    string `json:"reason"`
	Notes     string `json:"notes,omitempty"`
}

func (r *HTTPRepository) Create(ctx context.Context, a *Appointment) (*Appointment, error) {
	req := createRequest{
		PatientID: a.PatientID,
		DoctorID:  a.DoctorID,
		Date:      a.Date,
		Time:      a.Time,
		Reason:    a.Reason,
		Notes:     a.Notes,
	}

	var out Appointment
	if err := r.client.Post(ctx, "/appointments", req, &out); err != nil {
		return nil, mapRemoteError(err)
	}
	return &out, nil
}

func (r *HTTPRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Appointment, error) {
	body := map[string]Status{"status": status}

	var out Appointment
	path := "/appointments/" + url.PathEscape(id) + "/status"
	if err := r.client.Put(ctx, path, body, &out); err != nil {
		return nil, mapRemoteError(err)
	}
	return &out, nil
}

type rescheduleStoreRequest struct {
	Date   Date   `json:"date"`
	Time   string `json:"time"`
	Reason string `json:"reason"`
	Notes  string `json:"notes,omitempty"`
}

func (r *HTTPRepository) Reschedule(ctx context.Context, id string, date Date, slot, reason, notes string) (*Appointment, error) {
	req := rescheduleStoreRequest{Date: date, Time: slot, Reason: reason, Notes: notes}

	var out Appointment
	path := "/appointments/" + url.PathEscape(id) + "/reschedule"
	if err := r.client.Put(ctx, path, req, &out); err != nil {
		return nil, mapRemoteError(err)
	}
	return &out, nil
}

// mapRemoteError converts store rejections into the scheduling sentinels.
// Transport failures and 5xx pass through as store.ErrUnavailable.
func mapRemoteError(err error) error {
	var remote *store.RemoteError
	if !errors.As(err, &remote) {
		return err
	}
	switch remote.Code {
	case store.CodeSlotConflict:
		return wrapRemote(ErrSlotUnavailable, remote)
	case store.CodeDuplicateBooking:
		return wrapRemote(ErrDuplicateBooking, remote)
	case store.CodeInvalidTransition:
		return wrapRemote(ErrInvalidTransition, remote)
	case store.CodeNotFound:
		return ErrAppointmentNotFound
	default:
		return err
	}
}

func wrapRemote(sentinel error, remote *store.RemoteError) error {
	if remote.Details == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, remote.Details)
}
