package scheduling

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
)

func authedRequest(method, target, body, userID string, roles ...string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	ctx := req.Context()
	ctx = context.WithValue(ctx, auth.UserIDKey, userID)
	ctx = context.WithValue(ctx, auth.UserRolesKey, roles)
	return req.WithContext(ctx)
}

func newTestHandler(repo *mockRepo) *Handler {
	catalog := DefaultCatalog()
	return NewHandler(NewService(catalog, repo), NewRescheduler(catalog, repo))
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		t.Fatal("expected an HTTP error")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T: %v", err, err)
	}
	return httpErr.Code
}

func TestListSlots(t *testing.T) {
	repo := newMockRepo()
	date := testDate(t, "2024-06-03")
	repo.add(&Appointment{PatientID: "p1", DoctorID: "d1", Date: date, Time: "09:00", Status: StatusConfirmed})

	e := echo.New()
	req := authedRequest(http.MethodGet, "/api/v1/slots?doctor_id=d1&date=2024-06-03", "", "p2", auth.RolePatient)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := newTestHandler(repo).ListSlots(c); err != nil {
		t.Fatalf("ListSlots: %v", err)
	}

	var resp slotsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Available) != 16 {
		t.Errorf("expected 16 available labels, got %d", len(resp.Available))
	}
	if len(resp.Booked) != 1 || resp.Booked[0] != "09:00" {
		t.Errorf("booked = %v", resp.Booked)
	}
	if len(resp.Free) != 15 {
		t.Errorf("expected 15 free, got %d", len(resp.Free))
	}
}

func TestListSlots_BadDate(t *testing.T) {
	e := echo.New()
	req := authedRequest(http.MethodGet, "/api/v1/slots?doctor_id=d1&date=junk", "", "p1", auth.RolePatient)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := newTestHandler(newMockRepo()).ListSlots(c)
	if got := httpStatus(t, err); got != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", got)
	}
}

func TestBookAppointment_Created(t *testing.T) {
	repo := newMockRepo()
	e := echo.New()
	body := `{"doctor_id":"d1","date":"2024-06-03","time":"10:00","reason":"checkup"}`
	req := authedRequest(http.MethodPost, "/api/v1/appointments", body, "p1", auth.RolePatient)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := newTestHandler(repo).BookAppointment(c); err != nil {
		t.Fatalf("BookAppointment: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var appt Appointment
	if err := json.Unmarshal(rec.Body.Bytes(), &appt); err != nil {
		t.Fatal(err)
	}
	if appt.PatientID != "p1" {
		t.Errorf("patient id defaults to the caller, got %q", appt.PatientID)
	}
	if appt.Status != StatusPending {
		t.Errorf("expected pending, got %s", appt.Status)
	}
}

func TestBookAppointment_Conflict(t *testing.T) {
	repo := newMockRepo()
	date := testDate(t, "2024-06-03")
	repo.add(&Appointment{PatientID: "p9", DoctorID: "d1", Date: date, Time: "10:00", Status: StatusConfirmed})

	e := echo.New()
	body := `{"doctor_id":"d1","date":"2024-06-03","time":"10:00","reason":"checkup"}`
	req := authedRequest(http.MethodPost, "/api/v1/appointments", body, "p1", auth.RolePatient)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := newTestHandler(repo).BookAppointment(c)
	if got := httpStatus(t, err); got != http.StatusConflict {
		t.Fatalf("expected 409, got %d", got)
	}
}

func TestBookAppointment_ForAnotherPatient(t *testing.T) {
	e := echo.New()
	body := `{"patient_id":"p2","doctor_id":"d1","date":"2024-06-03","time":"10:00","reason":"checkup"}`
	req := authedRequest(http.MethodPost, "/api/v1/appointments", body, "p1", auth.RolePatient)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := newTestHandler(newMockRepo()).BookAppointment(c)
	if got := httpStatus(t, err); got != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", got)
	}
}

func TestUpdateStatus_DoctorConfirms(t *testing.T) {
	repo := newMockRepo()
	a := repo.add(&Appointment{PatientID: "p1", DoctorID: "d1", Status: StatusPending})

	e := echo.New()
	req := authedRequest(http.MethodPut, "/", `{"status":"confirmed"}`, "d1", auth.RoleDoctor)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID)

	if err := newTestHandler(repo).UpdateStatus(c); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if repo.appts[a.ID].Status != StatusConfirmed {
		t.Errorf("got %s", repo.appts[a.ID].Status)
	}
}

func TestUpdateStatus_PatientMayOnlyCancel(t *testing.T) {
	repo := newMockRepo()
	a := repo.add(&Appointment{PatientID: "p1", DoctorID: "d1", Status: StatusPending})
	h := newTestHandler(repo)
	e := echo.New()

	req := authedRequest(http.MethodPut, "/", `{"status":"confirmed"}`, "p1", auth.RolePatient)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID)
	if got := httpStatus(t, h.UpdateStatus(c)); got != http.StatusForbidden {
		t.Fatalf("confirm by patient: expected 403, got %d", got)
	}

	req = authedRequest(http.MethodPut, "/", `{"status":"cancelled"}`, "p1", auth.RolePatient)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID)
	if err := h.UpdateStatus(c); err != nil {
		t.Fatalf("cancel by patient: %v", err)
	}
}

func TestUpdateStatus_PatientCannotCancelOthers(t *testing.T) {
	repo := newMockRepo()
	a := repo.add(&Appointment{PatientID: "p1", DoctorID: "d1", Status: StatusPending})

	e := echo.New()
	req := authedRequest(http.MethodPut, "/", `{"status":"cancelled"}`, "p2", auth.RolePatient)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID)

	if got := httpStatus(t, newTestHandler(repo).UpdateStatus(c)); got != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", got)
	}
}

func TestUpdateStatus_IllegalTransition(t *testing.T) {
	repo := newMockRepo()
	a := repo.add(&Appointment{PatientID: "p1", DoctorID: "d1", Status: StatusCompleted})

	e := echo.New()
	req := authedRequest(http.MethodPut, "/", `{"status":"cancelled"}`, "d1", auth.RoleDoctor)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID)

	if got := httpStatus(t, newTestHandler(repo).UpdateStatus(c)); got != http.StatusConflict {
		t.Fatalf("expected 409, got %d", got)
	}
}

func TestUpdateStatus_NotFound(t *testing.T) {
	e := echo.New()
	req := authedRequest(http.MethodPut, "/", `{"status":"confirmed"}`, "d1", auth.RoleDoctor)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("missing")

	if got := httpStatus(t, newTestHandler(newMockRepo()).UpdateStatus(c)); got != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", got)
	}
}

func TestReschedule_Handler(t *testing.T) {
	repo := newMockRepo()
	a := repo.add(&Appointment{PatientID: "p1", DoctorID: "d1", Date: testDate(t, "2024-06-03"), Time: "10:00", Status: StatusConfirmed})

	e := echo.New()
	req := authedRequest(http.MethodPut, "/", `{"date":"2024-06-10","time":"11:00"}`, "p1", auth.RolePatient)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID)

	if err := newTestHandler(repo).Reschedule(c); err != nil {
		t.Fatalf("Reschedule: %v", err)
	}

	got := repo.appts[a.ID]
	if got.Time != "11:00" || got.Date != testDate(t, "2024-06-10") {
		t.Errorf("got %s %s", got.Date, got.Time)
	}
}

func TestListAppointments_PatientSeesOwnOnly(t *testing.T) {
	repo := newMockRepo()
	repo.add(&Appointment{PatientID: "p1", DoctorID: "d1", Status: StatusPending})
	h := newTestHandler(repo)
	e := echo.New()

	req := authedRequest(http.MethodGet, "/api/v1/appointments?patient_id=p1", "", "p1", auth.RolePatient)
	rec := httptest.NewRecorder()
	if err := h.ListAppointments(e.NewContext(req, rec)); err != nil {
		t.Fatalf("own listing: %v", err)
	}

	req = authedRequest(http.MethodGet, "/api/v1/appointments?patient_id=p1", "", "p2", auth.RolePatient)
	rec = httptest.NewRecorder()
	err := h.ListAppointments(e.NewContext(req, rec))
	if got := httpStatus(t, err); got != http.StatusForbidden {
		t.Fatalf("foreign listing: expected 403, got %d", got)
	}
}

func TestListAppointments_DoctorListingRequiresRole(t *testing.T) {
	e := echo.New()
	req := authedRequest(http.MethodGet, "/api/v1/appointments?doctor_id=d1", "", "p1", auth.RolePatient)
	rec := httptest.NewRecorder()

	err := newTestHandler(newMockRepo()).ListAppointments(e.NewContext(req, rec))
	if got := httpStatus(t, err); got != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", got)
	}
}
