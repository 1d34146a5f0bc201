package scheduling

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/store"
	"github.com/clinicdesk/clinicdesk/pkg/pagination"
)

type Handler struct {
	svc     *Service
	resched *Rescheduler
}

func NewHandler(svc *Service, resched *Rescheduler) *Handler {
	return &Handler{svc: svc, resched: resched}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/slots", h.ListSlots)
	api.GET("/appointments", h.ListAppointments)
	api.GET("/appointments/:id", h.GetAppointment)

	api.POST("/appointments", h.BookAppointment, auth.RequireRole(auth.RolePatient))
	api.PUT("/appointments/:id/status", h.UpdateStatus)
	api.PUT("/appointments/:id/reschedule", h.Reschedule)
}

type slotsResponse struct {
	Available []string `json:"available"`
	Booked    []string `json:"booked"`
	Free      []string `json:"free"`
}

func (h *Handler) ListSlots(c echo.Context) error {
	doctorID := c.QueryParam("doctor_id")
	var date Date
	if raw := c.QueryParam("date"); raw != "" {
		var err error
		if date, err = ParseDate(raw); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		}
	}

	booked, err := h.svc.BookedSlots(c.Request().Context(), doctorID, date)
	if err != nil {
		return mapError(err)
	}

	resp := slotsResponse{
		Available: h.svc.Catalog().Times(),
		Booked:    make([]string, 0, len(booked)),
		Free:      make([]string, 0, h.svc.Catalog().Len()),
	}
	for _, label := range resp.Available {
		if _, taken := booked[label]; taken {
			resp.Booked = append(resp.Booked, label)
		} else {
			resp.Free = append(resp.Free, label)
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	ctx := c.Request().Context()
	page := pagination.FromContext(c)

	var appts []*Appointment
	var err error

	switch {
	case c.QueryParam("doctor_id") != "":
		if !auth.HasRole(ctx, auth.RoleDoctor) {
			return echo.NewHTTPError(http.StatusForbidden, "doctor listing requires the doctor role")
		}
		var date Date
		if raw := c.QueryParam("date"); raw != "" {
			if date, err = ParseDate(raw); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
			}
		}
		appts, err = h.svc.ListForDoctor(ctx, c.QueryParam("doctor_id"), date)
	case c.QueryParam("patient_id") != "":
		patientID := c.QueryParam("patient_id")
		if !auth.HasRole(ctx, auth.RoleDoctor) && patientID != auth.UserIDFromContext(ctx) {
			return echo.NewHTTPError(http.StatusForbidden, "patients may only list their own appointments")
		}
		appts, err = h.svc.ListForPatient(ctx, patientID)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "doctor_id or patient_id is required")
	}
	if err != nil {
		return mapError(err)
	}

	start, end := page.Slice(len(appts))
	return c.JSON(http.StatusOK, pagination.NewResponse(appts[start:end], len(appts), page.Limit, page.Offset))
}

func (h *Handler) GetAppointment(c echo.Context) error {
	ctx := c.Request().Context()
	appt, err := h.svc.Get(ctx, c.Param("id"))
	if err != nil {
		return mapError(err)
	}
	if !auth.HasRole(ctx, auth.RoleDoctor) && appt.PatientID != auth.UserIDFromContext(ctx) {
		return echo.NewHTTPError(http.StatusForbidden, "not your appointment")
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) BookAppointment(c echo.Context) error {
	var req BookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if req.PatientID == "" {
		req.PatientID = auth.UserIDFromContext(ctx)
	}
	if !auth.HasRole(ctx, auth.RoleAdmin) && req.PatientID != auth.UserIDFromContext(ctx) {
		return echo.NewHTTPError(http.StatusForbidden, "patients book for themselves")
	}

	appt, err := h.svc.Book(ctx, req)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, appt)
}

type statusRequest struct {
	Status Status `json:"status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if !auth.HasRole(ctx, auth.RoleDoctor) {
		// Patients may only cancel, and only their own appointment.
		if req.Status != StatusCancelled {
			return echo.NewHTTPError(http.StatusForbidden, "patients may only cancel")
		}
		appt, err := h.svc.Get(ctx, c.Param("id"))
		if err != nil {
			return mapError(err)
		}
		if appt.PatientID != auth.UserIDFromContext(ctx) {
			return echo.NewHTTPError(http.StatusForbidden, "not your appointment")
		}
	}

	appt, err := h.svc.SetStatus(ctx, c.Param("id"), req.Status)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

type rescheduleRequest struct {
	Date Date   `json:"date"`
	Time string `json:"time"`
}

func (h *Handler) Reschedule(c echo.Context) error {
	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if !auth.HasRole(ctx, auth.RoleDoctor) {
		appt, err := h.svc.Get(ctx, c.Param("id"))
		if err != nil {
			return mapError(err)
		}
		if appt.PatientID != auth.UserIDFromContext(ctx) {
			return echo.NewHTTPError(http.StatusForbidden, "not your appointment")
		}
	}

	appt, err := h.resched.Reschedule(ctx, c.Param("id"), req.Date, req.Time)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, appt)
}

// mapError converts domain and store errors to HTTP responses. Conflicts
// reported by the remote store map the same way as ones caught locally.
func mapError(err error) error {
	switch {
	case errors.Is(err, ErrDuplicateBooking),
		errors.Is(err, ErrSlotUnavailable),
		errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrAppointmentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrInvalidSlot), errors.Is(err, ErrReasonRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrUnavailable):
		return echo.NewHTTPError(http.StatusBadGateway, "clinic store unavailable")
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
