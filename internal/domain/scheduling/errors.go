package scheduling

import "errors"

var (
	// ErrDuplicateBooking means the patient already holds a pending or
	// confirmed appointment with that doctor.
	ErrDuplicateBooking = errors.New("patient already has an active appointment with this doctor")

	// ErrSlotUnavailable means the requested (doctor, date, time) is occupied,
	// detected either by the local pre-check or by the store's write rejection.
	ErrSlotUnavailable = errors.New("requested slot is not available")

	// ErrInvalidTransition means the requested status change or reschedule is
	// not legal for the appointment's current state.
	ErrInvalidTransition = errors.New("invalid appointment status transition")

	// ErrAppointmentNotFound means the appointment id no longer exists in the store.
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrInvalidSlot means the requested time label is not in the slot catalog.
	ErrInvalidSlot = errors.New("time is not a valid slot label")

	// ErrReasonRequired means the booking carried no reason text.
	ErrReasonRequired = errors.New("reason is required")
)
