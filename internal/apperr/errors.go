// Package apperr defines the failure kinds surfaced by the scheduling core.
// Every error returned to a caller can be classified with KindOf; transport
// layers map kinds to status codes with HTTPStatus.
package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	// Validation.
	KindInvalidInstant Kind = "invalid_instant"
	KindPastInstant    Kind = "past_instant"
	KindInvalidTime    Kind = "invalid_time"
	KindOutOfHours     Kind = "out_of_hours"
	KindInvalidRange   Kind = "invalid_range"
	KindInvalidStatus  Kind = "invalid_status"

	// Conflict.
	KindSlotBlocked      Kind = "slot_blocked"
	KindDuplicateSameDay Kind = "duplicate_same_day"
	KindSlotTaken        Kind = "slot_taken"

	KindNotFound Kind = "not_found"

	// Storage / transport. Only these are safe to retry unchanged.
	KindBusy     Kind = "busy"
	KindInternal Kind = "internal"
)

// Sentinels for errors.Is. Matching is by kind only.
var (
	ErrInvalidInstant   = &Error{Kind: KindInvalidInstant, Message: "invalid date/time"}
	ErrPastInstant      = &Error{Kind: KindPastInstant, Message: "appointments cannot be scheduled in the past"}
	ErrInvalidTime      = &Error{Kind: KindInvalidTime, Message: "appointments must start on a 15 minute boundary (e.g. 09:00, 09:15, 09:30, 09:45)"}
	ErrOutOfHours       = &Error{Kind: KindOutOfHours, Message: "outside business hours, book between 08:00 and 17:45"}
	ErrInvalidRange     = &Error{Kind: KindInvalidRange, Message: "start date must not be after end date"}
	ErrInvalidStatus    = &Error{Kind: KindInvalidStatus, Message: "unknown appointment status"}
	ErrSlotBlocked      = &Error{Kind: KindSlotBlocked, Message: "this date/time is blocked"}
	ErrDuplicateSameDay = &Error{Kind: KindDuplicateSameDay, Message: "patient already has an appointment with this doctor on this day"}
	ErrSlotTaken        = &Error{Kind: KindSlotTaken, Message: "this time is already taken for the selected doctor"}
	ErrNotFound         = &Error{Kind: KindNotFound, Message: "not found"}
	ErrBusy             = &Error{Kind: KindBusy, Message: "schedule is being updated, please retry shortly"}
)

type Error struct {
	Kind    Kind
	Message string
	// Reason carries the block motive for KindSlotBlocked.
	Reason string
	// Field names the offending input when one validation kind covers
	// several inputs, e.g. "start_date" or "weekdays" for KindInvalidRange.
	Field string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Blocked builds a SlotBlocked error carrying the block reason.
func Blocked(reason string) *Error {
	return &Error{Kind: KindSlotBlocked, Message: ErrSlotBlocked.Message, Reason: reason}
}

// NotFound names the missing entity in the message.
func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func Invalid(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// InvalidField is Invalid tagged with the input it rejects.
func InvalidField(kind Kind, field, message string) *Error {
	return &Error{Kind: kind, Message: message, Field: field}
}

// Wrap attaches a cause to a copy of the sentinel.
func Wrap(sentinel *Error, cause error) *Error {
	cp := *sentinel
	cp.Err = cause
	return &cp
}

// KindOf returns the kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Retryable reports whether the caller may retry without changing input.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindBusy, KindInternal:
		return true
	}
	return false
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidInstant, KindPastInstant, KindInvalidTime, KindOutOfHours, KindInvalidRange, KindInvalidStatus:
		return http.StatusBadRequest
	case KindSlotBlocked, KindDuplicateSameDay, KindSlotTaken:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindBusy:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
