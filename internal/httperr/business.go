package httperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ===============================
// Typed errors
// ===============================

// Coded is implemented by every error this package knows how to render.
type Coded interface {
	error
	Code() string
	Status() int
}

type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s %v", e.Message, e.Fields)
}

func (e *ValidationError) Code() string { return "validation_error" }
func (e *ValidationError) Status() int  { return http.StatusBadRequest }

type ConflictError struct {
	Reason  string
	Message string
}

func (e *ConflictError) Error() string { return "conflict: " + e.Reason }
func (e *ConflictError) Code() string  { return e.Reason }
func (e *ConflictError) Status() int   { return http.StatusConflict }

type InvalidTransitionError struct {
	From   string
	To     string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *InvalidTransitionError) Code() string { return "invalid_transition" }
func (e *InvalidTransitionError) Status() int  { return http.StatusConflict }

type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }
func (e *NotFoundError) Code() string  { return e.Resource + "_not_found" }
func (e *NotFoundError) Status() int   { return http.StatusNotFound }

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return "forbidden: " + e.Message }
func (e *ForbiddenError) Code() string  { return "forbidden" }
func (e *ForbiddenError) Status() int   { return http.StatusForbidden }

type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string { return "unauthorized: " + e.Reason }
func (e *UnauthorizedError) Code() string  { return e.Reason }
func (e *UnauthorizedError) Status() int   { return http.StatusUnauthorized }

// PersistenceError wraps a store failure. The cause is logged, never rendered.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }
func (e *PersistenceError) Code() string  { return "persistence_error" }
func (e *PersistenceError) Status() int   { return http.StatusServiceUnavailable }

// ===============================
// Constructors
// ===============================

func Validation(message string, fields map[string]string) error {
	return &ValidationError{Message: message, Fields: fields}
}

func InvalidField(field, problem string) error {
	return &ValidationError{
		Message: "invalid request",
		Fields:  map[string]string{field: problem},
	}
}

func Conflict(reason, message string) error {
	return &ConflictError{Reason: reason, Message: message}
}

func SlotUnavailable() error {
	return Conflict("slot_unavailable", "Slot no longer available.")
}

func InvalidTransition(from, to, reason string) error {
	return &InvalidTransitionError{From: from, To: to, Reason: reason}
}

func NotFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

func Forbidden(message string) error {
	return &ForbiddenError{Message: message}
}

func Unauthorized(reason string) error {
	return &UnauthorizedError{Reason: reason}
}

func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var coded Coded
	if errors.As(err, &coded) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// ===============================
// Predicates
// ===============================

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

func IsInvalidTransition(err error) bool {
	var e *InvalidTransitionError
	return errors.As(err, &e)
}

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsForbidden(err error) bool {
	var e *ForbiddenError
	return errors.As(err, &e)
}

func IsPersistence(err error) bool {
	var e *PersistenceError
	return errors.As(err, &e)
}

func IsUnauthorized(err error) bool {
	var e *UnauthorizedError
	return errors.As(err, &e)
}
