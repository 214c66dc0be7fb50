package scheduling

import (
	"errors"
	"fmt"
	"strings"
)

// FieldViolation is a single failed input constraint, reported with the field
// that violated it so callers can render targeted messages.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violated constraint found in the input. It is
// always produced before any repository access.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type validator struct {
	violations []FieldViolation
}

func (v *validator) fail(field, message string) {
	v.violations = append(v.violations, FieldViolation{Field: field, Message: message})
}

func (v *validator) err() error {
	if len(v.violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: v.violations}
}

// NotFoundError marks a missing referenced resource.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " does not exist"
}

var ErrUserNotFound = &NotFoundError{Resource: "user"}

// ErrPastDate rejects scheduling attempts for instants already behind the clock.
var ErrPastDate = errors.New("cannot schedule a meeting in the past")

// ConflictError marks a business-rule collision with existing state.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

var (
	ErrSlotTaken     = &ConflictError{Reason: "this date is already scheduled"}
	ErrUsernameTaken = &ConflictError{Reason: "username already taken"}
)

// UpstreamError wraps repository or external collaborator failures so callers
// can tell them apart from input and business-rule errors.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// upstream passes domain errors through untouched and wraps everything else.
func upstream(op string, err error) error {
	var nf *NotFoundError
	var cf *ConflictError
	var vl *ValidationError
	if errors.As(err, &nf) || errors.As(err, &cf) || errors.As(err, &vl) || errors.Is(err, ErrPastDate) {
		return err
	}
	return &UpstreamError{Op: op, Err: err}
}
