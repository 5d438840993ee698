package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure classes a ticket submission can hit.
// Typed errors below match these through errors.Is.
var (
	ErrUnknownDepartment = errors.New("unknown department")
	ErrStoreIO           = errors.New("department store I/O failed")
	ErrExternalService   = errors.New("external service failed")
	ErrInvalidTicket     = errors.New("invalid ticket")
)

// UnknownDepartmentError is returned when the classifier answers with a label
// outside the department table. It is never retried.
type UnknownDepartmentError struct {
	Label string
	Known []string
}

func (e *UnknownDepartmentError) Error() string {
	return fmt.Sprintf("unknown department %q (known: %s)", e.Label, strings.Join(e.Known, ", "))
}

// Is makes errors.Is(err, ErrUnknownDepartment) work
func (e *UnknownDepartmentError) Is(target error) bool {
	return target == ErrUnknownDepartment
}

// StoreIOError wraps a read or write failure of a department file
type StoreIOError struct {
	Op         string // "load" or "save"
	Department string
	Path       string
	Err        error
}

func (e *StoreIOError) Error() string {
	return fmt.Sprintf("%s department %q (%s): %v", e.Op, e.Department, e.Path, e.Err)
}

func (e *StoreIOError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrStoreIO) work
func (e *StoreIOError) Is(target error) bool {
	return target == ErrStoreIO
}

// ExternalServiceError wraps a failure of the classifier or embedding provider
type ExternalServiceError struct {
	Service string // "classifier" or "embedding"
	Op      string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrExternalService) work
func (e *ExternalServiceError) Is(target error) bool {
	return target == ErrExternalService
}

// WrapExternal wraps err as an ExternalServiceError unless it already is one
func WrapExternal(service, op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *ExternalServiceError
	if errors.As(err, &existing) {
		return err
	}
	return &ExternalServiceError{Service: service, Op: op, Err: err}
}
