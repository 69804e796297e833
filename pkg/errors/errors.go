package errors

import (
	"errors"
	"fmt"
)

// ResourceNotFoundError is returned when a requested record does not exist.
type ResourceNotFoundError struct {
	Kind string
	ID   string
}

func (e *ResourceNotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Kind)
	}
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func NewRunNotFoundError(id string) error {
	return &ResourceNotFoundError{Kind: "run", ID: id}
}

func IsResourceNotFoundError(err error) bool {
	var e *ResourceNotFoundError
	return errors.As(err, &e)
}

// RunNotActiveError is returned when cancelling a run that already finished.
type RunNotActiveError struct {
	ID     string
	Status string
}

func (e *RunNotActiveError) Error() string {
	return fmt.Sprintf("run %q is not running (status %s)", e.ID, e.Status)
}

func NewRunNotActiveError(id, status string) error {
	return &RunNotActiveError{ID: id, Status: status}
}

func IsRunNotActiveError(err error) bool {
	var e *RunNotActiveError
	return errors.As(err, &e)
}

// InvalidParameterError reports a request rejected before any work started.
type InvalidParameterError struct {
	Name   string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Name, e.Reason)
}

func NewInvalidParameterError(name, format string, args ...any) error {
	return &InvalidParameterError{Name: name, Reason: fmt.Sprintf(format, args...)}
}

func IsInvalidParameterError(err error) bool {
	var e *InvalidParameterError
	return errors.As(err, &e)
}

// ServiceClosedError is returned by a service after Close.
type ServiceClosedError struct {
	Service string
}

func (e *ServiceClosedError) Error() string {
	return fmt.Sprintf("%s service is closed", e.Service)
}

func NewServiceClosedError(service string) error {
	return &ServiceClosedError{Service: service}
}

func IsServiceClosedError(err error) bool {
	var e *ServiceClosedError
	return errors.As(err, &e)
}
