package domain

import "fmt"

// Error types for consistent error handling across the module.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrSOAPFault is a SOAP 1.1 Fault returned in a response body.
type ErrSOAPFault struct {
	Code   string
	String string
	Detail string
}

func (e *ErrSOAPFault) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("soap fault [%s]: %s (%s)", e.Code, e.String, e.Detail)
	}
	return fmt.Sprintf("soap fault [%s]: %s", e.Code, e.String)
}

// ErrRemoteRejected indicates the SOAP service did not acknowledge a
// create or delete. The remote contract does not say why.
type ErrRemoteRejected struct {
	Operation string
}

func (e *ErrRemoteRejected) Error() string {
	return fmt.Sprintf("remote service rejected %s", e.Operation)
}
