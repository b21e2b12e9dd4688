// Package core provides the building blocks shared by every service in the
// catalog: the error taxonomy, the synchronous event bus, and the generic
// record filter engine.
package core

import (
	"errors"
	"fmt"
)

// ArgumentError reports a bad value supplied by the caller. Nothing has been
// mutated when one is returned.
type ArgumentError struct {
	Message string
}

func (e *ArgumentError) Error() string {
	return e.Message
}

// NewArgumentError formats a new ArgumentError.
func NewArgumentError(format string, args ...interface{}) error {
	return &ArgumentError{Message: fmt.Sprintf(format, args...)}
}

// OperationError reports a runtime precondition failure: entity not found,
// cutoff after target date, invalid cache file. Nothing has been mutated.
type OperationError struct {
	Message string
	Err     error
}

func (e *OperationError) Error() string {
	return e.Message
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// NewOperationError formats a new OperationError.
func NewOperationError(format string, args ...interface{}) error {
	return &OperationError{Message: fmt.Sprintf(format, args...)}
}

// WrapOperationError wraps an underlying error (typically I/O) as an
// OperationError with a human-readable message.
func WrapOperationError(err error, format string, args ...interface{}) error {
	return &OperationError{Message: fmt.Sprintf(format, args...) + ": " + err.Error(), Err: err}
}

// VetoError is raised by a check_dependencies subscriber that refuses the
// deletion of an entity it still references. Holder carries the identity of
// the refusing entity.
type VetoError struct {
	Holder  string
	Message string
}

func (e *VetoError) Error() string {
	return e.Message
}

// NewVetoError builds the veto raised by the holder of a reference to the
// entity being removed.
func NewVetoError(holder string) error {
	return &VetoError{
		Holder:  holder,
		Message: fmt.Sprintf("deletion refused: the object is still referenced by %s", holder),
	}
}

// IntegrityError reports a violated repository invariant, such as a reference
// field pointing at a code the repository does not hold. Fatal for the
// request.
type IntegrityError struct {
	Message string
}

func (e *IntegrityError) Error() string {
	return e.Message
}

// NewIntegrityError formats a new IntegrityError.
func NewIntegrityError(format string, args ...interface{}) error {
	return &IntegrityError{Message: fmt.Sprintf(format, args...)}
}

// IsArgument reports whether err is an ArgumentError.
func IsArgument(err error) bool {
	var target *ArgumentError
	return errors.As(err, &target)
}

// IsOperation reports whether err is an OperationError or a VetoError.
func IsOperation(err error) bool {
	var op *OperationError
	return errors.As(err, &op) || IsVeto(err)
}

// IsVeto reports whether err is a VetoError.
func IsVeto(err error) bool {
	var target *VetoError
	return errors.As(err, &target)
}

// IsIntegrity reports whether err is an IntegrityError.
func IsIntegrity(err error) bool {
	var target *IntegrityError
	return errors.As(err, &target)
}
