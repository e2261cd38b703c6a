package service

import (
	"errors"
	"fmt"
)

var (
	ErrCardNotFound       = errors.New("card not found")
	ErrOwnerNotFound      = errors.New("owner not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidOperation   = errors.New("invalid card operation")
	ErrInsufficientFunds  = errors.New("insufficient funds on sender card")
)

// OperationError is a domain rule violation. Every OperationError matches
// ErrInvalidOperation with errors.Is.
type OperationError struct {
	Reason string
}

func (e *OperationError) Error() string {
	return e.Reason
}

func (e *OperationError) Is(target error) bool {
	return target == ErrInvalidOperation
}

var (
	ErrAlreadyBlocked   = &OperationError{Reason: "card is already blocked"}
	ErrAlreadyActive    = &OperationError{Reason: "card is already active"}
	ErrCardExpired      = &OperationError{Reason: "card with an expired date cannot be activated"}
	ErrSenderInactive   = &OperationError{Reason: "sender card is inactive"}
	ErrReceiverInactive = &OperationError{Reason: "receiver card is inactive"}
	ErrSenderExpired    = &OperationError{Reason: "sender card has expired"}
	ErrReceiverExpired  = &OperationError{Reason: "receiver card has expired"}
)

func cardNotFound(id int64) error {
	return fmt.Errorf("card %d: %w", id, ErrCardNotFound)
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
