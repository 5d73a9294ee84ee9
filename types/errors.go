package types

import (
	"errors"
	"fmt"

	"github.com/vechain/thor/v2/thor"
)

// Error kinds. Every typed error below unwraps to one of these so callers can
// match the kind with errors.Is and read the payload with errors.As.
var (
	ErrAddressAlreadyAdded       = errors.New("address already added")
	ErrInvalidIndex              = errors.New("invalid index")
	ErrInvalidSelectionCount     = errors.New("invalid selection count")
	ErrUnauthorizedCallback      = errors.New("unauthorized callback")
	ErrUnknownOrDuplicateRequest = errors.New("unknown or duplicate request")
	ErrWordCountMismatch         = errors.New("random word count mismatch")
)

type AddressAlreadyAddedError struct {
	Address thor.Address
}

func (e *AddressAlreadyAddedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrAddressAlreadyAdded, e.Address)
}

func (e *AddressAlreadyAddedError) Unwrap() error { return ErrAddressAlreadyAdded }

type InvalidIndexError struct {
	Index int
}

func (e *InvalidIndexError) Error() string {
	return fmt.Sprintf("%s: %d", ErrInvalidIndex, e.Index)
}

func (e *InvalidIndexError) Unwrap() error { return ErrInvalidIndex }

type InvalidSelectionCountError struct {
	Count     int
	Available int
}

func (e *InvalidSelectionCountError) Error() string {
	return fmt.Sprintf("%s: %d (available %d)", ErrInvalidSelectionCount, e.Count, e.Available)
}

func (e *InvalidSelectionCountError) Unwrap() error { return ErrInvalidSelectionCount }

type UnauthorizedCallbackError struct {
	Caller thor.Address
}

func (e *UnauthorizedCallbackError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnauthorizedCallback, e.Caller)
}

func (e *UnauthorizedCallbackError) Unwrap() error { return ErrUnauthorizedCallback }

type UnknownOrDuplicateRequestError struct {
	RequestID RequestID
}

func (e *UnknownOrDuplicateRequestError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnknownOrDuplicateRequest, e.RequestID)
}

func (e *UnknownOrDuplicateRequestError) Unwrap() error { return ErrUnknownOrDuplicateRequest }

type WordCountMismatchError struct {
	RequestID RequestID
	Expected  int
	Got       int
}

func (e *WordCountMismatchError) Error() string {
	return fmt.Sprintf("%s: request %s expected %d, got %d", ErrWordCountMismatch, e.RequestID, e.Expected, e.Got)
}

func (e *WordCountMismatchError) Unwrap() error { return ErrWordCountMismatch }
