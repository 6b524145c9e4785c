package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrPrimaryResults     = errors.New("primary coupling results unavailable")
	ErrAlternativeResults = errors.New("alternative coupling results unavailable")
	ErrInvalidWireFormat  = errors.New("invalid graph wire format")
	ErrInvalidCatalog     = errors.New("invalid game catalog")

	// Graph errors
	ErrNotFound      = errors.New("resource not found")
	ErrGraphNotFound = fmt.Errorf("%w: graph", ErrNotFound)
	ErrNodeNotFound  = fmt.Errorf("%w: node", ErrNotFound)
	ErrUnknownNode   = errors.New("edge references unknown node")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewUnknownNodeError(source, target string) error {
	return fmt.Errorf("%w: %s -> %s", ErrUnknownNode, source, target)
}

func NewWireFormatError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidWireFormat, field, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInputError(err error) bool {
	return errors.Is(err, ErrPrimaryResults) ||
		errors.Is(err, ErrAlternativeResults) ||
		errors.Is(err, ErrInvalidWireFormat) ||
		errors.Is(err, ErrInvalidCatalog)
}
