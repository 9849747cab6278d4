package hashring

import (
	"errors"
	"fmt"
)

// ErrInvalidNode is returned when node does not satisfy Node.Validate().
var ErrInvalidNode = errors.New("hashring: invalid node")

// DuplicateNodeError is returned by Ring.Add() when a node with the same id
// is already registered. The ring is left untouched.
type DuplicateNodeError struct {
	ID string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("hashring: node %q already exists", e.ID)
}

// UnsupportedHashFunctionError is returned when hash strategy name is not
// known.
type UnsupportedHashFunctionError struct {
	Name string
}

func (e *UnsupportedHashFunctionError) Error() string {
	return fmt.Sprintf("hashring: unsupported hash function: %q", e.Name)
}
