package ecs

import (
	"errors"
	"fmt"
)

var (
	// ErrDisposed is reported when mutating an entity that has been disposed.
	ErrDisposed = errors.New("entity is disposed")
	// ErrForeignComponent is reported when attaching a component registered with another world.
	ErrForeignComponent = errors.New("component belongs to another world")
)

// StateError describes an entity operation rejected because of the entity's state.
type StateError struct {
	Entity int
	Op     string
	Err    error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("ecs: %s entity %d: %v", e.Op, e.Entity, e.Err)
}

func (e *StateError) Unwrap() error { return e.Err }
