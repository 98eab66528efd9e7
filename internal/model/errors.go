// Package model defines the domain entities of the ticket gate: tickets,
// payments and scanner credentials. Entities are immutable values; state
// transitions are methods that validate their guard and return a new value.
package model

import (
	"errors"
	"fmt"
)

// ErrInvalidOperation is returned by state transition methods whose guard
// does not hold, e.g. marking a USED ticket as used again or refunding a
// payment that was never approved. Callers that checked the corresponding
// CanBeX predicate beforehand should never see it.
var ErrInvalidOperation = errors.New("invalid operation")

func invalidOp(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, fmt.Sprintf(format, args...))
}
