package entities

import "errors"

// Sentinel errors surfaced by the inventory core
var (
	ErrInvalidQuantity   = errors.New("dough: invalid quantity")
	ErrBatchNotFound     = errors.New("dough: batch not found")
	ErrDuplicateBatch    = errors.New("dough: duplicate batch id")
	ErrInsufficientStock = errors.New("dough: insufficient stock")
	ErrInvalidTransition = errors.New("dough: invalid stage transition")
	ErrInvalidStage      = errors.New("dough: invalid stage")
	ErrInvalidPolicy     = errors.New("dough: invalid policy")

	// ErrNegativeQuantity marks an invariant violation. It is raised by panic, never returned.
	ErrNegativeQuantity = errors.New("dough: batch quantity would go negative")
)
