package entities

import (
	"fmt"
	"math"
	"time"
)

// Policy holds the planning constants and the behaviour switches of the core
type Policy struct {
	TrayCapacity  Quantity `mapstructure:"tray_capacity" json:"tray_capacity"`
	BoxSize       Quantity `mapstructure:"box_size" json:"box_size"`
	DefrostHours  float64  `mapstructure:"defrost_hours" json:"defrost_hours"`
	MinProveHours float64  `mapstructure:"min_prove_hours" json:"min_prove_hours"`
	WarnHours     float64  `mapstructure:"warn_hours" json:"warn_hours"`
	ExpireHours   float64  `mapstructure:"expire_hours" json:"expire_hours"`

	// StrictFrozenStock rejects releases that frozen stock cannot cover
	// instead of granting the shortfall and recording a restock box.
	StrictFrozenStock bool `mapstructure:"strict_frozen_stock" json:"strict_frozen_stock"`
	// EnforceDefrostComplete rejects AdvanceDefrostToProve before DefrostHours have elapsed.
	EnforceDefrostComplete bool `mapstructure:"enforce_defrost_complete" json:"enforce_defrost_complete"`
	// StrictValidation reports non-positive tray counts and unknown or misplaced
	// batch ids as errors rather than ignoring them.
	StrictValidation bool `mapstructure:"strict_validation" json:"strict_validation"`
}

// DefaultPolicy returns the reference constants with lenient behaviour
func DefaultPolicy() Policy {
	return Policy{
		TrayCapacity:  12,
		BoxSize:       70,
		DefrostHours:  2,
		MinProveHours: 48,
		WarnHours:     84,
		ExpireHours:   120,
	}
}

// Validate checks that the constants describe a usable pipeline
func (p Policy) Validate() error {
	if p.TrayCapacity <= 0 {
		return fmt.Errorf("%w: tray capacity must be positive, got %d", ErrInvalidPolicy, p.TrayCapacity)
	}
	if p.BoxSize < 0 {
		return fmt.Errorf("%w: box size cannot be negative, got %d", ErrInvalidPolicy, p.BoxSize)
	}
	if p.DefrostHours < 0 || p.MinProveHours < 0 {
		return fmt.Errorf("%w: defrost and prove hours cannot be negative", ErrInvalidPolicy)
	}
	if p.MinProveHours > p.WarnHours || p.WarnHours > p.ExpireHours {
		return fmt.Errorf("%w: expected min prove (%v) <= warn (%v) <= expire (%v) hours",
			ErrInvalidPolicy, p.MinProveHours, p.WarnHours, p.ExpireHours)
	}
	return nil
}

// LeadTimeHours is the defrost plus minimum prove time, the inbound planning horizon
func (p Policy) LeadTimeHours() float64 {
	return p.DefrostHours + p.MinProveHours
}

// Units converts a tray count into dough balls
func (p Policy) Units(trays int) Quantity {
	return Quantity(trays) * p.TrayCapacity
}

// MaxTrays is the largest tray count Units can convert without overflowing
func (p Policy) MaxTrays() int {
	return int(math.MaxInt64 / int64(p.TrayCapacity))
}

// Trays converts dough balls into whole trays, rounding down
func (p Policy) Trays(units Quantity) int {
	return int(units / p.TrayCapacity)
}

// Boxes estimates the freezer boxes holding units, rounding up. Zero BoxSize yields zero.
func (p Policy) Boxes(units Quantity) int {
	if p.BoxSize <= 0 || units <= 0 {
		return 0
	}
	boxes := units / p.BoxSize
	if units%p.BoxSize != 0 {
		boxes++
	}
	return int(boxes)
}

// DefrostDuration returns DefrostHours as a time.Duration
func (p Policy) DefrostDuration() time.Duration {
	return time.Duration(p.DefrostHours * float64(time.Hour))
}
