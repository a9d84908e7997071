// Package policy contains admission-control decisions evaluated before
// any mutating store call.
package policy

import (
	"context"
	"errors"
)

// DefaultPanelLimit is the fixed ceiling of panels a single owner may
// hold at once.
const DefaultPanelLimit = 6

// ErrCapacityExceeded is returned when admitting a batch would push an
// owner past the panel ceiling.  It is surfaced to the owner verbatim;
// there is no retry.
var ErrCapacityExceeded = errors.New("panel capacity exceeded")

// PanelCounter reports how many panels an owner currently holds.  The
// panel repository satisfies this interface.
type PanelCounter interface {
	Count(ctx context.Context, ownerID uint64) (int, error)
}

// Capacity caps the number of panels per owner.  Admission is
// all-or-nothing: a batch that would exceed the limit is rejected as a
// whole even when the owner has headroom for a smaller one.
type Capacity struct {
	Limit  int
	Panels PanelCounter
}

// NewCapacity builds a Capacity policy over the given counter.  A
// non-positive limit falls back to DefaultPanelLimit.
func NewCapacity(limit int, panels PanelCounter) *Capacity {
	if limit <= 0 {
		limit = DefaultPanelLimit
	}
	return &Capacity{Limit: limit, Panels: panels}
}

// CanCreate reports whether the owner may create additional panels on
// top of what they already hold.  It returns false without error when
// the batch would exceed the ceiling; an error indicates the count
// itself could not be read.
func (p *Capacity) CanCreate(ctx context.Context, ownerID uint64, additional int) (bool, error) {
	current, err := p.Panels.Count(ctx, ownerID)
	if err != nil {
		return false, err
	}
	return current+additional <= p.Limit, nil
}
