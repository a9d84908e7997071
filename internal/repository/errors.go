// Package repository implements the persistent panel store on top of
// database/sql.  Lookups that resolve to nothing return (nil, nil)
// rather than an error: a stale external reference is the normal
// signal that a panel is no longer active, and callers are expected to
// check for absence.  Genuine storage failures are wrapped and
// propagated, never swallowed, since they mean the persistence
// invariants may be violated.
package repository

import "errors"

// ErrInvalidSort is returned when an aggregate report is requested
// with an ordering the store does not know.  Handlers should translate
// this into an HTTP 400 response.
var ErrInvalidSort = errors.New("invalid aggregate sort")
