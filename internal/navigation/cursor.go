// Package navigation holds the pure cursor arithmetic for panels.  It
// performs no I/O: every function computes a candidate position and
// reports whether the move is valid, so callers can short-circuit
// before touching storage.  Out-of-range moves are no-ops rather than
// clamped positions or errors.
package navigation

// PageSize is the number of items shown per list page.
const PageSize = 5

// Kind enumerates the navigation intents a gateway can request.
type Kind int

const (
	// Previous moves one step back (one item, or one page in list view).
	Previous Kind = iota
	// Next moves one step forward.
	Next
	// Jump moves the single-item cursor directly to Move.Target.
	// It is not valid for list navigation.
	Jump
)

// Move is a navigation request: an intent plus, for jumps, the target
// position.
type Move struct {
	Kind   Kind
	Target int
}

// Step computes the next single-item cursor for a panel of the given
// length.  It returns the new cursor and true when the move lands on a
// valid position (1 <= cursor <= length), or the unchanged cursor and
// false when the move must be ignored.
func Step(cursor, length int, m Move) (int, bool) {
	next := cursor
	switch m.Kind {
	case Previous:
		next = cursor - 1
	case Next:
		next = cursor + 1
	case Jump:
		next = m.Target
	}
	if next < 1 || next > length {
		return cursor, false
	}
	return next, true
}

// ListStep computes the next list cursor (the first index of a 5-item
// page).  Only Previous and Next are meaningful in list view.  The
// lower bound check is deliberately `< 0`, not `< 1`: a candidate of 0
// is accepted, matching the long-standing panel behavior.
func ListStep(listCursor, length int, m Move) (int, bool) {
	next := listCursor
	switch m.Kind {
	case Previous:
		next = listCursor - PageSize
	case Next:
		next = listCursor + PageSize
	default:
		return listCursor, false
	}
	if next < 0 || next > length {
		return listCursor, false
	}
	return next, true
}

// ListStart derives the list cursor of the page containing the given
// single-item cursor, used when switching from single view to list
// view so the current item stays visible.
func ListStart(cursor int) int {
	return 1 + PageSize*((cursor-1)/PageSize)
}

// ListLength is the number of list pages for a panel of the given
// length, i.e. ceil(length / PageSize).
func ListLength(length int) int {
	if length <= 0 {
		return 0
	}
	return (length-1)/PageSize + 1
}
