package model

import (
	"fmt"
	"time"
)

// SortKey selects one of Booking.com's result orderings.  The raw value
// is passed through to the provider's `order` query parameter and is
// stored verbatim with the panel's criteria.
type SortKey string

const (
	SortPopularity     SortKey = "popularity"
	SortHomesFirst     SortKey = "upsort_bh"
	SortPrice          SortKey = "price"
	SortReviewAndPrice SortKey = "review_score_and_price"
	SortClass          SortKey = "class"
	SortClassAsc       SortKey = "class_asc"
	SortClassAndPrice  SortKey = "class_and_price"
	SortDistance       SortKey = "distance_from_search"
	SortTopReviewed    SortKey = "bayesian_review_score"
)

// SortKeyDescriptions maps every supported sort key to the label the
// provider shows for it.  Gateways may use these when presenting the
// sorting choice to users.
var SortKeyDescriptions = map[SortKey]string{
	SortPopularity:     "Top picks for long stays",
	SortHomesFirst:     "Homes & apartments first",
	SortPrice:          "Price (lowest first)",
	SortReviewAndPrice: "Best reviewed & lowest price",
	SortClass:          "Property rating (high to low)",
	SortClassAsc:       "Property rating (low to high)",
	SortClassAndPrice:  "Property rating and price",
	SortDistance:       "Distance From Downtown",
	SortTopReviewed:    "Top Reviewed",
}

// Valid reports whether the sort key is one of the supported orderings.
func (k SortKey) Valid() bool {
	_, ok := SortKeyDescriptions[k]
	return ok
}

// Party size and stay length bounds accepted by the provider's search form.
const (
	MaxAdults     = 30
	MaxChildren   = 30
	MaxRooms      = 30
	MaxChildAge   = 17
	MaxStayNights = 90
)

// SearchCriteria describes one materialized search: a single destination
// and a single check-in/check-out pair, together with the party details
// and sort preference shared by the whole form submission.  Each panel
// owns exactly one SearchCriteria.
//
// CheckIn and CheckOut are calendar dates (midnight UTC).
type SearchCriteria struct {
	Destination  string    // search_criteria.destination
	CheckIn      time.Time // search_criteria.check_in
	CheckOut     time.Time // search_criteria.check_out
	Adults       int       // search_criteria.adults
	Children     int       // search_criteria.children
	ChildrenAges []int     // criteria_children_ages rows, one per child
	Rooms        int       // search_criteria.rooms
	SortKey      SortKey   // search_criteria.sort_key
}

// Validate checks the criteria against the provider's accepted ranges.
// It returns a descriptive error for the first violation found.
func (c SearchCriteria) Validate() error {
	if c.Destination == "" {
		return fmt.Errorf("destination is required")
	}
	if c.Adults < 1 || c.Adults > MaxAdults {
		return fmt.Errorf("adults must be between 1 and %d", MaxAdults)
	}
	if c.Children < 0 || c.Children > MaxChildren {
		return fmt.Errorf("children must be between 0 and %d", MaxChildren)
	}
	if len(c.ChildrenAges) != c.Children {
		return fmt.Errorf("expected %d children ages, got %d", c.Children, len(c.ChildrenAges))
	}
	for _, age := range c.ChildrenAges {
		if age < 0 || age > MaxChildAge {
			return fmt.Errorf("child age must be between 0 and %d", MaxChildAge)
		}
	}
	if c.Rooms < 1 || c.Rooms > MaxRooms {
		return fmt.Errorf("rooms must be between 1 and %d", MaxRooms)
	}
	if !c.SortKey.Valid() {
		return fmt.Errorf("unknown sort key %q", c.SortKey)
	}
	if !c.CheckOut.After(c.CheckIn) {
		return fmt.Errorf("check-out must be after check-in")
	}
	if c.CheckOut.After(c.CheckIn.AddDate(0, 0, MaxStayNights)) {
		return fmt.Errorf("stay cannot be longer than %d nights", MaxStayNights)
	}
	return nil
}

// DateOnly is the wire and storage format for calendar dates.
const DateOnly = "2006-01-02"
