// Package refresh implements the panel lifecycle engine: the ordered
// refresh state machine (expiry check, cooldown check, fetch, reconcile), the
// batch creation of panels from a form submission, and the concurrent
// dispatch of fetches on the shared worker pool.
package refresh

import (
	"context"
	"time"

	"github.com/iliyamo/hotel-info-panels/internal/model"
	"github.com/iliyamo/hotel-info-panels/internal/queue"
)

// Fetcher executes one search against the listing provider and returns
// the items in the provider's ranking for the criteria's sort key.  An
// empty result means "no data currently available"; the contract does
// not distinguish provider-side zero results from a failed fetch, and
// implementations are expected to enforce their own timeout rather
// than hang.  The call blocks and is always off-loaded to the worker
// pool by the orchestrator.
type Fetcher interface {
	Fetch(ctx context.Context, c model.SearchCriteria) ([]model.Item, error)
}

// Store is the slice of the panel repository the orchestrator needs.
// *repository.PanelRepo satisfies it.
type Store interface {
	Create(ctx context.Context, ownerID uint64, externalRef string, c model.SearchCriteria, items []model.Item, refreshedAt time.Time) (uint64, error)
	GetCriteriaAndPanel(ctx context.Context, ownerID uint64, externalRef string) (*model.PanelCriteria, error)
	ListAll(ctx context.Context, ownerID uint64) ([]model.PanelCriteria, error)
	ReplaceItems(ctx context.Context, panelID uint64, items []model.Item, refreshedAt time.Time) error
	Delete(ctx context.Context, panelID uint64) error
}

// EventSink receives panel removal notifications for the messaging
// gateway.  Publishing is best-effort from the orchestrator's point of
// view: a lost event never rolls back a deletion.
type EventSink interface {
	PanelRemoved(ctx context.Context, ev queue.PanelRemovedEvent)
}

// Status is the terminal state of one refresh attempt.
type Status string

const (
	// StatusRefreshed means new items were fetched and stored.
	StatusRefreshed Status = "refreshed"
	// StatusExpired means the check-in date passed; the panel was
	// deleted and a removal event published.  No fetch was attempted.
	StatusExpired Status = "expired"
	// StatusCoolingDown means the cooldown interval has not elapsed.
	// Nothing was mutated; RemainingSeconds carries the wait.
	StatusCoolingDown Status = "cooling_down"
	// StatusEmpty means the fetch returned nothing.  The panel keeps
	// its previous items and last refresh time so the owner can retry.
	StatusEmpty Status = "empty"
)

// Outcome reports how a refresh attempt ended for one panel.
type Outcome struct {
	Status           Status      `json:"status"`
	ExternalRef      string      `json:"external_ref"`
	Destination      string      `json:"destination"`
	CheckIn          string      `json:"check_in"`
	CheckOut         string      `json:"check_out"`
	RemainingSeconds int         `json:"remaining_seconds,omitempty"`
	Length           int         `json:"length,omitempty"`
	First            *model.Item `json:"first,omitempty"`
}

// Stay is one check-in/check-out pair from a form submission.
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// Submission is one completed search form.  It materializes into one
// panel per (destination, stay) combination; ExternalRefs supplies the
// gateway surface handle for each combination in destination-major
// order (all stays of the first destination, then the second, ...).
type Submission struct {
	Destinations []string
	Stays        []Stay
	Adults       int
	Children     int
	ChildrenAges []int
	Rooms        int
	SortKey      model.SortKey
	ExternalRefs []string
}

// CreateStatus is the terminal state of one combination of a submission.
type CreateStatus string

const (
	// CreateOK means a panel was created with the fetched items.
	CreateOK CreateStatus = "created"
	// CreateEmpty means the initial fetch returned nothing; no panel
	// exists for the combination.
	CreateEmpty CreateStatus = "empty"
)

// CreateOutcome reports the result of one (destination, stay)
// combination of a submission, in submission order.
type CreateOutcome struct {
	Status      CreateStatus `json:"status"`
	PanelID     uint64       `json:"panel_id,omitempty"`
	ExternalRef string       `json:"external_ref"`
	Destination string       `json:"destination"`
	CheckIn     string       `json:"check_in"`
	CheckOut    string       `json:"check_out"`
	Length      int          `json:"length,omitempty"`
	Items       []model.Item `json:"items,omitempty"`
}
