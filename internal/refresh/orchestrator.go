package refresh

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/iliyamo/hotel-info-panels/internal/model"
	"github.com/iliyamo/hotel-info-panels/internal/policy"
	"github.com/iliyamo/hotel-info-panels/internal/queue"
)

// DefaultCooldown is the minimum interval between two refreshes of the
// same panel.
const DefaultCooldown = 30 * time.Second

// Orchestrator drives panel creation and refresh.  Every refresh
// attempt walks the same ordered state machine regardless of whether
// it came from a single-panel request or a bulk one: expiry check,
// cooldown check, fetch, reconcile.
//
// No per-panel lock is held across the cooldown check, fetch and store
// update.  Two racing refreshes of the same panel can both pass the
// cooldown gate, issue two fetches and settle last-write-wins on the
// item replacement.  This mirrors the behavior the panel UX has always
// had and keeps the store free of long-held locks.
type Orchestrator struct {
	store    Store
	fetcher  Fetcher
	pool     *Pool
	capacity *policy.Capacity
	events   EventSink
	cooldown time.Duration

	now func() time.Time // injectable for tests
}

// NewOrchestrator wires the engine together.  The pool is the shared
// process-wide worker pool; tests pass a pool of size 1 for
// determinism.  A non-positive cooldown falls back to DefaultCooldown.
func NewOrchestrator(store Store, fetcher Fetcher, pool *Pool, capacity *policy.Capacity, events EventSink, cooldown time.Duration) *Orchestrator {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Orchestrator{
		store:    store,
		fetcher:  fetcher,
		pool:     pool,
		capacity: capacity,
		events:   events,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// Submit materializes a completed search form into panels: one per
// (destination, stay) combination.  Admission is all-or-nothing: when
// the whole batch does not fit under the owner's panel ceiling,
// policy.ErrCapacityExceeded is returned and nothing is fetched.
// Initial fetches for all combinations run concurrently on the worker
// pool; combinations with an empty result produce no panel but still
// appear in the outcomes so the gateway can tell the owner.
func (o *Orchestrator) Submit(ctx context.Context, ownerID uint64, sub Submission) ([]CreateOutcome, error) {
	specs, err := sub.materialize()
	if err != nil {
		return nil, err
	}

	ok, err := o.capacity.CanCreate(ctx, ownerID, len(specs))
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	if !ok {
		return nil, policy.ErrCapacityExceeded
	}

	batches := o.fetchBatch(ctx, specs)

	outcomes := make([]CreateOutcome, 0, len(specs))
	for i, c := range specs {
		out := CreateOutcome{
			ExternalRef: sub.ExternalRefs[i],
			Destination: c.Destination,
			CheckIn:     c.CheckIn.Format(model.DateOnly),
			CheckOut:    c.CheckOut.Format(model.DateOnly),
		}
		items := batches[i]
		if len(items) == 0 {
			out.Status = CreateEmpty
			outcomes = append(outcomes, out)
			continue
		}
		panelID, err := o.store.Create(ctx, ownerID, sub.ExternalRefs[i], c, items, o.now())
		if err != nil {
			return nil, fmt.Errorf("submit: %w", err)
		}
		out.Status = CreateOK
		out.PanelID = panelID
		out.Length = len(items)
		out.Items = items
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// materialize expands the submission into one SearchCriteria per
// (destination, stay) combination in destination-major order and
// validates each against the provider's accepted ranges.  The number
// of external refs must match the number of combinations exactly.
func (s Submission) materialize() ([]model.SearchCriteria, error) {
	if len(s.Destinations) == 0 {
		return nil, fmt.Errorf("submission has no destinations")
	}
	if len(s.Stays) == 0 {
		return nil, fmt.Errorf("submission has no stays")
	}
	combos := len(s.Destinations) * len(s.Stays)
	if len(s.ExternalRefs) != combos {
		return nil, fmt.Errorf("submission needs %d external refs, got %d", combos, len(s.ExternalRefs))
	}

	specs := make([]model.SearchCriteria, 0, combos)
	for _, dest := range s.Destinations {
		for _, stay := range s.Stays {
			c := model.SearchCriteria{
				Destination:  dest,
				CheckIn:      stay.CheckIn,
				CheckOut:     stay.CheckOut,
				Adults:       s.Adults,
				Children:     s.Children,
				ChildrenAges: s.ChildrenAges,
				Rooms:        s.Rooms,
				SortKey:      s.SortKey,
			}
			if err := c.Validate(); err != nil {
				return nil, fmt.Errorf("invalid criteria for %s: %w", dest, err)
			}
			specs = append(specs, c)
		}
	}
	return specs, nil
}

// Refresh runs the state machine for a single panel resolved by the
// owner's external reference.  It returns (nil, nil) when the
// reference no longer resolves to a panel, which callers must treat as
// the "no longer active" signal rather than an error.
func (o *Orchestrator) Refresh(ctx context.Context, ownerID uint64, externalRef string) (*Outcome, error) {
	pc, err := o.store.GetCriteriaAndPanel(ctx, ownerID, externalRef)
	if err != nil {
		return nil, err
	}
	if pc == nil {
		return nil, nil
	}

	if out, proceed, err := o.gate(ctx, pc); err != nil {
		return nil, err
	} else if !proceed {
		return out, nil
	}

	// Even a single refresh occupies a pool slot so that manual
	// refreshes and bulk refreshes compete for the same bounded
	// fetch capacity.
	batches := o.fetchBatch(ctx, []model.SearchCriteria{pc.Criteria})
	out, err := o.reconcile(ctx, pc, batches[0])
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshAll refreshes every panel the owner holds.  Expiry and
// cooldown gates run sequentially per panel (they are cheap), then
// every panel that passed is dispatched to the worker pool
// concurrently, and finally the results are applied sequentially in
// dispatch order: fetch #i reconciles panel #i, never the first one
// to complete.
func (o *Orchestrator) RefreshAll(ctx context.Context, ownerID uint64) ([]Outcome, error) {
	panels, err := o.store.ListAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(panels))
	pending := make([]int, 0, len(panels)) // indices into panels that passed the gates

	for i := range panels {
		out, proceed, err := o.gate(ctx, &panels[i])
		if err != nil {
			return nil, err
		}
		if !proceed {
			outcomes[i] = *out
			continue
		}
		pending = append(pending, i)
	}

	specs := make([]model.SearchCriteria, len(pending))
	for j, i := range pending {
		specs[j] = panels[i].Criteria
	}
	batches := o.fetchBatch(ctx, specs)

	for j, i := range pending {
		out, err := o.reconcile(ctx, &panels[i], batches[j])
		if err != nil {
			return nil, err
		}
		outcomes[i] = out
	}
	return outcomes, nil
}

// gate runs the first two steps of the state machine, expiry then
// cooldown.  It
// returns proceed=true when the panel may be fetched.  An expired
// panel is deleted, a removal event is published, and no fetch is
// attempted.  A cooling-down panel is left untouched with the
// remaining wait reported in whole seconds.
func (o *Orchestrator) gate(ctx context.Context, pc *model.PanelCriteria) (*Outcome, bool, error) {
	out := Outcome{
		ExternalRef: pc.Panel.ExternalRef,
		Destination: pc.Criteria.Destination,
		CheckIn:     pc.Criteria.CheckIn.Format(model.DateOnly),
		CheckOut:    pc.Criteria.CheckOut.Format(model.DateOnly),
	}

	if o.expired(pc.Criteria.CheckIn) {
		if err := o.store.Delete(ctx, pc.Panel.ID); err != nil {
			return nil, false, err
		}
		o.events.PanelRemoved(ctx, queue.PanelRemovedEvent{
			PanelID:     pc.Panel.ID,
			OwnerID:     pc.Panel.OwnerID,
			ExternalRef: pc.Panel.ExternalRef,
			Reason:      queue.RemovalExpired,
			Destination: pc.Criteria.Destination,
			CheckIn:     out.CheckIn,
			CheckOut:    out.CheckOut,
			RemovedAt:   o.now().UTC().Format(time.RFC3339),
		})
		out.Status = StatusExpired
		return &out, false, nil
	}

	elapsed := o.now().Sub(pc.Panel.LastRefresh)
	if elapsed < o.cooldown {
		out.Status = StatusCoolingDown
		out.RemainingSeconds = int(o.cooldown.Seconds()) - int(elapsed.Seconds())
		return &out, false, nil
	}
	return nil, true, nil
}

// reconcile applies a fetch result: an empty fetch leaves the panel untouched
// (last refresh is not advanced, so a transient miss never blocks the
// next attempt); otherwise the items are replaced wholesale and the
// cursors reset.
func (o *Orchestrator) reconcile(ctx context.Context, pc *model.PanelCriteria, items []model.Item) (Outcome, error) {
	out := Outcome{
		ExternalRef: pc.Panel.ExternalRef,
		Destination: pc.Criteria.Destination,
		CheckIn:     pc.Criteria.CheckIn.Format(model.DateOnly),
		CheckOut:    pc.Criteria.CheckOut.Format(model.DateOnly),
	}
	if len(items) == 0 {
		out.Status = StatusEmpty
		return out, nil
	}
	if err := o.store.ReplaceItems(ctx, pc.Panel.ID, items, o.now()); err != nil {
		return Outcome{}, err
	}
	out.Status = StatusRefreshed
	out.Length = len(items)
	first := items[0]
	out.First = &first
	return out, nil
}

// fetchBatch dispatches one fetch per criteria set to the worker pool
// and waits for the whole batch.  Results are collected positionally:
// result #i always belongs to specs #i.  A fetcher error is logged and
// treated as an empty result, per the fetcher contract.
func (o *Orchestrator) fetchBatch(ctx context.Context, specs []model.SearchCriteria) [][]model.Item {
	results := make([][]model.Item, len(specs))
	var wg sync.WaitGroup
	for i, c := range specs {
		i, c := i, c
		wg.Add(1)
		o.pool.Submit(func() {
			defer wg.Done()
			items, err := o.fetcher.Fetch(ctx, c)
			if err != nil {
				log.Printf("refresh: fetch %s %s..%s failed: %v",
					c.Destination, c.CheckIn.Format(model.DateOnly), c.CheckOut.Format(model.DateOnly), err)
				return
			}
			results[i] = items
		})
	}
	wg.Wait()
	return results
}

// expired reports whether the check-in date lies strictly before
// today's calendar date.
func (o *Orchestrator) expired(checkIn time.Time) bool {
	y, m, d := o.now().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	ci := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC)
	return today.After(ci)
}
