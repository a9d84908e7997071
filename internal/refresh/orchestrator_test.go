package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/hotel-info-panels/internal/model"
	"github.com/iliyamo/hotel-info-panels/internal/policy"
	"github.com/iliyamo/hotel-info-panels/internal/queue"
)

// fakeStore keeps panels in memory and records every mutation so tests
// can assert on what the orchestrator did (and did not) touch.
type fakeStore struct {
	mu       sync.Mutex
	panels   map[string]*model.PanelCriteria // keyed by external ref
	nextID   uint64
	replaced map[uint64][]model.Item
	deleted  []uint64
	extra    int // phantom panels counted toward capacity
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		panels:   make(map[string]*model.PanelCriteria),
		replaced: make(map[uint64][]model.Item),
	}
}

func (s *fakeStore) add(ref string, c model.SearchCriteria, lastRefresh time.Time) *model.PanelCriteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	pc := &model.PanelCriteria{
		Panel: model.Panel{
			ID:          s.nextID,
			OwnerID:     1,
			ExternalRef: ref,
			Length:      3,
			Cursor:      2,
			ListCursor:  1,
			LastRefresh: lastRefresh,
		},
		Criteria: c,
	}
	s.panels[ref] = pc
	return pc
}

func (s *fakeStore) Create(ctx context.Context, ownerID uint64, externalRef string, c model.SearchCriteria, items []model.Item, refreshedAt time.Time) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.panels[externalRef] = &model.PanelCriteria{
		Panel: model.Panel{
			ID:          s.nextID,
			OwnerID:     ownerID,
			ExternalRef: externalRef,
			Length:      len(items),
			Cursor:      1,
			ListCursor:  1,
			LastRefresh: refreshedAt,
		},
		Criteria: c,
	}
	return s.nextID, nil
}

func (s *fakeStore) GetCriteriaAndPanel(ctx context.Context, ownerID uint64, externalRef string) (*model.PanelCriteria, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pc, ok := s.panels[externalRef]
	if !ok {
		return nil, nil
	}
	cp := *pc
	return &cp, nil
}

func (s *fakeStore) ListAll(ctx context.Context, ownerID uint64) ([]model.PanelCriteria, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.PanelCriteria, 0, len(s.panels))
	// fakeStore inserts with ascending IDs; return in ID order like the
	// real repository.
	for id := uint64(1); id <= s.nextID; id++ {
		for _, pc := range s.panels {
			if pc.Panel.ID == id {
				out = append(out, *pc)
			}
		}
	}
	return out, nil
}

func (s *fakeStore) ReplaceItems(ctx context.Context, panelID uint64, items []model.Item, refreshedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaced[panelID] = items
	for _, pc := range s.panels {
		if pc.Panel.ID == panelID {
			pc.Panel.Length = len(items)
			pc.Panel.Cursor = 1
			pc.Panel.ListCursor = 1
			pc.Panel.LastRefresh = refreshedAt
		}
	}
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, panelID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, panelID)
	for ref, pc := range s.panels {
		if pc.Panel.ID == panelID {
			delete(s.panels, ref)
		}
	}
	return nil
}

// Count satisfies policy.PanelCounter.
func (s *fakeStore) Count(ctx context.Context, ownerID uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.panels) + s.extra, nil
}

// scriptFetcher returns canned items per destination.
type scriptFetcher struct {
	mu      sync.Mutex
	results map[string][]model.Item
	err     error
	calls   []string
}

func (f *scriptFetcher) Fetch(ctx context.Context, c model.SearchCriteria) ([]model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c.Destination)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[c.Destination], nil
}

type eventRecorder struct {
	mu     sync.Mutex
	events []queue.PanelRemovedEvent
}

func (r *eventRecorder) PanelRemoved(ctx context.Context, ev queue.PanelRemovedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func items(names ...string) []model.Item {
	out := make([]model.Item, len(names))
	for i, n := range names {
		out[i] = model.Item{Name: n, Price: 100 + i, Photo: "p", Link: "l", Position: i + 1}
	}
	return out
}

func testCriteria(dest string, checkIn time.Time) model.SearchCriteria {
	return model.SearchCriteria{
		Destination:  dest,
		CheckIn:      checkIn,
		CheckOut:     checkIn.AddDate(0, 0, 3),
		Adults:       2,
		Children:     0,
		ChildrenAges: nil,
		Rooms:        1,
		SortKey:      model.SortPopularity,
	}
}

func newTestOrchestrator(store *fakeStore, fetcher Fetcher, events EventSink, now time.Time) *Orchestrator {
	o := NewOrchestrator(store, fetcher, NewPool(1), policy.NewCapacity(0, store), events, 30*time.Second)
	o.now = func() time.Time { return now }
	return o
}

func TestRefreshCoolingDown(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.add("m1", testCriteria("Rome", now.AddDate(0, 0, 7)), now.Add(-10*time.Second))
	fetcher := &scriptFetcher{results: map[string][]model.Item{}}

	o := newTestOrchestrator(store, fetcher, &eventRecorder{}, now)
	out, err := o.Refresh(context.Background(), 1, "m1")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if out.Status != StatusCoolingDown {
		t.Fatalf("status = %q, want %q", out.Status, StatusCoolingDown)
	}
	if out.RemainingSeconds != 20 {
		t.Fatalf("remaining = %d, want 20", out.RemainingSeconds)
	}
	if len(fetcher.calls) != 0 {
		t.Fatalf("fetcher was called during cooldown")
	}
}

func TestRefreshAfterCooldown(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	pc := store.add("m1", testCriteria("Rome", now.AddDate(0, 0, 7)), now.Add(-31*time.Second))
	fetcher := &scriptFetcher{results: map[string][]model.Item{
		"Rome": items("Hotel A", "Hotel B"),
	}}

	o := newTestOrchestrator(store, fetcher, &eventRecorder{}, now)
	out, err := o.Refresh(context.Background(), 1, "m1")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if out.Status != StatusRefreshed {
		t.Fatalf("status = %q, want %q", out.Status, StatusRefreshed)
	}
	if out.Length != 2 {
		t.Fatalf("length = %d, want 2", out.Length)
	}
	if out.First == nil || out.First.Name != "Hotel A" {
		t.Fatalf("first item = %+v, want Hotel A", out.First)
	}
	got := store.replaced[pc.Panel.ID]
	if len(got) != 2 || got[0].Name != "Hotel A" {
		t.Fatalf("stored items = %+v", got)
	}
	if !store.panels["m1"].Panel.LastRefresh.Equal(now) {
		t.Fatalf("last refresh not advanced to now")
	}
}

func TestRefreshExpiredDeletesAndPublishes(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	// Check-in was yesterday; the stay can no longer be booked.
	pc := store.add("m1", testCriteria("Rome", now.AddDate(0, 0, -1)), now.Add(-time.Hour))
	fetcher := &scriptFetcher{results: map[string][]model.Item{}}
	events := &eventRecorder{}

	o := newTestOrchestrator(store, fetcher, events, now)
	out, err := o.Refresh(context.Background(), 1, "m1")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if out.Status != StatusExpired {
		t.Fatalf("status = %q, want %q", out.Status, StatusExpired)
	}
	if len(store.deleted) != 1 || store.deleted[0] != pc.Panel.ID {
		t.Fatalf("deleted = %v, want [%d]", store.deleted, pc.Panel.ID)
	}
	if len(events.events) != 1 {
		t.Fatalf("events = %d, want 1", len(events.events))
	}
	ev := events.events[0]
	if ev.Reason != queue.RemovalExpired || ev.ExternalRef != "m1" {
		t.Fatalf("event = %+v", ev)
	}
	if len(fetcher.calls) != 0 {
		t.Fatalf("fetcher was called for an expired panel")
	}

	// The panel is gone; a second refresh resolves to nothing.
	out, err = o.Refresh(context.Background(), 1, "m1")
	if err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil outcome for a removed panel, got %+v", out)
	}
}

func TestRefreshExpiryOnCheckInDayStillRuns(t *testing.T) {
	now := time.Date(2026, 5, 1, 23, 30, 0, 0, time.UTC)
	store := newFakeStore()
	// Check-in is today; the panel survives until the day after.
	store.add("m1", testCriteria("Rome", time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)), now.Add(-time.Hour))
	fetcher := &scriptFetcher{results: map[string][]model.Item{
		"Rome": items("Hotel A"),
	}}

	o := newTestOrchestrator(store, fetcher, &eventRecorder{}, now)
	out, err := o.Refresh(context.Background(), 1, "m1")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if out.Status != StatusRefreshed {
		t.Fatalf("status = %q, want %q", out.Status, StatusRefreshed)
	}
}

func TestRefreshEmptyKeepsState(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	lastRefresh := now.Add(-time.Minute)
	store := newFakeStore()
	pc := store.add("m1", testCriteria("Rome", now.AddDate(0, 0, 7)), lastRefresh)
	fetcher := &scriptFetcher{results: map[string][]model.Item{}} // nothing for Rome

	o := newTestOrchestrator(store, fetcher, &eventRecorder{}, now)
	out, err := o.Refresh(context.Background(), 1, "m1")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if out.Status != StatusEmpty {
		t.Fatalf("status = %q, want %q", out.Status, StatusEmpty)
	}
	if _, ok := store.replaced[pc.Panel.ID]; ok {
		t.Fatalf("items were replaced on an empty fetch")
	}
	// Last refresh must not advance, otherwise a transient miss would
	// push the next attempt behind a fresh cooldown.
	if !store.panels["m1"].Panel.LastRefresh.Equal(lastRefresh) {
		t.Fatalf("last refresh advanced on an empty fetch")
	}
	if store.panels["m1"].Panel.Cursor != 2 {
		t.Fatalf("cursor changed on an empty fetch")
	}
}

func TestRefreshFetchErrorTreatedAsEmpty(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.add("m1", testCriteria("Rome", now.AddDate(0, 0, 7)), now.Add(-time.Minute))
	fetcher := &scriptFetcher{err: errors.New("chrome crashed")}

	o := newTestOrchestrator(store, fetcher, &eventRecorder{}, now)
	out, err := o.Refresh(context.Background(), 1, "m1")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if out.Status != StatusEmpty {
		t.Fatalf("status = %q, want %q", out.Status, StatusEmpty)
	}
}

func TestRefreshAllPositionalOutcomes(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.add("m1", testCriteria("Rome", now.AddDate(0, 0, 7)), now.Add(-time.Minute))
	store.add("m2", testCriteria("Paris", now.AddDate(0, 0, -2)), now.Add(-time.Minute)) // expired
	store.add("m3", testCriteria("Oslo", now.AddDate(0, 0, 7)), now.Add(-5*time.Second)) // cooling down
	store.add("m4", testCriteria("Kyiv", now.AddDate(0, 0, 7)), now.Add(-time.Minute))
	fetcher := &scriptFetcher{results: map[string][]model.Item{
		"Rome": items("Roman Holiday Inn"),
		"Kyiv": items("Dnipro View", "Old Town Suites"),
	}}
	events := &eventRecorder{}

	o := newTestOrchestrator(store, fetcher, events, now)
	outs, err := o.RefreshAll(context.Background(), 1)
	if err != nil {
		t.Fatalf("RefreshAll: %v", err)
	}
	if len(outs) != 4 {
		t.Fatalf("outcomes = %d, want 4", len(outs))
	}

	// Outcome #i belongs to panel #i regardless of fetch completion order.
	want := []struct {
		ref    string
		status Status
	}{
		{"m1", StatusRefreshed},
		{"m2", StatusExpired},
		{"m3", StatusCoolingDown},
		{"m4", StatusRefreshed},
	}
	for i, w := range want {
		if outs[i].ExternalRef != w.ref || outs[i].Status != w.status {
			t.Fatalf("outcome[%d] = {%s %s}, want {%s %s}",
				i, outs[i].ExternalRef, outs[i].Status, w.ref, w.status)
		}
	}
	if outs[0].First == nil || outs[0].First.Name != "Roman Holiday Inn" {
		t.Fatalf("outcome[0].First = %+v", outs[0].First)
	}
	if outs[3].Length != 2 {
		t.Fatalf("outcome[3].Length = %d, want 2", outs[3].Length)
	}
	if outs[2].RemainingSeconds != 25 {
		t.Fatalf("outcome[2].RemainingSeconds = %d, want 25", outs[2].RemainingSeconds)
	}
	if len(events.events) != 1 || events.events[0].ExternalRef != "m2" {
		t.Fatalf("events = %+v", events.events)
	}
}

func TestSubmitCreatesPanelsPerCombination(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	checkIn := now.AddDate(0, 0, 14)
	fetcher := &scriptFetcher{results: map[string][]model.Item{
		"Rome": items("Hotel A"),
		// Paris intentionally absent: empty fetch, no panel.
	}}

	o := newTestOrchestrator(store, fetcher, &eventRecorder{}, now)
	outs, err := o.Submit(context.Background(), 1, Submission{
		Destinations: []string{"Rome", "Paris"},
		Stays:        []Stay{{CheckIn: checkIn, CheckOut: checkIn.AddDate(0, 0, 3)}},
		Adults:       2,
		Rooms:        1,
		SortKey:      model.SortPrice,
		ExternalRefs: []string{"r1", "r2"},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(outs) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(outs))
	}
	if outs[0].Status != CreateOK || outs[0].ExternalRef != "r1" || outs[0].Length != 1 {
		t.Fatalf("outcome[0] = %+v", outs[0])
	}
	if outs[1].Status != CreateEmpty || outs[1].ExternalRef != "r2" {
		t.Fatalf("outcome[1] = %+v", outs[1])
	}
	if _, ok := store.panels["r1"]; !ok {
		t.Fatalf("panel r1 was not created")
	}
	if _, ok := store.panels["r2"]; ok {
		t.Fatalf("panel r2 created despite empty fetch")
	}
}

func TestSubmitDestinationMajorOrder(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	d1 := now.AddDate(0, 0, 7)
	d2 := now.AddDate(0, 0, 21)
	fetcher := &scriptFetcher{results: map[string][]model.Item{
		"Rome":  items("Hotel A"),
		"Paris": items("Hotel B"),
	}}

	o := newTestOrchestrator(store, fetcher, &eventRecorder{}, now)
	outs, err := o.Submit(context.Background(), 1, Submission{
		Destinations: []string{"Rome", "Paris"},
		Stays: []Stay{
			{CheckIn: d1, CheckOut: d1.AddDate(0, 0, 2)},
			{CheckIn: d2, CheckOut: d2.AddDate(0, 0, 2)},
		},
		Adults:       1,
		Rooms:        1,
		SortKey:      model.SortPopularity,
		ExternalRefs: []string{"a", "b", "c", "d"},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	wantDest := []string{"Rome", "Rome", "Paris", "Paris"}
	wantIn := []string{
		d1.Format(model.DateOnly), d2.Format(model.DateOnly),
		d1.Format(model.DateOnly), d2.Format(model.DateOnly),
	}
	for i := range outs {
		if outs[i].Destination != wantDest[i] || outs[i].CheckIn != wantIn[i] {
			t.Fatalf("outcome[%d] = %s %s, want %s %s",
				i, outs[i].Destination, outs[i].CheckIn, wantDest[i], wantIn[i])
		}
	}
}

func TestSubmitCapacityAllOrNothing(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.extra = 5 // owner already holds five panels
	checkIn := now.AddDate(0, 0, 7)
	fetcher := &scriptFetcher{results: map[string][]model.Item{
		"Rome":  items("Hotel A"),
		"Paris": items("Hotel B"),
	}}

	o := newTestOrchestrator(store, fetcher, &eventRecorder{}, now)
	_, err := o.Submit(context.Background(), 1, Submission{
		Destinations: []string{"Rome", "Paris"},
		Stays:        []Stay{{CheckIn: checkIn, CheckOut: checkIn.AddDate(0, 0, 2)}},
		Adults:       1,
		Rooms:        1,
		SortKey:      model.SortPopularity,
		ExternalRefs: []string{"a", "b"},
	})
	if !errors.Is(err, policy.ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
	if len(fetcher.calls) != 0 {
		t.Fatalf("fetches dispatched despite capacity rejection")
	}

	// A single combination still fits under the cap of six.
	outs, err := o.Submit(context.Background(), 1, Submission{
		Destinations: []string{"Rome"},
		Stays:        []Stay{{CheckIn: checkIn, CheckOut: checkIn.AddDate(0, 0, 2)}},
		Adults:       1,
		Rooms:        1,
		SortKey:      model.SortPopularity,
		ExternalRefs: []string{"a"},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(outs) != 1 || outs[0].Status != CreateOK {
		t.Fatalf("outcomes = %+v", outs)
	}
}

func TestSubmitRefCountMismatch(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	checkIn := now.AddDate(0, 0, 7)

	o := newTestOrchestrator(store, &scriptFetcher{}, &eventRecorder{}, now)
	_, err := o.Submit(context.Background(), 1, Submission{
		Destinations: []string{"Rome", "Paris"},
		Stays:        []Stay{{CheckIn: checkIn, CheckOut: checkIn.AddDate(0, 0, 2)}},
		Adults:       1,
		Rooms:        1,
		SortKey:      model.SortPopularity,
		ExternalRefs: []string{"only-one"},
	})
	if err == nil {
		t.Fatalf("expected an error for mismatched external refs")
	}
}
