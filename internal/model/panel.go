package model

import "time"

// Panel is a persisted, paginated view over one search's result items.
// A panel belongs to exactly one owner and is located by the opaque
// external reference the messaging gateway assigned to its rendered
// surface.  Cursor positions are 1-indexed into the panel's items.
//
// Fields:
//  ID          – primary key identifier (panels.id).
//  OwnerID     – external identity of the owning user.
//  ExternalRef – gateway handle of the rendered surface.
//  Length      – number of items currently held (>= 0).
//  Cursor      – position of the currently viewed single item;
//                1 <= Cursor <= Length whenever Length > 0.
//  ListCursor  – first index of the currently displayed 5-item page;
//                always congruent to 1 modulo 5.
//  LastRefresh – when items were last replaced.
type Panel struct {
	ID          uint64    // panels.id
	OwnerID     uint64    // panels.owner_id
	ExternalRef string    // panels.external_ref
	Length      int       // panels.length
	Cursor      int       // panels.cur_position
	ListCursor  int       // panels.cur_list_position
	LastRefresh time.Time // panels.last_refresh
}

// PanelCriteria pairs a panel with its search criteria.  It is the unit
// the refresh orchestrator works on: the criteria drive the fetch and
// the panel carries the cooldown and expiry state.
type PanelCriteria struct {
	Panel    Panel
	Criteria SearchCriteria
}
