package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/hotel-info-panels/internal/model"
)

// PanelRepo provides CRUD operations for panels, their search criteria
// and their result items.  A panel row doubles as the
// owner→(panel, external_ref) index: lookups by owner and external
// reference go through the unique (owner_id, external_ref) key.  All
// operations are atomic per call; multi-statement writes run inside a
// transaction.  Timestamps are stored in UTC.
type PanelRepo struct {
	db *sql.DB
}

// NewPanelRepo returns a new PanelRepo bound to the given database.
func NewPanelRepo(db *sql.DB) *PanelRepo { return &PanelRepo{db: db} }

// DB exposes the underlying handle for callers that need to compose
// transactions across repositories.
func (r *PanelRepo) DB() *sql.DB { return r.db }

// Create inserts a panel together with its search criteria and initial
// items in one transaction.  Item positions 1..len are assigned in
// input order.  The new panel starts with cursor and list cursor at 1
// and length equal to the number of items.  The generated panel ID is
// returned.
func (r *PanelRepo) Create(ctx context.Context, ownerID uint64, externalRef string, c model.SearchCriteria, items []model.Item, refreshedAt time.Time) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("panel create: begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const insPanel = `INSERT INTO panels (owner_id, external_ref, length, cur_position, cur_list_position, last_refresh)
	                  VALUES (?, ?, ?, 1, 1, ?)`
	res, err := tx.ExecContext(ctx, insPanel, ownerID, externalRef, len(items), refreshedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("panel create: insert panel: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("panel create: last insert id: %w", err)
	}
	panelID := uint64(id)

	const insCriteria = `INSERT INTO search_criteria (panel_id, destination, check_in, check_out, adults, children, rooms, sort_key)
	                     VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insCriteria,
		panelID, c.Destination,
		c.CheckIn.Format(model.DateOnly), c.CheckOut.Format(model.DateOnly),
		c.Adults, c.Children, c.Rooms, string(c.SortKey),
	); err != nil {
		return 0, fmt.Errorf("panel create: insert criteria: %w", err)
	}

	for _, age := range c.ChildrenAges {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO criteria_children_ages (panel_id, age) VALUES (?, ?)`,
			panelID, age,
		); err != nil {
			return 0, fmt.Errorf("panel create: insert child age: %w", err)
		}
	}

	if err := insertItemsTx(ctx, tx, panelID, items); err != nil {
		return 0, fmt.Errorf("panel create: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("panel create: commit: %w", err)
	}
	committed = true
	return panelID, nil
}

// insertItemsTx bulk-inserts items for a panel with positions assigned
// by input order, starting at 1.  An empty slice is a no-op.
func insertItemsTx(ctx context.Context, tx *sql.Tx, panelID uint64, items []model.Item) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO items (panel_id, position, name, price, rating, photo, link) VALUES `
	args := make([]interface{}, 0, len(items)*7)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?)"
		var rating interface{}
		if it.Rating != nil {
			rating = *it.Rating
		}
		args = append(args, panelID, i+1, it.Name, it.Price, rating, it.Photo, it.Link)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}
	return nil
}

// GetPanel resolves an owner's external reference to its panel.  It
// returns (nil, nil) when no panel matches, which is the normal stale
// reference signal rather than an error.
func (r *PanelRepo) GetPanel(ctx context.Context, ownerID uint64, externalRef string) (*model.Panel, error) {
	const q = `SELECT id, owner_id, external_ref, length, cur_position, cur_list_position, last_refresh
	           FROM panels WHERE owner_id = ? AND external_ref = ?`
	var p model.Panel
	err := r.db.QueryRowContext(ctx, q, ownerID, externalRef).Scan(
		&p.ID, &p.OwnerID, &p.ExternalRef, &p.Length, &p.Cursor, &p.ListCursor, &p.LastRefresh,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get panel: %w", err)
	}
	return &p, nil
}

// SetCursor persists a pre-validated single-item cursor and returns
// the item at that position joined with the panel's destination and
// dates.  The caller must have validated the cursor against the panel
// length via the navigation package.
func (r *PanelRepo) SetCursor(ctx context.Context, panelID uint64, cursor int) (*model.ItemDetail, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("set cursor: begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`UPDATE panels SET cur_position = ? WHERE id = ?`, cursor, panelID,
	); err != nil {
		return nil, fmt.Errorf("set cursor: update: %w", err)
	}

	const q = `SELECT i.name, i.price, i.rating, i.photo, i.link, i.position,
	                  c.destination, c.check_in, c.check_out
	           FROM items i
	           JOIN search_criteria c ON c.panel_id = i.panel_id
	           WHERE i.panel_id = ? AND i.position = ?`
	var det model.ItemDetail
	var rating sql.NullFloat64
	if err := tx.QueryRowContext(ctx, q, panelID, cursor).Scan(
		&det.Name, &det.Price, &rating, &det.Photo, &det.Link, &det.Position,
		&det.Destination, &det.CheckIn, &det.CheckOut,
	); err != nil {
		return nil, fmt.Errorf("set cursor: select item: %w", err)
	}
	if rating.Valid {
		v := rating.Float64
		det.Rating = &v
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("set cursor: commit: %w", err)
	}
	committed = true
	return &det, nil
}

// SetListCursor persists a pre-validated list cursor and returns up to
// five entries starting at that position.
func (r *PanelRepo) SetListCursor(ctx context.Context, panelID uint64, listCursor int) ([]model.ListEntry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("set list cursor: begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`UPDATE panels SET cur_list_position = ? WHERE id = ?`, listCursor, panelID,
	); err != nil {
		return nil, fmt.Errorf("set list cursor: update: %w", err)
	}

	const q = `SELECT name, price, rating FROM items
	           WHERE panel_id = ? AND position >= ? AND position < ?
	           ORDER BY position`
	rows, err := tx.QueryContext(ctx, q, panelID, listCursor, listCursor+5)
	if err != nil {
		return nil, fmt.Errorf("set list cursor: select: %w", err)
	}
	defer rows.Close()

	entries := make([]model.ListEntry, 0, 5)
	for rows.Next() {
		var e model.ListEntry
		var rating sql.NullFloat64
		if err := rows.Scan(&e.Name, &e.Price, &rating); err != nil {
			return nil, fmt.Errorf("set list cursor: scan: %w", err)
		}
		if rating.Valid {
			v := rating.Float64
			e.Rating = &v
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("set list cursor: rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("set list cursor: commit: %w", err)
	}
	committed = true
	return entries, nil
}

// ReplaceItems swaps a panel's items wholesale: old items are deleted,
// new ones inserted with positions 1..len, and the panel's length,
// cursors and last refresh time are reset in the same transaction.
func (r *PanelRepo) ReplaceItems(ctx context.Context, panelID uint64, items []model.Item, refreshedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace items: begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE panel_id = ?`, panelID); err != nil {
		return fmt.Errorf("replace items: delete old: %w", err)
	}
	if err := insertItemsTx(ctx, tx, panelID, items); err != nil {
		return fmt.Errorf("replace items: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE panels SET length = ?, cur_position = 1, cur_list_position = 1, last_refresh = ? WHERE id = ?`,
		len(items), refreshedAt.UTC(), panelID,
	); err != nil {
		return fmt.Errorf("replace items: update panel: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace items: commit: %w", err)
	}
	committed = true
	return nil
}

// GetCriteriaAndPanel resolves an owner's external reference to the
// panel together with its full search criteria, as needed before
// refresh and expiry decisions.  It returns (nil, nil) when no panel
// matches.
func (r *PanelRepo) GetCriteriaAndPanel(ctx context.Context, ownerID uint64, externalRef string) (*model.PanelCriteria, error) {
	const q = `SELECT p.id, p.owner_id, p.external_ref, p.length, p.cur_position, p.cur_list_position, p.last_refresh,
	                  c.destination, c.check_in, c.check_out, c.adults, c.children, c.rooms, c.sort_key
	           FROM panels p
	           JOIN search_criteria c ON c.panel_id = p.id
	           WHERE p.owner_id = ? AND p.external_ref = ?`
	var pc model.PanelCriteria
	var sortKey string
	err := r.db.QueryRowContext(ctx, q, ownerID, externalRef).Scan(
		&pc.Panel.ID, &pc.Panel.OwnerID, &pc.Panel.ExternalRef,
		&pc.Panel.Length, &pc.Panel.Cursor, &pc.Panel.ListCursor, &pc.Panel.LastRefresh,
		&pc.Criteria.Destination, &pc.Criteria.CheckIn, &pc.Criteria.CheckOut,
		&pc.Criteria.Adults, &pc.Criteria.Children, &pc.Criteria.Rooms, &sortKey,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get criteria and panel: %w", err)
	}
	pc.Criteria.SortKey = model.SortKey(sortKey)

	ages, err := r.childrenAges(ctx, []uint64{pc.Panel.ID})
	if err != nil {
		return nil, err
	}
	pc.Criteria.ChildrenAges = ages[pc.Panel.ID]
	if pc.Criteria.ChildrenAges == nil {
		pc.Criteria.ChildrenAges = []int{}
	}
	return &pc, nil
}

// ListAll returns every panel the owner holds together with its
// criteria, ordered by panel ID (creation order).  An owner without
// panels gets an empty slice.
func (r *PanelRepo) ListAll(ctx context.Context, ownerID uint64) ([]model.PanelCriteria, error) {
	const q = `SELECT p.id, p.owner_id, p.external_ref, p.length, p.cur_position, p.cur_list_position, p.last_refresh,
	                  c.destination, c.check_in, c.check_out, c.adults, c.children, c.rooms, c.sort_key
	           FROM panels p
	           JOIN search_criteria c ON c.panel_id = p.id
	           WHERE p.owner_id = ?
	           ORDER BY p.id`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list panels: %w", err)
	}
	defer rows.Close()

	list := make([]model.PanelCriteria, 0)
	ids := make([]uint64, 0)
	for rows.Next() {
		var pc model.PanelCriteria
		var sortKey string
		if err := rows.Scan(
			&pc.Panel.ID, &pc.Panel.OwnerID, &pc.Panel.ExternalRef,
			&pc.Panel.Length, &pc.Panel.Cursor, &pc.Panel.ListCursor, &pc.Panel.LastRefresh,
			&pc.Criteria.Destination, &pc.Criteria.CheckIn, &pc.Criteria.CheckOut,
			&pc.Criteria.Adults, &pc.Criteria.Children, &pc.Criteria.Rooms, &sortKey,
		); err != nil {
			return nil, fmt.Errorf("list panels: scan: %w", err)
		}
		pc.Criteria.SortKey = model.SortKey(sortKey)
		pc.Criteria.ChildrenAges = []int{}
		list = append(list, pc)
		ids = append(ids, pc.Panel.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list panels: rows: %w", err)
	}
	if len(list) == 0 {
		return list, nil
	}

	ages, err := r.childrenAges(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if a, ok := ages[list[i].Panel.ID]; ok {
			list[i].Criteria.ChildrenAges = a
		}
	}
	return list, nil
}

// childrenAges loads children ages for the given panels in one query,
// keyed by panel ID and ordered by insertion.
func (r *PanelRepo) childrenAges(ctx context.Context, panelIDs []uint64) (map[uint64][]int, error) {
	if len(panelIDs) == 0 {
		return map[uint64][]int{}, nil
	}
	placeholders := make([]string, 0, len(panelIDs))
	args := make([]interface{}, 0, len(panelIDs))
	for _, id := range panelIDs {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	q := `SELECT panel_id, age FROM criteria_children_ages
	      WHERE panel_id IN (` + strings.Join(placeholders, ",") + `)
	      ORDER BY panel_id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("children ages: %w", err)
	}
	defer rows.Close()

	out := make(map[uint64][]int)
	for rows.Next() {
		var id uint64
		var age int
		if err := rows.Scan(&id, &age); err != nil {
			return nil, fmt.Errorf("children ages: scan: %w", err)
		}
		out[id] = append(out[id], age)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("children ages: rows: %w", err)
	}
	return out, nil
}

// Count returns the number of panels the owner currently holds.
func (r *PanelRepo) Count(ctx context.Context, ownerID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(id) FROM panels WHERE owner_id = ?`, ownerID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count panels: %w", err)
	}
	return n, nil
}

// Delete removes a panel and cascades to its criteria, children ages
// and items in one transaction.  Deleting an already-absent panel is
// not an error.
func (r *PanelRepo) Delete(ctx context.Context, panelID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete panel: begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{
		`DELETE FROM items WHERE panel_id = ?`,
		`DELETE FROM criteria_children_ages WHERE panel_id = ?`,
		`DELETE FROM search_criteria WHERE panel_id = ?`,
		`DELETE FROM panels WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, panelID); err != nil {
			return fmt.Errorf("delete panel: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete panel: commit: %w", err)
	}
	committed = true
	return nil
}

// Aggregate joins every item across every panel the owner holds with
// its criteria and orders the rows by the requested report sort:
// rating descending then price ascending, or price ascending then
// rating descending.  An owner without panels gets an empty slice.
func (r *PanelRepo) Aggregate(ctx context.Context, ownerID uint64, sort model.AggregateSort) ([]model.AggregateRow, error) {
	var order string
	switch sort {
	case model.AggregateByRating:
		order = "ORDER BY i.rating DESC, i.price"
	case model.AggregateByPrice:
		order = "ORDER BY i.price, i.rating DESC"
	default:
		return nil, ErrInvalidSort
	}

	q := `SELECT i.name, i.price, i.rating, c.destination, c.check_in, c.check_out, i.photo, i.link
	      FROM items i
	      JOIN search_criteria c ON c.panel_id = i.panel_id
	      JOIN panels p ON p.id = i.panel_id
	      WHERE p.owner_id = ? ` + order
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	defer rows.Close()

	out := make([]model.AggregateRow, 0)
	for rows.Next() {
		var row model.AggregateRow
		var rating sql.NullFloat64
		if err := rows.Scan(
			&row.Name, &row.Price, &rating,
			&row.Destination, &row.CheckIn, &row.CheckOut,
			&row.Photo, &row.Link,
		); err != nil {
			return nil, fmt.Errorf("aggregate: scan: %w", err)
		}
		if rating.Valid {
			v := rating.Float64
			row.Rating = &v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("aggregate: rows: %w", err)
	}
	return out, nil
}
