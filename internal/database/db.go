package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME/DATE -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the panel store tables when they do not exist.
// The panels table carries the (owner_id, external_ref) unique key used
// to resolve a rendered surface back to its panel; search_criteria,
// criteria_children_ages and items hang off the panel ID and are
// deleted with it.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS panels (
			id                BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			owner_id          BIGINT UNSIGNED NOT NULL,
			external_ref      VARCHAR(128)    NOT NULL,
			length            INT             NOT NULL DEFAULT 0,
			cur_position      INT             NOT NULL DEFAULT 1,
			cur_list_position INT             NOT NULL DEFAULT 1,
			last_refresh      DATETIME(6)     NOT NULL,
			PRIMARY KEY (id),
			UNIQUE KEY uq_panels_owner_ref (owner_id, external_ref),
			KEY idx_panels_owner (owner_id)
		)`,
		`CREATE TABLE IF NOT EXISTS search_criteria (
			panel_id    BIGINT UNSIGNED NOT NULL,
			destination VARCHAR(255)    NOT NULL,
			check_in    DATE            NOT NULL,
			check_out   DATE            NOT NULL,
			adults      INT             NOT NULL,
			children    INT             NOT NULL,
			rooms       INT             NOT NULL,
			sort_key    VARCHAR(64)     NOT NULL,
			PRIMARY KEY (panel_id)
		)`,
		`CREATE TABLE IF NOT EXISTS criteria_children_ages (
			panel_id BIGINT UNSIGNED NOT NULL,
			age      INT             NOT NULL,
			KEY idx_children_ages_panel (panel_id)
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			panel_id BIGINT UNSIGNED NOT NULL,
			position INT             NOT NULL,
			name     VARCHAR(512)    NOT NULL,
			price    INT             NOT NULL,
			rating   DOUBLE          NULL,
			photo    TEXT            NOT NULL,
			link     TEXT            NOT NULL,
			PRIMARY KEY (panel_id, position)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
