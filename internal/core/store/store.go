// Package store persists saved query filters.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"

	"github.com/solatis/querybuilder/internal/core/db"
	"github.com/solatis/querybuilder/internal/types"
)

/*
 * Saved filters.
 *
 * A saved filter is a whole query tree stored under the root group's name.
 * The root's email and isActive metadata become the owner and active columns
 * so filters can be listed without decoding every tree. Names are unique;
 * overwriting an existing name keeps its id and creation time.
 */

// SavedFilter is one stored query.
type SavedFilter struct {
	ID         string `db:"filter_id"`
	Name       string `db:"name"`
	OwnerEmail string `db:"owner_email"`
	QueryJSON  string `db:"query_json"`
	IsActive   bool   `db:"is_active"`
	CreatedAt  int64  `db:"created_at"` // unix milliseconds
	UpdatedAt  int64  `db:"updated_at"` // unix milliseconds
}

// Query decodes the stored tree.
func (f SavedFilter) Query() (*types.Group, error) {
	n, err := types.ParseNode([]byte(f.QueryJSON))
	if err != nil {
		return nil, fmt.Errorf("decoding filter %q: %w", f.Name, err)
	}
	g, ok := n.(*types.Group)
	if !ok {
		return nil, fmt.Errorf("filter %q: stored query is not a group", f.Name)
	}
	return g, nil
}

// Store provides saved filter CRUD over a migrated database.
type Store struct {
	db      *sqlx.DB
	queries *db.Queries
	now     func() time.Time
}

// New creates a store. The database must already be migrated.
func New(database *sqlx.DB) (*Store, error) {
	queries, err := db.LoadQueries(database)
	if err != nil {
		return nil, err
	}
	return &Store{db: database, queries: queries, now: time.Now}, nil
}

// Save stores root under its name. With overwrite unset an existing name
// fails with ErrFilterExists.
func (s *Store) Save(ctx context.Context, root *types.Group, overwrite bool) (SavedFilter, error) {
	name := strings.TrimSpace(root.Name)
	if name == "" {
		return SavedFilter{}, types.ErrFilterNameRequired
	}

	data, err := json.Marshal(root)
	if err != nil {
		return SavedFilter{}, fmt.Errorf("encoding filter %q: %w", name, err)
	}

	active := true
	if root.IsActive != nil {
		active = *root.IsActive
	}
	now := s.now().UnixMilli()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return SavedFilter{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	q := s.queries.WithTx(tx)

	var existing SavedFilter
	err = q.Get(ctx, "get-filter-by-name", &existing, name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		existing = SavedFilter{ID: types.NewFilterID(), Name: name, CreatedAt: now}
		if _, err := q.Exec(ctx, "insert-filter",
			existing.ID, name, root.Email, string(data), active, now, now); err != nil {
			return SavedFilter{}, fmt.Errorf("inserting filter %q: %w", name, err)
		}
	case err != nil:
		return SavedFilter{}, fmt.Errorf("loading filter %q: %w", name, err)
	case !overwrite:
		return SavedFilter{}, fmt.Errorf("%q: %w", name, types.ErrFilterExists)
	default:
		if _, err := q.Exec(ctx, "update-filter", root.Email, string(data), active, now, name); err != nil {
			return SavedFilter{}, fmt.Errorf("updating filter %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return SavedFilter{}, fmt.Errorf("commit filter %q: %w", name, err)
	}

	existing.OwnerEmail = root.Email
	existing.QueryJSON = string(data)
	existing.IsActive = active
	existing.UpdatedAt = now
	return existing, nil
}

// Get loads a filter by name.
func (s *Store) Get(ctx context.Context, name string) (SavedFilter, error) {
	var f SavedFilter
	if err := s.queries.Get(ctx, "get-filter-by-name", &f, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SavedFilter{}, fmt.Errorf("%q: %w", name, types.ErrFilterNotFound)
		}
		return SavedFilter{}, fmt.Errorf("loading filter %q: %w", name, err)
	}
	return f, nil
}

// List returns filters ordered by name, restricted to owner when non-empty.
func (s *Store) List(ctx context.Context, owner string) ([]SavedFilter, error) {
	var (
		filters []SavedFilter
		err     error
	)
	if owner == "" {
		err = s.queries.Select(ctx, "list-filters", &filters)
	} else {
		err = s.queries.Select(ctx, "list-filters-by-owner", &filters, owner)
	}
	if err != nil {
		return nil, fmt.Errorf("listing filters: %w", err)
	}
	return filters, nil
}

// Delete removes a filter by name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.queries.Exec(ctx, "delete-filter", name)
	if err != nil {
		return fmt.Errorf("deleting filter %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting filter %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%q: %w", name, types.ErrFilterNotFound)
	}
	return nil
}
