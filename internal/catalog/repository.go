package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Common errors.
var (
	ErrNotFound = errors.New("catalog entry not found")
)

// DB is the subset of database/sql used by the repository. Both lib/pq and
// go-sqlite3 connections satisfy it.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SearchFilter narrows a catalog search. Tokens are OR'd against the make
// and model columns; every other field is AND'd with the token group.
type SearchFilter struct {
	Tokens   []string
	Year     int     // exact match when non-zero
	MaxPrice float64 // inclusive ceiling when non-zero
	Currency string  // exact match when non-empty
}

// IsZero reports whether the filter constrains nothing.
func (f SearchFilter) IsZero() bool {
	return len(f.Tokens) == 0 && f.Year == 0 && f.MaxPrice == 0 && f.Currency == ""
}

// OrderBy selects the result ordering for a search.
type OrderBy int

const (
	// OrderYearRating is the default: newest first, best rated among peers.
	OrderYearRating OrderBy = iota
	// OrderPriceAsc surfaces the cheapest entries first.
	OrderPriceAsc
	// OrderRatingReviews surfaces the best reviewed entries first.
	OrderRatingReviews
)

// Store is the catalog read interface the retrieval engine depends on.
type Store interface {
	// Search returns entries matching the filter in the given order, capped
	// at limit.
	Search(ctx context.Context, filter SearchFilter, order OrderBy, limit int) ([]Entry, error)
	// SearchText returns entries whose make/model/specs text contains any of
	// the tokens, ordered by rating desc, review count desc, year desc.
	SearchText(ctx context.Context, tokens []string, limit int) ([]Entry, error)
	// Sample returns up to n entries drawn randomly, excluding the given ids.
	Sample(ctx context.Context, n int, exclude []int64) ([]Entry, error)
	// Recent returns the n most recently created entries.
	Recent(ctx context.Context, n int) ([]Entry, error)
	// GetByIDs resolves entries by id; missing ids are silently skipped.
	GetByIDs(ctx context.Context, ids []int64) ([]Entry, error)
}

// Repository implements Store over a relational catalog table.
type Repository struct {
	db DB
}

// NewRepository creates a catalog repository.
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

const entryColumns = `id, make, model, year, price, currency, rating, reviews,
	specs, engines, statistics, provenance, created_at, updated_at`

// Search returns entries matching the filter.
func (r *Repository) Search(ctx context.Context, filter SearchFilter, order OrderBy, limit int) ([]Entry, error) {
	query, args := buildSearchQuery(filter, order, limit)
	return r.queryEntries(ctx, query, args...)
}

// buildSearchQuery renders the filter into parameterized SQL. Kept separate
// from Search so the generated SQL is testable without a database.
func buildSearchQuery(filter SearchFilter, order OrderBy, limit int) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.Tokens) > 0 {
		var tokenClauses []string
		for _, tok := range filter.Tokens {
			p := arg("%" + strings.ToLower(tok) + "%")
			tokenClauses = append(tokenClauses,
				fmt.Sprintf("(LOWER(make) LIKE %s OR LOWER(model) LIKE %s)", p, p))
		}
		where = append(where, "("+strings.Join(tokenClauses, " OR ")+")")
	}

	if filter.Year != 0 {
		where = append(where, "year = "+arg(filter.Year))
	}

	if filter.MaxPrice != 0 {
		where = append(where, "price IS NOT NULL AND price <= "+arg(filter.MaxPrice))
	}

	if filter.Currency != "" {
		where = append(where, "currency = "+arg(filter.Currency))
	}

	query := "SELECT " + entryColumns + " FROM catalog_entries"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + orderClause(order)
	query += " LIMIT " + arg(limit)

	return query, args
}

func orderClause(order OrderBy) string {
	switch order {
	case OrderPriceAsc:
		return "price ASC NULLS LAST"
	case OrderRatingReviews:
		return "rating DESC, reviews DESC"
	default:
		return "year DESC, rating DESC"
	}
}

// SearchText matches any token against the concatenated text columns.
func (r *Repository) SearchText(ctx context.Context, tokens []string, limit int) ([]Entry, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	var (
		clauses []string
		args    []interface{}
	)
	for _, tok := range tokens {
		args = append(args, "%"+strings.ToLower(tok)+"%")
		p := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(make) LIKE %s OR LOWER(model) LIKE %s OR LOWER(specs) LIKE %s OR LOWER(engines) LIKE %s OR LOWER(statistics) LIKE %s)",
			p, p, p, p, p))
	}

	args = append(args, limit)
	query := fmt.Sprintf(
		"SELECT %s FROM catalog_entries WHERE %s ORDER BY rating DESC, reviews DESC, year DESC LIMIT $%d",
		entryColumns, strings.Join(clauses, " OR "), len(args))

	return r.queryEntries(ctx, query, args...)
}

// Sample draws n random entries, excluding ids already in hand. RANDOM() is
// supported by both Postgres and SQLite.
func (r *Repository) Sample(ctx context.Context, n int, exclude []int64) ([]Entry, error) {
	var (
		args  []interface{}
		where string
	)
	if len(exclude) > 0 {
		placeholders := make([]string, len(exclude))
		for i, id := range exclude {
			args = append(args, id)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		where = " WHERE id NOT IN (" + strings.Join(placeholders, ", ") + ")"
	}

	args = append(args, n)
	query := fmt.Sprintf("SELECT %s FROM catalog_entries%s ORDER BY RANDOM() LIMIT $%d",
		entryColumns, where, len(args))

	return r.queryEntries(ctx, query, args...)
}

// Recent returns the most recently created entries.
func (r *Repository) Recent(ctx context.Context, n int) ([]Entry, error) {
	query := "SELECT " + entryColumns + " FROM catalog_entries ORDER BY created_at DESC LIMIT $1"
	return r.queryEntries(ctx, query, n)
}

// GetByIDs resolves entries by id, preserving the input order.
func (r *Repository) GetByIDs(ctx context.Context, ids []int64) ([]Entry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var args []interface{}
	placeholders := make([]string, len(ids))
	for i, id := range ids {
		args = append(args, id)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}

	query := fmt.Sprintf("SELECT %s FROM catalog_entries WHERE id IN (%s)",
		entryColumns, strings.Join(placeholders, ", "))

	entries, err := r.queryEntries(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]Entry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}

	ordered := make([]Entry, 0, len(entries))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			ordered = append(ordered, e)
		}
	}
	return ordered, nil
}

// GetByID resolves a single entry.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Entry, error) {
	entries, err := r.GetByIDs(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return &entries[0], nil
}

// Count returns the catalog size.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM catalog_entries").Scan(&n)
	return n, err
}

func (r *Repository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog query: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			price      sql.NullFloat64
			specs      sql.NullString
			engines    sql.NullString
			statistics sql.NullString
			provenance sql.NullString
		)
		if err := rows.Scan(
			&e.ID, &e.Make, &e.Model, &e.Year, &price, &e.Currency,
			&e.Rating, &e.ReviewCount, &specs, &engines, &statistics,
			&provenance, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("catalog scan: %w", err)
		}

		if price.Valid {
			p := price.Float64
			e.Price = &p
		}
		e.Specs = ParseSpecs(specs.String, engines.String, statistics.String)
		if provenance.Valid && provenance.String != "" {
			e.Provenance = strings.Split(provenance.String, ",")
		}

		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ Store = (*Repository)(nil)
