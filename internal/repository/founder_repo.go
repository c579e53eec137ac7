package repository

import (
	"context"
	"database/sql"
)

// FounderRepo exposes the founder-programme stored procedures.
type FounderRepo struct{ DB *sql.DB }

func (r *FounderRepo) FounderCount(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT get_founder_count()`).Scan(&n)
	return n, err
}

func (r *FounderRepo) CanBeFounder(ctx context.Context) (bool, error) {
	var ok bool
	err := r.DB.QueryRowContext(ctx, `SELECT can_be_founder()`).Scan(&ok)
	return ok, err
}
