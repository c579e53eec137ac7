package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/SARVESHVARADKAR123/biolink/internal/model"
)

// LinkRepo reads the links table and maintains click counters.
type LinkRepo struct{ DB *sql.DB }

// ListActive returns the active links of a profile ordered by position, ties
// broken by insertion order.
func (r *LinkRepo) ListActive(ctx context.Context, userID string) ([]model.Link, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, title, url, icon, position, click_count
		FROM links
		WHERE user_id = $1::uuid AND is_active = TRUE
		ORDER BY position ASC, created_at ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []model.Link
	for rows.Next() {
		var (
			l    model.Link
			icon sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.UserID, &l.Title, &l.URL, &icon, &l.Position, &l.ClickCount); err != nil {
			return nil, err
		}
		l.Icon = icon.String
		l.IsActive = true
		links = append(links, l)
	}
	return links, rows.Err()
}

// IncrementClicks bumps the counter in a single statement and returns the new value.
func (r *LinkRepo) IncrementClicks(ctx context.Context, linkID string) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		`UPDATE links SET click_count = click_count + 1 WHERE id = $1::uuid RETURNING click_count`,
		linkID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.ErrLinkNotFound
	}
	return n, err
}
