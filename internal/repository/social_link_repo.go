package repository

import (
	"context"
	"database/sql"

	"github.com/SARVESHVARADKAR123/biolink/internal/model"
)

// SocialLinkRepo reads the social_links table.
type SocialLinkRepo struct{ DB *sql.DB }

// List returns every social link of a profile ordered by position.
func (r *SocialLinkRepo) List(ctx context.Context, userID string) ([]model.SocialLink, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, platform, url, position
		FROM social_links
		WHERE user_id = $1::uuid
		ORDER BY position ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SocialLink
	for rows.Next() {
		var s model.SocialLink
		if err := rows.Scan(&s.ID, &s.UserID, &s.Platform, &s.URL, &s.Position); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
