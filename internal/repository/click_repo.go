package repository

import (
	"context"
	"database/sql"

	"github.com/SARVESHVARADKAR123/biolink/internal/model"
	"github.com/SARVESHVARADKAR123/biolink/internal/outbox"
	"github.com/SARVESHVARADKAR123/biolink/internal/tx"
)

// ClickRepo appends click events. Each insert is paired with a link.clicked
// outbox row in the same transaction.
type ClickRepo struct {
	TX     *tx.Manager
	Outbox *outbox.Repository
}

type linkClickedEvent struct {
	ClickID   string `json:"click_id"`
	LinkID    string `json:"link_id"`
	Referer   string `json:"referer,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

func (r *ClickRepo) Insert(ctx context.Context, c model.Click) error {
	return r.TX.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO clicks (id, link_id, ip_hash, user_agent, referer, created_at)
			 VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6)`,
			c.ID, c.LinkID, nullString(c.IPHash), c.UserAgent, nullString(c.Referer), c.CreatedAt)
		if err != nil {
			return err
		}
		return r.Outbox.InsertTx(ctx, tx, model.TopicLinkClicked, c.LinkID, linkClickedEvent{
			ClickID:   c.ID,
			LinkID:    c.LinkID,
			Referer:   c.Referer,
			CreatedAt: c.CreatedAt.Unix(),
		})
	})
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
