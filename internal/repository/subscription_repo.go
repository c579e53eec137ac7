package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/SARVESHVARADKAR123/biolink/internal/model"
	"github.com/SARVESHVARADKAR123/biolink/internal/outbox"
	"github.com/SARVESHVARADKAR123/biolink/internal/tx"
)

// SubscriptionRepo writes the subscription columns of profiles. It is the only
// writer of plan, plan_expires and the stripe ids.
type SubscriptionRepo struct {
	TX     *tx.Manager
	Outbox *outbox.Repository
}

type planChangedEvent struct {
	UserID    string     `json:"user_id"`
	Plan      model.Plan `json:"plan"`
	IsFounder bool       `json:"is_founder"`
}

func (r *SubscriptionRepo) Activate(ctx context.Context, c model.SubscriptionChange) error {
	return r.TX.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE profiles
			SET plan = 'pro', is_founder = $2, stripe_customer_id = $3,
			    stripe_subscription_id = $4, plan_expires = $5, updated_at = NOW()
			WHERE id = $1::uuid`,
			activateArgs(c)...)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return model.ErrProfileNotFound
		}
		return r.Outbox.InsertTx(ctx, tx, model.TopicProfilePlanChanged, c.UserID, planChangedEvent{
			UserID: c.UserID, Plan: model.PlanPro, IsFounder: c.IsFounder,
		})
	})
}

// activateArgs stores missing Stripe ids as NULL; stripe_subscription_id is
// unique, so empty strings would collide across profiles.
func activateArgs(c model.SubscriptionChange) []any {
	return []any{c.UserID, c.IsFounder, nullString(c.CustomerID), nullString(c.SubscriptionID), c.Expires}
}

// Cancel reverts the profile holding subscriptionID to the free plan and
// returns its id.
func (r *SubscriptionRepo) Cancel(ctx context.Context, subscriptionID string) (string, error) {
	var userID string
	err := r.TX.WithTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			UPDATE profiles
			SET plan = 'free', stripe_subscription_id = NULL, plan_expires = NULL, updated_at = NOW()
			WHERE stripe_subscription_id = $1
			RETURNING id`, subscriptionID).Scan(&userID)
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrProfileNotFound
		}
		if err != nil {
			return err
		}
		return r.Outbox.InsertTx(ctx, tx, model.TopicProfilePlanChanged, userID, planChangedEvent{
			UserID: userID, Plan: model.PlanFree,
		})
	})
	return userID, err
}
