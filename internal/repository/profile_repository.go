package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SARVESHVARADKAR123/biolink/internal/model"
)

type ProfileRepo struct{ DB *sql.DB }

const profileColumns = `id, username, name, avatar_url, bio, theme, button_color, text_color, plan, is_founder, is_admin,
	stripe_customer_id, stripe_subscription_id, plan_expires`

// CreateIfNotExists is idempotent via ON CONFLICT DO NOTHING.
func (r *ProfileRepo) CreateIfNotExists(ctx context.Context, id, username, name string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO profiles(id, username, name) VALUES($1::uuid, $2, $3) ON CONFLICT DO NOTHING`,
		id, username, name)
	return err
}

func (r *ProfileRepo) GetByUsername(ctx context.Context, username string) (*model.Profile, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE username = $1`, username)
	return scanProfile(row)
}

func (r *ProfileRepo) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1::uuid`, id)
	return scanProfile(row)
}

func scanProfile(row *sql.Row) (*model.Profile, error) {
	p := &model.Profile{}
	var (
		avatarURL, bio, theme, buttonColor, textColor sql.NullString
		customerID, subscriptionID                    sql.NullString
		expires                                       sql.NullTime
		plan                                          string
	)
	err := row.Scan(&p.ID, &p.Username, &p.Name, &avatarURL, &bio, &theme, &buttonColor, &textColor,
		&plan, &p.IsFounder, &p.IsAdmin, &customerID, &subscriptionID, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	p.AvatarURL = avatarURL.String
	p.Bio = bio.String
	p.Theme = theme.String
	p.ButtonColor = buttonColor.String
	p.TextColor = textColor.String
	p.Plan = model.Plan(plan)
	p.StripeCustomerID = customerID.String
	p.StripeSubscriptionID = subscriptionID.String
	if expires.Valid {
		t := expires.Time
		p.PlanExpires = &t
	}
	p.ApplyDefaults()

	return p, nil
}
