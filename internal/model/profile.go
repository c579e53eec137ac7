package model

import "time"

type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

const (
	DefaultTheme       = "default"
	DefaultButtonColor = "#000000"
	DefaultTextColor   = "#ffffff"
)

var knownThemes = map[string]bool{
	"default":  true,
	"dark":     true,
	"light":    true,
	"gradient": true,
	"neon":     true,
	"minimal":  true,
	"ocean":    true,
	"sunset":   true,
}

// Profile is the public page owner. Subscription fields are written only by
// the billing webhook.
type Profile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Bio         string `json:"bio,omitempty"`
	Theme       string `json:"theme"`
	ButtonColor string `json:"button_color"`
	TextColor   string `json:"text_color"`
	Plan        Plan   `json:"plan"`
	IsFounder   bool   `json:"is_founder"`
	IsAdmin     bool   `json:"is_admin"`

	StripeCustomerID     string     `json:"-"`
	StripeSubscriptionID string     `json:"-"`
	PlanExpires          *time.Time `json:"plan_expires,omitempty"`
}

// ApplyDefaults replaces unknown themes and missing colours with the defaults.
func (p *Profile) ApplyDefaults() {
	if !knownThemes[p.Theme] {
		p.Theme = DefaultTheme
	}
	if p.ButtonColor == "" {
		p.ButtonColor = DefaultButtonColor
	}
	if p.TextColor == "" {
		p.TextColor = DefaultTextColor
	}
	if p.Plan != PlanPro {
		p.Plan = PlanFree
	}
}

// SubscriptionChange is what the billing webhook writes back to a profile.
type SubscriptionChange struct {
	UserID         string
	IsFounder      bool
	CustomerID     string
	SubscriptionID string
	Expires        time.Time
}
