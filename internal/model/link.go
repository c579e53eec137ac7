package model

import "time"

const DefaultIcon = "website"

var knownIcons = map[string]bool{
	"website":   true,
	"instagram": true,
	"youtube":   true,
	"tiktok":    true,
	"twitter":   true,
	"linkedin":  true,
	"github":    true,
	"spotify":   true,
	"whatsapp":  true,
	"email":     true,
	"shop":      true,
}

type Link struct {
	ID         string `json:"id"`
	UserID     string `json:"-"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Icon       string `json:"icon"`
	Position   int    `json:"position"`
	IsActive   bool   `json:"-"`
	ClickCount int64  `json:"click_count"`
}

// DisplayIcon falls back to the generic website glyph for unknown tags.
func (l Link) DisplayIcon() string {
	if knownIcons[l.Icon] {
		return l.Icon
	}
	return DefaultIcon
}

type SocialLink struct {
	ID       string `json:"id"`
	UserID   string `json:"-"`
	Platform string `json:"platform"`
	URL      string `json:"url"`
	Position int    `json:"position"`
}

// Click is an immutable analytics record.
type Click struct {
	ID        string
	LinkID    string
	IPHash    string
	UserAgent string
	Referer   string
	CreatedAt time.Time
}
