package page

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/SARVESHVARADKAR123/biolink/internal/model"
	"github.com/SARVESHVARADKAR123/biolink/internal/observability"
	"github.com/SARVESHVARADKAR123/biolink/internal/resilience"
)

type ProfileSource interface {
	GetByUsername(ctx context.Context, username string) (*model.Profile, error)
}

type LinkSource interface {
	ListActive(ctx context.Context, userID string) ([]model.Link, error)
}

type SocialLinkSource interface {
	List(ctx context.Context, userID string) ([]model.SocialLink, error)
}

// NotFoundError reports a username with no profile row. It is terminal.
type NotFoundError struct {
	Username string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("profile %q not found", e.Username)
}

func (e *NotFoundError) Is(target error) bool { return target == model.ErrProfileNotFound }

// ProfileResolver looks a profile up by username.
type ProfileResolver struct {
	src     ProfileSource
	timeout time.Duration
}

func NewProfileResolver(src ProfileSource, timeout time.Duration) *ProfileResolver {
	return &ProfileResolver{src: src, timeout: timeout}
}

func (r *ProfileResolver) Resolve(ctx context.Context, username string) (*model.Profile, error) {
	if username == "" {
		return nil, model.ErrInvalidUsername
	}

	p, err := resilience.WithTimeout(ctx, r.timeout, func(ctx context.Context) (*model.Profile, error) {
		return r.src.GetByUsername(ctx, username)
	})
	if errors.Is(err, model.ErrProfileNotFound) {
		return nil, &NotFoundError{Username: username}
	}
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &NotFoundError{Username: username}
	}

	p.ApplyDefaults()
	return p, nil
}

// LinkSetLoader loads the visible links of a profile. A failure here fails
// the page.
type LinkSetLoader struct {
	src     LinkSource
	timeout time.Duration
}

func NewLinkSetLoader(src LinkSource, timeout time.Duration) *LinkSetLoader {
	return &LinkSetLoader{src: src, timeout: timeout}
}

func (l *LinkSetLoader) Load(ctx context.Context, profileID string) ([]model.Link, error) {
	raw, err := resilience.WithTimeout(ctx, l.timeout, func(ctx context.Context) ([]model.Link, error) {
		return l.src.ListActive(ctx, profileID)
	})
	if err != nil {
		return nil, err
	}

	links := make([]model.Link, 0, len(raw))
	for _, link := range raw {
		if !link.IsActive {
			continue
		}
		normalized, err := NormalizeURL(link.URL)
		if err != nil {
			observability.GetLogger(ctx).Warn("dropping link with unusable url",
				zap.String("link_id", link.ID), zap.Error(err))
			continue
		}
		link.URL = normalized
		link.Icon = link.DisplayIcon()
		links = append(links, link)
	}
	sort.SliceStable(links, func(i, j int) bool { return links[i].Position < links[j].Position })
	return links, nil
}

// SocialLinkLoader is best-effort: every failure becomes an empty list.
type SocialLinkLoader struct {
	src     SocialLinkSource
	timeout time.Duration
}

func NewSocialLinkLoader(src SocialLinkSource, timeout time.Duration) *SocialLinkLoader {
	return &SocialLinkLoader{src: src, timeout: timeout}
}

func (s *SocialLinkLoader) Load(ctx context.Context, profileID string) []model.SocialLink {
	socials, err := resilience.WithTimeout(ctx, s.timeout, func(ctx context.Context) ([]model.SocialLink, error) {
		return s.src.List(ctx, profileID)
	})
	if err != nil {
		observability.OptionalFetchFailuresTotal.WithLabelValues("social_links").Inc()
		observability.GetLogger(ctx).Warn("social links unavailable",
			zap.String("profile_id", profileID), zap.Error(err))
		return []model.SocialLink{}
	}
	if socials == nil {
		return []model.SocialLink{}
	}
	sort.SliceStable(socials, func(i, j int) bool { return socials[i].Position < socials[j].Position })
	return socials
}
