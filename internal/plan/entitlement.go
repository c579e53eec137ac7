// Package plan derives feature entitlements from a profile and the founder
// programme counters.
package plan

import (
	"encoding/json"
	"math"
	"sync"

	"github.com/SARVESHVARADKAR123/biolink/internal/model"
)

const (
	FreeMaxLinks   = 5
	UnlimitedLinks = math.MaxInt
)

// Snapshot is a read-only view of what a profile may do.
type Snapshot struct {
	IsPro        bool `json:"is_pro"`
	MaxLinks     int  `json:"-"`
	IsFounder    bool `json:"is_founder"`
	CanUpgrade   bool `json:"can_upgrade"`
	FounderCount int  `json:"founder_count"`
}

func (s Snapshot) Unlimited() bool { return s.MaxLinks == UnlimitedLinks }

// AllowsLinks reports whether a page may hold n links.
func (s Snapshot) AllowsLinks(n int) bool { return n <= s.MaxLinks }

// MarshalJSON encodes an unlimited link cap as null.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	type alias Snapshot
	out := struct {
		alias
		MaxLinks *int `json:"max_links"`
	}{alias: alias(s)}
	if !s.Unlimited() {
		n := s.MaxLinks
		out.MaxLinks = &n
	}
	return json.Marshal(out)
}

// Resolve applies the entitlement rules. canBeFounder is the server's
// eligibility answer; callers that could not load it pass true.
func Resolve(p *model.Profile, founderCount int, canBeFounder bool) Snapshot {
	isPro := p.Plan == model.PlanPro || p.IsAdmin

	maxLinks := FreeMaxLinks
	if isPro {
		maxLinks = UnlimitedLinks
	}

	return Snapshot{
		IsPro:        isPro,
		MaxLinks:     maxLinks,
		IsFounder:    p.IsFounder,
		CanUpgrade:   !isPro && canBeFounder,
		FounderCount: founderCount,
	}
}

// Resolver memoises Resolve against the last profile it saw.
type Resolver struct {
	mu           sync.Mutex
	last         *model.Profile
	founderCount int
	canBeFounder bool
	snap         Snapshot
	computations int
}

func (r *Resolver) Resolve(p *model.Profile, founderCount int, canBeFounder bool) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.last != nil && sameProfile(r.last, p) && r.founderCount == founderCount && r.canBeFounder == canBeFounder {
		return r.snap
	}

	cp := *p
	if p.PlanExpires != nil {
		exp := *p.PlanExpires
		cp.PlanExpires = &exp
	}
	r.last = &cp
	r.founderCount = founderCount
	r.canBeFounder = canBeFounder
	r.snap = Resolve(p, founderCount, canBeFounder)
	r.computations++
	return r.snap
}

// sameProfile compares profiles by value, including the expiry instant.
func sameProfile(a, b *model.Profile) bool {
	ae, be := a.PlanExpires, b.PlanExpires
	switch {
	case ae == nil && be == nil:
	case ae == nil || be == nil:
		return false
	case !ae.Equal(*be):
		return false
	}
	ac, bc := *a, *b
	ac.PlanExpires, bc.PlanExpires = nil, nil
	return ac == bc
}
