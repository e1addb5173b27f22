// Package filter selects invites for listing.
package filter

import (
	"path/filepath"
	"strings"

	"github.com/dyluth/muster/pkg/blackboard"
)

// Criteria selects invites. Zero fields match everything; set fields are ANDed.
type Criteria struct {
	SinceTimestampMs int64  // Created at or after, 0 = no bound
	UntilTimestampMs int64  // Created at or before, 0 = no bound
	EmailGlob        string // Case-insensitive glob on the address, e.g. "*@example.com"
	Status           blackboard.InviteStatus
	RoleID           string
}

// Matches reports whether inv passes every criterion.
func (c *Criteria) Matches(inv *blackboard.Invite) bool {
	if c.SinceTimestampMs > 0 && inv.CreatedAtMs < c.SinceTimestampMs {
		return false
	}
	if c.UntilTimestampMs > 0 && inv.CreatedAtMs > c.UntilTimestampMs {
		return false
	}

	if c.EmailGlob != "" {
		matched, err := filepath.Match(strings.ToLower(c.EmailGlob), strings.ToLower(inv.Email))
		if err != nil || !matched {
			return false
		}
	}

	if c.Status != "" && inv.Status != c.Status {
		return false
	}

	if c.RoleID != "" && inv.RoleID != c.RoleID {
		return false
	}

	return true
}

// Apply returns the invites that match, preserving order.
func (c *Criteria) Apply(invites []*blackboard.Invite) []*blackboard.Invite {
	if !c.HasFilters() {
		return invites
	}

	out := make([]*blackboard.Invite, 0, len(invites))
	for _, inv := range invites {
		if c.Matches(inv) {
			out = append(out, inv)
		}
	}
	return out
}

// HasFilters reports whether any criterion is set.
func (c *Criteria) HasFilters() bool {
	return c.SinceTimestampMs > 0 ||
		c.UntilTimestampMs > 0 ||
		c.EmailGlob != "" ||
		c.Status != "" ||
		c.RoleID != ""
}
