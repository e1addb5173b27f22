// Package resolver turns a user-supplied reference into a stored invite.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/dyluth/muster/pkg/blackboard"
)

// MinShortIDLength is the minimum length accepted for an ID prefix.
const MinShortIDLength = 6

// ResolveInvite finds the invite named by ref, which is an email address, a
// full invite ID or an ID prefix of at least MinShortIDLength characters.
func ResolveInvite(ctx context.Context, bbClient *blackboard.Client, ref string) (*blackboard.Invite, error) {
	if strings.Contains(ref, "@") {
		inv, err := bbClient.GetInviteByEmail(ctx, ref)
		if err != nil {
			if blackboard.IsNotFound(err) {
				return nil, &NotFoundError{Ref: ref}
			}
			return nil, fmt.Errorf("failed to look up invite: %w", err)
		}
		return inv, nil
	}

	if len(ref) == 36 && strings.Count(ref, "-") == 4 {
		inv, err := bbClient.GetInvite(ctx, ref)
		if err != nil {
			if blackboard.IsNotFound(err) {
				return nil, &NotFoundError{Ref: ref}
			}
			return nil, fmt.Errorf("failed to look up invite: %w", err)
		}
		return inv, nil
	}

	if len(ref) < MinShortIDLength {
		return nil, fmt.Errorf("short ID must be at least %d characters (got %d)", MinShortIDLength, len(ref))
	}

	invites, err := bbClient.ListInvites(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search for invite: %w", err)
	}

	var matches []*blackboard.Invite
	for _, inv := range invites {
		if strings.HasPrefix(inv.ID, ref) {
			matches = append(matches, inv)
		}
	}

	switch len(matches) {
	case 0:
		return nil, &NotFoundError{Ref: ref}
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.ID
		}
		return nil, &AmbiguousError{ShortID: ref, Matches: ids}
	}
}

// NotFoundError means no invite matched the reference.
type NotFoundError struct {
	Ref string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no invite found matching '%s'", e.Ref)
}

// AmbiguousError means an ID prefix matched several invites.
type AmbiguousError struct {
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous short ID '%s' matches %d invites", e.ShortID, len(e.Matches))
}

// FormatMatches lists the matching IDs, up to 10.
func (e *AmbiguousError) FormatMatches() string {
	var b strings.Builder
	shown := min(len(e.Matches), 10)
	for _, id := range e.Matches[:shown] {
		fmt.Fprintf(&b, "  %s\n", id)
	}
	if len(e.Matches) > shown {
		fmt.Fprintf(&b, "  ...and %d more\n", len(e.Matches)-shown)
	}
	return b.String()
}
