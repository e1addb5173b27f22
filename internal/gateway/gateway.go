// Package gateway connects the invite workflow to the blackboard store.
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/dyluth/muster/internal/invite"
	"github.com/dyluth/muster/pkg/blackboard"
)

// DefaultInviteTTL is how long an invitation can be accepted.
const DefaultInviteTTL = 7 * 24 * time.Hour

// Gateway resolves roles and submits invites through a blackboard client.
// It implements invite.RoleResolver and invite.Submitter.
type Gateway struct {
	client    *blackboard.Client
	roleName  string
	invitedBy string
	ttl       time.Duration
}

// New creates a gateway that grants roleName to every invite it submits.
func New(client *blackboard.Client, roleName, invitedBy string, ttl time.Duration) (*Gateway, error) {
	if client == nil {
		return nil, fmt.Errorf("blackboard client cannot be nil")
	}
	if roleName == "" {
		return nil, fmt.Errorf("role name cannot be empty")
	}
	if ttl <= 0 {
		ttl = DefaultInviteTTL
	}

	return &Gateway{
		client:    client,
		roleName:  roleName,
		invitedBy: invitedBy,
		ttl:       ttl,
	}, nil
}

// ResolveRole reads the configured role from the store on every call so a
// role renamed or removed since the last run is noticed.
func (g *Gateway) ResolveRole(ctx context.Context) (invite.Role, error) {
	role, err := g.client.GetRoleByName(ctx, g.roleName)
	if err != nil {
		if blackboard.IsNotFound(err) {
			return invite.Role{}, fmt.Errorf("role %q does not exist", g.roleName)
		}
		return invite.Role{}, fmt.Errorf("failed to look up role %q: %w", g.roleName, err)
	}

	return invite.Role{ID: role.ID, Name: role.Name}, nil
}

// Submit creates the invite and queues its email.
// A store rejection is returned unchanged so IsRejection can recognise it.
// If the invite was stored but its email could not be queued, the receipt
// carries the pending status together with the error.
func (g *Gateway) Submit(ctx context.Context, email string, role invite.Role) (invite.Receipt, error) {
	inv := blackboard.NewInvite(email, role.ID, g.invitedBy, g.ttl)

	if err := g.client.CreateInvite(ctx, inv); err != nil {
		return invite.Receipt{}, err
	}

	if err := g.client.QueueInviteEmail(ctx, inv, role.Name); err != nil {
		return invite.Receipt{InviteID: inv.ID, Status: string(inv.Status)}, err
	}

	return invite.Receipt{InviteID: inv.ID, Status: string(inv.Status)}, nil
}

// IsRejection reports whether err is the store refusing an address and
// returns the store's reason. It satisfies invite.RejectionFunc.
func IsRejection(err error) (string, bool) {
	return blackboard.AsRejection(err)
}
