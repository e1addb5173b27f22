package blackboard

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Invite is an invitation for one email address to join with a role.
type Invite struct {
	ID          string       `json:"id"`            // UUID
	Email       string       `json:"email"`         // Address being invited
	RoleID      string       `json:"role_id"`       // UUID of the granted role
	Status      InviteStatus `json:"status"`        // Delivery state
	Token       string       `json:"token"`         // Secret used to accept the invite
	InvitedBy   string       `json:"invited_by"`    // Sender address
	CreatedAtMs int64        `json:"created_at_ms"` // Unix milliseconds
	ExpiresAtMs int64        `json:"expires_at_ms"` // Unix milliseconds
}

// InviteStatus is the delivery state of an invite.
type InviteStatus string

const (
	// InviteStatusPending means the invite is stored but its email has not
	// been queued for delivery.
	InviteStatusPending InviteStatus = "pending"

	// InviteStatusSent means the invitation email was queued.
	InviteStatusSent InviteStatus = "sent"
)

// Role is an entry in the role catalogue.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// MailJob is an invitation email waiting in the outbox.
type MailJob struct {
	InviteID   string `json:"invite_id"`
	Email      string `json:"email"`
	Token      string `json:"token"`
	RoleName   string `json:"role_name"`
	InvitedBy  string `json:"invited_by"`
	QueuedAtMs int64  `json:"queued_at_ms"`
}

// InviteEventType describes what happened to an invite.
type InviteEventType string

const (
	InviteEventCreated InviteEventType = "created"
	InviteEventSent    InviteEventType = "sent"
	InviteEventRevoked InviteEventType = "revoked"
)

// InviteEvent is published on the invite events channel.
type InviteEvent struct {
	Type      InviteEventType `json:"type"`
	Invite    *Invite         `json:"invite"`
	EmittedMs int64           `json:"emitted_ms"`
}

// MaxEmailLength is the longest address the store accepts.
const MaxEmailLength = 191

// RejectionError reports that the store refused an invitation because the
// address is not acceptable. It carries one human-readable detail per
// problem found.
type RejectionError struct {
	Email   string
	Details []string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("invite for %s rejected: %s", e.Email, strings.Join(e.Details, "; "))
}

// AsRejection returns the first detail of a RejectionError found in err's
// chain.
func AsRejection(err error) (string, bool) {
	var rej *RejectionError
	if !errors.As(err, &rej) {
		return "", false
	}
	if len(rej.Details) == 0 {
		return "rejected", true
	}
	return rej.Details[0], true
}

// NewInvite builds a pending invite with a fresh ID and token.
func NewInvite(email, roleID, invitedBy string, ttl time.Duration) *Invite {
	now := time.Now()
	return &Invite{
		ID:          uuid.New().String(),
		Email:       email,
		RoleID:      roleID,
		Status:      InviteStatusPending,
		Token:       uuid.New().String(),
		InvitedBy:   invitedBy,
		CreatedAtMs: now.UnixMilli(),
		ExpiresAtMs: now.Add(ttl).UnixMilli(),
	}
}

// Expired reports whether the invite can no longer be accepted at now.
func (i *Invite) Expired(now time.Time) bool {
	return now.UnixMilli() >= i.ExpiresAtMs
}

// Validate checks if the Invite has valid field values.
// It does not judge the email address itself; see CheckEmail.
func (i *Invite) Validate() error {
	if !isValidUUID(i.ID) {
		return fmt.Errorf("invalid invite ID: not a valid UUID")
	}

	if i.Email == "" {
		return fmt.Errorf("invite email cannot be empty")
	}

	if !isValidUUID(i.RoleID) {
		return fmt.Errorf("invalid role ID: not a valid UUID")
	}

	if err := i.Status.Validate(); err != nil {
		return fmt.Errorf("invalid status: %w", err)
	}

	if i.Token == "" {
		return fmt.Errorf("invite token cannot be empty")
	}

	if i.ExpiresAtMs <= i.CreatedAtMs {
		return fmt.Errorf("invite must expire after it is created")
	}

	return nil
}

// Validate checks if the InviteStatus is a valid enum value.
func (s InviteStatus) Validate() error {
	switch s {
	case InviteStatusPending, InviteStatusSent:
		return nil
	default:
		return fmt.Errorf("unknown invite status: %q", s)
	}
}

// Validate checks if the Role has valid field values.
func (r *Role) Validate() error {
	if !isValidUUID(r.ID) {
		return fmt.Errorf("invalid role ID: not a valid UUID")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("role name cannot be empty")
	}
	return nil
}

// CheckEmail applies the store's own rules to an address and returns one
// detail per violation. An empty result means the address is acceptable.
func CheckEmail(email string) []string {
	var details []string

	if len(email) > MaxEmailLength {
		details = append(details, fmt.Sprintf("Email address must be at most %d characters.", MaxEmailLength))
	}

	local, domain, ok := strings.Cut(email, "@")
	switch {
	case !ok || local == "" || strings.Contains(domain, "@"):
		details = append(details, "Email address must contain exactly one @.")
	case !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, "."):
		details = append(details, "Email address must include a valid domain.")
	}

	return details
}

// isValidUUID checks if a string is a valid UUID format.
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
