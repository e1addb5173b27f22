package blackboard

import (
	"fmt"
	"strconv"
)

// Serialization helpers for converting between Go structs and Redis hashes.
// Redis stores invites as string-to-string maps; numeric fields are parsed
// back on read.

// InviteToHash converts an Invite struct to a Redis hash format.
func InviteToHash(i *Invite) map[string]interface{} {
	return map[string]interface{}{
		"id":            i.ID,
		"email":         i.Email,
		"role_id":       i.RoleID,
		"status":        string(i.Status),
		"token":         i.Token,
		"invited_by":    i.InvitedBy,
		"created_at_ms": i.CreatedAtMs,
		"expires_at_ms": i.ExpiresAtMs,
	}
}

// HashToInvite converts a Redis hash to an Invite struct.
func HashToInvite(hash map[string]string) (*Invite, error) {
	createdAtMs, err := strconv.ParseInt(hash["created_at_ms"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at_ms field: %w", err)
	}

	expiresAtMs, err := strconv.ParseInt(hash["expires_at_ms"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid expires_at_ms field: %w", err)
	}

	return &Invite{
		ID:          hash["id"],
		Email:       hash["email"],
		RoleID:      hash["role_id"],
		Status:      InviteStatus(hash["status"]),
		Token:       hash["token"],
		InvitedBy:   hash["invited_by"],
		CreatedAtMs: createdAtMs,
		ExpiresAtMs: expiresAtMs,
	}, nil
}
