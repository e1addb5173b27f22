package blackboard

import (
	"fmt"
	"strings"
)

// Redis key pattern helpers
//
// Key pattern: muster:{instance_name}:{entity}:{id}
// Channel pattern: muster:{instance_name}:{event_type}_events

// InviteKey returns the Redis key for an invite hash.
// Pattern: muster:{instance_name}:invite:{invite_id}
func InviteKey(instanceName, inviteID string) string {
	return fmt.Sprintf("muster:%s:invite:%s", instanceName, inviteID)
}

// InviteByEmailKey returns the Redis key for the email->invite index.
// Emails are lower-cased so that one address cannot be invited twice with
// different casing.
// Pattern: muster:{instance_name}:invite_by_email:{email}
func InviteByEmailKey(instanceName, email string) string {
	return fmt.Sprintf("muster:%s:invite_by_email:%s", instanceName, strings.ToLower(email))
}

// InvitesKey returns the Redis key for the set of all invite IDs.
// Pattern: muster:{instance_name}:invites
func InvitesKey(instanceName string) string {
	return fmt.Sprintf("muster:%s:invites", instanceName)
}

// RolesKey returns the Redis key for the role catalogue hash.
// Pattern: muster:{instance_name}:roles
func RolesKey(instanceName string) string {
	return fmt.Sprintf("muster:%s:roles", instanceName)
}

// OutboxKey returns the Redis key for the invitation email queue.
// Pattern: muster:{instance_name}:outbox
func OutboxKey(instanceName string) string {
	return fmt.Sprintf("muster:%s:outbox", instanceName)
}

// InviteEventsChannel returns the Pub/Sub channel name for invite events.
// Pattern: muster:{instance_name}:invite_events
func InviteEventsChannel(instanceName string) string {
	return fmt.Sprintf("muster:%s:invite_events", instanceName)
}
