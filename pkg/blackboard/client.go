package blackboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Client provides instance-scoped Redis operations for the blackboard.
// All keys and channels are automatically namespaced with the instance name.
// The client is thread-safe and can be used concurrently from multiple goroutines.
type Client struct {
	rdb          *redis.Client
	instanceName string
}

// NewClient creates a new blackboard client for the specified instance.
// Returns an error if instanceName is empty.
func NewClient(redisOpts *redis.Options, instanceName string) (*Client, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}

	return &Client{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
	}, nil
}

// InstanceName returns the namespace this client writes to.
func (c *Client) InstanceName() string {
	return c.instanceName
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// SaveRole writes a role to the catalogue, replacing any role with the same name.
func (c *Client) SaveRole(ctx context.Context, role *Role) error {
	if err := role.Validate(); err != nil {
		return fmt.Errorf("invalid role: %w", err)
	}

	roleJSON, err := json.Marshal(role)
	if err != nil {
		return fmt.Errorf("failed to marshal role: %w", err)
	}

	if err := c.rdb.HSet(ctx, RolesKey(c.instanceName), role.Name, roleJSON).Err(); err != nil {
		return fmt.Errorf("failed to write role to Redis: %w", err)
	}

	return nil
}

// GetRoleByName looks up a role by its exact name.
// Returns (nil, redis.Nil) if no such role exists.
func (c *Client) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	roleJSON, err := c.rdb.HGet(ctx, RolesKey(c.instanceName), name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, redis.Nil
		}
		return nil, fmt.Errorf("failed to read role from Redis: %w", err)
	}

	var role Role
	if err := json.Unmarshal([]byte(roleJSON), &role); err != nil {
		return nil, fmt.Errorf("failed to unmarshal role %q: %w", name, err)
	}

	return &role, nil
}

// ListRoles returns every role in the catalogue sorted by name.
func (c *Client) ListRoles(ctx context.Context) ([]*Role, error) {
	raw, err := c.rdb.HGetAll(ctx, RolesKey(c.instanceName)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read roles from Redis: %w", err)
	}

	roles := make([]*Role, 0, len(raw))
	for name, roleJSON := range raw {
		var role Role
		if err := json.Unmarshal([]byte(roleJSON), &role); err != nil {
			return nil, fmt.Errorf("failed to unmarshal role %q: %w", name, err)
		}
		roles = append(roles, &role)
	}

	sort.Slice(roles, func(i, j int) bool {
		return roles[i].Name < roles[j].Name
	})

	return roles, nil
}

// SeedRoles adds a role for every name not already in the catalogue and
// returns the roles it created. Existing roles keep their IDs.
func (c *Client) SeedRoles(ctx context.Context, names []string) ([]*Role, error) {
	var created []*Role
	for _, name := range names {
		role := &Role{ID: uuid.New().String(), Name: name}
		if err := role.Validate(); err != nil {
			return created, fmt.Errorf("invalid role %q: %w", name, err)
		}

		roleJSON, err := json.Marshal(role)
		if err != nil {
			return created, fmt.Errorf("failed to marshal role: %w", err)
		}

		added, err := c.rdb.HSetNX(ctx, RolesKey(c.instanceName), name, roleJSON).Result()
		if err != nil {
			return created, fmt.Errorf("failed to seed role %q: %w", name, err)
		}
		if added {
			created = append(created, role)
		}
	}

	return created, nil
}

// CreateInvite stores a new pending invite and publishes a created event.
//
// The address is checked with CheckEmail and against existing invites; a
// failure of either is returned as a *RejectionError. Other errors are
// infrastructure failures.
func (c *Client) CreateInvite(ctx context.Context, inv *Invite) error {
	if details := CheckEmail(inv.Email); len(details) > 0 {
		return &RejectionError{Email: inv.Email, Details: details}
	}

	if err := inv.Validate(); err != nil {
		return fmt.Errorf("invalid invite: %w", err)
	}

	// Claim the email index first so two concurrent invites for the same
	// address cannot both succeed.
	indexKey := InviteByEmailKey(c.instanceName, inv.Email)
	claimed, err := c.rdb.SetNX(ctx, indexKey, inv.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to check for existing invite: %w", err)
	}
	if !claimed {
		return &RejectionError{
			Email:   inv.Email,
			Details: []string{"A user with that email address was already invited."},
		}
	}

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, InviteKey(c.instanceName, inv.ID), InviteToHash(inv))
		pipe.SAdd(ctx, InvitesKey(c.instanceName), inv.ID)
		return nil
	})
	if err != nil {
		// Release the index so the address can be retried.
		c.rdb.Del(context.WithoutCancel(ctx), indexKey)
		return fmt.Errorf("failed to write invite to Redis: %w", err)
	}

	return c.publishInviteEvent(ctx, InviteEventCreated, inv)
}

// QueueInviteEmail pushes the invitation email for inv onto the outbox and
// marks the invite as sent. If the push fails the invite stays pending.
func (c *Client) QueueInviteEmail(ctx context.Context, inv *Invite, roleName string) error {
	job := MailJob{
		InviteID:   inv.ID,
		Email:      inv.Email,
		Token:      inv.Token,
		RoleName:   roleName,
		InvitedBy:  inv.InvitedBy,
		QueuedAtMs: time.Now().UnixMilli(),
	}

	jobJSON, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal mail job: %w", err)
	}

	if err := c.rdb.RPush(ctx, OutboxKey(c.instanceName), jobJSON).Err(); err != nil {
		return fmt.Errorf("failed to queue invitation email: %w", err)
	}

	if err := c.rdb.HSet(ctx, InviteKey(c.instanceName, inv.ID), "status", string(InviteStatusSent)).Err(); err != nil {
		return fmt.Errorf("failed to mark invite as sent: %w", err)
	}
	inv.Status = InviteStatusSent

	return c.publishInviteEvent(ctx, InviteEventSent, inv)
}

// GetInvite retrieves an invite by ID.
// Returns (nil, redis.Nil) if the invite doesn't exist.
func (c *Client) GetInvite(ctx context.Context, inviteID string) (*Invite, error) {
	hashData, err := c.rdb.HGetAll(ctx, InviteKey(c.instanceName, inviteID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read invite from Redis: %w", err)
	}

	// HGetAll returns an empty map for non-existent keys
	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	inv, err := HashToInvite(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize invite: %w", err)
	}

	return inv, nil
}

// GetInviteByEmail retrieves the invite for an address.
// Returns (nil, redis.Nil) if the address has not been invited.
func (c *Client) GetInviteByEmail(ctx context.Context, email string) (*Invite, error) {
	inviteID, err := c.rdb.Get(ctx, InviteByEmailKey(c.instanceName, email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, redis.Nil
		}
		return nil, fmt.Errorf("failed to read invite index: %w", err)
	}

	return c.GetInvite(ctx, inviteID)
}

// ListInvites returns all invites, oldest first.
func (c *Client) ListInvites(ctx context.Context) ([]*Invite, error) {
	ids, err := c.rdb.SMembers(ctx, InvitesKey(c.instanceName)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}

	invites := make([]*Invite, 0, len(ids))
	for _, id := range ids {
		inv, err := c.GetInvite(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		invites = append(invites, inv)
	}

	sort.Slice(invites, func(i, j int) bool {
		if invites[i].CreatedAtMs == invites[j].CreatedAtMs {
			return invites[i].Email < invites[j].Email
		}
		return invites[i].CreatedAtMs < invites[j].CreatedAtMs
	})

	return invites, nil
}

// RevokeInvite deletes the invite for an address and publishes a revoked event.
// Returns redis.Nil if the address has not been invited.
func (c *Client) RevokeInvite(ctx context.Context, email string) error {
	inv, err := c.GetInviteByEmail(ctx, email)
	if err != nil {
		return err
	}

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, InviteKey(c.instanceName, inv.ID))
		pipe.Del(ctx, InviteByEmailKey(c.instanceName, inv.Email))
		pipe.SRem(ctx, InvitesKey(c.instanceName), inv.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to revoke invite: %w", err)
	}

	return c.publishInviteEvent(ctx, InviteEventRevoked, inv)
}

// OutboxLength returns the number of invitation emails waiting for delivery.
func (c *Client) OutboxLength(ctx context.Context) (int64, error) {
	n, err := c.rdb.LLen(ctx, OutboxKey(c.instanceName)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read outbox length: %w", err)
	}
	return n, nil
}

// PendingMail returns the queued mail jobs without removing them.
func (c *Client) PendingMail(ctx context.Context) ([]MailJob, error) {
	raw, err := c.rdb.LRange(ctx, OutboxKey(c.instanceName), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read outbox: %w", err)
	}

	jobs := make([]MailJob, 0, len(raw))
	for _, item := range raw {
		var job MailJob
		if err := json.Unmarshal([]byte(item), &job); err != nil {
			return nil, fmt.Errorf("failed to unmarshal mail job: %w", err)
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

func (c *Client) publishInviteEvent(ctx context.Context, eventType InviteEventType, inv *Invite) error {
	eventJSON, err := json.Marshal(InviteEvent{
		Type:      eventType,
		Invite:    inv,
		EmittedMs: time.Now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal invite event: %w", err)
	}

	if err := c.rdb.Publish(ctx, InviteEventsChannel(c.instanceName), eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish invite event: %w", err)
	}

	return nil
}

// Subscription represents an active Pub/Sub subscription to invite events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *InviteEvent
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of invite events.
// The channel will be closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan *InviteEvent {
	return s.events
}

// Errors returns the channel of subscription errors.
// The subscription continues after errors - messages are skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeInviteEvents subscribes to invite events for this instance.
// Caller must call subscription.Close() when done.
// Context cancellation also stops the subscription.
//
// Events are delivered on a buffered channel (size 10). Redis Pub/Sub is
// at-most-once: a slow subscriber may miss events.
func (c *Client) SubscribeInviteEvents(ctx context.Context) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, InviteEventsChannel(c.instanceName))

	// Wait for the subscription to be confirmed so no event published after
	// this call returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to invite events: %w", err)
	}

	eventsChan := make(chan *InviteEvent, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var event InviteEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal invite event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
