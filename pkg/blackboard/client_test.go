package blackboard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestClient creates a test client connected to a miniredis instance
func setupTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewClient(&redis.Options{Addr: mr.Addr()}, "test-instance")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func seedAuthor(t *testing.T, client *Client) *Role {
	t.Helper()
	role := &Role{ID: uuid.New().String(), Name: "Author"}
	require.NoError(t, client.SaveRole(context.Background(), role))
	return role
}

func TestNewClient(t *testing.T) {
	t.Run("creates client successfully", func(t *testing.T) {
		client, _ := setupTestClient(t)
		assert.NotNil(t, client)
		assert.Equal(t, "test-instance", client.InstanceName())
	})

	t.Run("rejects empty instance name", func(t *testing.T) {
		_, err := NewClient(&redis.Options{Addr: "localhost:6379"}, "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "instance name cannot be empty")
	})
}

func TestPing(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()

	assert.NoError(t, client.Ping(ctx))

	mr.Close()
	assert.Error(t, client.Ping(ctx))
}

func TestRoles(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	t.Run("save and get by name", func(t *testing.T) {
		role := seedAuthor(t, client)

		got, err := client.GetRoleByName(ctx, "Author")
		require.NoError(t, err)
		assert.Equal(t, role, got)
	})

	t.Run("missing role is not found", func(t *testing.T) {
		_, err := client.GetRoleByName(ctx, "Nobody")
		assert.True(t, IsNotFound(err))
	})

	t.Run("rejects invalid role", func(t *testing.T) {
		err := client.SaveRole(ctx, &Role{ID: "nope", Name: "Editor"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid role")
	})

	t.Run("seed keeps existing roles", func(t *testing.T) {
		existing, err := client.GetRoleByName(ctx, "Author")
		require.NoError(t, err)

		created, err := client.SeedRoles(ctx, []string{"Administrator", "Author", "Editor"})
		require.NoError(t, err)
		require.Len(t, created, 2)
		assert.Equal(t, "Administrator", created[0].Name)
		assert.Equal(t, "Editor", created[1].Name)

		after, err := client.GetRoleByName(ctx, "Author")
		require.NoError(t, err)
		assert.Equal(t, existing.ID, after.ID)
	})

	t.Run("list is sorted by name", func(t *testing.T) {
		roles, err := client.ListRoles(ctx)
		require.NoError(t, err)
		require.Len(t, roles, 3)
		assert.Equal(t, "Administrator", roles[0].Name)
		assert.Equal(t, "Author", roles[1].Name)
		assert.Equal(t, "Editor", roles[2].Name)
	})
}

func TestCreateInvite(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()
	role := seedAuthor(t, client)

	t.Run("stores a pending invite", func(t *testing.T) {
		inv := NewInvite("new@example.com", role.ID, "owner@example.com", time.Hour)
		require.NoError(t, client.CreateInvite(ctx, inv))

		got, err := client.GetInvite(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, inv, got)
		assert.Equal(t, InviteStatusPending, got.Status)

		byEmail, err := client.GetInviteByEmail(ctx, "NEW@example.com")
		require.NoError(t, err)
		assert.Equal(t, inv.ID, byEmail.ID)

		assert.True(t, mr.Exists(InviteKey("test-instance", inv.ID)))
	})

	t.Run("rejects a duplicate address", func(t *testing.T) {
		inv := NewInvite("New@Example.com", role.ID, "owner@example.com", time.Hour)
		err := client.CreateInvite(ctx, inv)
		require.Error(t, err)

		detail, ok := AsRejection(err)
		require.True(t, ok)
		assert.Equal(t, "A user with that email address was already invited.", detail)
	})

	t.Run("rejects an address the store considers invalid", func(t *testing.T) {
		inv := NewInvite("user@localhost", role.ID, "owner@example.com", time.Hour)
		err := client.CreateInvite(ctx, inv)

		detail, ok := AsRejection(err)
		require.True(t, ok)
		assert.Equal(t, "Email address must include a valid domain.", detail)

		_, err = client.GetInviteByEmail(ctx, "user@localhost")
		assert.True(t, IsNotFound(err))
	})

	t.Run("malformed invite is not a rejection", func(t *testing.T) {
		inv := NewInvite("other@example.com", "not-a-uuid", "owner@example.com", time.Hour)
		err := client.CreateInvite(ctx, inv)
		require.Error(t, err)
		_, ok := AsRejection(err)
		assert.False(t, ok)
		assert.Contains(t, err.Error(), "invalid invite")
	})
}

func TestQueueInviteEmail(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()
	role := seedAuthor(t, client)

	inv := NewInvite("new@example.com", role.ID, "owner@example.com", time.Hour)
	require.NoError(t, client.CreateInvite(ctx, inv))
	require.NoError(t, client.QueueInviteEmail(ctx, inv, role.Name))

	assert.Equal(t, InviteStatusSent, inv.Status)

	stored, err := client.GetInvite(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, InviteStatusSent, stored.Status)

	n, err := client.OutboxLength(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	jobs, err := client.PendingMail(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, inv.ID, jobs[0].InviteID)
	assert.Equal(t, inv.Token, jobs[0].Token)
	assert.Equal(t, "Author", jobs[0].RoleName)
	assert.Equal(t, "owner@example.com", jobs[0].InvitedBy)
}

func TestListAndRevokeInvites(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()
	role := seedAuthor(t, client)

	first := NewInvite("b@example.com", role.ID, "owner@example.com", time.Hour)
	first.CreatedAtMs -= 1000
	require.NoError(t, client.CreateInvite(ctx, first))
	second := NewInvite("a@example.com", role.ID, "owner@example.com", time.Hour)
	require.NoError(t, client.CreateInvite(ctx, second))

	invites, err := client.ListInvites(ctx)
	require.NoError(t, err)
	require.Len(t, invites, 2)
	assert.Equal(t, "b@example.com", invites[0].Email)
	assert.Equal(t, "a@example.com", invites[1].Email)

	require.NoError(t, client.RevokeInvite(ctx, "b@example.com"))

	invites, err = client.ListInvites(ctx)
	require.NoError(t, err)
	require.Len(t, invites, 1)
	assert.Equal(t, "a@example.com", invites[0].Email)

	t.Run("revoked address can be invited again", func(t *testing.T) {
		again := NewInvite("b@example.com", role.ID, "owner@example.com", time.Hour)
		assert.NoError(t, client.CreateInvite(ctx, again))
	})

	t.Run("revoking an unknown address is not found", func(t *testing.T) {
		err := client.RevokeInvite(ctx, "ghost@example.com")
		assert.True(t, IsNotFound(err))
	})
}

func TestSubscribeInviteEvents(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	role := seedAuthor(t, client)

	sub, err := client.SubscribeInviteEvents(ctx)
	require.NoError(t, err)
	defer sub.Close()

	inv := NewInvite("new@example.com", role.ID, "owner@example.com", time.Hour)
	require.NoError(t, client.CreateInvite(ctx, inv))
	require.NoError(t, client.QueueInviteEmail(ctx, inv, role.Name))

	var got []InviteEventType
	for len(got) < 2 {
		select {
		case event := <-sub.Events():
			require.NotNil(t, event)
			assert.Equal(t, inv.ID, event.Invite.ID)
			got = append(got, event.Type)
		case err := <-sub.Errors():
			t.Fatalf("unexpected subscription error: %v", err)
		case <-ctx.Done():
			t.Fatal("timed out waiting for invite events")
		}
	}

	assert.Equal(t, []InviteEventType{InviteEventCreated, InviteEventSent}, got)

	t.Run("close is idempotent", func(t *testing.T) {
		assert.NoError(t, sub.Close())
		assert.NoError(t, sub.Close())
	})
}
