// Package blackboard is the Redis-backed store behind muster.
//
// # Overview
//
// The blackboard holds the role catalogue, the invitations that have been
// created, and the outbox of invitation emails waiting for delivery. It is
// the "remote system" of the invite workflow: it performs its own checks on
// every invitation and rejects the ones it considers invalid with a
// RejectionError.
//
// # Multi-Instance Support
//
// All Redis keys and Pub/Sub channels are namespaced by instance name so that
// several muster instances can share one Redis server.
//
// # Redis Schema
//
// Invites: muster:{instance}:invite:{invite_id} (hash)
// Invite index by email: muster:{instance}:invite_by_email:{email} (string)
// Invite set: muster:{instance}:invites (set of IDs)
// Roles: muster:{instance}:roles (hash of role name to JSON)
// Outbox: muster:{instance}:outbox (list of JSON mail jobs)
//
// Invite Events: muster:{instance}:invite_events
//
// # Usage Example
//
//	client, err := blackboard.NewClient(&redis.Options{Addr: "localhost:6379"}, "default")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	role, err := client.GetRoleByName(ctx, "Author")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	inv := blackboard.NewInvite("new.user@example.com", role.ID, "owner@example.com", 7*24*time.Hour)
//	if err := client.CreateInvite(ctx, inv); err != nil {
//		if detail, ok := blackboard.AsRejection(err); ok {
//			fmt.Println("rejected:", detail)
//		}
//	}
package blackboard
