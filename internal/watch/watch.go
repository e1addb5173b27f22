// Package watch streams invite activity from the blackboard.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/dyluth/muster/pkg/blackboard"
)

// OutputFormat selects how events are written.
type OutputFormat int

const (
	// OutputFormatDefault is human-readable with timestamps
	OutputFormatDefault OutputFormat = iota
	// OutputFormatJSON is line-delimited JSON
	OutputFormatJSON
)

// formatter writes one invite event.
type formatter interface {
	FormatInvite(event *blackboard.InviteEvent) error
}

func newFormatter(format OutputFormat, w io.Writer) formatter {
	if format == OutputFormatJSON {
		return &jsonFormatter{writer: w}
	}
	return &defaultFormatter{writer: w}
}

// defaultFormatter prints one line per event.
type defaultFormatter struct {
	writer io.Writer
}

func (f *defaultFormatter) FormatInvite(event *blackboard.InviteEvent) error {
	ts := time.UnixMilli(event.EmittedMs).Format("15:04:05")

	var label string
	switch event.Type {
	case blackboard.InviteEventCreated:
		label = "📨 Invite created"
	case blackboard.InviteEventSent:
		label = "✉️  Invite sent"
	case blackboard.InviteEventRevoked:
		label = "🚫 Invite revoked"
	default:
		label = fmt.Sprintf("Invite %s", event.Type)
	}

	if event.Invite == nil {
		_, err := fmt.Fprintf(f.writer, "[%s] %s\n", ts, label)
		return err
	}

	_, err := fmt.Fprintf(f.writer, "[%s] %s: email=%s, status=%s, id=%s\n",
		ts, label, event.Invite.Email, event.Invite.Status, event.Invite.ID)
	return err
}

// jsonFormatter prints each event as one JSON object per line.
type jsonFormatter struct {
	writer io.Writer
}

func (f *jsonFormatter) FormatInvite(event *blackboard.InviteEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal invite event: %w", err)
	}
	_, err = fmt.Fprintf(f.writer, "%s\n", data)
	return err
}

// StreamInvites writes invite events to w until ctx is cancelled or the
// subscription closes. Malformed events are logged and skipped.
func StreamInvites(ctx context.Context, client *blackboard.Client, format OutputFormat, w io.Writer) error {
	sub, err := client.SubscribeInviteEvents(ctx)
	if err != nil {
		return err
	}
	defer sub.Close()

	out := newFormatter(format, w)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := out.FormatInvite(event); err != nil {
				return fmt.Errorf("failed to write event: %w", err)
			}

		case err, ok := <-sub.Errors():
			if !ok {
				return nil
			}
			log.Printf("[Watch] Subscription error: %v", err)
		}
	}
}
