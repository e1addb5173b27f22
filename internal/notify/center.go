// Package notify collects invite notifications and renders them to a terminal.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/dyluth/muster/internal/invite"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
)

// Center queues notifications until they are flushed.
// A notification whose Key matches a queued one replaces it in place.
type Center struct {
	mu      sync.Mutex
	entries []invite.Notification
}

// NewCenter creates an empty Center.
func NewCenter() *Center {
	return &Center{}
}

// Notify queues n. Safe for concurrent use.
func (c *Center) Notify(n invite.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n.Key != "" {
		for i := range c.entries {
			if c.entries[i].Key == n.Key {
				c.entries[i] = n
				return
			}
		}
	}
	c.entries = append(c.entries, n)
}

// Pending returns queued notifications in display order: immediate ones
// first, then delayed ones, each group in arrival order.
func (c *Center) Pending() []invite.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ordered()
}

func (c *Center) ordered() []invite.Notification {
	out := make([]invite.Notification, 0, len(c.entries))
	for _, n := range c.entries {
		if !n.Delayed {
			out = append(out, n)
		}
	}
	for _, n := range c.entries {
		if n.Delayed {
			out = append(out, n)
		}
	}
	return out
}

// Flush writes all queued notifications to w and clears the queue.
func (c *Center) Flush(w io.Writer) error {
	c.mu.Lock()
	pending := c.ordered()
	c.entries = nil
	c.mu.Unlock()

	for _, n := range pending {
		if err := write(w, n); err != nil {
			return fmt.Errorf("failed to write notification: %w", err)
		}
	}
	return nil
}

func write(w io.Writer, n invite.Notification) error {
	if n.Severity == invite.SeverityError {
		_, err := errorColor.Fprintf(w, "✗ %s\n", n.Message)
		return err
	}
	_, err := successColor.Fprintf(w, "✓ %s\n", n.Message)
	return err
}
