package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyluth/muster/internal/printer"
)

var outboxCmd = &cobra.Command{
	Use:   "outbox",
	Short: "Show invitation emails waiting for delivery",
	Args:  cobra.NoArgs,
	RunE:  runOutbox,
}

func init() {
	rootCmd.AddCommand(outboxCmd)
}

func runOutbox(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	_, client, err := setup(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	jobs, err := client.PendingMail(ctx)
	if err != nil {
		return fmt.Errorf("failed to read outbox: %w", err)
	}

	if len(jobs) == 0 {
		printer.Info("Outbox is empty\n")
		return nil
	}

	now := time.Now()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tROLE\tINVITED BY\tQUEUED")
	for _, job := range jobs {
		age := formatDuration(now.Sub(time.UnixMilli(job.QueuedAtMs)))
		fmt.Fprintf(w, "%s\t%s\t%s\t%s ago\n", job.Email, job.RoleName, job.InvitedBy, age)
	}
	return w.Flush()
}
