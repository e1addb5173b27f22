package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dyluth/muster/internal/gateway"
	"github.com/dyluth/muster/internal/invite"
	"github.com/dyluth/muster/internal/notify"
	"github.com/dyluth/muster/internal/printer"
)

var (
	inviteFile  string
	inviteOwner string
)

var inviteCmd = &cobra.Command{
	Use:   "invite [email...]",
	Short: "Invite collaborators by email address",
	Long: `Invite collaborators by email address.

Addresses are taken from the arguments, from --file, or from stdin, one
per line. Blank lines and duplicates are ignored, and the owner's own
address is never invited. If any address is malformed nothing is sent.

Every valid address is submitted concurrently with the configured role.
Muster moves on after invite.fallback_timeout_ms even if the store is
slow; submissions still in flight are allowed to finish.

Examples:
  # Invite two people
  muster invite alice@example.com bob@example.com

  # Invite everyone listed in a file
  muster invite --file team.txt

  # Pipe addresses in
  cat team.txt | muster invite`,
	RunE: runInvite,
}

func init() {
	inviteCmd.Flags().StringVarP(&inviteFile, "file", "f", "", "Read addresses from a file, one per line (- for stdin)")
	inviteCmd.Flags().StringVar(&inviteOwner, "owner", "", "Owner address to exclude (defaults to owner_email)")
	rootCmd.AddCommand(inviteCmd)
}

func runInvite(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	raw, err := readInviteInput(cmd.InOrStdin(), inviteFile, args)
	if err != nil {
		return printer.Error(
			"could not read addresses",
			err.Error(),
			[]string{"Pass addresses as arguments, with --file, or on stdin."},
		)
	}

	cfg, client, err := setup(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	owner := cfg.OwnerEmail
	if inviteOwner != "" {
		owner = inviteOwner
	}

	gw, err := gateway.New(client, cfg.Invite.Role, owner, cfg.InviteTTL())
	if err != nil {
		return fmt.Errorf("failed to create gateway: %w", err)
	}

	center := notify.NewCenter()
	task, err := invite.NewTask(invite.Config{
		Roles:     gw,
		Submitter: gw,
		Notifier:  center,
		Rejection: gateway.IsRejection,
		Transition: func() {
			printer.Step("Invitations submitted, continuing\n")
		},
		FallbackTimeout: cfg.FallbackTimeout(),
		InstanceName:    cfg.Instance,
	})
	if err != nil {
		return fmt.Errorf("failed to create invite task: %w", err)
	}

	form := invite.NewForm(nil)
	form.SetOwner(owner)
	form.SetInput(raw)

	report, err := task.Perform(ctx, form)
	if err != nil {
		var resErr *invite.ResolutionError
		if errors.As(err, &resErr) {
			return printer.ErrorWithContext(
				"role not available",
				resErr.Err.Error(),
				map[string]string{
					"Role":     cfg.Invite.Role,
					"Instance": cfg.Instance,
				},
				[]string{
					"Seed the role catalogue:\n  muster roles seed",
					"Choose an existing role with invite.role in muster.yml",
				},
			)
		}
		return fmt.Errorf("invite run failed: %w", err)
	}

	if messages := form.Messages(); len(messages) > 0 {
		lines := make([]string, 0, len(messages))
		for _, m := range messages {
			lines = append(lines, "  • "+m.Text)
		}
		return printer.Error(
			form.ButtonText(),
			strings.Join(lines, "\n"),
			[]string{"Fix the addresses and run the command again. Nothing was sent."},
		)
	}

	if err := center.Flush(cmd.OutOrStdout()); err != nil {
		return err
	}

	if report.Summary.HasFailures() {
		failed := len(report.Summary.Rejected) + len(report.Summary.Errored)
		return fmt.Errorf("%d of %d invitations failed", failed, len(report.Submitted))
	}

	return nil
}

// readInviteInput returns the raw newline-separated address list.
func readInviteInput(stdin io.Reader, file string, args []string) (string, error) {
	switch {
	case file == "-":
		return readAll(stdin)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", file, err)
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, "\n"), nil
	default:
		return readAll(stdin)
	}
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}
