package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyluth/muster/internal/printer"
	"github.com/dyluth/muster/internal/resolver"
)

var revokeCmd = &cobra.Command{
	Use:   "revoke <email|invite-id>",
	Short: "Revoke an invitation",
	Long: `Revoke an invitation by address, invite ID, or an ID prefix of at
least 6 characters.

The address can be invited again afterwards. Mail already queued on the
outbox is not recalled.`,
	Args: cobra.ExactArgs(1),
	RunE: runRevoke,
}

func init() {
	rootCmd.AddCommand(revokeCmd)
}

func runRevoke(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	ref := args[0]

	_, client, err := setup(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	inv, err := resolver.ResolveInvite(ctx, client, ref)
	if err != nil {
		var notFound *resolver.NotFoundError
		var ambiguous *resolver.AmbiguousError
		switch {
		case errors.As(err, &notFound):
			return printer.Error(
				"invitation not found",
				fmt.Sprintf("No invitation matches %s.", ref),
				[]string{"List invitations:\n  muster list"},
			)
		case errors.As(err, &ambiguous):
			return printer.Error(
				"ambiguous invite ID",
				fmt.Sprintf("%s matches %d invitations:\n%s", ref, len(ambiguous.Matches), ambiguous.FormatMatches()),
				[]string{"Use a longer prefix or the full address."},
			)
		}
		return printer.Error("invalid invite reference", err.Error(), nil)
	}

	if err := client.RevokeInvite(ctx, inv.Email); err != nil {
		return fmt.Errorf("failed to revoke invite: %w", err)
	}

	printer.Success("Revoked invitation for %s\n", inv.Email)
	return nil
}
