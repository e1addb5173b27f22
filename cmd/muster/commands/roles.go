package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dyluth/muster/internal/printer"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "Manage the role catalogue",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var rolesSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Add the roles listed in muster.yml",
	Long: `Add every role listed under roles in muster.yml to the store.

Roles that already exist keep their IDs, so seeding is safe to repeat.`,
	Args: cobra.NoArgs,
	RunE: runRolesSeed,
}

var rolesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List roles in the store",
	Args:  cobra.NoArgs,
	RunE:  runRolesList,
}

func init() {
	rolesCmd.AddCommand(rolesSeedCmd, rolesListCmd)
	rootCmd.AddCommand(rolesCmd)
}

func runRolesSeed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, client, err := setup(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	created, err := client.SeedRoles(ctx, cfg.Roles)
	if err != nil {
		return fmt.Errorf("failed to seed roles: %w", err)
	}

	if len(created) == 0 {
		printer.Info("All %d roles already exist\n", len(cfg.Roles))
		return nil
	}

	for _, role := range created {
		printer.Success("Added role %s\n", role.Name)
	}
	return nil
}

func runRolesList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	_, client, err := setup(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	roles, err := client.ListRoles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list roles: %w", err)
	}

	if len(roles) == 0 {
		printer.Info("No roles found\n")
		printer.Info("\nSeed the catalogue:\n  muster roles seed\n")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tID")
	for _, role := range roles {
		fmt.Fprintf(w, "%s\t%s\n", role.Name, role.ID)
	}
	return w.Flush()
}
