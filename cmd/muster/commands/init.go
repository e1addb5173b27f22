package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyluth/muster/internal/printer"
	"github.com/dyluth/muster/internal/scaffold"
)

var (
	forceInit    bool
	initOwner    string
	initInstance string
	initRedisURL string
	initRole     string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a muster.yml",
	Long: `Create a muster.yml with default settings.

Use --force to overwrite an existing file.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing muster.yml")
	initCmd.Flags().StringVar(&initOwner, "owner", "", "Owner email address (required)")
	initCmd.Flags().StringVar(&initInstance, "instance", "", "Instance name (default \"default\")")
	initCmd.Flags().StringVar(&initRedisURL, "redis-url", "", "Redis URL (default redis://localhost:6379)")
	initCmd.Flags().StringVar(&initRole, "role", "", "Role granted to invitees (default \"Author\")")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := scaffold.Initialize(scaffold.Options{
		Path:       configPath,
		OwnerEmail: initOwner,
		Instance:   initInstance,
		RedisURL:   initRedisURL,
		Role:       initRole,
	}, forceInit)
	if err != nil {
		var exists *scaffold.ExistsError
		if errors.As(err, &exists) {
			return printer.Error(
				"already initialized",
				fmt.Sprintf("Found existing %s.", exists.Path),
				[]string{"Use 'muster init --force' to overwrite it."},
			)
		}
		return printer.Error("initialization failed", err.Error(), []string{"Pass your address:\n  muster init --owner you@example.com"})
	}

	printer.Success("Created %s\n", configPath)
	printer.Info("\nNext steps:\n")
	printer.Info("  1. Seed the role catalogue: muster roles seed\n")
	printer.Info("  2. Invite collaborators:   muster invite alice@example.com\n")
	printer.Info("\nInvitees get the %q role on instance %q.\n", cfg.Invite.Role, cfg.Instance)
	return nil
}
