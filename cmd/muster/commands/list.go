package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyluth/muster/internal/filter"
	"github.com/dyluth/muster/internal/printer"
	"github.com/dyluth/muster/internal/timespec"
	"github.com/dyluth/muster/pkg/blackboard"
)

var (
	listOutputFormat string
	listSince        string
	listUntil        string
	listStatus       string
	listRole         string
	listEmail        string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List invitations",
	Long: `List every invitation in the store, oldest first.

Output Formats:
  default - Table with role and time until expiry
  json    - JSON array for programmatic processing

Examples:
  # Invitations from the last day
  muster list --since 1d

  # Pending invitations for one domain
  muster list --status pending --email '*@example.com'`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listOutputFormat, "output", "o", "default", "Output format (default or json)")
	listCmd.Flags().StringVar(&listSince, "since", "", "Only invites created after this time (e.g. 1h, 7d, RFC3339)")
	listCmd.Flags().StringVar(&listUntil, "until", "", "Only invites created before this time")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Only invites with this status (pending or sent)")
	listCmd.Flags().StringVar(&listRole, "role", "", "Only invites granting this role")
	listCmd.Flags().StringVar(&listEmail, "email", "", "Only addresses matching this glob")
	rootCmd.AddCommand(listCmd)
}

// inviteRow is one line of list output.
type inviteRow struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	InvitedBy string `json:"invited_by"`
	Expires   string `json:"expires"`
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if listOutputFormat != "default" && listOutputFormat != "json" {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", listOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	now := time.Now()
	since, until, err := timespec.ParseRange(listSince, listUntil, now)
	if err != nil {
		return printer.Error("invalid time range", err.Error(), nil)
	}

	criteria := &filter.Criteria{
		SinceTimestampMs: since,
		UntilTimestampMs: until,
		EmailGlob:        listEmail,
		Status:           blackboard.InviteStatus(listStatus),
	}
	if listStatus != "" {
		if err := criteria.Status.Validate(); err != nil {
			return printer.Error(
				"invalid status",
				err.Error(),
				[]string{"Valid statuses: pending, sent"},
			)
		}
	}

	_, client, err := setup(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	invites, err := client.ListInvites(ctx)
	if err != nil {
		return fmt.Errorf("failed to list invites: %w", err)
	}

	roles, err := client.ListRoles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list roles: %w", err)
	}

	if listRole != "" {
		criteria.RoleID = roleID(roles, listRole)
		if criteria.RoleID == "" {
			return printer.Error(
				"unknown role",
				fmt.Sprintf("Role %q does not exist.", listRole),
				[]string{"List roles:\n  muster roles list"},
			)
		}
	}

	rows := buildRows(criteria.Apply(invites), roles, now)

	if listOutputFormat == "json" {
		return outputJSON(cmd.OutOrStdout(), rows)
	}

	if len(rows) == 0 {
		printer.Info("No invitations found\n")
		return nil
	}
	return outputTable(cmd.OutOrStdout(), rows)
}

func buildRows(invites []*blackboard.Invite, roles []*blackboard.Role, now time.Time) []inviteRow {
	roleNames := make(map[string]string, len(roles))
	for _, role := range roles {
		roleNames[role.ID] = role.Name
	}

	rows := make([]inviteRow, 0, len(invites))
	for _, inv := range invites {
		role, ok := roleNames[inv.RoleID]
		if !ok {
			role = "(unknown)"
		}

		expires := "expired"
		if !inv.Expired(now) {
			expires = "in " + formatDuration(time.UnixMilli(inv.ExpiresAtMs).Sub(now))
		}

		rows = append(rows, inviteRow{
			Email:     inv.Email,
			Role:      role,
			Status:    string(inv.Status),
			InvitedBy: inv.InvitedBy,
			Expires:   expires,
		})
	}
	return rows
}

func roleID(roles []*blackboard.Role, name string) string {
	for _, role := range roles {
		if role.Name == name {
			return role.ID
		}
	}
	return ""
}

func outputTable(out io.Writer, rows []inviteRow) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tROLE\tSTATUS\tINVITED BY\tEXPIRES")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Email, r.Role, r.Status, r.InvitedBy, r.Expires)
	}
	return w.Flush()
}

func outputJSON(out io.Writer, rows []inviteRow) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rows)
}

// formatDuration renders d with its two most significant units.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
