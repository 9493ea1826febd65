package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/havenhq/haven/internal/permissions"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	permissionsRole   string
	permissionsFormat string
)

var permissionsCmd = &cobra.Command{
	Use:   "permissions",
	Short: "Print the role to permission table",
	Long: `Print the static permission set of every role, or of one role with --role.

Examples:
  haven permissions
  haven permissions --role manager
  haven permissions --format yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		roles := permissions.Roles()
		if permissionsRole != "" {
			role, ok := permissions.ParseRole(permissionsRole)
			if !ok {
				return fmt.Errorf("unknown role %q", permissionsRole)
			}
			roles = []permissions.Role{role}
		}
		return writePermissions(cmd.OutOrStdout(), roles, permissionsFormat)
	},
}

func init() {
	permissionsCmd.Flags().StringVarP(&permissionsRole, "role", "r", "", "Only show this role")
	permissionsCmd.Flags().StringVarP(&permissionsFormat, "format", "f", "table", "Output format: table, json, or yaml")
}

type roleEntry struct {
	Role        string   `json:"role" yaml:"role"`
	Permissions []string `json:"permissions" yaml:"permissions"`
}

func writePermissions(w io.Writer, roles []permissions.Role, format string) error {
	entries := make([]roleEntry, 0, len(roles))
	for _, role := range roles {
		perms := permissions.PermissionsFor(role)
		names := make([]string, len(perms))
		for i, p := range perms {
			names[i] = string(p)
		}
		entries = append(entries, roleEntry{Role: string(role), Permissions: names})
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	case "table":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ROLE\tCOUNT\tPERMISSIONS")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", e.Role, len(e.Permissions), strings.Join(e.Permissions, ", "))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported format %q (supported: table, json, yaml)", format)
	}
}
