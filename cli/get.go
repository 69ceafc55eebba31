// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGetCmd(s *state) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "get <entity> <id>",
		Short: "Show a single item.",
		Long: `Show a single item as YAML, or as JSON with --output json.

  lingofe get vocabulary 12
`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: entityNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := lookupEntity(args[0])
			if err != nil {
				return err
			}

			if format != "yaml" && format != "json" {
				return fmt.Errorf("unsupported output format %q", format)
			}

			return e.get(cmd.Context(), s.app, args[1], format, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "yaml", "output format (yaml or json)")

	return cmd
}
