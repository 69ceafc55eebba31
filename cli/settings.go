// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package cli

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"codeberg.org/lingofe/lingofe/core/settings"
	"codeberg.org/lingofe/lingofe/i18n"
)

func newSettingsCmd(s *state) *cobra.Command {
	var (
		refresh bool
		entity  string
	)

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show the platform settings used for filter options.",
		Long: `Show the platform settings.

Settings are cached locally for settings.ttl. --refresh discards the cached
copy first. With --entity, the filter options offered for that entity are
shown instead of the raw records.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := s.app
			ctx := cmd.Context()

			if refresh {
				if err := a.Settings.Invalidate(ctx); err != nil {
					return fmt.Errorf("failed to discard cached settings: %w", err)
				}

				a.InvalidateContent()
			}

			records := a.Settings.FetchSettings(ctx)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

			if entity != "" {
				e, err := lookupEntity(entity)
				if err != nil {
					return err
				}

				lang := i18n.TagFrom(ctx).String()

				fmt.Fprintln(tw, "FIELD\tOPTIONS")

				for _, f := range e.schema.Fields {
					if options := e.schema.Options(f.Name, records, lang); len(options) > 0 {
						fmt.Fprintf(tw, "%s\t%s\n", f.Name, strings.Join(options, ", "))
					}
				}

				return tw.Flush()
			}

			records = slices.Clone(records)
			slices.SortFunc(records, func(x, y settings.Record) int {
				return cmp.Or(cmp.Compare(x.Name, y.Name), cmp.Compare(x.Lang, y.Lang))
			})

			fmt.Fprintln(tw, "NAME\tLANG\tVALUE")

			for _, r := range records {
				lang := r.Lang
				if lang == "" {
					lang = "-"
				}

				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, lang, cell(r.Value))
			}

			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "discard the cached settings before reading")
	cmd.Flags().StringVar(&entity, "entity", "", "show filter options for this entity")

	return cmd
}
