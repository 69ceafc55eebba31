// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"codeberg.org/lingofe/lingofe/core"
	"codeberg.org/lingofe/lingofe/core/query"
)

const overviewConcurrency = 3

func newOverviewCmd(s *state) *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Count the available content of every type.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			totals := make([]int64, len(core.Schemas))

			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(overviewConcurrency)

			for i, schema := range core.Schemas {
				q := query.ApplyPageSizeChange(schema.Reset(), 1)
				if lang != "" {
					q = query.WithLanguage(q, lang)
				}

				g.Go(func() error {
					page, err := core.ListPage[json.RawMessage](gctx, s.app.API, schema, q)
					if err != nil {
						return fmt.Errorf("%s: %w", schema.Name, err)
					}

					totals[i] = page.TotalElements

					return nil
				})
			}

			if err := g.Wait(); err != nil {
				return fetchFailed(ctx, err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

			fmt.Fprintln(tw, "ENTITY\tTOTAL")

			for i, schema := range core.Schemas {
				fmt.Fprintf(tw, "%s\t%d\n", schema.Name, totals[i])
			}

			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "", "content language")

	return cmd
}
