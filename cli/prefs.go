// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"codeberg.org/lingofe/lingofe/config"
	"codeberg.org/lingofe/lingofe/i18n"
)

func newPrefsCmd(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change the display preferences.",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Show the stored display language and theme.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx := cmd.Context()
				out := cmd.OutOrStdout()

				fmt.Fprintf(out, "language: %s (showing %s)\n", orNone(s.app.Prefs.Language(ctx)), i18n.TagFrom(ctx))
				fmt.Fprintf(out, "theme: %s\n", s.app.Prefs.Theme(ctx))

				return nil
			},
		},
		&cobra.Command{
			Use:   "set <language|theme> <value>",
			Short: "Store a display preference.",
			Long: fmt.Sprintf(`Store a display preference.

The language is a BCP 47 tag such as "ja" or "pt-BR". The theme is one of %v.
`, config.Themes),
			Args:      cobra.ExactArgs(2),
			ValidArgs: []string{"language", "theme"},
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				prefs := s.app.Prefs

				switch args[0] {
				case "language":
					lang, err := prefs.SetLanguage(ctx, args[1])
					if err != nil {
						return err
					}

					if !i18n.IsSupported(lang) {
						s.app.Logger.Warn().
							Str("language", lang).
							Msg("No translations for this language, messages will use the closest match")
					}

					fmt.Fprintf(cmd.OutOrStdout(), "language: %s\n", lang)
				case "theme":
					if err := prefs.SetTheme(ctx, args[1]); err != nil {
						return err
					}

					fmt.Fprintf(cmd.OutOrStdout(), "theme: %s\n", args[1])
				default:
					return fmt.Errorf("%w: %q", errUnknownPreference, args[0])
				}

				return nil
			},
		},
	)

	return cmd
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
