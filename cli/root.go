// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package cli implements the lingofe command line interface.

Every command except version assembles an [app.App] from the configuration
before it runs; the app is closed once the command returns, which waits for
pending telemetry.
*/
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	servertiming "github.com/mitchellh/go-server-timing"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"codeberg.org/lingofe/lingofe/app"
	"codeberg.org/lingofe/lingofe/config"
	"codeberg.org/lingofe/lingofe/i18n"
)

// annotationNoApp marks commands that run without configuration.
const annotationNoApp = "lingofe/no-app"

// Builder assembles the app for a command. configPath is the value of the
// --config flag.
type Builder func(configPath string) (*app.App, error)

// LoadApp is the default [Builder]: it loads the global configuration, sets up
// translations and wires the app.
func LoadApp(configPath string) (*app.App, error) {
	if err := config.Global.LoadConfig(configPath); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := i18n.Setup(); err != nil {
		return nil, fmt.Errorf("failed to initialize i18n engine: %w", err)
	}

	return app.New(&config.Global, app.Options{Logger: log.Logger})
}

// state is shared by the commands of one invocation.
type state struct {
	build      Builder
	configPath string
	timing     bool
	app        *app.App

	// timings collects a metric per request when --timing is set.
	timings *servertiming.Header
}

func (s *state) close() error {
	if s.app == nil {
		return nil
	}

	err := s.app.Close()
	s.app = nil

	return err
}

// shutdown closes the app, which waits for pending telemetry, and then prints
// the request timings when they were collected.
func (s *state) shutdown(w io.Writer) error {
	err := s.close()

	if s.timings != nil {
		if timingErr := writeTimings(w, s.timings); timingErr != nil {
			err = errors.Join(err, timingErr)
		}
	}

	return err
}

func newRootCmd(s *state) *cobra.Command {
	root := &cobra.Command{
		Use:   "lingofe",
		Short: "Browse language-learning content and practise with quizzes.",
		Long: `LingoFE is a client for a language-learning content API.

It lists vocabulary, expressions, sentences, articles, media and quiz
questions with filters, and grades fill-in-the-blank questions interactively.

  lingofe list vocabulary --lang ja --tag food --page 2
  lingofe quiz 42
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[annotationNoApp] == "true" {
				return nil
			}

			a, err := s.build(s.configPath)
			if err != nil {
				return err
			}

			s.app = a
			ctx := a.Context(cmd.Context())

			if s.timing {
				s.timings = &servertiming.Header{}
				ctx = servertiming.NewContext(ctx, s.timings)
			}

			cmd.SetContext(ctx)

			return nil
		},
	}

	root.PersistentFlags().
		StringVar(&s.configPath, "config", "", "config file (default is ./config.yaml)")
	root.PersistentFlags().
		BoolVar(&s.timing, "timing", false, "print the duration of every API request to stderr")

	root.AddCommand(
		newListCmd(s),
		newGetCmd(s),
		newOverviewCmd(s),
		newSettingsCmd(s),
		newQuizCmd(s),
		newPrefsCmd(s),
		newVersionCmd(),
	)

	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	s := &state{build: LoadApp}
	root := newRootCmd(s)

	err := root.ExecuteContext(ctx)

	if closeErr := s.shutdown(root.ErrOrStderr()); closeErr != nil {
		log.Warn().Err(closeErr).Msg("Failed to shut down cleanly")
	}

	if err == nil {
		return 0
	}

	var shown *displayError
	if errors.As(err, &shown) {
		log.Debug().Err(shown.err).Msg("Command failed")
	}

	root.PrintErrln("Error:", err)

	return 1
}
