// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
LingoFE is a command line client for a language-learning content API.
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/lingofe/lingofe/cli"
	"codeberg.org/lingofe/lingofe/core/audit"
)

func main() {
	os.Exit(run())
}

// run installs the default logger and executes the command line until it
// finishes or a shutdown signal arrives.
func run() int {
	audit.SetDefaultLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return cli.Execute(ctx)
}
