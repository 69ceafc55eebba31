// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	servertiming "github.com/mitchellh/go-server-timing"

	"codeberg.org/lingofe/lingofe/core/audit"
)

// writeTimings prints one row per request recorded in header.
func writeTimings(w io.Writer, header *servertiming.Header) error {
	timings := audit.Timings(header)
	if len(timings) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "METHOD\tURL\tDURATION\tTO")

	for _, t := range timings {
		to := string(t.Destination)
		if t.Cached {
			to += " (cached)"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Method, t.URL, t.Duration.Round(time.Microsecond), to)
	}

	return tw.Flush()
}
