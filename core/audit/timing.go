// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package audit

import (
	"encoding/base64"
	"strings"
	"time"

	servertiming "github.com/mitchellh/go-server-timing"
)

// cachedDesc marks metrics of requests answered from the response cache.
const cachedDesc = "cached"

// Timing is one request a [Span] recorded into a Server-Timing header.
type Timing struct {
	Destination TrafficDestination
	Method      string
	URL         string
	Duration    time.Duration
	Cached      bool
}

// Timings decodes the request metrics in header in the order the requests
// started. Metrics not recorded by spans are skipped.
func Timings(header *servertiming.Header) []Timing {
	if header == nil {
		return nil
	}

	header.Lock()
	defer header.Unlock()

	timings := make([]Timing, 0, len(header.Metrics))

	for _, m := range header.Metrics {
		parts := strings.SplitN(m.Name, "$", 3)
		if len(parts) != 3 {
			continue
		}

		rawURL, err := base64.RawURLEncoding.DecodeString(parts[2])
		if err != nil {
			continue
		}

		timings = append(timings, Timing{
			Destination: TrafficDestination(parts[0]),
			Method:      parts[1],
			URL:         string(rawURL),
			Duration:    m.Duration,
			Cached:      m.Desc == cachedDesc,
		})
	}

	return timings
}
