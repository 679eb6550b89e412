// Command probe drives a headless map page against a running backend: it selects
// a coordinate, fetches the forecast and prints the risk cards. Transient failures
// are retried with exponential backoff; land coordinates are not.
//
// Usage:
//
//	go run ./cmd/probe -url http://localhost:8080 -lat 54.544587 -lon 10.227487
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/couchcryptid/marine-risk-service/internal/adapter/forecastapi"
	"github.com/couchcryptid/marine-risk-service/internal/controller"
	"github.com/couchcryptid/marine-risk-service/internal/domain"
	"github.com/couchcryptid/marine-risk-service/internal/observability"
	"github.com/couchcryptid/marine-risk-service/internal/retry"
	"github.com/couchcryptid/marine-risk-service/internal/weather"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "backend base URL")
	lat := flag.Float64("lat", weather.DefaultLatitude, "latitude")
	lon := flag.Float64("lon", weather.DefaultLongitude, "longitude")
	attempts := flag.Int("attempts", 3, "attempts before giving up")
	timeout := flag.Duration("timeout", 30*time.Second, "per-request timeout")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	logger := observability.NewLogger(*logLevel, "text")
	client := forecastapi.NewClient(*baseURL, *timeout, logger)

	policy := retry.Default
	policy.Attempts = *attempts

	st, err := probe(context.Background(), client, domain.Coordinate{Latitude: *lat, Longitude: *lon}, policy, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "probe failed: %s\n", domain.UserMessage(err))
		os.Exit(1)
	}
	printCards(os.Stdout, st)
}

// probe selects coord on a fresh controller and fetches until it succeeds or
// the failure is not worth retrying.
func probe(ctx context.Context, fetcher controller.Fetcher, coord domain.Coordinate, policy retry.Policy, logger *slog.Logger) (controller.State, error) {
	page := controller.New(fetcher, controller.WithLogger(logger))
	page.Select(coord)

	var st controller.State
	err := policy.Do(ctx, func(ctx context.Context) error {
		var fetchErr error
		st, fetchErr = page.Fetch(ctx)
		if errors.Is(fetchErr, domain.ErrLandCoordinate) {
			return retry.Permanent(fetchErr)
		}
		return fetchErr
	}, func(attempt int, wait time.Duration, err error) {
		logger.Warn("forecast attempt failed", "attempt", attempt, "backoff", wait, "error", err)
	})
	return st, err
}

func printCards(w io.Writer, st controller.State) {
	if st.Coordinate != nil {
		fmt.Fprintf(w, "Marine risk at %s\n\n", st.Coordinate)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tVALUE\tRISK")
	for _, c := range st.Cards {
		fmt.Fprintf(tw, "%s\t%g\t%s\n", c.Metric, c.Value, c.Label)
	}
	_ = tw.Flush()
}
