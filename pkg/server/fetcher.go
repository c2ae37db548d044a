package server

import (
	"context"
	"fmt"
	"time"

	"github.com/vango-dev/querybind/pkg/fetch"
)

// FailValue makes the simulated fetcher fail instead of resolving.
const FailValue = "fail"

// SimulatedFetcher resolves with its argument after delay, standing in for a
// network call. The argument FailValue produces an error instead.
func SimulatedFetcher(delay time.Duration) fetch.Operation[string, string] {
	return func(ctx context.Context, args string) (string, error) {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		if args == FailValue {
			return "", fmt.Errorf("simulated failure for %q", args)
		}
		return args, nil
	}
}
