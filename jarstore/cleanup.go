package jarstore

import (
	"context"
	"time"

	"environovalab/log"
	"environovalab/oops"
)

// Jars of sessions that haven't talked to the API for this long are dropped
const DefaultMaxAge = 45 * 24 * time.Hour

const maxCleanupFailures = 5

func Cleanup(ctx context.Context, store Store, maxAge time.Duration, logger log.Logger) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	pruned, err := store.Prune(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	logger.Info().Msgf("Deleted %d stale cookie jars", pruned)
	return pruned, nil
}

// RunCleanup prunes stale jars every interval until ctx is done. A run of consecutive failures
// stops it.
func RunCleanup(ctx context.Context, store Store, interval, maxAge time.Duration, logger log.Logger) error {
	failures := 0
	for {
		_, err := Cleanup(ctx, store, maxAge, logger)
		if ctx.Err() != nil {
			return nil //nolint:nilerr
		}
		if err != nil {
			failures++
			logger.Error().Err(err).Msgf("Jar cleanup failures: %d", failures)
			if failures >= maxCleanupFailures {
				return oops.Newf("Max jar cleanup failures reached (%d)", failures)
			}
		} else {
			failures = 0
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}
