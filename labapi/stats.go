package labapi

import (
	"context"
	"time"
)

// CallStats adds up the API calls made on behalf of one incoming request
type CallStats struct {
	Calls    int
	Failures int
	Duration time.Duration
}

type callStatsKeyType struct{}

var callStatsKey = &callStatsKeyType{}

func WithCallStats(ctx context.Context) context.Context {
	return context.WithValue(ctx, callStatsKey, &CallStats{}) //nolint:exhaustruct
}

// GetCallStats is zero when the context doesn't carry stats
func GetCallStats(ctx context.Context) CallStats {
	stats, _ := ctx.Value(callStatsKey).(*CallStats)
	if stats == nil {
		return CallStats{} //nolint:exhaustruct
	}
	return *stats
}

func recordCall(ctx context.Context, t1 time.Time, failed bool) {
	stats, _ := ctx.Value(callStatsKey).(*CallStats)
	if stats == nil {
		return
	}
	stats.Calls++
	if failed {
		stats.Failures++
	}
	stats.Duration += time.Since(t1)
}
