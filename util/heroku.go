package util

import (
	"context"
	"time"

	"environovalab/log"

	"github.com/heroku/x/hmetrics"
)

// ReportHerokuMetrics sends Go runtime metrics to Heroku until ctx is done
func ReportHerokuMetrics(ctx context.Context, logger log.Logger) {
	var lastErrorTime time.Time
	var errorHandler hmetrics.ErrHandler = func(err error) error {
		if time.Since(lastErrorTime) < time.Hour {
			logger.Error().Err(err).
				Msgf("Error sending heroku metrics (previously errored at %v)", lastErrorTime)
		} else {
			logger.Info().Err(err).
				Msg("Error sending heroku metrics (first error within an hour)")
		}
		lastErrorTime = time.Now().UTC()
		return nil
	}
	for backoff := int64(1); ; backoff++ {
		start := time.Now()
		err := hmetrics.Report(ctx, hmetrics.DefaultEndpoint, errorHandler)
		if ctx.Err() != nil {
			return
		}
		if time.Since(start) > 5*time.Minute {
			backoff = 1
		}
		if err != nil {
			_ = errorHandler(err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(backoff*10) * time.Second):
		}
	}
}
