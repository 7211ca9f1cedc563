package scheduler

import (
	"context"
	"time"

	"pricewatch/internal/domain"
	applog "pricewatch/internal/log"
)

// Runner is the pipeline entry point the scheduler drives.
type Runner interface {
	Run(ctx context.Context) domain.RunSummary
}

// Run executes the pipeline immediately, then on every tick, until ctx
// is cancelled. Blocks; start it in a goroutine.
func Run(ctx context.Context, svc Runner, interval time.Duration) {
	if interval <= 0 {
		applog.Op("scheduler.disabled", nil)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	applog.Op("scheduler.start", map[string]any{"interval": interval.String()})

	runOnce(ctx, svc)
	for {
		select {
		case <-ctx.Done():
			applog.Op("scheduler.stop", nil)
			return
		case <-ticker.C:
			runOnce(ctx, svc)
		}
	}
}

func runOnce(ctx context.Context, svc Runner) {
	summary := svc.Run(ctx)
	applog.Op("scheduler.run", map[string]any{
		"success": summary.Success,
		"updated": summary.ProductsUpdated,
		"details": summary.Details,
	})
}
