package payments

import (
	"context"
	"time"
)

// RunSweeper calls Sweep every interval until ctx is done. A non-positive
// interval disables it.
func (r *Reconciler) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		r.d.Logger.InfoContext(ctx, "reconcile sweep disabled")
		return
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
				r.d.Logger.ErrorContext(ctx, "reconcile sweep failed", "err", err)
			}
		}
	}
}
