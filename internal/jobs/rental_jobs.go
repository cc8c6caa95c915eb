package jobs

import (
	"context"

	"peerrent-backend/internal/logger"
)

// ReapExpiredRentals hard-deletes pending rental requests whose soft TTL
// has passed. Reads already ignore expired requests; this job just keeps
// the table from accumulating dead rows.
func (jr *JobRunner) ReapExpiredRentals() {
	jr.runWithRecovery("ReapExpiredRentals", func() {
		ctx := context.Background()

		deleted, err := jr.store.DeleteExpiredPending(ctx)
		if err != nil {
			logger.Error("Failed to reap expired rental requests", "error", err)
			return
		}
		logger.Info("Reaped expired rental requests", "count", deleted)
	})
}

// MarkLateReturns flips ongoing rentals past their anticipated end to
// late_return.
func (jr *JobRunner) MarkLateReturns() {
	jr.runWithRecovery("MarkLateReturns", func() {
		ctx := context.Background()

		ids, err := jr.store.MarkLateReturns(ctx)
		if err != nil {
			logger.Error("Failed to mark late returns", "error", err)
			return
		}

		logger.Info("Marked rentals as late", "count", len(ids))
		for _, id := range ids {
			logger.Debug("Marked rental as late", "rental_id", id)
		}
	})
}
