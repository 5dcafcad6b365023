package services

import (
	"context"
	"log"
	"time"
)

// SendDigest builds the digest from the current list and hands it to the notifier.
func SendDigest(ctx context.Context, state *TaskState, notifier Notifier, horizonDays int, now time.Time) (Digest, error) {
	d := BuildDigest(state.Tasks(), now, horizonDays, state.FundsTaskID())
	if d.Empty() {
		log.Printf("[digest] nothing due within %d days", horizonDays)
		return d, nil
	}
	if err := notifier.Digest(ctx, d); err != nil {
		return d, err
	}
	log.Printf("[digest][ok] late=%d upcoming=%d", len(d.Late), len(d.Upcoming))
	return d, nil
}

// RunDigestLoop reloads the list and sends a digest every interval until ctx is done.
func RunDigestLoop(ctx context.Context, state *TaskState, notifier Notifier, interval time.Duration, horizonDays int) {
	if interval <= 0 || notifier == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Printf("[digest] scheduled every %s", interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := state.Load(ctx); err != nil {
				log.Printf("[digest][reload][err] %v", err)
			}
			if _, err := SendDigest(ctx, state, notifier, horizonDays, time.Now()); err != nil {
				log.Printf("[digest][err] %v", err)
			}
		}
	}
}
