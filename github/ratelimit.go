package github

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// rateGate enforces a minimum delay between consecutive outbound requests.
// The gate is shared across all request kinds so concurrent callers cannot
// stack requests closer together than the caller-supplied gap.
type rateGate struct {
	mu   sync.Mutex
	last time.Time
}

// wait blocks until at least gap has passed since the previous request, or
// the context is done. The reservation is taken before sleeping, so a
// second caller waits behind the first.
func (g *rateGate) wait(ctx context.Context, gap time.Duration) error {
	g.mu.Lock()
	now := time.Now()
	next := g.last.Add(gap)
	if next.Before(now) {
		next = now
	}
	g.last = next
	g.mu.Unlock()

	pause := time.Until(next)
	if pause <= 0 {
		return nil
	}

	timer := time.NewTimer(pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// quotaWarnLevel is the remaining-points mark below which every response
// logs a warning.
const quotaWarnLevel = 100

// quotaLedger tracks the API point budget from the rateLimit envelope
// carried by every GraphQL response.
type quotaLedger struct {
	mu        sync.Mutex
	cost      int
	remaining int
	resetAt   time.Time
	seen      bool
}

// record books one response's rateLimit envelope. Returns ErrQuotaExhausted
// when the budget hits zero; the caller must stop issuing requests.
func (q *quotaLedger) record(rl rateLimitInfo, logger *slog.Logger) error {
	q.mu.Lock()
	q.cost += rl.Cost
	q.remaining = rl.Remaining
	q.resetAt = rl.ResetAt
	q.seen = true
	q.mu.Unlock()

	if rl.Remaining <= 0 {
		return fmt.Errorf("%w: resets at %s", ErrQuotaExhausted, rl.ResetAt.Format(time.RFC3339))
	}
	if rl.Remaining < quotaWarnLevel {
		logger.Warn("API quota running low",
			"remaining", rl.Remaining,
			"reset_at", rl.ResetAt.Format(time.RFC3339))
	}
	return nil
}

// usage returns the accumulated cost and the last reported remaining
// budget. remaining is -1 until the first response has been recorded.
func (q *quotaLedger) usage() (cost, remaining int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.seen {
		return q.cost, -1
	}
	return q.cost, q.remaining
}
