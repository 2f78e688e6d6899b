package shopify

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// DefaultThrottleFloor is the available-capacity level below which the
// client pauses before its next request.
const DefaultThrottleFloor = 100

// Prometheus metrics for cost throttle tracking.
var (
	shopifyThrottleAvailable = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shopify_throttle_available_points",
		Help: "Cost capacity available as reported by the last Admin API response",
	})

	shopifyThrottleWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopify_throttle_waits_total",
		Help: "Total number of requests delayed by the cost throttle",
	})

	shopifyThrottleWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shopify_throttle_wait_seconds",
		Help:    "Duration of cost throttle pauses",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	})
)

// Throttle watches the query-cost bucket reported in each response and
// holds the next request back while the bucket recovers. It is advisory
// and best-effort: a hard 429 still surfaces as a fatal HTTPError.
type Throttle struct {
	mu       sync.Mutex
	floor    float64
	resumeAt time.Time
	logger   zerolog.Logger
}

// NewThrottle creates a throttle that engages when available capacity
// drops below floor points.
func NewThrottle(floor float64, logger zerolog.Logger) *Throttle {
	if floor <= 0 {
		floor = DefaultThrottleFloor
	}
	return &Throttle{floor: floor, logger: logger}
}

// Observe records the cost envelope of a completed request. When the
// remaining capacity is below the floor, the next request is held back
// for requestedQueryCost / restoreRate seconds, the time the bucket
// needs to earn that cost back.
func (t *Throttle) Observe(cost *Cost) {
	if cost == nil {
		return
	}
	status := cost.ThrottleStatus
	shopifyThrottleAvailable.Set(status.CurrentlyAvailable)

	t.mu.Lock()
	defer t.mu.Unlock()

	if status.CurrentlyAvailable >= t.floor {
		t.resumeAt = time.Time{}
		return
	}

	wait := restoreDelay(cost)
	if wait <= 0 {
		return
	}
	t.resumeAt = time.Now().Add(wait)

	t.logger.Warn().
		Float64("available", status.CurrentlyAvailable).
		Float64("floor", t.floor).
		Dur("wait", wait).
		Msg("Cost capacity low - delaying next request")
}

// restoreDelay returns how long the bucket needs to restore the cost of
// the last query.
func restoreDelay(cost *Cost) time.Duration {
	rate := cost.ThrottleStatus.RestoreRate
	if rate <= 0 {
		return 0
	}
	seconds := cost.RequestedQueryCost / rate
	return time.Duration(seconds * float64(time.Second))
}

// Pause blocks until the hold set by the previous Observe has elapsed,
// then clears it. Requests issued while the bucket is healthy pass
// through immediately.
func (t *Throttle) Pause(ctx context.Context) error {
	t.mu.Lock()
	resumeAt := t.resumeAt
	t.resumeAt = time.Time{}
	t.mu.Unlock()

	wait := time.Until(resumeAt)
	if wait <= 0 {
		return nil
	}

	shopifyThrottleWaitsTotal.Inc()
	shopifyThrottleWaitSeconds.Observe(wait.Seconds())

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NextDelay reports the remaining hold without consuming it.
func (t *Throttle) NextDelay() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	wait := time.Until(t.resumeAt)
	if wait < 0 {
		return 0
	}
	return wait
}
