// Package humanize produces the randomized pacing that makes automated
// activity look hand-driven: uniform delays between actions, pseudo-typing
// latency proportional to text length, and probabilistic action decisions.
package humanize

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"git.home.luguber.info/inful/socialpilot/internal/logfields"
)

// msPerChar approximates a human typing cadence of ~200ms per character.
const msPerChar = 200

// Humanizer generates randomized delays. All methods are safe for concurrent
// use. The zero value is not usable; construct with New.
type Humanizer struct {
	mu    sync.Mutex
	rand  *rand.Rand
	sleep func(ctx context.Context, d time.Duration)
}

// Option customizes a Humanizer.
type Option func(*Humanizer)

// WithRand injects a deterministic random source for tests.
func WithRand(r *rand.Rand) Option {
	return func(h *Humanizer) { h.rand = r }
}

// WithSleep replaces the sleep function. Tests use this to skip real waiting.
func WithSleep(fn func(ctx context.Context, d time.Duration)) Option {
	return func(h *Humanizer) { h.sleep = fn }
}

// New creates a Humanizer seeded from the current time.
func New(opts ...Option) *Humanizer {
	h := &Humanizer{
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Delay suspends for a uniformly sampled duration in [minSeconds, maxSeconds].
// Negative bounds are clamped to zero and an inverted range is swapped, so
// the call never panics on bad settings. Cancellation of ctx ends the delay
// early; the error (if any) is the context's.
func (h *Humanizer) Delay(ctx context.Context, minSeconds, maxSeconds float64) {
	if minSeconds < 0 {
		minSeconds = 0
	}
	if maxSeconds < minSeconds {
		minSeconds, maxSeconds = maxSeconds, minSeconds
		if minSeconds < 0 {
			minSeconds = 0
		}
	}
	span := maxSeconds - minSeconds
	h.mu.Lock()
	secs := minSeconds + h.rand.Float64()*span
	h.mu.Unlock()

	slog.Debug("Applying human delay", logfields.DelaySec(secs))
	h.sleep(ctx, time.Duration(secs*float64(time.Second)))
}

// TypingDelay suspends for roughly textLength characters of human typing:
// a base rate with ±15% jitter, clamped to never go negative.
func (h *Humanizer) TypingDelay(ctx context.Context, textLength int) {
	if textLength <= 0 {
		return
	}
	base := time.Duration(textLength*msPerChar) * time.Millisecond
	h.mu.Lock()
	jitter := (h.rand.Float64() - 0.5) * 0.3
	h.mu.Unlock()

	d := base + time.Duration(float64(base)*jitter)
	if d < 0 {
		d = 0
	}
	slog.Debug("Simulating typing", logfields.DelaySec(d.Seconds()), logfields.Count(textLength))
	h.sleep(ctx, d)
}

// ShouldDo returns true with the given probability. Probabilities outside
// [0,1] are clamped. Every call is an independent draw.
func (h *Humanizer) ShouldDo(probability float64) bool {
	if probability <= 0 {
		return false
	}
	if probability >= 1 {
		return true
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rand.Float64() < probability
}
