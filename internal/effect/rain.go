package effect

import (
	"context"
	"sync"
	"time"
)

// Default timings of a rain.
const (
	DefaultInterval = 100 * time.Millisecond
	DefaultDuration = 5000 * time.Millisecond
)

// Rain starts at most one emoji rain at a time.
type Rain struct {
	Interval time.Duration
	Duration time.Duration

	gen     *Generator
	mu      sync.Mutex
	current *Handle
}

// NewRain returns a Rain with default timings. A nil generator is seeded from the clock.
func NewRain(gen *Generator) *Rain {
	if gen == nil {
		gen = NewGenerator()
	}
	return &Rain{Interval: DefaultInterval, Duration: DefaultDuration, gen: gen}
}

// Start stops any running rain and starts a new one.
// The rain ends after Duration, when ctx is done, or on Stop.
func (r *Rain) Start(ctx context.Context) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		r.current.Stop()
	}
	h := start(ctx, r.gen, r.Interval, r.Duration)
	r.current = h
	return h
}

// Stop ends the running rain, if any.
func (r *Rain) Stop() {
	r.mu.Lock()
	h := r.current
	r.current = nil
	r.mu.Unlock()
	if h != nil {
		h.Stop()
	}
}

// Active reports whether a rain is running.
func (r *Rain) Active() bool {
	r.mu.Lock()
	h := r.current
	r.mu.Unlock()
	return h != nil && h.Active()
}

// Handle controls one running rain.
type Handle struct {
	drops  chan Drop
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once
}

func start(ctx context.Context, gen *Generator, interval, duration time.Duration) *Handle {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		drops:  make(chan Drop, 16),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go h.run(ctx, gen, interval, duration)
	return h
}

func (h *Handle) run(ctx context.Context, gen *Generator, interval, duration time.Duration) {
	ticker := time.NewTicker(interval)
	timer := time.NewTimer(duration)
	defer func() {
		h.cancel()
		ticker.Stop()
		timer.Stop()
		close(h.drops)
		close(h.done)
	}()
	started := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			return
		case <-ticker.C:
			if time.Since(started) > duration {
				return
			}
			select {
			case h.drops <- gen.Next():
			default:
				// Slow consumer; skip this drop.
			}
		}
	}
}

// Drops streams drops until the rain ends, then closes.
func (h *Handle) Drops() <-chan Drop {
	return h.drops
}

// Done is closed when the rain has ended.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Active reports whether the rain is still running.
func (h *Handle) Active() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Stop ends the rain and waits until both timers are released. It is safe to call repeatedly.
func (h *Handle) Stop() {
	h.once.Do(h.cancel)
	<-h.done
}
