package effect

import (
	"context"
	"testing"
	"time"
)

func TestGeneratorDeterministic(t *testing.T) {
	a := NewSeededGenerator(42)
	b := NewSeededGenerator(42)
	for i := 0; i < 5; i++ {
		da, db := a.Next(), b.Next()
		if da != db {
			t.Fatalf("expected same drops, got %+v and %+v", da, db)
		}
		if da.Left < 0 || da.Left >= 100 {
			t.Fatalf("left out of range: %v", da.Left)
		}
		if da.Fall < 3*time.Second || da.Fall > 5*time.Second {
			t.Fatalf("fall out of range: %v", da.Fall)
		}
		if da.Delay < 0 || da.Delay > 500*time.Millisecond {
			t.Fatalf("delay out of range: %v", da.Delay)
		}
		if da.Sequence != i+1 {
			t.Fatalf("unexpected sequence %d", da.Sequence)
		}
	}
}

func TestRainEndsAfterDuration(t *testing.T) {
	r := NewRain(NewSeededGenerator(1))
	r.Interval = 5 * time.Millisecond
	r.Duration = 60 * time.Millisecond

	h := r.Start(context.Background())
	count := 0
	timeout := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-h.Drops():
			if !ok {
				if count == 0 {
					t.Fatalf("expected at least one drop")
				}
				if h.Active() || r.Active() {
					t.Fatalf("expected rain inactive after duration")
				}
				return
			}
			count++
		case <-timeout:
			t.Fatalf("rain did not stop")
		}
	}
}

func TestHandleStopIsIdempotent(t *testing.T) {
	r := NewRain(NewSeededGenerator(1))
	r.Duration = time.Hour
	h := r.Start(context.Background())
	h.Stop()
	h.Stop()
	r.Stop()
	if h.Active() {
		t.Fatalf("expected stopped handle")
	}
	select {
	case <-h.Done():
	default:
		t.Fatalf("expected done channel closed")
	}
}

func TestStartStopsPrevious(t *testing.T) {
	r := NewRain(nil)
	r.Duration = time.Hour
	first := r.Start(context.Background())
	second := r.Start(context.Background())
	if first.Active() {
		t.Fatalf("expected first rain stopped")
	}
	if !second.Active() || !r.Active() {
		t.Fatalf("expected second rain running")
	}
	r.Stop()
	if second.Active() {
		t.Fatalf("expected second rain stopped")
	}
}

func TestRainStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRain(nil)
	r.Duration = time.Hour
	h := r.Start(ctx)
	cancel()
	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("rain ignored context cancel")
	}
}
