package uploads

import (
	"context"
	"testing"
	"time"
)

type stubProber struct {
	seconds float64
	err     error
	calls   int
}

func (s *stubProber) Probe(context.Context, string) (float64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.seconds, nil
}

func TestCachingProberProbe(t *testing.T) {
	base := &stubProber{seconds: 12.5}
	cache := NewCachingProber(base, time.Minute)

	ctx := context.Background()

	seconds, err := cache.Probe(ctx, "clip.mp4")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if seconds != 12.5 {
		t.Fatalf("unexpected duration: %f", seconds)
	}
	if base.calls != 1 {
		t.Fatalf("expected base called once got %d", base.calls)
	}

	if _, err := cache.Probe(ctx, "clip.mp4"); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if base.calls != 1 {
		t.Fatalf("expected cached result got %d calls", base.calls)
	}

	if _, err := cache.Probe(ctx, "other.mp4"); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if base.calls != 2 {
		t.Fatalf("expected distinct locations to miss, got %d calls", base.calls)
	}
}

func TestCachingProberProbeErrors(t *testing.T) {
	cache := NewCachingProber(nil, time.Minute)
	if _, err := cache.Probe(context.Background(), "clip.mp4"); err != ErrProberUnavailable {
		t.Fatalf("expected prober unavailable got %v", err)
	}

	base := &stubProber{err: ErrProberUnavailable}
	cache = NewCachingProber(base, time.Minute)
	if _, err := cache.Probe(context.Background(), "clip.mp4"); err != ErrProberUnavailable {
		t.Fatalf("expected prober unavailable got %v", err)
	}
	if _, err := cache.Probe(context.Background(), "clip.mp4"); err != ErrProberUnavailable {
		t.Fatalf("errors must not be cached, got %v", err)
	}
	if base.calls != 2 {
		t.Fatalf("expected base retried after error, got %d calls", base.calls)
	}
}
