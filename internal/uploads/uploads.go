package uploads

import (
	"context"
	"io"
)

// Store persists an uploaded blob and returns its public location.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// DurationProber reports the playable duration, in seconds, of the media at
// the provided location.
type DurationProber interface {
	Probe(ctx context.Context, location string) (float64, error)
}

// ProberFunc adapts a function to the DurationProber interface.
type ProberFunc func(ctx context.Context, location string) (float64, error)

// Probe calls the wrapped function.
func (f ProberFunc) Probe(ctx context.Context, location string) (float64, error) {
	return f(ctx, location)
}
