package ports

import (
	"context"

	"reconx/internal/core/domain"
)

// ProgressSink receives per-source lifecycle updates during a scan. The
// engine only calls this interface; rendering is an implementation
// concern. A zero count increment with an empty status is a no-op.
type ProgressSink interface {
	// Update reports progress for one source. An empty status means no
	// transition; countIncrement adds to the source's running tally.
	Update(ctx context.Context, source string, countIncrement int, status domain.Status)
}

// NoopSink discards all updates. Used in silent mode and tests.
type NoopSink struct{}

func (NoopSink) Update(context.Context, string, int, domain.Status) {}
