// Package progress provides a small percent-complete reporting abstraction
// used by long-running transfers. A Sink receives monotonically
// non-decreasing percent values; a Tracker wraps an io.Reader and feeds the
// sink as bytes move, checking for cancellation between chunks.
package progress

import (
	"context"
	"io"
)

// Sink receives percent-complete updates in the range [0, 100].
// Implementations must tolerate being called from the transfer goroutine.
type Sink func(percent int)

// Discard is a Sink that drops all updates.
func Discard(int) {}

// Tracker wraps an io.Reader and reports percent-complete to a sink as the
// stream is consumed. Total must be the full expected byte count; when it is
// unknown (<= 0) no percentages are emitted.
type Tracker struct {
	r     io.Reader
	ctx   context.Context
	total int64
	read  int64
	last  int
	sink  Sink
}

// NewTracker builds a Tracker around r. The context is checked on every
// Read so a cancelled transfer stops between chunks.
func NewTracker(ctx context.Context, r io.Reader, total int64, sink Sink) *Tracker {
	if sink == nil {
		sink = Discard
	}
	return &Tracker{r: r, ctx: ctx, total: total, last: -1, sink: sink}
}

func (t *Tracker) Read(p []byte) (int, error) {
	if err := t.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := t.r.Read(p)
	if n > 0 {
		t.read += int64(n)
		t.report()
	}
	return n, err
}

func (t *Tracker) report() {
	if t.total <= 0 {
		return
	}
	pct := int(t.read * 100 / t.total)
	if pct > 100 {
		pct = 100
	}
	if pct > t.last {
		t.last = pct
		t.sink(pct)
	}
}

// Copy streams src into dst, reporting percent-complete against total and
// honoring ctx cancellation between chunks. It returns the bytes written.
func Copy(ctx context.Context, dst io.Writer, src io.Reader, total int64, sink Sink) (int64, error) {
	return io.Copy(dst, NewTracker(ctx, src, total, sink))
}
