package downloader

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"
)

// progressWriter counts bytes flowing through it and throttles progress
// line updates to at most one per 100ms.
type progressWriter struct {
	size       int64
	total      atomic.Int64
	start      time.Time
	lastUpdate atomic.Int64 // Unix nanoseconds
	finished   atomic.Bool
	prefix     string
	printer    *Printer
}

func newProgressWriter(size int64, printer *Printer, prefix string) *progressWriter {
	now := time.Now()
	pw := &progressWriter{
		size:    size,
		start:   now,
		prefix:  prefix,
		printer: printer,
	}
	pw.lastUpdate.Store(now.UnixNano())
	return pw
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n := len(b)
	p.total.Add(int64(n))

	now := time.Now()
	lastUpdateNano := p.lastUpdate.Load()
	if now.UnixNano()-lastUpdateNano >= 100*time.Millisecond.Nanoseconds() {
		if p.lastUpdate.CompareAndSwap(lastUpdateNano, now.UnixNano()) {
			p.print()
		}
	}
	return n, nil
}

func (p *progressWriter) print() {
	if p.finished.Load() || !p.printer.interactive {
		return
	}
	line := p.printer.progressLine(p.prefix, p.total.Load(), p.size, time.Since(p.start))
	p.printer.writeProgressLine(line)
}

// Finish prints the final totals. Interactive terminals get the in-place
// line closed with a newline; non-interactive output gets one plain line at
// the end instead of a stream of updates.
func (p *progressWriter) Finish() {
	if p.finished.Swap(true) {
		return
	}
	if p.printer.quiet {
		return
	}
	line := p.printer.progressLine(p.prefix, p.total.Load(), p.size, time.Since(p.start))
	if p.printer.interactive {
		p.printer.writeProgressLine(line)
		fmt.Fprintln(os.Stderr)
		return
	}
	fmt.Fprintln(os.Stderr, line)
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *contextReader) Read(p []byte) (int, error) {
	select {
	case <-r.ctx.Done():
		return 0, r.ctx.Err()
	default:
		return r.r.Read(p)
	}
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	reader := &contextReader{ctx: ctx, r: src}
	return io.Copy(dst, reader)
}
