package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// FetchResult records the outcome of fetching one segment. A failed fetch
// keeps its ordinal slot (Path exists but the file does not) so ordering is
// never disturbed; the assembler skips missing slots instead of renumbering.
type FetchResult struct {
	Segment Segment
	Path    string
	Bytes   int64
	OK      bool
	Err     error
}

// FetchRun owns the temporary storage area for one download run. Close must
// run on every exit path so repeated runs never accumulate orphaned files.
type FetchRun struct {
	ID  string
	Dir string
}

const fetchRunBaseDir = "mediaspace-segments"

func NewFetchRun() (*FetchRun, error) {
	base := filepath.Join(os.TempDir(), fetchRunBaseDir)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, wrapCategory(CategoryFilesystem, fmt.Errorf("creating segment base dir: %w", err))
	}
	id := uuid.NewString()
	dir, err := os.MkdirTemp(base, "run-"+id[:8]+"-")
	if err != nil {
		return nil, wrapCategory(CategoryFilesystem, fmt.Errorf("creating segment temp dir: %w", err))
	}
	return &FetchRun{ID: id, Dir: dir}, nil
}

func (r *FetchRun) Close() error {
	return os.RemoveAll(r.Dir)
}

// SegmentPath names a segment's local sink with a fixed-width zero-padded
// ordinal, so default filesystem ordering matches playback order. That is a
// diagnostic convenience only; the assembler walks the FetchResult list.
func (r *FetchRun) SegmentPath(ordinal int) string {
	return filepath.Join(r.Dir, segmentFileName(ordinal))
}

func segmentFileName(ordinal int) string {
	return fmt.Sprintf("segment-%05d.ts", ordinal)
}

const (
	// minConcurrentFetches is the floor for I/O-bound segment fetches,
	// even on single-core systems.
	minConcurrentFetches = 4
)

func defaultFetchConcurrency(value int) int {
	if value > 0 {
		return value
	}
	cpu := runtime.NumCPU()
	if cpu < minConcurrentFetches {
		return minConcurrentFetches
	}
	return cpu
}

// Fetcher downloads segments into a FetchRun's directory with a bounded
// worker pool. Results land in a pre-sized ordinal-indexed slot array, so
// concurrent fetching cannot disturb assembly order.
type Fetcher struct {
	client      *http.Client
	printer     *Printer
	Concurrency int
	// OnSegment fires after each segment settles, with the number of
	// settled segments so far. Used by the progress UI.
	OnSegment func(done, total int, res FetchResult)
	// Progress, when set, receives every fetched byte across all
	// segments. It is the aggregate byte counter when no richer progress
	// surface is attached.
	Progress *progressWriter
}

func NewFetcher(client *http.Client, concurrency int, printer *Printer) *Fetcher {
	return &Fetcher{
		client:      client,
		printer:     printer,
		Concurrency: concurrency,
	}
}

// Fetch downloads every segment best-effort, in bounded parallel. A failed
// segment is logged, recorded with OK=false, and never aborts the batch;
// the only hard errors are an empty segment list and context cancellation.
func (f *Fetcher) Fetch(ctx context.Context, run *FetchRun, segments []Segment) ([]FetchResult, error) {
	if len(segments) == 0 {
		return nil, wrapCategory(CategoryPlaylist, ErrFetchAborted)
	}

	results := make([]FetchResult, len(segments))
	var settled atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultFetchConcurrency(f.Concurrency))
	for i, seg := range segments {
		i, seg := i, seg
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = FetchResult{Segment: seg, Path: run.SegmentPath(seg.Ordinal), Err: err}
				return err
			}
			res := f.fetchOne(gctx, run, seg)
			results[i] = res
			done := int(settled.Add(1))
			if !res.OK {
				f.printer.Log(LogWarn, fmt.Sprintf("segment %d/%d failed: %v", seg.Ordinal, len(segments), res.Err))
			} else {
				f.printer.Log(LogDebug, fmt.Sprintf("segment %d/%d fetched (%d bytes)", seg.Ordinal, len(segments), res.Bytes))
			}
			if f.OnSegment != nil {
				f.OnSegment(done, len(segments), res)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, run *FetchRun, seg Segment) FetchResult {
	res := FetchResult{Segment: seg, Path: run.SegmentPath(seg.Ordinal)}

	fail := func(err error) FetchResult {
		os.Remove(res.Path)
		res.Err = err
		return res
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, seg.URL, nil)
	if err != nil {
		return fail(err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return fail(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	file, err := os.Create(res.Path)
	if err != nil {
		return fail(err)
	}
	var dst io.Writer = file
	if f.Progress != nil {
		dst = io.MultiWriter(file, f.Progress)
	}
	written, err := copyWithContext(ctx, dst, resp.Body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fail(err)
	}

	res.Bytes = written
	res.OK = true
	return res
}
