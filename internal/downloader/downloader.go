package downloader

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"
)

const (
	defaultTimeout      = 3 * time.Minute
	defaultProbeTimeout = 5 * time.Second
)

// Process resolves a Mediaspace page or playlist URL to segments, fetches
// them, and stitches them into one output file. A run with some failed
// segments still assembles whatever fetched successfully and reports
// degraded success; only a run with nothing to assemble fails outright.
func Process(ctx context.Context, rawURL string, opts Options) error {
	printer := newPrinter(opts)

	pageURL, err := validateInputURL(rawURL)
	if err != nil {
		return err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	probeTimeout := opts.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}
	client := newHTTPClient(timeout)
	probe := newProbeClient(probeTimeout)

	manifestURL := pageURL
	if IsManifestURL(pageURL) {
		printer.Log(LogInfo, "input is already a playlist URL")
	} else {
		if opts.Capture {
			manifestURL, err = CaptureManifestURL(ctx, pageURL, opts.CaptureWait, printer)
		} else {
			manifestURL, err = NewDiscoverer(client, probe, printer).FindManifestURL(ctx, pageURL)
		}
		if err != nil {
			return err
		}
		printer.Log(LogInfo, fmt.Sprintf("found playlist: %s", manifestURL))
	}

	resolver := NewResolver(client, printer)
	if opts.MaxHops > 0 {
		resolver.MaxHops = opts.MaxHops
	}
	resolved, err := resolver.Resolve(ctx, manifestURL)
	if err != nil {
		return err
	}
	printer.Log(LogInfo, fmt.Sprintf("downloading %d segments", len(resolved.Segments)))

	outputPath, err := buildOutputPath(opts, pageURL)
	if err != nil {
		return err
	}

	run, err := NewFetchRun()
	if err != nil {
		return err
	}
	defer run.Close()

	fetcher := NewFetcher(client, opts.Concurrency, printer)
	pm := NewProgressManager("segments", len(resolved.Segments), printer)
	var progress *progressWriter
	if pm == nil && !opts.Quiet {
		progress = newProgressWriter(0, printer, printer.Prefix(filepath.Base(outputPath)))
		fetcher.Progress = progress
	}
	var failedCount atomic.Int64
	fetcher.OnSegment = func(done, total int, res FetchResult) {
		if !res.OK {
			failedCount.Add(1)
		}
		pm.Update(done, int(failedCount.Load()), total)
	}
	results, err := fetcher.Fetch(ctx, run, resolved.Segments)
	pm.Finish()
	if progress != nil {
		progress.Finish()
	}
	if err != nil {
		return err
	}

	assembler := NewAssembler(opts.FFmpegPath, printer)
	assembled, err := assembler.Assemble(results, outputPath)

	result := runResult{
		bytes:           assembled.Bytes,
		outputPath:      assembled.OutputPath,
		muxed:           assembled.Muxed,
		totalSegments:   len(results),
		missingSegments: assembled.Missing,
		hadProgress:     progress != nil,
	}

	if opts.JSON {
		if err != nil {
			return err
		}
		emitJSONResult(buildJSONResult(rawURL, run.ID, resolved, assembled))
		return nil
	}

	prefix := printer.Prefix(filepath.Base(outputPath))
	printer.ItemResult(prefix, result, err)
	if err != nil {
		return markReported(err)
	}
	printer.Summary(result.totalSegments, result.totalSegments-result.missingSegments, result.missingSegments, result.bytes)
	return nil
}

func buildJSONResult(rawURL, runID string, resolved *ResolvedPlaylist, assembled AssembleResult) jsonResult {
	status := "ok"
	if assembled.Missing > 0 || !assembled.Muxed {
		status = "degraded"
	}
	res := jsonResult{
		Type:            "result",
		Status:          status,
		URL:             rawURL,
		RunID:           runID,
		Output:          assembled.OutputPath,
		Muxed:           assembled.Muxed,
		Bytes:           assembled.Bytes,
		SegmentsTotal:   assembled.Used + assembled.Missing,
		SegmentsMissing: assembled.Missing,
		Hops:            resolved.Hops,
	}
	if resolved.Variant != nil {
		res.Variant = resolved.Variant.Resolution
		res.Bandwidth = resolved.Variant.Bandwidth
	}
	return res
}
