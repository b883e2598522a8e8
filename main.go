package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BradleyNgu/MediaspaceDownloader/internal/config"
	"github.com/BradleyNgu/MediaspaceDownloader/internal/downloader"
)

func main() {
	_ = config.Load()

	var opts downloader.Options

	flag.StringVar(&opts.OutputDir, "d", config.GetEnv("MSDL_OUTPUT_DIR", "downloads"), "output directory")
	flag.StringVar(&opts.OutputName, "o", "", "output file name (default: derived from the page URL)")
	flag.BoolVar(&opts.Capture, "capture", false, "capture the playlist URL with a headless browser instead of scraping the page")
	flag.DurationVar(&opts.CaptureWait, "capture-wait", 15*time.Second, "how long to wait for playlist requests during capture")
	flag.IntVar(&opts.Concurrency, "segment-concurrency", config.GetEnvInt("MSDL_CONCURRENCY", 0), "parallel segment downloads (0=auto)")
	flag.IntVar(&opts.MaxHops, "max-hops", 0, "playlist redirection cap (0=default)")
	flag.DurationVar(&opts.Timeout, "timeout", config.GetEnvDuration("MSDL_TIMEOUT", 3*time.Minute), "per-request timeout for transfers")
	flag.DurationVar(&opts.ProbeTimeout, "probe-timeout", config.GetEnvDuration("MSDL_PROBE_TIMEOUT", 5*time.Second), "timeout for quick existence probes")
	flag.StringVar(&opts.FFmpegPath, "ffmpeg", config.GetEnv("MSDL_FFMPEG", ""), "path to the ffmpeg binary (default: search PATH)")
	flag.BoolVar(&opts.JSON, "json", false, "emit JSON output (suppresses human-readable progress)")
	flag.BoolVar(&opts.Quiet, "quiet", false, "suppress progress output (errors still shown)")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	urls := flag.Args()
	if len(urls) == 0 {
		err := downloader.CategorizedError{Category: downloader.CategoryInvalidURL, Err: errors.New("no url provided")}
		if opts.JSON {
			writeJSONError("", err)
		} else {
			fmt.Fprintf(os.Stderr, "usage: %s [options] <page_url_or_m3u8_url> [url...]\n", os.Args[0])
			flag.PrintDefaults()
		}
		os.Exit(downloader.ExitCode(err))
	}

	if opts.JSON {
		opts.Quiet = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exitCode := 0
	for _, url := range urls {
		err := downloader.Process(ctx, url, opts)
		if err != nil {
			if code := downloader.ExitCode(err); code > exitCode {
				exitCode = code
			}
			if opts.JSON {
				writeJSONError(url, err)
			} else if !downloader.IsReported(err) {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
		}
		if ctx.Err() != nil {
			break
		}
	}

	downloader.CloseIdleConnections()
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func writeJSONError(url string, err error) {
	payload := struct {
		Type     string `json:"type"`
		URL      string `json:"url,omitempty"`
		Category string `json:"category"`
		Error    string `json:"error"`
	}{
		Type:     "error",
		URL:      url,
		Category: string(downloader.CategoryOf(err)),
		Error:    err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
