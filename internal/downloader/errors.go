package downloader

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies failures so the CLI can map them to exit codes
// and JSON output without string matching.
type ErrorCategory string

const (
	CategoryInvalidURL ErrorCategory = "invalid_url"
	CategoryPlaylist   ErrorCategory = "playlist"
	CategoryNetwork    ErrorCategory = "network"
	CategoryFilesystem ErrorCategory = "filesystem"
	CategoryAssembly   ErrorCategory = "assembly"
	CategoryCapture    ErrorCategory = "capture"
)

// Sentinel failures of the resolution and assembly pipeline. Fetching a
// single segment is never fatal and has no sentinel; per-segment errors are
// recorded in FetchResult and surfaced in aggregate.
var (
	// ErrMalformedPlaylist is returned for an empty playlist document.
	// Anything else parses: unknown tags pass through untouched.
	ErrMalformedPlaylist = errors.New("malformed playlist: empty document")

	// ErrNoEligibleVariant means a master playlist contained no
	// non-subtitle variant streams to choose from.
	ErrNoEligibleVariant = errors.New("no eligible variant streams")

	// ErrNoSegmentsFound means the terminal media playlist yielded zero
	// segment URLs.
	ErrNoSegmentsFound = errors.New("no media segments found in playlist")

	// ErrPlaylistLoop guards runaway master-to-master redirection.
	ErrPlaylistLoop = errors.New("playlist redirection limit exceeded")

	// ErrFetchAborted means the fetcher was handed an empty segment list.
	ErrFetchAborted = errors.New("no segments to fetch")

	// ErrAssemblyFailed means not a single successfully fetched segment
	// was available, so neither remux nor raw concatenation could run.
	ErrAssemblyFailed = errors.New("no segment data available for assembly")
)

// CategorizedError pairs an error with its category. It is created through
// wrapCategory and inspected through CategoryOf and errors.Is/As.
type CategorizedError struct {
	Category ErrorCategory
	Err      error
}

func (e CategorizedError) Error() string {
	return e.Err.Error()
}

func (e CategorizedError) Unwrap() error {
	return e.Err
}

func wrapCategory(category ErrorCategory, err error) error {
	if err == nil {
		return nil
	}
	return CategorizedError{Category: category, Err: err}
}

// CategoryOf returns the innermost category attached to err, or empty.
func CategoryOf(err error) ErrorCategory {
	var ce CategorizedError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return ""
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch CategoryOf(err) {
	case CategoryInvalidURL:
		return 2
	case CategoryPlaylist:
		return 3
	case CategoryNetwork:
		return 4
	case CategoryFilesystem:
		return 5
	case CategoryAssembly:
		return 6
	case CategoryCapture:
		return 7
	}
	return 1
}

type reportedError struct {
	err error
}

func (e reportedError) Error() string {
	return e.err.Error()
}

func (e reportedError) Unwrap() error {
	return e.err
}

func markReported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err: err}
}

// IsReported returns true if the error has already been printed to stderr.
func IsReported(err error) bool {
	var re reportedError
	return errors.As(err, &re)
}

// hopError adds resolution-hop context so a failed hop can be retried
// manually against the exact location that broke.
func hopError(hop int, location string, err error) error {
	return fmt.Errorf("hop %d (%s): %w", hop, location, err)
}
