package downloader

import "time"

// Options describes CLI behavior for a download run.
type Options struct {
	OutputDir    string
	OutputName   string
	Quiet        bool
	JSON         bool
	LogLevel     string
	Timeout      time.Duration // full-body transfers
	ProbeTimeout time.Duration // quick existence checks
	Concurrency  int           // parallel segment fetches (0 = auto)
	MaxHops      int           // playlist redirection cap (0 = default)
	Capture      bool          // discover via headless browser instead of page scrape
	CaptureWait  time.Duration
	FFmpegPath   string // override the remux tool binary
}
