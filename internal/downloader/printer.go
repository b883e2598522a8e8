package downloader

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

type LogLevel int

const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarn
	LogError
)

func parseLogLevel(value string) LogLevel {
	switch strings.ToLower(value) {
	case "debug":
		return LogDebug
	case "warn":
		return LogWarn
	case "error":
		return LogError
	}
	return LogInfo
}

// Printer renders diagnostic output to stderr. It consumes pipeline events
// (variant chosen, segment N/total, run summary) without interpreting them.
type Printer struct {
	quiet       bool
	color       bool
	interactive bool
	columns     int
	titleWidth  int
	minLevel    LogLevel
}

func newPrinter(opts Options) *Printer {
	columns := terminalColumns()
	if columns <= 0 {
		columns = 100
	}

	titleWidth := columns - 44
	if titleWidth < 20 {
		titleWidth = 20
	}
	if titleWidth > 60 {
		titleWidth = 60
	}

	return &Printer{
		quiet:       opts.Quiet,
		color:       supportsColor(),
		interactive: stderrIsTerminal(),
		columns:     columns,
		titleWidth:  titleWidth,
		minLevel:    parseLogLevel(opts.LogLevel),
	}
}

func (p *Printer) Log(level LogLevel, msg string) {
	if p == nil || p.quiet || level < p.minLevel {
		return
	}
	label := ""
	switch level {
	case LogDebug:
		label = "debug:"
	case LogWarn:
		label = p.colorize("warning:", colorYellow)
	case LogError:
		label = p.colorize("error:", colorRed)
	}
	if label == "" {
		fmt.Fprintf(os.Stderr, "%s\n", msg)
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", label, msg)
}

func (p *Printer) Prefix(title string) string {
	return fmt.Sprintf("%-*s", p.titleWidth, truncateText(title, p.titleWidth))
}

func (p *Printer) progressLine(prefix string, current, total int64, elapsed time.Duration) string {
	speed := ""
	if elapsed > 0 {
		speed = humanize.IBytes(uint64(float64(current)/elapsed.Seconds())) + "/s"
	}

	if total > 0 {
		percent := float64(current) * 100 / float64(total)
		return fmt.Sprintf("%s %6.2f%% %s / %s %s",
			prefix,
			percent,
			padLeft(humanize.IBytes(uint64(current)), 9),
			padLeft(humanize.IBytes(uint64(total)), 9),
			padLeft(speed, 10),
		)
	}

	return fmt.Sprintf("%s %s %s",
		prefix,
		padLeft(humanize.IBytes(uint64(current)), 9),
		padLeft(speed, 10),
	)
}

func (p *Printer) writeProgressLine(line string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(os.Stderr, "\r%s", truncateText(line, p.columns-1))
}

// ItemResult reports the outcome of one download run. A degraded run (some
// segments missing, or raw output needing an external remux) is reported as
// such, distinct from a hard failure.
func (p *Printer) ItemResult(prefix string, result runResult, err error) {
	if err == nil && p.quiet {
		return
	}

	if result.hadProgress {
		p.clearLine()
	}

	statusText := "OK"
	statusColor := colorGreen
	detail := fmt.Sprintf("%s %s", padLeft(humanize.IBytes(uint64(result.bytes)), 9), result.outputPath)
	if result.missingSegments > 0 {
		statusText = "DEGRADED"
		statusColor = colorYellow
		detail = fmt.Sprintf("%s (%d/%d segments missing)", detail, result.missingSegments, result.totalSegments)
	}
	if !result.muxed && err == nil {
		statusColor = colorYellow
		detail = fmt.Sprintf("%s (raw stream, remux with: ffmpeg -i %s -c copy output.mp4)", detail, result.outputPath)
	}

	if err != nil {
		statusText = "FAIL"
		statusColor = colorRed
		detail = err.Error()
	}

	status := p.colorize(statusText, statusColor)

	maxDetail := p.columns - len(prefix) - len(statusText) - 3
	if maxDetail < 0 {
		maxDetail = 0
	}
	detail = truncateText(detail, maxDetail)

	fmt.Fprintf(os.Stderr, "%s %s %s\n", prefix, status, detail)
}

func (p *Printer) Summary(total, ok, failed int, bytes int64) {
	if p.quiet {
		return
	}
	okLabel := p.colorize("OK", colorGreen)
	failLabel := p.colorize("FAIL", colorRed)
	fmt.Fprintf(os.Stderr, "Summary: %s %d | %s %d | TOTAL %d | SIZE %s\n",
		okLabel, ok, failLabel, failed, total, humanize.IBytes(uint64(bytes)))
}

func (p *Printer) colorize(text, color string) string {
	if !p.color || color == "" {
		return text
	}
	return color + text + colorReset
}

func (p *Printer) clearLine() {
	width := p.columns
	if width <= 0 {
		width = 100
	}
	fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", width))
}

func padLeft(value string, width int) string {
	if len(value) >= width {
		return value
	}
	return strings.Repeat(" ", width-len(value)) + value
}

func truncateText(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	if max <= 3 {
		return text[:max]
	}
	return text[:max-3] + "..."
}

func terminalColumns() int {
	if columns := os.Getenv("COLUMNS"); columns != "" {
		if val, err := strconv.Atoi(columns); err == nil && val > 0 {
			return val
		}
	}
	return 0
}

func stderrIsTerminal() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func supportsColor() bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" || os.Getenv("CLICOLOR_FORCE") != "" {
		return true
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	return stderrIsTerminal()
}

const (
	colorReset  = "\x1b[0m"
	colorGreen  = "\x1b[32m"
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
)
