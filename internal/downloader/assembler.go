package downloader

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// AssembleResult reports where the stitched file landed and how. Muxed is
// false on the raw-concatenation path: the output is a raw transport stream
// the caller still needs to remux externally.
type AssembleResult struct {
	OutputPath string
	Muxed      bool
	Used       int
	Missing    int
	Bytes      int64
}

// Assembler stitches fetched segments into one output file: a lossless
// ffmpeg stream-copy remux when the tool is available, raw binary
// concatenation otherwise. Tool absence or failure triggers the fallback,
// never a hard error; only zero usable segments is fatal.
type Assembler struct {
	FFmpegPath string // empty means "ffmpeg" from PATH
	printer    *Printer
}

func NewAssembler(ffmpegPath string, printer *Printer) *Assembler {
	return &Assembler{FFmpegPath: ffmpegPath, printer: printer}
}

func (a *Assembler) Assemble(results []FetchResult, outputPath string) (AssembleResult, error) {
	usable := usableSlots(results)
	res := AssembleResult{Used: len(usable), Missing: len(results) - len(usable)}
	if len(usable) == 0 {
		return res, wrapCategory(CategoryAssembly, ErrAssemblyFailed)
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return res, wrapCategory(CategoryFilesystem, fmt.Errorf("creating output directory: %w", err))
		}
	}

	if a.ffmpegAvailable() {
		if err := a.remux(usable, outputPath); err != nil {
			a.printer.Log(LogWarn, fmt.Sprintf("remux failed, falling back to raw concatenation: %v", err))
		} else if size := fileSize(outputPath); size > 0 {
			res.OutputPath = outputPath
			res.Muxed = true
			res.Bytes = size
			return res, nil
		} else {
			a.printer.Log(LogWarn, "remux produced no output, falling back to raw concatenation")
		}
	} else {
		a.printer.Log(LogWarn, "ffmpeg not found, falling back to raw concatenation")
	}

	rawPath := rawStreamPath(outputPath)
	written, err := a.concatenateRaw(usable, rawPath)
	if err != nil {
		return res, wrapCategory(CategoryFilesystem, fmt.Errorf("concatenating segments: %w", err))
	}
	if written == 0 {
		os.Remove(rawPath)
		return res, wrapCategory(CategoryAssembly, ErrAssemblyFailed)
	}
	res.OutputPath = rawPath
	res.Bytes = written
	return res, nil
}

// usableSlots filters out failed fetches and returns the remainder in
// ascending ordinal order. Missing slots are skipped, never renumbered.
func usableSlots(results []FetchResult) []FetchResult {
	var usable []FetchResult
	for _, r := range results {
		if r.OK {
			usable = append(usable, r)
		}
	}
	sort.Slice(usable, func(i, j int) bool {
		return usable[i].Segment.Ordinal < usable[j].Segment.Ordinal
	})
	return usable
}

func (a *Assembler) ffmpegAvailable() bool {
	if a.FFmpegPath != "" {
		_, err := os.Stat(a.FFmpegPath)
		return err == nil
	}
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// remux concatenates segments with the ffmpeg concat demuxer in stream-copy
// mode (no re-encode).
func (a *Assembler) remux(usable []FetchResult, outputPath string) error {
	manifest, err := writeConcatManifest(usable)
	if err != nil {
		return err
	}
	defer os.Remove(manifest)

	stream := ffmpeg.Input(manifest, ffmpeg.KwArgs{"f": "concat", "safe": "0"}).
		Output(outputPath, ffmpeg.KwArgs{"c": "copy"}).
		OverWriteOutput().
		Silent(true)
	if a.FFmpegPath != "" {
		stream = stream.SetFfmpegPath(a.FFmpegPath)
	}
	return stream.Run()
}

// writeConcatManifest writes the concat demuxer input: one absolute local
// path per successful slot, ascending ordinal order.
func writeConcatManifest(usable []FetchResult) (string, error) {
	var b strings.Builder
	for _, r := range usable {
		abs, err := filepath.Abs(r.Path)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "file '%s'\n", escapeConcatPath(abs))
	}
	path := filepath.Join(filepath.Dir(usable[0].Path), "concat.txt")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func escapeConcatPath(path string) string {
	return strings.ReplaceAll(path, "'", `'\''`)
}

// concatenateRaw appends each usable slot to the output in order. A slot
// that cannot be read is logged and skipped; the caller treats only a
// zero-byte total as failure.
func (a *Assembler) concatenateRaw(usable []FetchResult, outputPath string) (int64, error) {
	out, err := os.Create(outputPath)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	var written int64
	for _, r := range usable {
		in, err := os.Open(r.Path)
		if err != nil {
			a.printer.Log(LogWarn, fmt.Sprintf("segment %d unreadable, skipping: %v", r.Segment.Ordinal, err))
			continue
		}
		n, err := out.ReadFrom(in)
		in.Close()
		written += n
		if err != nil {
			a.printer.Log(LogWarn, fmt.Sprintf("segment %d truncated after %d bytes: %v", r.Segment.Ordinal, n, err))
		}
	}
	return written, nil
}

func rawStreamPath(outputPath string) string {
	ext := filepath.Ext(outputPath)
	return strings.TrimSuffix(outputPath, ext) + ".ts"
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
