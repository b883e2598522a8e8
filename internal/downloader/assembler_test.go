package downloader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// noFFmpegAssembler points at a binary that does not exist so every test
// exercises the raw concatenation fallback deterministically.
func noFFmpegAssembler(t *testing.T) *Assembler {
	t.Helper()
	return NewAssembler(filepath.Join(t.TempDir(), "no-such-ffmpeg"), newPrinter(Options{Quiet: true}))
}

func writeFetchResult(t *testing.T, dir string, ordinal int, data string) FetchResult {
	t.Helper()
	path := filepath.Join(dir, segmentFileName(ordinal))
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("writing segment %d: %v", ordinal, err)
	}
	return FetchResult{
		Segment: Segment{URL: "http://example.test/" + segmentFileName(ordinal), Ordinal: ordinal},
		Path:    path,
		Bytes:   int64(len(data)),
		OK:      true,
	}
}

func TestAssembleRawConcatFallback(t *testing.T) {
	dir := t.TempDir()
	results := []FetchResult{
		writeFetchResult(t, dir, 1, "one-"),
		writeFetchResult(t, dir, 2, "two-"),
		writeFetchResult(t, dir, 3, "three"),
	}
	outputPath := filepath.Join(t.TempDir(), "video.mp4")

	res, err := noFFmpegAssembler(t).Assemble(results, outputPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Muxed {
		t.Error("raw fallback must report Muxed=false")
	}
	if !strings.HasSuffix(res.OutputPath, ".ts") {
		t.Errorf("fallback output %q should use the .ts extension", res.OutputPath)
	}
	data, err := os.ReadFile(res.OutputPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != "one-two-three" {
		t.Errorf("output = %q, want segments concatenated in ordinal order", data)
	}
	if res.Bytes != int64(len(data)) {
		t.Errorf("Bytes = %d, file has %d", res.Bytes, len(data))
	}
	if res.Used != 3 || res.Missing != 0 {
		t.Errorf("Used=%d Missing=%d, want 3/0", res.Used, res.Missing)
	}
}

func TestAssembleSkipsFailedSlotWithoutRenumbering(t *testing.T) {
	dir := t.TempDir()
	results := []FetchResult{
		writeFetchResult(t, dir, 1, "AA"),
		{Segment: Segment{Ordinal: 2}, OK: false, Err: errors.New("fetch failed")},
		writeFetchResult(t, dir, 3, "CC"),
	}
	outputPath := filepath.Join(t.TempDir(), "video.mp4")

	res, err := noFFmpegAssembler(t).Assemble(results, outputPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Used != 2 || res.Missing != 1 {
		t.Errorf("Used=%d Missing=%d, want 2/1", res.Used, res.Missing)
	}
	data, err := os.ReadFile(res.OutputPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != "AACC" {
		t.Errorf("output = %q, the missing slot must be skipped, not zero-filled", data)
	}
}

func TestAssembleSurvivesUnreadableSlot(t *testing.T) {
	dir := t.TempDir()
	results := []FetchResult{
		writeFetchResult(t, dir, 1, "AA"),
		writeFetchResult(t, dir, 2, "BB"),
		writeFetchResult(t, dir, 3, "CC"),
	}
	// The slot is marked OK but its file vanished before assembly.
	if err := os.Remove(results[1].Path); err != nil {
		t.Fatalf("removing slot 2: %v", err)
	}

	res, err := noFFmpegAssembler(t).Assemble(results, filepath.Join(t.TempDir(), "video.mp4"))
	if err != nil {
		t.Fatalf("one unreadable slot must not fail assembly: %v", err)
	}
	data, err := os.ReadFile(res.OutputPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != "AACC" {
		t.Errorf("output = %q, want the readable slots in order", data)
	}
	if res.Bytes != 4 {
		t.Errorf("Bytes = %d, want 4", res.Bytes)
	}
}

func TestAssembleNoUsableSegments(t *testing.T) {
	results := []FetchResult{
		{Segment: Segment{Ordinal: 1}, OK: false, Err: errors.New("fetch failed")},
	}
	_, err := noFFmpegAssembler(t).Assemble(results, filepath.Join(t.TempDir(), "video.mp4"))
	if !errors.Is(err, ErrAssemblyFailed) {
		t.Fatalf("error = %v, want ErrAssemblyFailed", err)
	}
	if CategoryOf(err) != CategoryAssembly {
		t.Errorf("category = %q, want %q", CategoryOf(err), CategoryAssembly)
	}
}

func TestAssembleSortsOutOfOrderSlots(t *testing.T) {
	dir := t.TempDir()
	results := []FetchResult{
		writeFetchResult(t, dir, 3, "C"),
		writeFetchResult(t, dir, 1, "A"),
		writeFetchResult(t, dir, 2, "B"),
	}
	res, err := noFFmpegAssembler(t).Assemble(results, filepath.Join(t.TempDir(), "video.mp4"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := os.ReadFile(res.OutputPath)
	if string(data) != "ABC" {
		t.Errorf("output = %q, want ordinal order regardless of result order", data)
	}
}

func TestWriteConcatManifest(t *testing.T) {
	dir := t.TempDir()
	results := []FetchResult{
		writeFetchResult(t, dir, 1, "A"),
		writeFetchResult(t, dir, 2, "B"),
	}
	manifest, err := writeConcatManifest(results)
	if err != nil {
		t.Fatalf("writeConcatManifest: %v", err)
	}
	defer os.Remove(manifest)

	data, err := os.ReadFile(manifest)
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("manifest has %d lines, want 2", len(lines))
	}
	for i, line := range lines {
		if !strings.HasPrefix(line, "file '") || !strings.HasSuffix(line, "'") {
			t.Errorf("line %d = %q, want file '...' form", i, line)
		}
		if !strings.Contains(line, segmentFileName(i+1)) {
			t.Errorf("line %d = %q, want segment %d", i, line, i+1)
		}
	}
}

func TestEscapeConcatPath(t *testing.T) {
	got := escapeConcatPath("/tmp/it's here/seg.ts")
	want := `/tmp/it'\''s here/seg.ts`
	if got != want {
		t.Errorf("escapeConcatPath = %q, want %q", got, want)
	}
}

func TestRawStreamPath(t *testing.T) {
	cases := []struct{ in, want string }{
		{"downloads/video.mp4", "downloads/video.ts"},
		{"video", "video.ts"},
		{"a/b.c.mp4", "a/b.c.ts"},
	}
	for _, tc := range cases {
		if got := rawStreamPath(tc.in); got != tc.want {
			t.Errorf("rawStreamPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
