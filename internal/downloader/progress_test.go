package downloader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"
)

func captureStderr(t *testing.T, fn func()) string {
	t.Helper()

	orig := os.Stderr
	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stderr = writer
	fn()
	time.Sleep(10 * time.Millisecond)
	_ = writer.Close()
	os.Stderr = orig

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, reader)
	_ = reader.Close()
	return buf.String()
}

func TestCopyWithContext(t *testing.T) {
	var dst bytes.Buffer
	n, err := copyWithContext(context.Background(), &dst, strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 5 || dst.String() != "hello" {
		t.Errorf("copied %d bytes (%q), want 5 (hello)", n, dst.String())
	}
}

func TestCopyWithContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var dst bytes.Buffer
	_, err := copyWithContext(ctx, &dst, strings.NewReader("hello"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestProgressNonTTYPrintsOnceAtFinish(t *testing.T) {
	output := captureStderr(t, func() {
		printer := newPrinter(Options{})
		progress := newProgressWriter(10, printer, "demo.mp4")
		_, _ = progress.Write([]byte("12345"))
		_, _ = progress.Write([]byte("12345"))
		progress.Finish()
	})

	if strings.Contains(output, "\r") {
		t.Fatalf("expected no carriage returns in non-TTY output, got %q", output)
	}
	if !strings.Contains(output, "demo.mp4") {
		t.Fatalf("expected progress prefix in output, got %q", output)
	}
	if !strings.Contains(output, "100.00%") {
		t.Fatalf("expected final percentage in output, got %q", output)
	}
}

func TestProgressQuietStaysSilent(t *testing.T) {
	output := captureStderr(t, func() {
		progress := newProgressWriter(10, newPrinter(Options{Quiet: true}), "demo.mp4")
		_, _ = progress.Write([]byte("12345"))
		progress.Finish()
	})
	if output != "" {
		t.Fatalf("quiet mode should write nothing, got %q", output)
	}
}

func TestProgressWriterCountsBytes(t *testing.T) {
	pw := newProgressWriter(100, newPrinter(Options{Quiet: true}), "demo")
	for i := 0; i < 4; i++ {
		if _, err := pw.Write(make([]byte, 25)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	pw.Finish()
	if got := pw.total.Load(); got != 100 {
		t.Errorf("total = %d, want 100", got)
	}
}
