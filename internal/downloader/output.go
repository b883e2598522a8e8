package downloader

import (
	"encoding/json"
	"os"
	"path/filepath"
)

type runResult struct {
	bytes           int64
	outputPath      string
	muxed           bool
	totalSegments   int
	missingSegments int
	hadProgress     bool
}

type jsonResult struct {
	Type            string `json:"type"`
	Status          string `json:"status"`
	URL             string `json:"url,omitempty"`
	RunID           string `json:"run_id,omitempty"`
	Output          string `json:"output,omitempty"`
	Muxed           bool   `json:"muxed"`
	Bytes           int64  `json:"bytes,omitempty"`
	SegmentsTotal   int    `json:"segments_total,omitempty"`
	SegmentsMissing int    `json:"segments_missing,omitempty"`
	Variant         string `json:"variant,omitempty"`
	Bandwidth       int    `json:"bandwidth,omitempty"`
	Hops            int    `json:"hops,omitempty"`
}

func emitJSONResult(res jsonResult) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(res)
}

// buildOutputPath combines the output directory and name, creating the
// directory if needed.
func buildOutputPath(opts Options, pageURL string) (string, error) {
	dir := opts.OutputDir
	if dir == "" {
		dir = "downloads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", wrapCategory(CategoryFilesystem, err)
	}
	name := opts.OutputName
	if name == "" {
		name = defaultOutputName(pageURL)
	}
	return filepath.Join(dir, name), nil
}
