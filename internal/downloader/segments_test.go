package downloader

import (
	"reflect"
	"testing"
)

func TestDefaultSegmentPredicate(t *testing.T) {
	tests := []struct {
		uri  string
		want bool
	}{
		{"seg_001.ts", true},
		{"SEG_001.TS", true},
		{"https://cdn/path/chunk_0042.mp4", true},
		{"https://cdn/segments/0001.m4s", true},
		{"https://cdn/chunk/0001.m4s", true},
		{"https://cdn/seg-5.aac", true},
		{"https://cdn/path/metadata.json", false},
		{"https://cdn/path/index.m3u8", false},
		{"https://cdn/path/poster.jpg", false},
	}

	for _, tt := range tests {
		if got := DefaultSegmentPredicate(tt.uri); got != tt.want {
			t.Errorf("DefaultSegmentPredicate(%q) = %v, want %v", tt.uri, got, tt.want)
		}
	}
}

func TestExtractSegmentsSkipsInterleavedDirectives(t *testing.T) {
	playlist := parsePlaylistText(t, "#EXTM3U\n"+
		"seg_001.ts\n"+
		"#EXT-X-DISCONTINUITY\n"+
		"seg_002.ts\n",
		"")

	got := ExtractSegments(playlist, nil)
	want := []Segment{
		{URL: "seg_001.ts", Ordinal: 1},
		{URL: "seg_002.ts", Ordinal: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractSegments = %v, want %v", got, want)
	}
}

func TestExtractSegmentsResolvesRelativeURIs(t *testing.T) {
	playlist := parsePlaylistText(t, "#EXTM3U\nchunk/001.ts\n", "https://host/path/index.m3u8")

	got := ExtractSegments(playlist, nil)
	if len(got) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(got))
	}
	if got[0].URL != "https://host/path/chunk/001.ts" {
		t.Errorf("resolved URL = %q, want https://host/path/chunk/001.ts", got[0].URL)
	}
}

func TestExtractSegmentsPreservesOrderAndOrdinals(t *testing.T) {
	playlist := parsePlaylistText(t, "#EXTM3U\n"+
		"#EXTINF:6.0,\n"+
		"seg_003.ts\n"+
		"#EXTINF:6.0,\n"+
		"seg_001.ts\n"+
		"metadata.bin\n"+
		"#EXTINF:6.0,\n"+
		"seg_002.ts\n",
		"")

	got := ExtractSegments(playlist, nil)
	// Line order wins, not any numbering embedded in the file names.
	want := []Segment{
		{URL: "seg_003.ts", Ordinal: 1},
		{URL: "seg_001.ts", Ordinal: 2},
		{URL: "seg_002.ts", Ordinal: 3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractSegments = %v, want %v", got, want)
	}
}

func TestExtractSegmentsEmptyIsNotAnError(t *testing.T) {
	playlist := parsePlaylistText(t, "#EXTM3U\n#EXT-X-ENDLIST\n", "")
	if got := ExtractSegments(playlist, nil); len(got) != 0 {
		t.Errorf("expected no segments, got %v", got)
	}
}

func TestExtractSegmentsCustomPredicate(t *testing.T) {
	playlist := parsePlaylistText(t, "#EXTM3U\npart-a.bin\npart-b.bin\nseg_001.ts\n", "")

	onlyBin := func(uri string) bool {
		return len(uri) > 4 && uri[len(uri)-4:] == ".bin"
	}
	got := ExtractSegments(playlist, onlyBin)
	want := []Segment{
		{URL: "part-a.bin", Ordinal: 1},
		{URL: "part-b.bin", Ordinal: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("custom predicate result = %v, want %v", got, want)
	}
}
