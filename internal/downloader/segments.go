package downloader

import (
	"regexp"
	"strings"
)

// Segment is one downloadable chunk of media. Ordinal is the 1-based
// playback position and is authoritative: neither the fetcher nor the
// assembler may reorder or renumber it.
type Segment struct {
	URL     string
	Ordinal int
}

// SegmentPredicate reports whether a playlist URI line references a media
// segment. The default is a heuristic, not a grammar parse: observed
// playlists do not reliably declare a duration tag per segment line, so
// classification leans on the URI shape instead. Swap in a stricter
// predicate without touching the resolver if a source needs one.
type SegmentPredicate func(uri string) bool

var segmentTokenPattern = regexp.MustCompile(`(?:seg|chunk)_\d+`)

// DefaultSegmentPredicate matches transport-stream extensions, segment or
// chunk path components, and numbered seg_NNN/chunk_NNN tokens. Metadata
// and unknown-extension lines fall through silently.
func DefaultSegmentPredicate(uri string) bool {
	lower := strings.ToLower(uri)
	return strings.HasSuffix(lower, ".ts") ||
		strings.Contains(lower, "/segment") ||
		strings.Contains(lower, "/chunk") ||
		strings.Contains(lower, "/seg-") ||
		segmentTokenPattern.MatchString(lower)
}

// ExtractSegments returns the ordered segment list of a media playlist,
// resolving relative URIs against the playlist's own location. A nil match
// uses DefaultSegmentPredicate. An empty result is not an error here; the
// caller decides whether that is fatal.
func ExtractSegments(p *Playlist, match SegmentPredicate) []Segment {
	if match == nil {
		match = DefaultSegmentPredicate
	}
	var segments []Segment
	for _, line := range p.Lines {
		if line.IsDirective() || !match(line.Raw) {
			continue
		}
		segments = append(segments, Segment{
			URL:     resolveReference(p.Base, line.Raw),
			Ordinal: len(segments) + 1,
		})
	}
	return segments
}
