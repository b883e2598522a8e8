package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// ResolvedPlaylist is the terminal output of one resolution run: the ordered
// segment list, built once and never mutated afterwards.
type ResolvedPlaylist struct {
	Segments []Segment
	Variant  *Variant // non-nil when a master playlist chose one
	Hops     int
	Location string // the media playlist the segments came from
}

const defaultMaxHops = 5

// Playlist documents are text; anything bigger than this is not one.
const maxPlaylistDocBytes = 10 * 1024 * 1024

// Resolver turns a playlist location into an ordered segment list. The HTTP
// client is injected so tests can fake the transport.
type Resolver struct {
	client  *http.Client
	printer *Printer
	MaxHops int
	Match   SegmentPredicate
}

func NewResolver(client *http.Client, printer *Printer) *Resolver {
	return &Resolver{
		client:  client,
		printer: printer,
		MaxHops: defaultMaxHops,
		Match:   DefaultSegmentPredicate,
	}
}

// Resolve fetches and parses the document at playlistURL, follows a master
// playlist into its best variant, and returns the ordered segments of the
// terminal media playlist.
func (r *Resolver) Resolve(ctx context.Context, playlistURL string) (*ResolvedPlaylist, error) {
	return r.resolve(ctx, playlistURL, 1, nil)
}

func (r *Resolver) resolve(ctx context.Context, location string, hop int, chosen *Variant) (*ResolvedPlaylist, error) {
	maxHops := r.MaxHops
	if maxHops <= 0 {
		maxHops = defaultMaxHops
	}
	if hop > maxHops {
		return nil, wrapCategory(CategoryPlaylist, hopError(hop, location, ErrPlaylistLoop))
	}

	base, err := url.Parse(location)
	if err != nil {
		return nil, wrapCategory(CategoryInvalidURL, hopError(hop, location, err))
	}

	data, err := r.fetchDocument(ctx, location)
	if err != nil {
		return nil, wrapCategory(CategoryNetwork, hopError(hop, location, fmt.Errorf("fetching playlist: %w", err)))
	}

	playlist, err := ParsePlaylist(data, base)
	if err != nil {
		return nil, hopError(hop, location, err)
	}

	if playlist.IsMaster() {
		variant, err := SelectVariant(playlist)
		if err != nil {
			return nil, hopError(hop, location, err)
		}
		r.printer.Log(LogInfo, fmt.Sprintf("selected variant: %s @ %d bps", resolutionOrUnknown(variant), variant.Bandwidth))
		return r.resolve(ctx, variant.URI, hop+1, variant)
	}

	segments := ExtractSegments(playlist, r.Match)
	if len(segments) == 0 {
		return nil, wrapCategory(CategoryPlaylist, hopError(hop, location, ErrNoSegmentsFound))
	}
	r.printer.Log(LogDebug, fmt.Sprintf("resolved %d segments in %d hop(s)", len(segments), hop))
	return &ResolvedPlaylist{
		Segments: segments,
		Variant:  chosen,
		Hops:     hop,
		Location: location,
	}, nil
}

func (r *Resolver) fetchDocument(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPlaylistDocBytes))
}

func resolutionOrUnknown(v *Variant) string {
	if v.Resolution == "" {
		return "unknown"
	}
	return v.Resolution
}
