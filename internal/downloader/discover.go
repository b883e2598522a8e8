package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// ErrManifestNotFound means the page held no playlist URL the scraper could
// find. Playlist URLs are often injected only once playback starts; the
// browser capture path exists for exactly that case.
var ErrManifestNotFound = errors.New("no playlist URL found in page")

const maxPageBytes = 4 * 1024 * 1024

// Manifest URLs show up in pages in several shapes: quoted, bare, or as
// url=/src= assignments. Checked in order; first pattern with matches wins.
var manifestURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)"(https?://[^"]+\.m3u8[^"]*)"`),
	regexp.MustCompile(`(?i)'(https?://[^']+\.m3u8[^']*)'`),
	regexp.MustCompile(`(?i)(https?://[^\s<>"]+\.m3u8[^\s<>"]*)`),
	regexp.MustCompile(`(?i)url["']?\s*[:=]\s*["']([^"']+\.m3u8[^"']*)["']`),
	regexp.MustCompile(`(?i)src["']?\s*[:=]\s*["']([^"']+\.m3u8[^"']*)["']`),
}

var sourceTagPattern = regexp.MustCompile(`(?i)<source[^>]+src=["']([^"']+)["']`)

var entryIDPagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)entryId["']?\s*[:=]\s*["']([^"']+)["']`),
	regexp.MustCompile(`(?i)"entry_id"\s*:\s*"([^"]+)"`),
	regexp.MustCompile(`(?i)entry_id["']?\s*[:=]\s*["']([^"']+)["']`),
	regexp.MustCompile(`(?i)kentryid["']?\s*[:=]\s*["']([^"']+)["']`),
}

var entryIDPathPattern = regexp.MustCompile(`/media/[^/]+/([^/?]+)`)

// IsManifestURL reports whether the input already points at a playlist, so
// discovery can be skipped entirely.
func IsManifestURL(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.HasSuffix(lower, ".m3u8") ||
		strings.Contains(lower, ".m3u8?") ||
		strings.Contains(lower, "/a.m3u8")
}

// Discoverer locates the playlist URL for a video page: regex scan of the
// page body, <source> tags, then vendor playManifest API probing keyed on
// the media entry ID. It is a collaborator of the core pipeline, not part
// of it; the resolver only ever sees the URL it produces.
type Discoverer struct {
	client  *http.Client // full-body transfers
	probe   *http.Client // quick existence checks, shorter timeout
	printer *Printer
}

func NewDiscoverer(client, probe *http.Client, printer *Printer) *Discoverer {
	return &Discoverer{client: client, probe: probe, printer: printer}
}

// FindManifestURL fetches the page and tries each discovery strategy in
// order. The returned URL is unverified except for API probes, which are
// HEAD-checked before being trusted.
func (d *Discoverer) FindManifestURL(ctx context.Context, pageURL string) (string, error) {
	body, err := d.fetchPage(ctx, pageURL)
	if err != nil {
		return "", wrapCategory(CategoryNetwork, fmt.Errorf("fetching page: %w", err))
	}
	d.printer.Log(LogDebug, fmt.Sprintf("page loaded, %d bytes", len(body)))

	if found := scanManifestPatterns(body); found != "" {
		d.printer.Log(LogDebug, "found playlist URL in page source")
		return found, nil
	}

	if found := scanSourceTags(body, pageURL); found != "" {
		d.printer.Log(LogDebug, "found playlist URL in video source tag")
		return found, nil
	}

	if entryID := extractEntryID(body, pageURL); entryID != "" {
		d.printer.Log(LogDebug, fmt.Sprintf("probing playManifest API for entry %s", entryID))
		if found := d.probeManifestAPI(ctx, entryID, pageURL); found != "" {
			return found, nil
		}
	}

	return "", wrapCategory(CategoryPlaylist, fmt.Errorf("%s: %w", pageURL, ErrManifestNotFound))
}

func (d *Discoverer) fetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	return string(body), err
}

// scanManifestPatterns prefers URLs that look like actual playlists
// (containing "playlist" or "index") over the first raw match.
func scanManifestPatterns(body string) string {
	for _, pattern := range manifestURLPatterns {
		matches := pattern.FindAllStringSubmatch(body, -1)
		if len(matches) == 0 {
			continue
		}
		for _, m := range matches {
			lower := strings.ToLower(m[1])
			if strings.Contains(lower, "playlist") || strings.Contains(lower, "index") {
				return m[1]
			}
		}
		return matches[0][1]
	}
	return ""
}

func scanSourceTags(body, pageURL string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}
	for _, m := range sourceTagPattern.FindAllStringSubmatch(body, -1) {
		if strings.Contains(m[1], ".m3u8") {
			return resolveReference(base, m[1])
		}
	}
	return ""
}

// extractEntryID pulls the media entry ID from the page URL path
// (/media/<name>/<id>) or from the page body.
func extractEntryID(body, pageURL string) string {
	if m := entryIDPathPattern.FindStringSubmatch(pageURL); m != nil {
		return m[1]
	}
	for _, pattern := range entryIDPagePatterns {
		if m := pattern.FindStringSubmatch(body); m != nil && len(m[1]) > 5 {
			return m[1]
		}
	}
	return ""
}

// probeManifestAPI tries the common playManifest endpoint shapes with a
// quick HEAD check; accepts a 200 whose content type names a playlist, or
// any candidate already ending in .m3u8.
func (d *Discoverer) probeManifestAPI(ctx context.Context, entryID, pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	origin := parsed.Scheme + "://" + parsed.Host
	candidates := []string{
		fmt.Sprintf("%s/p/0/sp/0/playManifest/entryId/%s/format/applehttp/protocol/https/a.m3u8", origin, entryID),
		fmt.Sprintf("%s/p/0/sp/0/playManifest/entryId/%s/format/url/protocol/https/a.m3u8", origin, entryID),
		fmt.Sprintf("https://cdnapisec.kaltura.com/p/0/sp/0/playManifest/entryId/%s/format/applehttp/protocol/https/a.m3u8", entryID),
	}

	for _, candidate := range candidates {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, candidate, nil)
		if err != nil {
			continue
		}
		resp, err := d.probe.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			continue
		}
		contentType := resp.Header.Get("Content-Type")
		if strings.Contains(contentType, "m3u8") ||
			strings.Contains(contentType, "application/vnd.apple.mpegurl") ||
			strings.HasSuffix(candidate, ".m3u8") {
			return candidate
		}
	}
	return ""
}
