package downloader

import (
	"bufio"
	"bytes"
	"net/url"
	"strings"
)

// Line is one significant line of a playlist document: either a directive
// (Tag non-empty, attributes parsed) or a URI reference. Raw always holds
// the original text, so unknown directives survive untouched.
type Line struct {
	Tag   string
	Attrs map[string]string
	Raw   string
}

func (l Line) IsDirective() bool {
	return l.Tag != ""
}

func (l Line) IsURI() bool {
	return l.Tag == ""
}

// Playlist is a parsed playlist document. Line order is significant and
// preserved; Base is the location the document was fetched from and anchors
// relative URI resolution.
type Playlist struct {
	Lines []Line
	Base  *url.URL
}

const streamVariantTag = "EXT-X-STREAM-INF"

// IsMaster reports whether the document declares variant streams rather
// than media segments.
func (p *Playlist) IsMaster() bool {
	for _, line := range p.Lines {
		if line.Tag == streamVariantTag {
			return true
		}
	}
	return false
}

// ParsePlaylist turns raw playlist text into an ordered sequence of lines.
// Blank lines are dropped. Variant encoders diverge wildly, so any tag is
// tolerated; only an empty document is an error. No network I/O happens here.
func ParsePlaylist(data []byte, base *url.URL) (*Playlist, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, wrapCategory(CategoryPlaylist, ErrMalformedPlaylist)
	}

	playlist := &Playlist{Base: base}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			tag, attrText, _ := strings.Cut(strings.TrimPrefix(text, "#"), ":")
			playlist.Lines = append(playlist.Lines, Line{
				Tag:   tag,
				Attrs: parseAttributes(attrText),
				Raw:   text,
			})
			continue
		}
		playlist.Lines = append(playlist.Lines, Line{Raw: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, wrapCategory(CategoryPlaylist, err)
	}
	return playlist, nil
}

// parseAttributes parses a comma-separated KEY=VALUE attribute list.
// Values may be quoted (quotes stripped) or bare; commas inside quotes
// do not split.
func parseAttributes(raw string) map[string]string {
	attrs := map[string]string{}
	for _, part := range splitAttributes(raw) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(strings.ToUpper(kv[0]))
		value := strings.TrimSpace(kv[1])
		value = strings.Trim(value, "\"")
		if key != "" {
			attrs[key] = value
		}
	}
	return attrs
}

func splitAttributes(raw string) []string {
	var parts []string
	var b strings.Builder
	inQuotes := false
	for _, r := range raw {
		switch r {
		case '"':
			inQuotes = !inQuotes
			b.WriteRune(r)
		case ',':
			if inQuotes {
				b.WriteRune(r)
				continue
			}
			parts = append(parts, b.String())
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() > 0 {
		parts = append(parts, b.String())
	}
	return parts
}

// resolveReference resolves a possibly relative URI against the playlist's
// own location, so "chunk/001.ts" under "https://host/path/index.m3u8"
// becomes "https://host/path/chunk/001.ts".
func resolveReference(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}
