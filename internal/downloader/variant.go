package downloader

import (
	"strconv"
	"strings"
)

// Variant is one alternative stream declared by a master playlist.
type Variant struct {
	URI        string // absolute after resolution against the master's location
	Bandwidth  int
	Resolution string
	Subtitle   bool
}

// Variants pairs each stream-variant directive with the URI line directly
// after it, in declaration order. Blank lines are already gone by parse
// time, so any other directive in between breaks the pair; a directive with
// no URI is dropped, matching player behavior.
func Variants(p *Playlist) []Variant {
	var variants []Variant
	var pending *Variant
	for _, line := range p.Lines {
		if line.Tag == streamVariantTag {
			pending = &Variant{
				Bandwidth:  parseIntAttr(line.Attrs["BANDWIDTH"]),
				Resolution: line.Attrs["RESOLUTION"],
				Subtitle:   isSubtitleDirective(line),
			}
			continue
		}
		if line.IsDirective() {
			pending = nil
			continue
		}
		if pending != nil {
			pending.URI = resolveReference(p.Base, line.Raw)
			if !pending.Subtitle && isSubtitleURI(line.Raw) {
				pending.Subtitle = true
			}
			variants = append(variants, *pending)
			pending = nil
		}
	}
	return variants
}

// SelectVariant picks the non-subtitle variant with strictly maximum
// bandwidth; ties keep the earlier-declared variant. Subtitle tracks are
// never eligible, whether flagged on the directive or named in the URI.
func SelectVariant(p *Playlist) (*Variant, error) {
	var best *Variant
	for _, v := range Variants(p) {
		if v.Subtitle {
			continue
		}
		if best == nil || v.Bandwidth > best.Bandwidth {
			chosen := v
			best = &chosen
		}
	}
	if best == nil {
		return nil, wrapCategory(CategoryPlaylist, ErrNoEligibleVariant)
	}
	return best, nil
}

func isSubtitleDirective(line Line) bool {
	if line.Attrs["TYPE"] == "SUBTITLES" {
		return true
	}
	// Some encoders stuff the track type into non-standard attributes;
	// fall back to the raw directive text.
	return strings.Contains(line.Raw, "TYPE=SUBTITLES")
}

func isSubtitleURI(uri string) bool {
	lower := strings.ToLower(uri)
	return strings.Contains(lower, "caption") || strings.Contains(lower, "subtitle")
}

func parseIntAttr(value string) int {
	if value == "" {
		return 0
	}
	num, _ := strconv.Atoi(value)
	return num
}
