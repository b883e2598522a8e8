package downloader

import (
	"testing"
)

func TestValidateInputURL(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"https", "https://mediaspace.example.edu/media/Lecture+1/1_abc123", false},
		{"http", "http://example.com/video", false},
		{"uppercase scheme", "HTTPS://example.com/video", false},
		{"no scheme", "example.com/video", true},
		{"no host", "https:///video", true},
		{"ftp", "ftp://example.com/video", true},
		{"file", "file:///etc/passwd", true},
		{"garbage", "://not a url", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := validateInputURL(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("validateInputURL(%q) = %q, want error", tc.raw, got)
				}
				if CategoryOf(err) != CategoryInvalidURL {
					t.Errorf("category = %q, want %q", CategoryOf(err), CategoryInvalidURL)
				}
				return
			}
			if err != nil {
				t.Fatalf("validateInputURL(%q): %v", tc.raw, err)
			}
			if got == "" {
				t.Error("valid URL should round-trip non-empty")
			}
		})
	}
}

func TestDefaultOutputName(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"https://mediaspace.example.edu/media/Lecture+1/1_abc123", "1_abc123.mp4"},
		{"https://example.com/media/My+Great+Talk/", "My_Great_Talk.mp4"},
		{"https://example.com/clip.mp4", "clip.mp4"},
		{"https://example.com/", "video.mp4"},
		{"https://example.com", "video.mp4"},
		{"%%%", "video.mp4"},
	}
	for _, tc := range cases {
		if got := defaultOutputName(tc.raw); got != tc.want {
			t.Errorf("defaultOutputName(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestIsManifestURL(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{"https://cdn.example.com/index.m3u8", true},
		{"https://cdn.example.com/index.m3u8?token=abc", true},
		{"https://cdn.example.com/playlist/a.m3u8", true},
		{"https://cdn.example.com/index.M3U8", true},
		{"https://example.com/media/Lecture/1_abc", false},
		{"https://cdn.example.com/seg_001.ts", false},
	}
	for _, tc := range cases {
		if got := IsManifestURL(tc.raw); got != tc.want {
			t.Errorf("IsManifestURL(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
