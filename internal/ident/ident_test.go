package ident

import (
	"strings"
	"testing"
)

func TestHashDeterministic(t *testing.T) {
	a := Hash("https://example.com/feed", 16)
	b := Hash("https://example.com/feed", 16)
	if a != b {
		t.Errorf("Hash not deterministic: %q vs %q", a, b)
	}
	if len(a) != 16 {
		t.Errorf("Hash length = %d, want 16", len(a))
	}
	if a == Hash("https://example.com/other", 16) {
		t.Error("different keys produced the same id")
	}
}

func TestHashIsHex(t *testing.T) {
	id := Hash("anything", 14)
	for _, c := range id {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Fatalf("Hash produced non-hex character %q in %q", c, id)
		}
	}
}

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases scheme and host", "HTTPS://Example.COM/Feed", "https://example.com/Feed"},
		{"strips default http port", "http://example.com:80/feed", "http://example.com/feed"},
		{"strips default https port", "https://example.com:443/feed", "https://example.com/feed"},
		{"keeps custom port", "https://example.com:8443/feed", "https://example.com:8443/feed"},
		{"drops fragment", "https://example.com/feed#latest", "https://example.com/feed"},
		{"drops utm params", "https://example.com/p?utm_source=x&utm_medium=y&id=7", "https://example.com/p?id=7"},
		{"drops fbclid", "https://example.com/p?fbclid=abc", "https://example.com/p"},
		{"sorts query", "https://example.com/p?b=2&a=1", "https://example.com/p?a=1&b=2"},
		{"trims trailing slash", "https://example.com/feed/", "https://example.com/feed"},
		{"trims whitespace", "  https://example.com/feed ", "https://example.com/feed"},
		{"passes through non-URLs", "urn:uuid:1234", "urn:uuid:1234"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalURL(tt.in); got != tt.want {
				t.Errorf("CanonicalURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonicalURLConverges(t *testing.T) {
	// Two machines fetching the same post through different tracking links
	// must derive the same id.
	a := Hash(CanonicalURL("https://Blog.example.com/post/1?utm_source=rss"), 16)
	b := Hash(CanonicalURL("https://blog.example.com/post/1/"), 16)
	if a != b {
		t.Errorf("ids diverged: %q vs %q", a, b)
	}
}

func TestFallback(t *testing.T) {
	a := Fallback(16)
	b := Fallback(16)
	if a == b {
		t.Error("Fallback produced two identical ids")
	}
	if len(a) != 16 || len(b) != 16 {
		t.Errorf("Fallback length = %d/%d, want 16", len(a), len(b))
	}
	for _, c := range a {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Fatalf("Fallback produced non-hex character %q in %q", c, a)
		}
	}
}
