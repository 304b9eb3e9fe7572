package shorthand

import (
	"errors"
	"strings"
	"testing"
)

var feedEntries = []Entry{
	{ID: "a1b2c3d4e5f6", Alias: "hn"},
	{ID: "a1ff00112233", Alias: ""},
	{ID: "9900aabbccdd", Alias: "lobsters"},
}

func TestResolveExactID(t *testing.T) {
	got, err := Resolve("feeds", feedEntries, "9900aabbccdd")
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if got != "9900aabbccdd" {
		t.Errorf("Resolve() = %q", got)
	}
}

func TestResolveAlias(t *testing.T) {
	for _, token := range []string{"hn", "@hn"} {
		got, err := Resolve("feeds", feedEntries, token)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", token, err)
		}
		if got != "a1b2c3d4e5f6" {
			t.Errorf("Resolve(%q) = %q, want a1b2c3d4e5f6", token, got)
		}
	}
}

func TestResolveUnambiguousPrefix(t *testing.T) {
	got, err := Resolve("feeds", feedEntries, "99")
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if got != "9900aabbccdd" {
		t.Errorf("Resolve() = %q", got)
	}
}

func TestResolveAmbiguousPrefix(t *testing.T) {
	_, err := Resolve("feeds", feedEntries, "a1")
	var amb *AmbiguousError
	if !errors.As(err, &amb) {
		t.Fatalf("Resolve() error = %v, want AmbiguousError", err)
	}
	if amb.Token != "a1" || len(amb.Candidates) != 2 {
		t.Errorf("AmbiguousError = %+v", amb)
	}
	if !strings.Contains(amb.Error(), "a1b2c3d4e5f6") {
		t.Errorf("error %q does not list candidates", amb.Error())
	}
}

func TestResolveNotFound(t *testing.T) {
	_, err := Resolve("feeds", feedEntries, "missing")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("Resolve() error = %v, want NotFoundError", err)
	}
	if nf.Token != "missing" || nf.Table != "feeds" {
		t.Errorf("NotFoundError = %+v", nf)
	}
	if !strings.Contains(err.Error(), "missing") {
		t.Errorf("error %q does not name the token", err)
	}
}

func TestResolveEmptyToken(t *testing.T) {
	if _, err := Resolve("feeds", feedEntries, "@"); err == nil {
		t.Error("Resolve(\"@\") succeeded")
	}
}

func TestHexToHomeRow(t *testing.T) {
	tests := []struct{ in, want string }{
		{"0", "a"},
		{"1", "s"},
		{"9", "sa"},
		{"a", "ss"},
		{"ff", "fsf"},
	}
	for _, tt := range tests {
		if got := hexToHomeRow(tt.in); got != tt.want {
			t.Errorf("hexToHomeRow(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFeedShorthandsUniquePrefixes(t *testing.T) {
	shorthands := FeedShorthands([]string{"00", "ff"})
	if len(shorthands) != 2 {
		t.Fatalf("got %d shorthands, want 2", len(shorthands))
	}
	if shorthands[0] == shorthands[1] {
		t.Error("shorthands collide")
	}
	for _, s := range shorthands {
		if len(s) != 1 {
			t.Errorf("shorthand %q not minimal for distinct ids", s)
		}
	}

	// Ids sharing a long common prefix need longer shorthands but must
	// still be distinct.
	near := FeedShorthands([]string{"aa01", "aa02"})
	if near[0] == near[1] {
		t.Errorf("shorthands for near ids collide: %v", near)
	}
}

func TestFeedShorthandsSingle(t *testing.T) {
	shorthands := FeedShorthands([]string{"abcdef"})
	if len(shorthands) != 1 || len(shorthands[0]) != 1 {
		t.Errorf("FeedShorthands(single) = %v, want one single-char entry", shorthands)
	}
}

func TestFeedShorthandsEmpty(t *testing.T) {
	if got := FeedShorthands(nil); got != nil {
		t.Errorf("FeedShorthands(nil) = %v, want nil", got)
	}
}

func TestPostShorthand(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "a"},
		{1, "s"},
		{33, "m"},
		{34, "sa"},
	}
	for _, tt := range tests {
		if got := PostShorthand(tt.n); got != tt.want {
			t.Errorf("PostShorthand(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		s := PostShorthand(i)
		if seen[s] {
			t.Fatalf("PostShorthand(%d) = %q collides", i, s)
		}
		seen[s] = true
		for _, c := range s {
			if !strings.ContainsRune(string(postAlphabet), c) {
				t.Fatalf("PostShorthand(%d) contains %q outside alphabet", i, c)
			}
		}
	}
}
