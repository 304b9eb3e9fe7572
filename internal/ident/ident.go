// Package ident generates record identifiers for the burrow database.
//
// Records with a natural key (a feed's source URL, a post's guid or link)
// get a content-derived id: a truncated SHA-256 of the canonicalized key.
// Two machines fetching the same logical feed or post therefore compute
// the same id without any coordination, which is what makes the merge
// protocol conflict-free.
//
// Records without a usable natural key get a locally generated fallback
// id and are flagged so later fetches can retry stable-id resolution.
package ident

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Hash returns the first n hex characters of the SHA-256 of key.
func Hash(key string, n int) string {
	sum := sha256.Sum256([]byte(key))
	h := hex.EncodeToString(sum[:])
	if n <= 0 || n > len(h) {
		return h
	}
	return h[:n]
}

// Fallback returns a locally generated id of n hex characters. Fallback ids
// are random: records carrying one must be marked so they can be re-keyed
// once the source starts providing a stable guid or link.
func Fallback(n int) string {
	h := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n <= 0 || n > len(h) {
		return h
	}
	return h[:n]
}

// trackingParams are query parameters that vary between fetches of the same
// logical resource and must not influence the id.
var trackingParams = map[string]bool{
	"fbclid":  true,
	"gclid":   true,
	"igshid":  true,
	"mc_cid":  true,
	"mc_eid":  true,
	"ref":     true,
	"ref_src": true,
	"source":  true,
	"spm":     true,
	"yclid":   true,
	"_hsenc":  true,
	"_hsmi":   true,
	"twclid":  true,
	"msclkid": true,
}

// CanonicalURL normalizes raw so that every fetch of the same logical URL
// yields the same string: scheme and host are lowercased, default ports and
// fragments dropped, tracking parameters removed, remaining query sorted and
// the trailing slash trimmed. A string that does not parse as a URL is
// returned trimmed but otherwise untouched.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	switch {
	case u.Scheme == "http" && strings.HasSuffix(u.Host, ":80"):
		u.Host = strings.TrimSuffix(u.Host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(u.Host, ":443"):
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}
	u.Fragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for name := range q {
			if trackingParams[name] || strings.HasPrefix(strings.ToLower(name), "utm_") {
				q.Del(name)
			}
		}
		u.RawQuery = encodeSorted(q)
	}

	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}

// encodeSorted is url.Values.Encode with deterministic ordering made
// explicit. Encode already sorts by key; values under one key keep their
// original order.
func encodeSorted(q url.Values) string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		for _, v := range q[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}
