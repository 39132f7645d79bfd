package extract

import (
	"net/url"
	"regexp"
	"strings"
)

var urlRegexp = regexp.MustCompile(`https?://[^\s\)\]>"']+`)

// NormalizeURL drops the query string and fragment so revisits of the same
// product page share one dedup key. Already-normalized input is returned
// unchanged; input that does not parse is only trimmed.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		if i := strings.IndexAny(raw, "?#"); i >= 0 {
			return raw[:i]
		}
		return raw
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// ResolveURL makes href absolute against base. Empty, javascript: and
// mailto: links resolve to "".
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref.String()
	}
	return b.ResolveReference(ref).String()
}

// ExtractURLs returns up to max distinct http(s) links found in text, in
// order of appearance, with trailing punctuation removed.
func ExtractURLs(text string, max int) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)

	for _, u := range urlRegexp.FindAllString(text, -1) {
		u = strings.TrimRight(strings.TrimSpace(u), ".,;)")
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}

// HostOf returns the host part of a URL, or "" when it has none.
func HostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
