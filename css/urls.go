package css

import (
	"net/url"
	"regexp"
	"strings"
)

var reURL = regexp.MustCompile(`(?i)url\(\s*(['"]?)([^'")]*?)(['"]?)\s*\)`)

// RewriteURLs makes every relative url(...) reference in CSS text
// absolute against base. Quoting of each reference is kept as is.
// Absolute references and data URIs are not touched.
func RewriteURLs(text, base string) string {
	if base == "" {
		return text
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return text
	}
	return reURL.ReplaceAllStringFunc(text, func(m string) string {
		parts := reURL.FindStringSubmatch(m)
		ref := strings.TrimSpace(parts[2])
		if ref == "" || strings.HasPrefix(ref, "#") {
			return m
		}
		resolved, ok := Resolve(baseURL, ref)
		if !ok {
			return m
		}
		return "url(" + parts[1] + resolved + parts[3] + ")"
	})
}

// Resolve makes ref absolute against base. Returns false when ref cannot
// be parsed or already names a scheme.
func Resolve(base *url.URL, ref string) (string, bool) {
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "" {
		return "", false
	}
	return base.ResolveReference(u).String(), true
}
