package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// CanonicalURL standardizes a URL so the dedup set and frontier operate on a
// single representation. It lowercases the scheme and host, removes default
// ports and fragments, sorts query parameters, and strips the trailing slash
// from non-root paths.
func CanonicalURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host in %q", rawURL)
	}

	if u.Scheme == "http" {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""

	if u.Path == "" {
		u.Path = "/"
	}
	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	q := u.Query()
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// HostOf extracts the lowercased host (without port stripping beyond
// canonicalization) from an already canonical URL.
func HostOf(canonicalURL string) string {
	u, err := url.Parse(canonicalURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// skippedExtensions are asset types never worth fetching for indexing.
var skippedExtensions = []string{
	".pdf", ".zip", ".exe", ".jpg", ".jpeg", ".png", ".gif", ".svg",
	".mp3", ".mp4", ".css", ".js", ".ico", ".woff", ".woff2",
}

// ShouldFollow decides whether a discovered link is worth enqueueing: same
// host as the referrer unless followExternal is set, and not a binary asset.
// Both URLs must already be canonical.
func ShouldFollow(fromURL, linkURL string, followExternal bool) bool {
	if !followExternal && HostOf(fromURL) != HostOf(linkURL) {
		return false
	}
	lower := strings.ToLower(linkURL)
	for _, ext := range skippedExtensions {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}
	return true
}
