package content

import (
	"net"
	"net/url"
	"strings"

	"brainwave/internal/domain"

	"mvdan.cc/xurls/v2"
)

//nolint:gochecknoglobals // Read-only list of hostname fragments.
var videoHostFragments = []string{"youtube.com", "youtu.be"}

// SelectSource picks the extraction path for a URL by hostname substring.
func SelectSource(rawURL string) domain.Source {
	lowered := strings.ToLower(rawURL)

	for _, fragment := range videoHostFragments {
		if strings.Contains(lowered, fragment) {
			return domain.SourceVideo
		}
	}

	return domain.SourceWebPage
}

// ValidURL reports whether raw is an absolute http(s) URL whose host is an IP
// literal or a dotted domain name.
func ValidURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " \t\r\n") {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := u.Hostname()
	if host == "" {
		return false
	}

	if net.ParseIP(host) != nil {
		return true
	}

	// A domain name needs at least two labels.
	if !strings.Contains(host, ".") || strings.HasPrefix(host, ".") || strings.HasSuffix(host, ".") {
		return false
	}

	return !strings.Contains(host, "..")
}

// FindURL returns the first http(s) URL found in free text, or "" when
// there is none.
func FindURL(text string) (string, error) {
	re, err := xurls.StrictMatchingScheme(`https?://`)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(re.FindString(text)), nil
}
