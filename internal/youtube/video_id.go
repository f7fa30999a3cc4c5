package youtube

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var (
	errVideoIDNotFound = errors.New("video ID is not found")

	videoIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

	//nolint:gochecknoglobals // Read-only list of path prefixes.
	videoPathPrefixes = []string{"/embed/", "/v/", "/shorts/", "/live/"}
)

// VideoID extracts the 11-character video ID from the supported URL forms:
// watch?v=, youtu.be/, embed/, v/, shorts/ and live/.
func VideoID(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")

	var candidate string

	switch host {
	case "youtu.be":
		candidate = strings.Split(strings.Trim(u.Path, "/"), "/")[0]
	case "youtube.com", "music.youtube.com", "youtube-nocookie.com":
		if u.Path == "/watch" {
			candidate = u.Query().Get("v")
			break
		}

		for _, prefix := range videoPathPrefixes {
			if rest, ok := strings.CutPrefix(u.Path, prefix); ok {
				candidate = strings.Split(rest, "/")[0]
				break
			}
		}
	}

	if !videoIDRe.MatchString(candidate) {
		return "", errVideoIDNotFound
	}

	return candidate, nil
}
