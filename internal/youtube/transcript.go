package youtube

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"brainwave/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL = "https://www.youtube.com"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

	playerResponseMarker = "ytInitialPlayerResponse"
	preferredLanguage    = "en"
)

var (
	ErrPlayerResponseNotFound = errors.New("player response is not found")
	ErrVideoUnavailable       = errors.New("video is unavailable")
	ErrNoCaptions             = errors.New("video has no captions")
)

type captionTrack struct {
	baseURL      string
	languageCode string
	generated    bool
}

type transcriptXML struct {
	Texts []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

// Loader retrieves caption text and metadata for a video URL.
type Loader struct {
	client  *http.Client
	baseURL string
	log     *slog.Logger
}

func NewLoader(client *http.Client, baseURL string, log *slog.Logger) *Loader {
	if client == nil {
		client = &http.Client{}
	}

	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Loader{
		client:  client,
		baseURL: baseURL,
		log:     log,
	}
}

// Load returns a single document holding the video transcript.
func (l *Loader) Load(ctx context.Context, videoURL string) ([]domain.Document, error) {
	videoID, err := VideoID(videoURL)
	if err != nil {
		return nil, fmt.Errorf("extract video ID (URL = %s): %w", videoURL, err)
	}

	playerResponse, err := l.fetchPlayerResponse(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("fetch player response (videoID = %s): %w", videoID, err)
	}

	if status := playerResponse.Get("playabilityStatus.status").String(); status != "" && status != "OK" {
		return nil, fmt.Errorf("%w (status = %s, reason = %s)",
			ErrVideoUnavailable,
			status,
			playerResponse.Get("playabilityStatus.reason").String())
	}

	track, ok := pickCaptionTrack(parseCaptionTracks(playerResponse))
	if !ok {
		return nil, ErrNoCaptions
	}

	transcript, err := l.fetchTranscript(ctx, track.baseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch transcript (videoID = %s, language = %s): %w",
			videoID, track.languageCode, err)
	}

	l.log.DebugContext(ctx, "Video transcript is loaded",
		"videoID", videoID,
		"language", track.languageCode,
		"generated", track.generated,
		"textLen", len(transcript))

	return []domain.Document{{
		Content: transcript,
		Metadata: domain.Metadata{
			SourceURL: videoURL,
			Title:     strings.TrimSpace(playerResponse.Get("videoDetails.title").String()),
			Author:    strings.TrimSpace(playerResponse.Get("videoDetails.author").String()),
		},
	}}, nil
}

func (l *Loader) fetchPlayerResponse(ctx context.Context, videoID string) (gjson.Result, error) {
	watchURL := l.baseURL + "/watch?v=" + url.QueryEscape(videoID)

	body, err := l.get(ctx, watchURL)
	if err != nil {
		return gjson.Result{}, err
	}
	defer l.closeBody(ctx, body, watchURL)

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("create document from reader: %w", err)
	}

	var raw string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		script := s.Text()

		idx := strings.Index(script, playerResponseMarker)
		if idx < 0 {
			return true
		}

		obj, ok := extractJSONObject(script[idx+len(playerResponseMarker):])
		if !ok {
			return true
		}

		raw = obj

		return false
	})

	if raw == "" || !gjson.Valid(raw) {
		return gjson.Result{}, ErrPlayerResponseNotFound
	}

	return gjson.Parse(raw), nil
}

func (l *Loader) fetchTranscript(ctx context.Context, trackURL string) (string, error) {
	body, err := l.get(ctx, trackURL)
	if err != nil {
		return "", err
	}
	defer l.closeBody(ctx, body, trackURL)

	var parsed transcriptXML
	if err = xml.NewDecoder(body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode transcript: %w", err)
	}

	fragments := make([]string, 0, len(parsed.Texts))
	for _, text := range parsed.Texts {
		fragment := strings.Join(strings.Fields(html.UnescapeString(text.Value)), " ")
		if fragment == "" {
			continue
		}

		fragments = append(fragments, fragment)
	}

	if len(fragments) == 0 {
		return "", ErrNoCaptions
	}

	return strings.Join(fragments, " "), nil
}

func (l *Loader) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		l.closeBody(ctx, resp.Body, rawURL)

		return nil, fmt.Errorf("do request: unexpected status: %d", resp.StatusCode)
	}

	return resp.Body, nil
}

func (l *Loader) closeBody(ctx context.Context, body io.Closer, rawURL string) {
	if err := body.Close(); err != nil {
		l.log.ErrorContext(ctx, "Failed to close response body",
			"error", err,
			"url", rawURL)
	}
}

func parseCaptionTracks(playerResponse gjson.Result) []captionTrack {
	var tracks []captionTrack

	playerResponse.Get("captions.playerCaptionsTracklistRenderer.captionTracks").ForEach(
		func(_, value gjson.Result) bool {
			baseURL := strings.TrimSpace(value.Get("baseUrl").String())
			if baseURL == "" {
				return true
			}

			tracks = append(tracks, captionTrack{
				baseURL:      baseURL,
				languageCode: value.Get("languageCode").String(),
				generated:    value.Get("kind").String() == "asr",
			})

			return true
		},
	)

	return tracks
}

// pickCaptionTrack prefers a manual English track, then a generated English
// track, then whatever comes first.
func pickCaptionTrack(tracks []captionTrack) (captionTrack, bool) {
	if len(tracks) == 0 {
		return captionTrack{}, false
	}

	var generatedEnglish *captionTrack

	for i := range tracks {
		if !isPreferredLanguage(tracks[i].languageCode) {
			continue
		}

		if !tracks[i].generated {
			return tracks[i], true
		}

		if generatedEnglish == nil {
			generatedEnglish = &tracks[i]
		}
	}

	if generatedEnglish != nil {
		return *generatedEnglish, true
	}

	return tracks[0], true
}

func isPreferredLanguage(code string) bool {
	code = strings.ToLower(code)

	return code == preferredLanguage || strings.HasPrefix(code, preferredLanguage+"-")
}

// extractJSONObject returns the first balanced JSON object in s.
func extractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}
