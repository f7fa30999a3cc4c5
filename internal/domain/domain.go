package domain

import "time"

// Document is the unit of extracted text passed to summarization.
type Document struct {
	Content  string
	Metadata Metadata
}

// Metadata is optional context about where a Document came from.
type Metadata struct {
	SourceURL string
	Title     string
	Author    string
}

// Source selects the extraction path for a URL.
type Source int

const (
	SourceWebPage Source = iota + 1
	SourceVideo
)

func (s Source) String() string {
	switch s {
	case SourceWebPage:
		return "web"
	case SourceVideo:
		return "video"
	default:
		return "unknown"
	}
}

// ExtractionKind tells whether the content container was found.
type ExtractionKind int

const (
	ExtractionContainer ExtractionKind = iota + 1
	ExtractionWholePage
)

func (k ExtractionKind) String() string {
	switch k {
	case ExtractionContainer:
		return "container"
	case ExtractionWholePage:
		return "wholePage"
	default:
		return "unknown"
	}
}

type Extraction struct {
	Kind ExtractionKind
	Text string
}

// Request carries the inputs of a single summarize cycle.
type Request struct {
	UserID int64
	ChatID int64
	APIKey string
	URL    string
}

type Summary struct {
	ID        int64
	UserID    int64
	URL       string
	Source    Source
	Text      string
	CreatedAt time.Time
}
