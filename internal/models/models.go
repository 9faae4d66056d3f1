package models

import "time"

type SourceKind string

const (
	SourceInline SourceKind = "inline"
	SourceUpload SourceKind = "upload"
	SourceURL    SourceKind = "url"
)

// Source identifies where a document came from. Exactly one of Text, Path or
// URL is meaningful, selected by Kind.
type Source struct {
	Kind     SourceKind `json:"kind"`
	Text     string     `json:"text,omitempty"`
	Path     string     `json:"path,omitempty"`
	Filename string     `json:"filename,omitempty"`
	URL      string     `json:"url,omitempty"`
}

// OriginalURL is the value recorded in history: the URL for URL sources,
// nil otherwise.
func (s Source) OriginalURL() *string {
	if s.Kind != SourceURL || s.URL == "" {
		return nil
	}
	u := s.URL
	return &u
}

// Document lives for one request and is never persisted.
type Document struct {
	Source      Source `json:"source"`
	RawText     string `json:"raw_text,omitempty"`
	CleanedText string `json:"cleaned_text"`
}

const DefaultTitle = "Untitled Paper"

type ExtractionResult struct {
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	Body     string `json:"body"`
}

type SummaryResult struct {
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords"`
}

type SummaryHistory struct {
	ID          int64     `json:"id"`
	Summary     string    `json:"summary"`
	OriginalURL *string   `json:"original_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UserID      *int64    `json:"user_id,omitempty"`
}

type NewSummaryHistory struct {
	Summary     string
	OriginalURL *string
	UserID      *int64
}
