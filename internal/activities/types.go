package activities

import (
	"papersum/internal/extract"
	"papersum/internal/models"
	"papersum/internal/summarize"
)

// Uploads are not accepted asynchronously: the file would have to outlive the
// HTTP request that carried it.
type PrepareDocumentInput struct {
	Text      string `json:"text,omitempty"`
	URL       string `json:"url,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type PrepareDocumentOutput struct {
	Source       models.Source `json:"source"`
	CleanedText  string        `json:"cleaned_text"`
	Extraction   extract.Meta  `json:"extraction"`
	UsedAbstract bool          `json:"used_abstract"`
}

type SummarizeTextInput struct {
	Text      string `json:"text"`
	RequestID string `json:"request_id,omitempty"`
}

type SummarizeTextOutput struct {
	Summary  models.SummaryResult `json:"summary"`
	Meta     summarize.Meta       `json:"meta"`
	CacheHit bool                 `json:"cache_hit"`
	Markdown string               `json:"markdown"`
	HTML     string               `json:"html"`
}

type SaveSummaryInput struct {
	Markdown  string        `json:"markdown"`
	Source    models.Source `json:"source"`
	UserID    *int64        `json:"user_id,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

type SaveSummaryOutput struct {
	HistoryID int64 `json:"history_id"`
	Persisted bool  `json:"persisted"`
}
