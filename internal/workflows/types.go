package workflows

type SummarizeInput struct {
	Text      string `json:"text,omitempty"`
	URL       string `json:"url,omitempty"`
	UserID    *int64 `json:"user_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// SummaryStatus is both the query result and the workflow result.
type SummaryStatus struct {
	CurrentStep string            `json:"current_step"`
	Status      string            `json:"status"`
	Error       string            `json:"error,omitempty"`
	Warning     string            `json:"warning,omitempty"`
	Steps       map[string]string `json:"steps"`

	Title      string   `json:"title,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	Markdown   string   `json:"markdown,omitempty"`
	HTML       string   `json:"html,omitempty"`
	Synthetic  bool     `json:"synthetic,omitempty"`
	CacheHit   bool     `json:"cache_hit,omitempty"`
	Extraction string   `json:"extraction,omitempty"`
	HistoryID  int64    `json:"history_id,omitempty"`
}

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)
