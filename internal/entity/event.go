package entity

import "time"

const (
	ImportStatusCompleted  = "completed"
	ImportStatusPageFailed = "page_failed"
)

// ImportEvent is emitted after every import attempt that reached the page fetch.
type ImportEvent struct {
	ID         string    `json:"id"`
	SourceURL  string    `json:"source_url"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	Candidates int       `json:"candidates"`
	Published  int       `json:"published"`
	Failed     int       `json:"failed"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
