package models

import (
	"time"
)

// Video represents one ingested video as recorded in the registry file.
type Video struct {
	VideoID     string     `json:"video_id"`
	TaskID      string     `json:"task_id"`
	Filename    string     `json:"filename"`
	Filepath    string     `json:"filepath"`
	Status      TaskStatus `json:"status"`
	DurationSec float64    `json:"duration_sec,omitempty"`
	IndexedAt   *time.Time `json:"indexed_at,omitempty"`
}

// Index is a provider-side video index.
type Index struct {
	ID   string
	Name string
}

// TaskHandle is returned by the provider when a video upload is accepted.
// TaskID identifies the indexing task; VideoID identifies the video it will
// produce (assigned at upload time, usable only once the task is ready).
type TaskHandle struct {
	TaskID  string
	VideoID string
}

// TaskStatusInfo is one observation of a remote indexing task.
type TaskStatusInfo struct {
	TaskID      string
	VideoID     string
	Status      TaskStatus // normalized
	RawStatus   string     // provider vocabulary, for logging/diagnostics
	Detail      string     // present when Status == TaskStatusFailed
	DurationSec float64    // video duration when the provider reports it
}

// TaskResult is the payload returned when an indexing task reaches ready.
// Once observed as ready the result never changes.
type TaskResult struct {
	TaskID      string
	VideoID     string
	Status      TaskStatus
	RawStatus   string
	DurationSec float64
	Elapsed     time.Duration
	Polls       int
}

// SearchMatch is a single segment match returned for a search request.
// Produced fresh per search call; never persisted.
type SearchMatch struct {
	VideoID      string         `json:"video_id"`
	Filename     string         `json:"filename"`
	Filepath     string         `json:"filepath"`
	Confidence   ConfidenceTier `json:"confidence"`
	Score        float64        `json:"score"`
	Start        float64        `json:"start"`
	End          float64        `json:"end"`
	ClipText     string         `json:"clip_text,omitempty"`
	ThumbnailURL string         `json:"thumbnail_url,omitempty"`
}

// CostSession is one recorded billing event in the cost ledger.
type CostSession struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"` // "video_processing" or "search_queries"
	Units     float64   `json:"units"`
	Rate      float64   `json:"rate"`
	Cost      float64   `json:"cost"`
}
