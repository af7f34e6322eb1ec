package tasks

// Defines constants for task types used in Asynq.

const (
	// TypeVideoIngest uploads one video to the provider index and waits for
	// the indexing task to finish.
	TypeVideoIngest = "video:ingest"
	// TypeVideoCheck re-checks a previously submitted indexing task, used
	// after a caller-side await timeout.
	TypeVideoCheck = "video:check"
)
