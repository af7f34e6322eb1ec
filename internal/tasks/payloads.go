package tasks

// VideoIngestPayload is the payload for TypeVideoIngest.
type VideoIngestPayload struct {
	Filepath string `json:"filepath"`
}

// VideoCheckPayload is the payload for TypeVideoCheck.
type VideoCheckPayload struct {
	TaskID string `json:"task_id"`
}
