package models

import "strings"

/*
Task status and confidence tier constants used throughout the codebase.
Centralizing these avoids magic strings and keeps the provider's wire
vocabulary out of everything except the provider client.
*/

// TaskStatus is the normalized lifecycle state of a remote indexing task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusReady      TaskStatus = "ready"
	TaskStatusFailed     TaskStatus = "failed"
)

// Terminal reports whether the status is server-side terminal.
// A caller-side timeout is not a TaskStatus: the remote task keeps running.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusReady || s == TaskStatusFailed
}

// NormalizeTaskStatus maps the provider's status vocabulary onto the closed
// set {pending, processing, ready, failed}. Unknown values are treated as
// processing so a vocabulary addition on the provider side never strands a
// poll loop in a phantom terminal state.
func NormalizeTaskStatus(raw string) TaskStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ready", "done", "complete", "completed":
		return TaskStatusReady
	case "failed", "error":
		return TaskStatusFailed
	case "pending", "queued", "validating", "uploading":
		return TaskStatusPending
	case "processing", "indexing", "running":
		return TaskStatusProcessing
	default:
		return TaskStatusProcessing
	}
}

// ConfidenceTier is the ordinal relevance classification the provider
// attaches to a search match: high > medium > low > none.
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceLow    ConfidenceTier = "low"
	ConfidenceNone   ConfidenceTier = "none"
)

// Rank returns the ordering of the tier, higher is more relevant.
func (c ConfidenceTier) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// NormalizeConfidence maps a provider confidence string onto a known tier.
func NormalizeConfidence(raw string) ConfidenceTier {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high", "extremely high":
		return ConfidenceHigh
	case "medium", "mid":
		return ConfidenceMedium
	case "low":
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}
