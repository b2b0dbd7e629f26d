package model

import "time"

// StatusCompleted is the only generation status the backend models. There
// is no retry or failure state; a failed request records nothing at all.
const StatusCompleted = "completed"

// GenerationEvent is one entry in the append-only audit log of generation
// requests. Events are never mutated or deleted, and they outlive the
// artifact they were paired with (deleting a file keeps its event).
type GenerationEvent struct {
	ID             string    `json:"id"`
	UserID         string    `json:"-"`
	GenerationType string    `json:"generationType"` // tabular | chat | email
	Domain         string    `json:"domain"`
	Topic          string    `json:"topic,omitempty"`
	NumSamples     int       `json:"numSamples"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Stats is the aggregate reporting shape, either scoped to one owner or
// global. Degraded is true when a ledger scan failed and the zeroed
// best-effort values were substituted; the payload shape is unchanged so
// callers can still render it, but the flag keeps the degradation visible.
type Stats struct {
	TotalDownloads       int64          `json:"totalDownloads"`
	TotalGenerations     int64          `json:"totalGenerations"`
	TotalFiles           int64          `json:"totalFiles"`
	DataTypeDistribution map[string]int `json:"dataTypeDistribution"`
	FileTypeDistribution map[string]int `json:"fileTypeDistribution"`
	Degraded             bool           `json:"degraded"`
}
