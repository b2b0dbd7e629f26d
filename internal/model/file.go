package model

import "time"

// Encodings an artifact can be serialized with.
const (
	EncodingJSON = "json"
	EncodingCSV  = "csv"
)

// Artifact categories.
const (
	DataTypeTabular = "tabular"
	DataTypeChat    = "chat"
	DataTypeEmail   = "email"
)

// GeneratedFile is the ledger record for one persisted artifact.
//
// Lifecycle: created atomically with its backing file when a generation
// completes; deleted only by its owner. DownloadCount starts at 0 and is
// incremented by exactly 1 per successful download. The increment happens
// store-side in a single UPDATE, never as a read-modify-write in Go, so
// concurrent downloads of the same artifact each count once.
type GeneratedFile struct {
	ID            string    `json:"id"`
	UserID        string    `json:"-"`
	Filename      string    `json:"filename"`
	FilePath      string    `json:"-"`
	FileType      string    `json:"fileType"` // json | csv
	DataType      string    `json:"dataType"` // tabular | chat | email
	ModelType     string    `json:"modelType"`
	NumSamples    int       `json:"numSamples"`
	FileSize      int64     `json:"fileSize"`
	DownloadCount int64     `json:"downloadCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// DownloadName is the client-facing filename suggested in the
// Content-Disposition header: {logicalName}.{encoding}.
func (f *GeneratedFile) DownloadName() string {
	return f.Filename + "." + f.FileType
}
