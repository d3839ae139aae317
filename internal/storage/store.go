package storage

import (
	"context"

	"patlens/internal/report"
)

// ScanSummary is the lightweight listing row for a persisted scan.
type ScanSummary struct {
	ID              int64
	Root            string
	GeneratedAt     string
	FilesScanned    int
	TotalDetections int
}

// StoredMatch is one persisted match row, denormalized for querying across
// scans without loading whole reports.
type StoredMatch struct {
	ScanID     int64
	Pattern    string
	NodeName   string
	Filepath   string
	StartLine  int
	EndLine    int
	Confidence float64
}

// Store persists detection reports so repeat scans can be compared.
type Store interface {
	// SaveScan persists a report and returns its scan id.
	SaveScan(ctx context.Context, r *report.Report) (int64, error)

	// GetScan retrieves a persisted report by scan id.
	GetScan(ctx context.Context, id int64) (*report.Report, error)

	// ListScans lists persisted scans, newest first.
	ListScans(ctx context.Context) ([]ScanSummary, error)

	// FindMatchesByPattern retrieves all persisted matches for a pattern.
	FindMatchesByPattern(ctx context.Context, name string) ([]StoredMatch, error)

	Close() error
}
