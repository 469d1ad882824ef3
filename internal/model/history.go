package model

import "time"

// Snapshot is a loaded blob recorded in the history database.
type Snapshot struct {
	ID         string
	LoadedAt   time.Time
	Source     string
	Digest     string
	Players    int
	Characters int
	AFK        int
	BestPlayer string
	Payload    []byte
}

// PlayerScore is one player's weighted average in a snapshot.
type PlayerScore struct {
	SnapshotID  string
	LoadedAt    time.Time
	Player      string
	WeightedAvg float64
	Best        bool
}

// ReportRecord is a generated report file.
type ReportRecord struct {
	ID         int64
	SnapshotID string
	Path       string
	CreatedAt  time.Time
	SizeBytes  int64
}
