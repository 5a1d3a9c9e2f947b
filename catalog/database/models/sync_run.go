package models

import (
	"time"

	"github.com/uptrace/bun"
)

// SyncRun is the persisted report of one catalog ingestion run.
type SyncRun struct {
	bun.BaseModel `bun:"table:sync_runs,alias:sr"`

	ID             string    `bun:"id,pk" json:"id"`
	Dataset        string    `bun:"dataset,notnull" json:"dataset"`
	Refreshed      bool      `bun:"refreshed,notnull" json:"refreshed"`
	Parsed         int       `bun:"parsed,notnull" json:"parsed"`
	Inserted       int       `bun:"inserted,notnull" json:"inserted"`
	Updated        int       `bun:"updated,notnull" json:"updated"`
	Skipped        int       `bun:"skipped,notnull" json:"skipped"`
	TotalStored    int       `bun:"total_stored,notnull" json:"total_stored"`
	DistinctGroups int       `bun:"distinct_groups,notnull" json:"distinct_groups"`
	MultiFaced     int       `bun:"multi_faced,notnull" json:"multi_faced"`
	WithFinishes   int       `bun:"with_finishes,notnull" json:"with_finishes"`
	ArenaLinked    int       `bun:"arena_linked,notnull" json:"arena_linked"`
	MTGOLinked     int       `bun:"mtgo_linked,notnull" json:"mtgo_linked"`
	StartedAt      time.Time `bun:"started_at,notnull" json:"started_at"`
	FinishedAt     time.Time `bun:"finished_at,notnull" json:"finished_at"`
}
