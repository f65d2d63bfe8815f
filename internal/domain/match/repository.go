package match

import (
	"context"
	"time"
)

// Store persists matches keyed by ExternalID. Implementations must make each call atomic.
type Store interface {
	GetByExternalID(ctx context.Context, externalID int64) (Match, bool, error)
	// GetByDateRange is inclusive on both bounds and ordered by MatchDate ascending.
	GetByDateRange(ctx context.Context, start, end time.Time) ([]Match, error)
	GetByGameweek(ctx context.Context, gameweek int, season string) ([]Match, error)
	// Upsert overwrites every field of an existing record with the same ExternalID
	// while keeping its ID, or inserts with a freshly allocated ID.
	Upsert(ctx context.Context, item Match) (Match, error)
	// InsertIfAbsent stores item only when its ExternalID is unknown and reports whether it did.
	InsertIfAbsent(ctx context.Context, item Match) (Match, bool, error)
	GetAll(ctx context.Context) ([]Match, error)
}
