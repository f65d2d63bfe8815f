package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/matchweek/internal/domain/match"
)

// MatchRepository keeps matches in process, keyed by external id.
type MatchRepository struct {
	mu           sync.RWMutex
	byExternalID map[int64]match.Match
	lastID       int64
}

func NewMatchRepository(seed []match.Match) *MatchRepository {
	r := &MatchRepository{byExternalID: make(map[int64]match.Match, len(seed))}
	for _, item := range seed {
		r.upsertLocked(item)
	}
	return r
}

func (r *MatchRepository) GetByExternalID(_ context.Context, externalID int64) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byExternalID[externalID]
	if !ok {
		return match.Match{}, false, nil
	}
	return item.Clone(), true, nil
}

func (r *MatchRepository) GetByDateRange(_ context.Context, start, end time.Time) ([]match.Match, error) {
	return r.collect(func(item match.Match) bool {
		return !item.MatchDate.Before(start) && !item.MatchDate.After(end)
	}), nil
}

func (r *MatchRepository) GetByGameweek(_ context.Context, gameweek int, season string) ([]match.Match, error) {
	return r.collect(func(item match.Match) bool {
		return item.Gameweek == gameweek && item.Season == season
	}), nil
}

func (r *MatchRepository) GetAll(_ context.Context) ([]match.Match, error) {
	return r.collect(func(match.Match) bool { return true }), nil
}

func (r *MatchRepository) Upsert(_ context.Context, item match.Match) (match.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.upsertLocked(item).Clone(), nil
}

func (r *MatchRepository) InsertIfAbsent(_ context.Context, item match.Match) (match.Match, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byExternalID[item.ExternalID]; ok {
		return existing.Clone(), false, nil
	}
	return r.upsertLocked(item).Clone(), true, nil
}

func (r *MatchRepository) upsertLocked(item match.Match) match.Match {
	stored := item.Clone()
	if existing, ok := r.byExternalID[item.ExternalID]; ok {
		stored.ID = existing.ID
	} else {
		r.lastID++
		stored.ID = r.lastID
	}
	r.byExternalID[item.ExternalID] = stored
	return stored
}

func (r *MatchRepository) collect(keep func(match.Match) bool) []match.Match {
	r.mu.RLock()
	out := make([]match.Match, 0, len(r.byExternalID))
	for _, item := range r.byExternalID {
		if keep(item) {
			out = append(out, item.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].MatchDate.Equal(out[j].MatchDate) {
			return out[i].MatchDate.Before(out[j].MatchDate)
		}
		return out[i].ExternalID < out[j].ExternalID
	})
	return out
}
