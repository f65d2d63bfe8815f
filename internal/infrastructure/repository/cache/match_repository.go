package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/riskibarqy/matchweek/internal/domain/match"
	basecache "github.com/riskibarqy/matchweek/internal/platform/cache"
)

const matchKeyPrefix = "match:"

// MatchRepository is a read-through decorator; every successful write drops all match keys.
type MatchRepository struct {
	next  match.Store
	cache *basecache.Store
}

func NewMatchRepository(next match.Store, cache *basecache.Store) *MatchRepository {
	return &MatchRepository{next: next, cache: cache}
}

func (r *MatchRepository) GetByExternalID(ctx context.Context, externalID int64) (match.Match, bool, error) {
	key := matchKeyPrefix + "external:" + strconv.FormatInt(externalID, 10)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByExternalID(ctx, externalID)
		if err != nil {
			return nil, err
		}
		return cachedMatchByExternalID{value: item, exists: exists}, nil
	})
	if err != nil {
		return match.Match{}, false, err
	}

	cached, _ := v.(cachedMatchByExternalID)
	return cached.value.Clone(), cached.exists, nil
}

func (r *MatchRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]match.Match, error) {
	key := matchKeyPrefix + "range:" + start.UTC().Format(time.RFC3339Nano) + ":" + end.UTC().Format(time.RFC3339Nano)
	return r.loadList(ctx, key, func(ctx context.Context) ([]match.Match, error) {
		return r.next.GetByDateRange(ctx, start, end)
	})
}

func (r *MatchRepository) GetByGameweek(ctx context.Context, gameweek int, season string) ([]match.Match, error) {
	key := matchKeyPrefix + "gameweek:" + strconv.Itoa(gameweek) + ":" + season
	return r.loadList(ctx, key, func(ctx context.Context) ([]match.Match, error) {
		return r.next.GetByGameweek(ctx, gameweek, season)
	})
}

func (r *MatchRepository) GetAll(ctx context.Context) ([]match.Match, error) {
	return r.loadList(ctx, matchKeyPrefix+"all", r.next.GetAll)
}

func (r *MatchRepository) Upsert(ctx context.Context, item match.Match) (match.Match, error) {
	out, err := r.next.Upsert(ctx, item)
	if err != nil {
		return match.Match{}, err
	}
	r.cache.DeletePrefix(ctx, matchKeyPrefix)
	return out, nil
}

func (r *MatchRepository) InsertIfAbsent(ctx context.Context, item match.Match) (match.Match, bool, error) {
	out, created, err := r.next.InsertIfAbsent(ctx, item)
	if err != nil {
		return match.Match{}, false, err
	}
	if created {
		r.cache.DeletePrefix(ctx, matchKeyPrefix)
	}
	return out, created, nil
}

func (r *MatchRepository) loadList(ctx context.Context, key string, load func(context.Context) ([]match.Match, error)) ([]match.Match, error) {
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return cloneMatches(items), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]match.Match)
	return cloneMatches(items), nil
}

func cloneMatches(items []match.Match) []match.Match {
	out := make([]match.Match, 0, len(items))
	for _, item := range items {
		out = append(out, item.Clone())
	}
	return out
}

type cachedMatchByExternalID struct {
	value  match.Match
	exists bool
}
