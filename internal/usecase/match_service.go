package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/matchweek/internal/domain/match"
	"github.com/riskibarqy/matchweek/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const (
	RateLimitMessage    = "Rate limited - please wait 1 minute before navigating further"
	UnavailableMessage  = "Failed to fetch matches"
	RefreshedMessage    = "Matches refreshed successfully"
	NotRefreshedMessage = "Match provider unavailable, nothing refreshed"

	defaultRefreshWorkers = 4
)

type WeekResult struct {
	Matches     []match.Match
	Window      match.Window
	RateLimited bool
	Message     string
	FromStore   bool
}

type CurrentWeekResult struct {
	Matches     []match.Match
	Window      match.Window
	RateLimited bool
	Message     string
}

// Failed reports whether the provider could not be used, in which case Matches is empty.
func (r CurrentWeekResult) Failed() bool {
	return r.Message != ""
}

type RefreshResult struct {
	Message     string
	Refreshed   int
	RateLimited bool
}

type MatchServiceConfig struct {
	// ReadThrough lets closed week windows be served from the store once the whole
	// window has been fetched from upstream and persisted, by a week view or a refresh.
	ReadThrough    bool
	RefreshWorkers int
	Now            func() time.Time
}

// MatchService composes window calculation, provider, transformer and store per request shape.
type MatchService struct {
	provider       *MatchProvider
	transformer    *MatchTransformer
	store          match.Store
	readThrough    bool
	refreshWorkers int
	now            func() time.Time
	logger         *logging.Logger
	covered        coverage
}

func NewMatchService(
	provider *MatchProvider,
	transformer *MatchTransformer,
	store match.Store,
	cfg MatchServiceConfig,
	logger *logging.Logger,
) *MatchService {
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	workers := cfg.RefreshWorkers
	if workers < 1 {
		workers = defaultRefreshWorkers
	}

	return &MatchService{
		provider:       provider,
		transformer:    transformer,
		store:          store,
		readThrough:    cfg.ReadThrough,
		refreshWorkers: workers,
		now:            now,
		logger:         logger,
	}
}

func (s *MatchService) WeekView(ctx context.Context, offset int) (WeekResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.WeekView", attribute.Int("offset", offset))
	defer span.End()

	now := s.now()
	window := match.WeekWindow(offset, now)
	result := WeekResult{Window: window, Matches: []match.Match{}}
	closed := window.ClosedAt(now)

	if s.readThrough && closed && s.covered.covers(window.WeekStart, window.WeekEnd) {
		stored, err := s.store.GetByDateRange(ctx, window.WeekStart, window.WeekEnd)
		if err != nil {
			return WeekResult{}, fmt.Errorf("get stored matches by date range: %w", err)
		}
		if stored != nil {
			result.Matches = stored
		}
		result.FromStore = true
		return result, nil
	}

	outcome := s.provider.Query(ctx, window)
	switch outcome.Kind {
	case OutcomeRateLimited:
		result.RateLimited = true
		result.Message = RateLimitMessage
		return result, nil
	case OutcomeUnavailable:
		s.logger.WarnContext(ctx, "week view degraded to empty result", "offset", offset)
		return result, nil
	}

	matches := s.transformer.Transform(outcome.Records, InWindow(window))
	if s.readThrough {
		if _, err := s.upsertAll(ctx, matches); err != nil {
			return WeekResult{}, err
		}
		if closed && allPersistable(matches) {
			s.covered.markFetched(window.WeekStart, window.WeekEnd, now)
		}
	}

	s.logger.DebugContext(ctx, "week view resolved from provider",
		"offset", offset,
		"fallback", outcome.WasFallback,
		"raw_count", len(outcome.Records),
		"match_count", len(matches),
	)
	result.Matches = matches
	return result, nil
}

// CurrentWeek stores newly seen matches of the last seven days without touching known
// ones, then answers from the store.
func (s *MatchService) CurrentWeek(ctx context.Context) (CurrentWeekResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.CurrentWeek")
	defer span.End()

	window := match.WeekWindow(0, s.now())
	result := CurrentWeekResult{Window: window, Matches: []match.Match{}}

	outcome := s.provider.QueryFinished(ctx)
	switch outcome.Kind {
	case OutcomeRateLimited:
		result.RateLimited = true
		result.Message = RateLimitMessage
		return result, nil
	case OutcomeUnavailable:
		result.Message = UnavailableMessage
		return result, nil
	}

	matches := s.transformer.Transform(outcome.Records, InWindow(window))
	inserted := 0
	for _, item := range matches {
		if !persistable(item) {
			continue
		}
		_, created, err := s.store.InsertIfAbsent(ctx, item)
		if err != nil {
			return CurrentWeekResult{}, fmt.Errorf("insert match external_id=%d: %w", item.ExternalID, err)
		}
		if created {
			inserted++
		}
	}

	stored, err := s.store.GetByDateRange(ctx, window.WeekStart, window.WeekEnd)
	if err != nil {
		return CurrentWeekResult{}, fmt.Errorf("get stored matches by date range: %w", err)
	}

	s.logger.DebugContext(ctx, "current week resolved", "inserted", inserted, "stored", len(stored))
	result.Matches = stored
	return result, nil
}

// Refresh overwrites every finished match of the competition so score corrections land.
func (s *MatchService) Refresh(ctx context.Context) (RefreshResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Refresh")
	defer span.End()

	startedAt := s.now()
	outcome := s.provider.QueryFinished(ctx)
	switch outcome.Kind {
	case OutcomeRateLimited:
		return RefreshResult{Message: RateLimitMessage, RateLimited: true}, nil
	case OutcomeUnavailable:
		return RefreshResult{Message: NotRefreshedMessage}, nil
	}

	matches := s.transformer.Transform(outcome.Records, AnyDate)
	refreshed, err := s.upsertAll(ctx, matches)
	if err != nil {
		return RefreshResult{}, err
	}
	if allPersistable(matches) {
		s.covered.markFetched(time.Time{}, startedAt, startedAt)
	}

	s.logger.InfoContext(ctx, "matches refreshed", "raw_count", len(outcome.Records), "refreshed", refreshed)
	return RefreshResult{Message: RefreshedMessage, Refreshed: refreshed}, nil
}

func (s *MatchService) ListByGameweek(ctx context.Context, gameweek int, season string) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ListByGameweek", attribute.Int("gameweek", gameweek))
	defer span.End()

	if gameweek < 1 {
		return nil, fmt.Errorf("%w: gameweek must be a positive integer", ErrInvalidInput)
	}
	season = strings.TrimSpace(season)
	if season == "" {
		season = match.DefaultSeason
	}
	if !isSeasonYear(season) {
		return nil, fmt.Errorf("%w: season must be a 4 digit year", ErrInvalidInput)
	}

	items, err := s.store.GetByGameweek(ctx, gameweek, season)
	if err != nil {
		return nil, fmt.Errorf("get matches by gameweek: %w", err)
	}
	SortMatches(items)
	return items, nil
}

func (s *MatchService) ListAll(ctx context.Context) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ListAll")
	defer span.End()

	items, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get all matches: %w", err)
	}
	return items, nil
}

// upsertAll writes independent records concurrently; the transformer already removed
// duplicate external ids so no two workers touch the same key.
func (s *MatchService) upsertAll(ctx context.Context, items []match.Match) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	pool, err := ants.NewPool(s.refreshWorkers)
	if err != nil {
		return 0, fmt.Errorf("create upsert worker pool: %w", err)
	}
	defer pool.Release()

	var (
		written atomic.Int32
		mu      sync.Mutex
		errs    []error
		wg      sync.WaitGroup
	)
	for _, item := range items {
		if !persistable(item) {
			continue
		}
		item := item
		wg.Add(1)
		if submitErr := pool.Submit(func() {
			defer wg.Done()
			if _, err := s.store.Upsert(ctx, item); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("upsert match external_id=%d: %w", item.ExternalID, err))
				mu.Unlock()
				return
			}
			written.Add(1)
		}); submitErr != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, fmt.Errorf("submit upsert: %w", submitErr))
			mu.Unlock()
			break
		}
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		s.logger.ErrorContext(ctx, "upsert matches failed", "failed", len(errs), "error", err)
		return int(written.Load()), err
	}
	return int(written.Load()), nil
}

// Synthetic external ids are not stable across batches, so only upstream ids are stored.
func persistable(item match.Match) bool {
	return item.ExternalID > 0
}

// allPersistable is false when a batch carried records without an upstream id; those
// never reach the store, so the store cannot stand in for that batch.
func allPersistable(items []match.Match) bool {
	for _, item := range items {
		if !persistable(item) {
			return false
		}
	}
	return true
}

func isSeasonYear(season string) bool {
	if len(season) != 4 {
		return false
	}
	for _, r := range season {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
