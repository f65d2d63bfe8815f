package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/riskibarqy/matchweek/internal/domain/match"
	"github.com/riskibarqy/matchweek/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const defaultProviderTimeout = 10 * time.Second

// ExternalMatch is one validated upstream match record. Optional upstream fields stay nil.
type ExternalMatch struct {
	ID              *int64
	Status          match.Status
	HomeScore       *int
	AwayScore       *int
	UTCDate         time.Time
	HomeTeam        string
	AwayTeam        string
	HomeTeamCrest   *string
	AwayTeamCrest   *string
	Matchday        *int
	SeasonStartDate string
}

// MatchSource is the upstream competition feed. Errors must match ErrRateLimited when
// the provider signals overload and ErrDependencyUnavailable for everything else.
type MatchSource interface {
	FetchMatchesByDateRange(ctx context.Context, dateFrom, dateTo string) ([]ExternalMatch, error)
	FetchFinishedMatches(ctx context.Context) ([]ExternalMatch, error)
}

type OutcomeKind string

const (
	OutcomeOK          OutcomeKind = "ok"
	OutcomeRateLimited OutcomeKind = "rate_limited"
	OutcomeUnavailable OutcomeKind = "unavailable"
)

// Outcome is the closed result set of one provider query.
type Outcome struct {
	Kind        OutcomeKind
	Records     []ExternalMatch
	WasFallback bool
}

type MatchProvider struct {
	source  MatchSource
	timeout time.Duration
	logger  *logging.Logger
}

func NewMatchProvider(source MatchSource, timeout time.Duration, logger *logging.Logger) *MatchProvider {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}

	return &MatchProvider{
		source:  source,
		timeout: timeout,
		logger:  logger,
	}
}

// Query asks for the window's date range first. A rate-limit answer is returned as is;
// any other failure triggers exactly one unbounded finished-matches fallback.
func (p *MatchProvider) Query(ctx context.Context, window match.Window) Outcome {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchProvider.Query",
		attribute.String("date_from", window.DateFrom()),
		attribute.String("date_to", window.DateTo()),
	)
	defer span.End()

	dateFrom, dateTo := window.DateFrom(), window.DateTo()
	records, err := p.call(ctx, func(callCtx context.Context) ([]ExternalMatch, error) {
		return p.source.FetchMatchesByDateRange(callCtx, dateFrom, dateTo)
	})
	if err == nil {
		return Outcome{Kind: OutcomeOK, Records: records}
	}
	if errors.Is(err, ErrRateLimited) {
		p.logger.WarnContext(ctx, "match provider rate limited", "date_from", dateFrom, "date_to", dateTo)
		return Outcome{Kind: OutcomeRateLimited}
	}

	p.logger.WarnContext(ctx, "date range query failed, falling back to finished matches",
		"date_from", dateFrom,
		"date_to", dateTo,
		"error", err,
	)

	records, err = p.call(ctx, p.source.FetchFinishedMatches)
	if err != nil {
		p.logger.WarnContext(ctx, "fallback finished matches query failed", "error", err)
		return Outcome{Kind: OutcomeUnavailable}
	}

	return Outcome{Kind: OutcomeOK, Records: records, WasFallback: true}
}

// QueryFinished is the unbounded form; the caller filters locally.
func (p *MatchProvider) QueryFinished(ctx context.Context) Outcome {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchProvider.QueryFinished")
	defer span.End()

	records, err := p.call(ctx, p.source.FetchFinishedMatches)
	switch {
	case err == nil:
		return Outcome{Kind: OutcomeOK, Records: records, WasFallback: true}
	case errors.Is(err, ErrRateLimited):
		p.logger.WarnContext(ctx, "match provider rate limited on finished matches query")
		return Outcome{Kind: OutcomeRateLimited}
	default:
		p.logger.WarnContext(ctx, "finished matches query failed", "error", err)
		return Outcome{Kind: OutcomeUnavailable}
	}
}

func (p *MatchProvider) call(ctx context.Context, fetch func(context.Context) ([]ExternalMatch, error)) ([]ExternalMatch, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	records, err := fetch(callCtx)
	if err != nil {
		if errors.Is(err, ErrRateLimited) {
			return nil, err
		}
		if callCtx.Err() != nil {
			return nil, errors.Join(ErrDependencyUnavailable, callCtx.Err())
		}
		return nil, err
	}
	return records, nil
}
