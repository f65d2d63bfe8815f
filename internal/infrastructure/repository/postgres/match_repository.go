package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchweek/internal/domain/match"
	qb "github.com/riskibarqy/matchweek/internal/platform/querybuilder"
)

const matchesTable = "matches"

var (
	matchSelectColumns = mustColumns(matchTableModel{})
	matchUpdateColumns = mustColumns(matchInsertModel{})
	matchOrder         = []string{"match_date", "external_id"}
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) GetByExternalID(ctx context.Context, externalID int64) (match.Match, bool, error) {
	query, args, err := qb.Select(matchSelectColumns...).From(matchesTable).
		Where(qb.Eq("external_id", externalID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build select match by external id query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("select match external_id=%d: %w", externalID, err)
	}
	return row.toDomain(), true, nil
}

func (r *MatchRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]match.Match, error) {
	query, args, err := qb.Select(matchSelectColumns...).From(matchesTable).
		Where(qb.Between("match_date", start.UTC(), end.UTC())).
		OrderBy(matchOrder...).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matches by date range query: %w", err)
	}
	return r.selectMatches(ctx, "date range", query, args)
}

func (r *MatchRepository) GetByGameweek(ctx context.Context, gameweek int, season string) ([]match.Match, error) {
	query, args, err := qb.Select(matchSelectColumns...).From(matchesTable).
		Where(
			qb.Eq("gameweek", gameweek),
			qb.Eq("season", season),
		).
		OrderBy(matchOrder...).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matches by gameweek query: %w", err)
	}
	return r.selectMatches(ctx, "gameweek", query, args)
}

func (r *MatchRepository) GetAll(ctx context.Context) ([]match.Match, error) {
	query, args, err := qb.Select(matchSelectColumns...).From(matchesTable).
		OrderBy(matchOrder...).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select all matches query: %w", err)
	}
	return r.selectMatches(ctx, "all", query, args)
}

func (r *MatchRepository) Upsert(ctx context.Context, item match.Match) (match.Match, error) {
	suffix := qb.OnConflictUpdate([]string{"external_id"}, matchUpdateColumns, "updated_at = NOW()") + " RETURNING id"
	query, args, err := qb.InsertModel(matchesTable, toInsertModel(item), suffix)
	if err != nil {
		return match.Match{}, fmt.Errorf("build upsert match query: %w", err)
	}

	var id int64
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return match.Match{}, fmt.Errorf("upsert match external_id=%d: %w", item.ExternalID, err)
	}

	out := item.Clone()
	out.ID = id
	return out, nil
}

func (r *MatchRepository) InsertIfAbsent(ctx context.Context, item match.Match) (match.Match, bool, error) {
	suffix := qb.OnConflictDoNothing("external_id") + " RETURNING id"
	query, args, err := qb.InsertModel(matchesTable, toInsertModel(item), suffix)
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build insert match query: %w", err)
	}

	var id int64
	err = r.db.QueryRowxContext(ctx, query, args...).Scan(&id)
	switch {
	case err == nil:
		out := item.Clone()
		out.ID = id
		return out, true, nil
	case isNotFound(err) || isUniqueViolation(err):
		existing, found, getErr := r.GetByExternalID(ctx, item.ExternalID)
		if getErr != nil {
			return match.Match{}, false, getErr
		}
		if !found {
			return match.Match{}, false, fmt.Errorf("match external_id=%d conflicted but is not readable", item.ExternalID)
		}
		return existing, false, nil
	default:
		return match.Match{}, false, fmt.Errorf("insert match external_id=%d: %w", item.ExternalID, err)
	}
}

func (r *MatchRepository) selectMatches(ctx context.Context, label, query string, args []any) ([]match.Match, error) {
	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matches by %s: %w", label, err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (m matchTableModel) toDomain() match.Match {
	return match.Match{
		ID:            m.ID,
		ExternalID:    m.ExternalID,
		HomeTeam:      m.HomeTeam,
		AwayTeam:      m.AwayTeam,
		HomeTeamCrest: nullStringPtr(m.HomeTeamCrest),
		AwayTeamCrest: nullStringPtr(m.AwayTeamCrest),
		HomeScore:     nullInt32Ptr(m.HomeScore),
		AwayScore:     nullInt32Ptr(m.AwayScore),
		MatchDate:     m.MatchDate.UTC(),
		Status:        match.NormalizeStatus(m.Status),
		Gameweek:      m.Gameweek,
		Season:        m.Season,
		IsGoalless:    m.IsGoalless,
	}
}

func toInsertModel(item match.Match) matchInsertModel {
	return matchInsertModel{
		ExternalID:    item.ExternalID,
		HomeTeam:      item.HomeTeam,
		AwayTeam:      item.AwayTeam,
		HomeTeamCrest: nullString(item.HomeTeamCrest),
		AwayTeamCrest: nullString(item.AwayTeamCrest),
		HomeScore:     nullInt32(item.HomeScore),
		AwayScore:     nullInt32(item.AwayScore),
		MatchDate:     item.MatchDate.UTC(),
		Status:        string(item.Status),
		Gameweek:      item.Gameweek,
		Season:        item.Season,
		IsGoalless:    match.DeriveGoalless(item.Status, item.HomeScore, item.AwayScore),
	}
}

func mustColumns(model any) []string {
	cols, err := qb.Columns(model)
	if err != nil {
		panic(fmt.Sprintf("postgres: %v", err))
	}
	return cols
}
