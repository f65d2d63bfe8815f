package usecase

import (
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/matchweek/internal/domain/match"
	idgen "github.com/riskibarqy/matchweek/internal/platform/id"
)

// DateFilter decides whether a kickoff instant belongs to the requested range.
type DateFilter func(time.Time) bool

// AnyDate accepts every kickoff, used when the whole competition is refreshed.
func AnyDate(time.Time) bool { return true }

// InWindow accepts kickoffs inside w, bounds included.
func InWindow(w match.Window) DateFilter {
	return w.Contains
}

// MatchTransformer turns raw provider records into canonical finished matches.
type MatchTransformer struct {
	ids idgen.Generator
}

func NewMatchTransformer(ids idgen.Generator) *MatchTransformer {
	if ids == nil {
		ids = idgen.NewSequence(time.Now().UnixMilli())
	}
	return &MatchTransformer{ids: ids}
}

// Transform keeps finished records with both full-time scores whose kickoff passes filter.
// Duplicate external ids keep the later record. Output is ordered by kickoff, then external id.
func (t *MatchTransformer) Transform(records []ExternalMatch, filter DateFilter) []match.Match {
	if len(records) == 0 {
		return []match.Match{}
	}
	if filter == nil {
		filter = AnyDate
	}

	base := t.ids.Reserve(len(records))
	byExternalID := make(map[int64]int, len(records))
	out := make([]match.Match, 0, len(records))
	for position, record := range records {
		if !record.Status.IsFinished() || record.HomeScore == nil || record.AwayScore == nil {
			continue
		}
		if !filter(record.UTCDate) {
			continue
		}

		externalID := idgen.Synthetic(base, position)
		if record.ID != nil {
			externalID = *record.ID
		}

		item := toMatch(record, externalID)
		if idx, exists := byExternalID[externalID]; exists {
			out[idx] = item
			continue
		}
		byExternalID[externalID] = len(out)
		out = append(out, item)
	}

	SortMatches(out)
	return out
}

// SortMatches orders by kickoff ascending with external id as tie-breaker.
func SortMatches(items []match.Match) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].MatchDate.Equal(items[j].MatchDate) {
			return items[i].MatchDate.Before(items[j].MatchDate)
		}
		return items[i].ExternalID < items[j].ExternalID
	})
}

func toMatch(record ExternalMatch, externalID int64) match.Match {
	gameweek := 1
	if record.Matchday != nil && *record.Matchday > 0 {
		gameweek = *record.Matchday
	}

	home, away := *record.HomeScore, *record.AwayScore
	return match.Match{
		ExternalID:    externalID,
		HomeTeam:      record.HomeTeam,
		AwayTeam:      record.AwayTeam,
		HomeTeamCrest: cloneString(record.HomeTeamCrest),
		AwayTeamCrest: cloneString(record.AwayTeamCrest),
		HomeScore:     &home,
		AwayScore:     &away,
		MatchDate:     record.UTCDate.UTC(),
		Status:        match.StatusFinished,
		Gameweek:      gameweek,
		Season:        seasonFromStartDate(record.SeasonStartDate),
		IsGoalless:    match.DeriveGoalless(match.StatusFinished, &home, &away),
	}
}

func seasonFromStartDate(startDate string) string {
	startDate = strings.TrimSpace(startDate)
	if len(startDate) < 4 {
		return match.DefaultSeason
	}
	return startDate[:4]
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
