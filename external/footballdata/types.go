package footballdata

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/matchweek/internal/domain/match"
	"github.com/riskibarqy/matchweek/internal/usecase"
)

// ErrInvalidRecord marks a single upstream match that lacks a required field.
var ErrInvalidRecord = errors.New("invalid match record")

type matchesEnvelope struct {
	Count   int         `json:"count"`
	Filters wireFilters `json:"filters"`
	Matches []wireMatch `json:"matches"`
}

type wireFilters struct {
	DateFrom string `json:"dateFrom"`
	DateTo   string `json:"dateTo"`
	Status   any    `json:"status"`
}

type wireMatch struct {
	ID       int64      `json:"id"`
	UTCDate  string     `json:"utcDate"`
	Status   string     `json:"status"`
	Matchday *int       `json:"matchday"`
	Stage    string     `json:"stage"`
	Season   wireSeason `json:"season"`
	HomeTeam wireTeam   `json:"homeTeam"`
	AwayTeam wireTeam   `json:"awayTeam"`
	Score    wireScore  `json:"score"`
}

type wireSeason struct {
	ID              int64  `json:"id"`
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	CurrentMatchday *int   `json:"currentMatchday"`
}

type wireTeam struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	TLA       string `json:"tla"`
	Crest     string `json:"crest"`
}

type wireScore struct {
	Winner   *string       `json:"winner"`
	Duration string        `json:"duration"`
	FullTime wireScoreLine `json:"fullTime"`
	HalfTime wireScoreLine `json:"halfTime"`
}

type wireScoreLine struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

// parseMatch validates one wire record. Only status, kickoff and both team names are required.
func parseMatch(item wireMatch) (usecase.ExternalMatch, error) {
	status := strings.TrimSpace(item.Status)
	if status == "" {
		return usecase.ExternalMatch{}, fmt.Errorf("%w: id=%d missing status", ErrInvalidRecord, item.ID)
	}

	rawDate := strings.TrimSpace(item.UTCDate)
	if rawDate == "" {
		return usecase.ExternalMatch{}, fmt.Errorf("%w: id=%d missing utcDate", ErrInvalidRecord, item.ID)
	}
	kickoff, err := time.Parse(time.RFC3339, rawDate)
	if err != nil {
		return usecase.ExternalMatch{}, fmt.Errorf("%w: id=%d utcDate=%q: %v", ErrInvalidRecord, item.ID, rawDate, err)
	}

	home := strings.TrimSpace(item.HomeTeam.Name)
	away := strings.TrimSpace(item.AwayTeam.Name)
	if home == "" || away == "" {
		return usecase.ExternalMatch{}, fmt.Errorf("%w: id=%d missing team name", ErrInvalidRecord, item.ID)
	}

	out := usecase.ExternalMatch{
		Status:          match.NormalizeStatus(status),
		HomeScore:       copyInt(item.Score.FullTime.Home),
		AwayScore:       copyInt(item.Score.FullTime.Away),
		UTCDate:         kickoff.UTC(),
		HomeTeam:        home,
		AwayTeam:        away,
		HomeTeamCrest:   optionalString(item.HomeTeam.Crest),
		AwayTeamCrest:   optionalString(item.AwayTeam.Crest),
		Matchday:        copyInt(item.Matchday),
		SeasonStartDate: strings.TrimSpace(item.Season.StartDate),
	}
	if item.ID > 0 {
		id := item.ID
		out.ID = &id
	}
	return out, nil
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
