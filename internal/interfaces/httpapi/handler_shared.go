package httpapi

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/matchweek/internal/domain/match"
	"github.com/riskibarqy/matchweek/internal/platform/resilience"
	"github.com/riskibarqy/matchweek/internal/usecase"
)

// instantLayout renders UTC instants with millisecond precision, e.g. 2024-03-01T00:00:00.000Z.
const instantLayout = "2006-01-02T15:04:05.000Z07:00"

type matchDTO struct {
	ID            int64   `json:"id"`
	ExternalID    int64   `json:"externalId"`
	HomeTeam      string  `json:"homeTeam"`
	AwayTeam      string  `json:"awayTeam"`
	HomeTeamCrest *string `json:"homeTeamCrest"`
	AwayTeamCrest *string `json:"awayTeamCrest"`
	HomeScore     *int    `json:"homeScore"`
	AwayScore     *int    `json:"awayScore"`
	MatchDate     string  `json:"matchDate"`
	Status        string  `json:"status"`
	Gameweek      int     `json:"gameweek"`
	Season        string  `json:"season"`
	IsGoalless    bool    `json:"isGoalless"`
}

type weekDTO struct {
	Matches     []matchDTO `json:"matches"`
	WeekStart   string     `json:"weekStart"`
	WeekEnd     string     `json:"weekEnd"`
	Offset      int        `json:"offset"`
	RateLimited bool       `json:"rateLimited,omitempty"`
	Message     string     `json:"message,omitempty"`
}

type degradedMatchesDTO struct {
	Matches     []matchDTO `json:"matches"`
	Message     string     `json:"message"`
	RateLimited bool       `json:"rateLimited,omitempty"`
}

type refreshDTO struct {
	Message     string `json:"message"`
	Refreshed   *int   `json:"refreshed,omitempty"`
	RateLimited bool   `json:"rateLimited,omitempty"`
}

type healthDTO struct {
	Status   string             `json:"status"`
	Upstream *upstreamHealthDTO `json:"upstream,omitempty"`
}

type upstreamHealthDTO struct {
	Circuit resilience.Snapshot `json:"circuit"`
}

func matchToDTO(m match.Match) matchDTO {
	return matchDTO{
		ID:            m.ID,
		ExternalID:    m.ExternalID,
		HomeTeam:      m.HomeTeam,
		AwayTeam:      m.AwayTeam,
		HomeTeamCrest: m.HomeTeamCrest,
		AwayTeamCrest: m.AwayTeamCrest,
		HomeScore:     m.HomeScore,
		AwayScore:     m.AwayScore,
		MatchDate:     formatInstant(m.MatchDate),
		Status:        string(m.Status),
		Gameweek:      m.Gameweek,
		Season:        m.Season,
		IsGoalless:    m.IsGoalless,
	}
}

func matchesToDTO(items []match.Match) []matchDTO {
	out := make([]matchDTO, 0, len(items))
	for _, item := range items {
		out = append(out, matchToDTO(item))
	}
	return out
}

func weekToDTO(result usecase.WeekResult) weekDTO {
	return weekDTO{
		Matches:     matchesToDTO(result.Matches),
		WeekStart:   formatInstant(result.Window.WeekStart),
		WeekEnd:     formatInstant(result.Window.WeekEnd),
		Offset:      result.Window.Offset,
		RateLimited: result.RateLimited,
		Message:     result.Message,
	}
}

func formatInstant(t time.Time) string {
	return t.UTC().Format(instantLayout)
}

// describeValidation turns validator field errors into "field: tag" pairs.
func describeValidation(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, strings.ToLower(fe.Field())+" failed "+fe.Tag())
	}
	return strings.Join(parts, ", ")
}
