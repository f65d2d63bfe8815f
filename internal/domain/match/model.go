package match

import (
	"strings"
	"time"
)

// Status is the lifecycle state reported by the upstream provider.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusLive      Status = "LIVE"
	StatusFinished  Status = "FINISHED"
)

const DefaultSeason = "2024"

// Match is one finished fixture as exposed to the presentation layer.
type Match struct {
	ID            int64
	ExternalID    int64
	HomeTeam      string
	AwayTeam      string
	HomeTeamCrest *string
	AwayTeamCrest *string
	HomeScore     *int
	AwayScore     *int
	MatchDate     time.Time
	Status        Status
	Gameweek      int
	Season        string
	IsGoalless    bool
}

func NormalizeStatus(value string) Status {
	status := Status(strings.ToUpper(strings.TrimSpace(value)))
	if status == "" {
		return StatusScheduled
	}
	return status
}

func (s Status) IsFinished() bool {
	return s == StatusFinished
}

// DeriveGoalless reports whether a match ended 0-0. Unfinished matches are never goalless.
func DeriveGoalless(status Status, homeScore, awayScore *int) bool {
	if !status.IsFinished() || homeScore == nil || awayScore == nil {
		return false
	}
	return *homeScore == 0 && *awayScore == 0
}

// SameContent compares every field except the store-assigned ID.
func (m Match) SameContent(other Match) bool {
	return m.ExternalID == other.ExternalID &&
		m.HomeTeam == other.HomeTeam &&
		m.AwayTeam == other.AwayTeam &&
		equalStringPtr(m.HomeTeamCrest, other.HomeTeamCrest) &&
		equalStringPtr(m.AwayTeamCrest, other.AwayTeamCrest) &&
		equalIntPtr(m.HomeScore, other.HomeScore) &&
		equalIntPtr(m.AwayScore, other.AwayScore) &&
		m.MatchDate.Equal(other.MatchDate) &&
		m.Status == other.Status &&
		m.Gameweek == other.Gameweek &&
		m.Season == other.Season &&
		m.IsGoalless == other.IsGoalless
}

// Clone returns a deep copy so callers cannot mutate stored pointers.
func (m Match) Clone() Match {
	out := m
	out.HomeTeamCrest = cloneStringPtr(m.HomeTeamCrest)
	out.AwayTeamCrest = cloneStringPtr(m.AwayTeamCrest)
	out.HomeScore = cloneIntPtr(m.HomeScore)
	out.AwayScore = cloneIntPtr(m.AwayScore)
	return out
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneStringPtr(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneIntPtr(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
