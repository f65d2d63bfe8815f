package postgres

import (
	"database/sql"
	"time"
)

type matchTableModel struct {
	ID            int64          `db:"id"`
	ExternalID    int64          `db:"external_id"`
	HomeTeam      string         `db:"home_team"`
	AwayTeam      string         `db:"away_team"`
	HomeTeamCrest sql.NullString `db:"home_team_crest"`
	AwayTeamCrest sql.NullString `db:"away_team_crest"`
	HomeScore     sql.NullInt32  `db:"home_score"`
	AwayScore     sql.NullInt32  `db:"away_score"`
	MatchDate     time.Time      `db:"match_date"`
	Status        string         `db:"status"`
	Gameweek      int            `db:"gameweek"`
	Season        string         `db:"season"`
	IsGoalless    bool           `db:"is_goalless"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

type matchInsertModel struct {
	ExternalID    int64          `db:"external_id"`
	HomeTeam      string         `db:"home_team"`
	AwayTeam      string         `db:"away_team"`
	HomeTeamCrest sql.NullString `db:"home_team_crest"`
	AwayTeamCrest sql.NullString `db:"away_team_crest"`
	HomeScore     sql.NullInt32  `db:"home_score"`
	AwayScore     sql.NullInt32  `db:"away_score"`
	MatchDate     time.Time      `db:"match_date"`
	Status        string         `db:"status"`
	Gameweek      int            `db:"gameweek"`
	Season        string         `db:"season"`
	IsGoalless    bool           `db:"is_goalless"`
}
