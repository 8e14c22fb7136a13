package storage

import (
	"cmp"
	"math"
	"strings"
	"time"
)

// GameRecord is a single row returned for the history API.
type GameRecord struct {
	ID              int64      `json:"id"`
	PairsCount      int        `json:"pairs_count"`
	MovesCount      int        `json:"moves_count"`
	Score           int        `json:"score"`
	DurationSeconds *int64     `json:"duration_seconds"`
	Status          string     `json:"status"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
}

// PlayerStats aggregates a player's saved games. Averages and bests only
// count completed games and are nil until there is one.
type PlayerStats struct {
	PlayerID       string    `json:"player_id"`
	DisplayName    string    `json:"display_name"`
	CreatedAt      time.Time `json:"created_at"`
	TotalGames     int       `json:"total_games"`
	CompletedGames int       `json:"completed_games"`
	AbandonedGames int       `json:"abandoned_games"`
	BestScore      int       `json:"best_score"`
	AverageScore   *int      `json:"average_score"`
	BestTime       *int64    `json:"best_time"`
	AverageTime    *int64    `json:"average_time"`
	AverageMoves   *float64  `json:"average_moves"`
}

// LeaderboardEntry is a single row for the leaderboard API.
type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	PlayerID       string `json:"player_id"`
	DisplayName    string `json:"display_name"`
	BestScore      int    `json:"best_score"`
	TotalGames     int    `json:"total_games"`
	CompletedGames int    `json:"completed_games"`
	IsCurrentUser  bool   `json:"is_current_user,omitempty"`
}

// compareEntries is the leaderboard order: best score, then success rate
// (completed over total games), then completed games, all descending, with
// the player id as the final tie-break. leaderboardCTE sorts the same way.
func compareEntries(a, b LeaderboardEntry) int {
	if c := cmp.Compare(b.BestScore, a.BestScore); c != 0 {
		return c
	}
	// Cross-multiplied so equal ratios such as 1/2 and 2/4 tie exactly.
	if c := cmp.Compare(b.CompletedGames*a.TotalGames, a.CompletedGames*b.TotalGames); c != 0 {
		return c
	}
	if c := cmp.Compare(b.CompletedGames, a.CompletedGames); c != 0 {
		return c
	}
	return strings.Compare(a.PlayerID, b.PlayerID)
}

// roundTo rounds v to the given number of decimals.
func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
