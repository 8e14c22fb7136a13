// Package profile derives a player's level, rank and success rate from their
// saved game statistics.
package profile

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"memory-duel-server/playerrors"
	"memory-duel-server/storage"
)

// GamesPerLevel is the number of completed games needed to gain a level.
const GamesPerLevel = 10

// Username length limits, in bytes after trimming.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 25
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Profile is what the profile page shows about a player.
type Profile struct {
	PlayerID              string    `json:"player_id"`
	DisplayName           string    `json:"display_name"`
	CreatedAt             time.Time `json:"created_at"`
	Level                 int       `json:"level"`
	Rank                  string    `json:"rank"`
	TotalGames            int       `json:"total_games"`
	CompletedGames        int       `json:"completed_games"`
	AbandonedGames        int       `json:"abandoned_games"`
	SuccessRate           float64   `json:"success_rate"`
	BestScore             int       `json:"best_score"`
	AverageScore          *int      `json:"average_score"`
	BestTime              *int64    `json:"best_time"`
	AverageTime           *int64    `json:"average_time"`
	AverageMoves          *float64  `json:"average_moves"`
	ExperienceToNextLevel int       `json:"experience_to_next_level"`
}

// FromStats builds the profile of a player. A nil st yields a fresh profile
// for playerID.
func FromStats(playerID string, st *storage.PlayerStats) Profile {
	if st == nil {
		st = &storage.PlayerStats{PlayerID: playerID}
	}
	p := Profile{
		PlayerID:       st.PlayerID,
		DisplayName:    st.DisplayName,
		CreatedAt:      st.CreatedAt,
		TotalGames:     st.TotalGames,
		CompletedGames: st.CompletedGames,
		AbandonedGames: st.AbandonedGames,
		BestScore:      st.BestScore,
		AverageScore:   st.AverageScore,
		BestTime:       st.BestTime,
		AverageTime:    st.AverageTime,
		AverageMoves:   st.AverageMoves,
	}
	p.Level = Level(p.CompletedGames)
	p.SuccessRate = SuccessRate(p.CompletedGames, p.TotalGames)
	p.ExperienceToNextLevel = ExperienceToNextLevel(p.CompletedGames)
	p.Rank = Rank(p.Level, p.SuccessRate, p.BestScore, p.CompletedGames)
	return p
}

// Level is one plus a level per GamesPerLevel completed games.
func Level(completed int) int {
	return max(1, completed/GamesPerLevel+1)
}

// ExperienceToNextLevel is the number of completed games still needed for the next level.
func ExperienceToNextLevel(completed int) int {
	return max(0, Level(completed)*GamesPerLevel-completed)
}

// SuccessRate is the percentage of completed games, rounded to one decimal.
func SuccessRate(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*1000) / 10
}

type rankTier struct {
	title       string
	level       int
	successRate float64
	bestScore   int
}

// rankTiers is checked top to bottom; the first tier whose thresholds are all met wins.
var rankTiers = []rankTier{
	{"Millennium Pharaoh", 15, 95, 2000},
	{"King of Games", 12, 90, 1800},
	{"Card Master", 10, 85, 1600},
	{"Duelist Kingdom Champion", 8, 80, 0},
	{"Regional Champion", 6, 75, 0},
	{"Expert Duelist", 5, 70, 0},
	{"Confirmed Duelist", 4, 65, 0},
	{"Apprentice Duelist", 3, 60, 0},
}

// Rank titles below the skill tiers, by completed games only.
const (
	RankAcademyStudent    = "Academy Student"
	RankPromisingBeginner = "Promising Beginner"
	RankNewDuelist        = "New Duelist"
)

// Rank returns the title for a player's level, success rate and best score.
func Rank(level int, successRate float64, bestScore, completed int) string {
	for _, t := range rankTiers {
		if level >= t.level && successRate >= t.successRate && bestScore >= t.bestScore {
			return t.title
		}
	}
	switch {
	case completed >= 10:
		return RankAcademyStudent
	case completed >= 5:
		return RankPromisingBeginner
	default:
		return RankNewDuelist
	}
}

// ValidateUsername trims name and checks it is 3 to 25 letters, digits,
// dashes or underscores. It returns the trimmed name.
func ValidateUsername(name string) (string, error) {
	clean := strings.TrimSpace(name)
	switch {
	case clean == "":
		return "", fmt.Errorf("%w: must not be empty", playerrors.ErrInvalidName)
	case len(clean) < MinUsernameLength:
		return "", fmt.Errorf("%w: must be at least %d characters", playerrors.ErrInvalidName, MinUsernameLength)
	case len(clean) > MaxUsernameLength:
		return "", fmt.Errorf("%w: must be at most %d characters", playerrors.ErrInvalidName, MaxUsernameLength)
	case !usernamePattern.MatchString(clean):
		return "", fmt.Errorf("%w: only letters, digits, dashes and underscores are allowed", playerrors.ErrInvalidName)
	}
	return clean, nil
}
