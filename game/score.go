package game

import "math"

// Scoring constants.
const (
	BaseScore            = 100
	MovePenaltyPerMove   = 10
	MaxTimeBonus         = 200
	DifficultyBonusStep  = 25
	secondsPerPairTarget = 2
)

// ScoreBreakdown details how a final score was obtained.
type ScoreBreakdown struct {
	Base            int     `json:"base"`
	MinMoves        int     `json:"minMoves"`
	MovePenalty     int     `json:"movePenalty"`
	ReferenceTime   int64   `json:"referenceTime"`
	TimeBonus       float64 `json:"timeBonus"`
	DifficultyBonus int     `json:"difficultyBonus"`
	Total           int     `json:"total"`
}

// ComputeScore returns the score of a completed game.
//
// The time bonus only applies when the game took more than zero and at most
// pairsCount*2 seconds; slower games get none.
func ComputeScore(pairsCount, movesCount int, durationSeconds int64) int {
	return Breakdown(pairsCount, movesCount, durationSeconds).Total
}

// Breakdown computes every component of the score formula.
func Breakdown(pairsCount, movesCount int, durationSeconds int64) ScoreBreakdown {
	b := ScoreBreakdown{
		Base:          BaseScore,
		MinMoves:      pairsCount * 2,
		ReferenceTime: int64(pairsCount * secondsPerPairTarget),
	}
	b.MovePenalty = max(0, (movesCount-b.MinMoves)*MovePenaltyPerMove)
	if durationSeconds > 0 && durationSeconds <= b.ReferenceTime {
		ratio := float64(b.ReferenceTime-durationSeconds) / float64(b.ReferenceTime)
		b.TimeBonus = math.Min(MaxTimeBonus, ratio*MaxTimeBonus)
	}
	b.DifficultyBonus = (pairsCount - 3) * DifficultyBonusStep

	raw := float64(b.Base-b.MovePenalty) + b.TimeBonus + float64(b.DifficultyBonus)
	b.Total = max(0, int(math.Floor(raw)))
	return b
}
