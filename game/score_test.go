package game

import "testing"

func TestComputeScore(t *testing.T) {
	tests := []struct {
		name     string
		pairs    int
		moves    int
		duration int64
		want     int
	}{
		{"perfect fast", 3, 6, 2, 233},
		{"instant gets no time bonus", 3, 6, 0, 100},
		{"at reference time", 3, 6, 6, 100},
		{"slower than reference", 3, 6, 7, 100},
		{"big board fast", 12, 24, 10, 441},
		{"penalty clamps to zero", 3, 30, 1, 0},
		{"penalty and difficulty", 5, 14, 100, 110},
		{"half time bonus", 4, 8, 1, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeScore(tt.pairs, tt.moves, tt.duration); got != tt.want {
				t.Errorf("ComputeScore(%d, %d, %d) = %d, want %d", tt.pairs, tt.moves, tt.duration, got, tt.want)
			}
		})
	}
}

func TestBreakdownComponents(t *testing.T) {
	b := Breakdown(4, 12, 2)

	if b.Base != BaseScore {
		t.Errorf("expected base %d, got %d", BaseScore, b.Base)
	}
	if b.MinMoves != 8 {
		t.Errorf("expected MinMoves=8, got %d", b.MinMoves)
	}
	if b.MovePenalty != 40 {
		t.Errorf("expected MovePenalty=40, got %d", b.MovePenalty)
	}
	if b.ReferenceTime != 8 {
		t.Errorf("expected ReferenceTime=8, got %d", b.ReferenceTime)
	}
	if b.TimeBonus != 150 {
		t.Errorf("expected TimeBonus=150, got %v", b.TimeBonus)
	}
	if b.DifficultyBonus != 25 {
		t.Errorf("expected DifficultyBonus=25, got %d", b.DifficultyBonus)
	}
	if b.Total != 235 {
		t.Errorf("expected Total=235, got %d", b.Total)
	}
}

func TestScoreNeverNegative(t *testing.T) {
	for pairs := MinPairs; pairs <= MaxPairs; pairs++ {
		for _, moves := range []int{2 * pairs, 10 * pairs, 1000} {
			for _, d := range []int64{0, 1, int64(pairs), 3600} {
				if s := ComputeScore(pairs, moves, d); s < 0 {
					t.Errorf("ComputeScore(%d, %d, %d) = %d, expected >= 0", pairs, moves, d, s)
				}
			}
		}
	}
}
