package scoring

import "testing"

func TestAward(t *testing.T) {
	tests := []struct {
		name            string
		current, amount int
		want            int
	}{
		{"plain add", 100, 20, 120},
		{"hits the cap exactly", 1480, 20, 1500},
		{"saturates past the cap", 1490, 50, 1500},
		{"already capped", 1500, 10, 1500},
		{"over-cap input is clamped", 2000, 0, 1500},
		{"negative correction", 100, -30, 70},
		{"never below zero", 10, -50, 0},
		{"zero award", 42, 0, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Award(tt.current, tt.amount); got != tt.want {
				t.Errorf("Award(%d, %d) = %d, want %d", tt.current, tt.amount, got, tt.want)
			}
		})
	}
}

func TestFallbackScore(t *testing.T) {
	if got := FallbackScore("wordsearch"); got != 15 {
		t.Errorf("FallbackScore(wordsearch) = %d, want 15", got)
	}
	if got := FallbackScore("  WordSearch "); got != 15 {
		t.Errorf("FallbackScore is not case/space insensitive: %d", got)
	}
	if got := FallbackScore("brand-new-game"); got != DefaultFallback {
		t.Errorf("FallbackScore(unknown) = %d, want %d", got, DefaultFallback)
	}
}

func TestResolve(t *testing.T) {
	if got := Resolve("memory", 35); got != 35 {
		t.Errorf("Resolve with a reported score = %d, want 35", got)
	}
	if got := Resolve("memory", 0); got != 10 {
		t.Errorf("Resolve with zero score = %d, want fallback 10", got)
	}
	if got := Resolve("quiz", -5); got != 20 {
		t.Errorf("Resolve with negative score = %d, want fallback 20", got)
	}
}

func TestRemaining(t *testing.T) {
	cases := map[int]int{0: 1500, 1000: 500, 1500: 0, 1700: 0, -3: 1500}
	for current, want := range cases {
		if got := Remaining(current); got != want {
			t.Errorf("Remaining(%d) = %d, want %d", current, got, want)
		}
	}
}
