package risk

import "testing"

// TestClassify_Boundaries pins the fixed thresholds.
func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		pct  float64
		want Classification
	}{
		{100, Excellent},
		{90.00, Excellent},
		{89.99, Good},
		{80, Good},
		{79.99, Regular},
		{70.00, Regular},
		{69.999, Deficient},
		{0, Deficient},
	}
	for _, tt := range tests {
		if got := Classify(tt.pct); got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

// TestIsAtRisk_MatchesDeficient verifies the two predicates agree.
func TestIsAtRisk_MatchesDeficient(t *testing.T) {
	for _, pct := range []float64{0, 50, 69.99, 69.999, 70, 70.01, 85, 100} {
		if IsAtRisk(pct) != (Classify(pct) == Deficient) {
			t.Errorf("IsAtRisk(%v) disagrees with Classify", pct)
		}
	}
}

// TestPercentage_RoundsHalfUp verifies integer-exact rounding.
func TestPercentage_RoundsHalfUp(t *testing.T) {
	tests := []struct {
		part, total int
		want        float64
	}{
		{2, 3, 66.67},
		{1, 3, 33.33},
		{3, 3, 100},
		{0, 5, 0},
		{0, 0, 0},
		{1, 8, 12.5},
		{1, 6, 16.67},
		{5, 6, 83.33},
		{1, 16, 6.25},
		{1, 32, 3.13}, // 3.125 rounds up
		{1, 7, 14.29},
	}
	for _, tt := range tests {
		if got := Percentage(tt.part, tt.total); got != tt.want {
			t.Errorf("Percentage(%d, %d) = %v, want %v", tt.part, tt.total, got, tt.want)
		}
	}
}

// TestRound_HalfUp covers float inputs that sit on a half.
func TestRound_HalfUp(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{66.665, 66.67},
		{1.005, 1.01},
		{2.675, 2.68},
		{83.333333, 83.33},
		{0, 0},
	}
	for _, tt := range tests {
		if got := Round(tt.in); got != tt.want {
			t.Errorf("Round(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestFormatAndLabel checks export rendering helpers.
func TestFormatAndLabel(t *testing.T) {
	if got := Format(66.67); got != "66.67%" {
		t.Errorf("Format = %q", got)
	}
	if got := Format(100); got != "100.00%" {
		t.Errorf("Format = %q", got)
	}
	if Deficient.Label() != "Deficiente" || InsufficientData.Label() != "Sin datos" {
		t.Error("unexpected labels")
	}
	if Classification("bogus").Valid() {
		t.Error("unknown classification reported valid")
	}
}
