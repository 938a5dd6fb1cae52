package model

import "testing"

func TestQuestionKindDerivation(t *testing.T) {
	tests := []struct {
		name        string
		options     []string
		wantKind    QuestionKind
		wantPoints  int
		wantSeconds int
	}{
		{"open-ended", nil, KindOpenEnded, 2, 90},
		{"open-ended empty slice", []string{}, KindOpenEnded, 2, 90},
		{"multiple choice", []string{"A", "B", "C", "D"}, KindMultipleChoice, 1, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Question{Prompt: "سؤال", Options: tt.options}
			if got := q.Kind(); got != tt.wantKind {
				t.Errorf("Kind() = %s, want %s", got, tt.wantKind)
			}
			if got := q.Points(); got != tt.wantPoints {
				t.Errorf("Points() = %d, want %d", got, tt.wantPoints)
			}
			if got := q.TimerSeconds(); got != tt.wantSeconds {
				t.Errorf("TimerSeconds() = %d, want %d", got, tt.wantSeconds)
			}
		})
	}
}

func TestTierValid(t *testing.T) {
	for _, tier := range Tiers {
		if !tier.Valid() {
			t.Errorf("tier %s should be valid", tier)
		}
	}
	if Tier("sideways").Valid() {
		t.Error("unknown tier should be invalid")
	}
}

func TestTierQuestions(t *testing.T) {
	w := Worksheet{
		Below:  []Question{{Prompt: "b"}},
		Within: []Question{{Prompt: "w1"}, {Prompt: "w2"}},
	}
	if got := len(w.TierQuestions(TierBelow)); got != 1 {
		t.Errorf("below len = %d, want 1", got)
	}
	if got := len(w.TierQuestions(TierWithin)); got != 2 {
		t.Errorf("within len = %d, want 2", got)
	}
	if w.TierQuestions(TierAbove) != nil {
		t.Error("empty tier should return nil")
	}
	if w.TierQuestions(Tier("bogus")) != nil {
		t.Error("unknown tier should return nil")
	}
}
