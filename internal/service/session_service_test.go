package service

import (
	"testing"

	"github.com/waraqati/waraqa-backend/internal/model"
)

func TestRestoredAnswersOrderAndFiltering(t *testing.T) {
	// Hash fields arrive in arbitrary map order, mixed with junk left by
	// older writers. Only well-formed "tier:index" fields survive, ordered
	// by tier then index.
	fields := map[string]string{
		"within:1":    "إجابة ضمن ١",
		"below:0":     "إجابة أدنى ٠",
		"above:0":     "إجابة أعلى ٠",
		"below:2":     "إجابة أدنى ٢",
		"sideways:0":  "مستوى غير معروف",
		"below:x":     "فهرس غير رقمي",
		"below:-1":    "فهرس سالب",
		"noseparator": "بدون فاصل",
	}

	answers := restoredAnswers(fields)

	want := []RestoredAnswer{
		{Tier: model.TierBelow, Index: 0, Answer: "إجابة أدنى ٠"},
		{Tier: model.TierBelow, Index: 2, Answer: "إجابة أدنى ٢"},
		{Tier: model.TierWithin, Index: 1, Answer: "إجابة ضمن ١"},
		{Tier: model.TierAbove, Index: 0, Answer: "إجابة أعلى ٠"},
	}
	if len(answers) != len(want) {
		t.Fatalf("len = %d, want %d: %+v", len(answers), len(want), answers)
	}
	for i := range want {
		if answers[i] != want[i] {
			t.Errorf("answers[%d] = %+v, want %+v", i, answers[i], want[i])
		}
	}
}

func TestRestoredAnswersEmpty(t *testing.T) {
	if got := restoredAnswers(nil); len(got) != 0 {
		t.Errorf("nil fields should restore nothing, got %+v", got)
	}
	if got := restoredAnswers(map[string]string{}); len(got) != 0 {
		t.Errorf("empty fields should restore nothing, got %+v", got)
	}
}
