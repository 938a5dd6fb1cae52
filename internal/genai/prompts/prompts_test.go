package prompts

import (
	"strings"
	"testing"

	"github.com/waraqati/waraqa-backend/internal/model"
)

func TestWorksheetPrompt(t *testing.T) {
	req := model.GenerateWorksheetRequest{
		Grade:            "Y12",
		TextType:         "مقالي",
		Skill:            "تحليل النص",
		Objective:        "أن يحلل الطالب بنية النص",
		Criteria:         "يحدد الفكرة الرئيسة",
		Passage:          "نص تجريبي للاختبار.",
		CountBelow:       3,
		CountWithin:      4,
		CountAbove:       2,
		TotalTimeMinutes: 40,
	}

	prompt := Worksheet(req)

	for _, want := range []string{req.Grade, req.TextType, req.Skill, req.Objective, req.Criteria, req.Passage} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt should contain %q", want)
		}
	}
	// Per-tier counts must reach the model verbatim.
	for _, want := range []string{": 3", ": 4", ": 2"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt should contain count fragment %q", want)
		}
	}
	// The reply contract names all three buckets and the rubric.
	for _, key := range []string{`"below"`, `"within"`, `"above"`, `"rubric"`, `"meta"`} {
		if !strings.Contains(prompt, key) {
			t.Errorf("prompt should describe JSON key %s", key)
		}
	}
}

func TestEvaluationPrompt(t *testing.T) {
	prompt := Evaluation("ما الفكرة الرئيسة؟", "التعاون", "إجابة الطالب هنا", "يحدد الفكرة")

	for _, want := range []string{"ما الفكرة الرئيسة؟", "التعاون", "إجابة الطالب هنا", "يحدد الفكرة"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt should contain %q", want)
		}
	}
	if !strings.Contains(prompt, `"feedback"`) || !strings.Contains(prompt, `"score"`) {
		t.Error("prompt should describe the feedback/score JSON contract")
	}
	// The score scale is fixed at 0..2.
	if !strings.Contains(prompt, "0") || !strings.Contains(prompt, "2") {
		t.Error("prompt should spell out the score bounds")
	}
}

func TestBonusPrompt(t *testing.T) {
	prompt := Bonus("النص هنا", "تحليل", "Y10", 3)

	if !strings.Contains(prompt, "النص هنا") {
		t.Error("prompt should contain the passage")
	}
	if !strings.Contains(prompt, "تحليل") {
		t.Error("prompt should contain the requested level")
	}
	if !strings.Contains(prompt, "(3)") {
		t.Error("prompt should contain the requested count")
	}
	// JSON mode yields a top-level object, so the contract wraps the list.
	if !strings.Contains(prompt, `"questions"`) {
		t.Error("prompt should describe the object-wrapped reply contract")
	}
}

func TestVisualIdeasPrompt(t *testing.T) {
	prompt := VisualIdeas("نص المشاهد")
	if !strings.Contains(prompt, "نص المشاهد") {
		t.Error("prompt should contain the passage")
	}
	if !strings.Contains(prompt, "JSON") {
		t.Error("prompt should demand JSON output")
	}
	if !strings.Contains(prompt, `"ideas"`) {
		t.Error("prompt should describe the object-wrapped reply contract")
	}
}

func TestImagePromptIsEnglish(t *testing.T) {
	prompt := Image("قارب في عاصفة")
	if !strings.Contains(prompt, "قارب في عاصفة") {
		t.Error("prompt should embed the idea text")
	}
	// Art direction stays in English for the image model.
	if !strings.Contains(prompt, "illustration") {
		t.Error("prompt should carry the English art direction")
	}
}
