package session

import (
	"github.com/waraqati/waraqa-backend/internal/model"
)

// Verdict is the tri-state outcome of a question. Multiple-choice verdicts
// are always derived from the current answer and never stored; the stored
// field is only meaningful for open-ended questions after an evaluation.
type Verdict string

const (
	VerdictUnknown   Verdict = "unknown"
	VerdictCorrect   Verdict = "correct"
	VerdictIncorrect Verdict = "incorrect"
)

// QuestionState is the mutable runtime state of one question, keyed by its
// position within the tier's concatenated (base + bonus) sequence.
type QuestionState struct {
	Answer   string    `json:"answer"`
	Revealed bool      `json:"revealed"`
	Verdict  Verdict   `json:"verdict"`
	Feedback string    `json:"feedback,omitempty"`
	Timer    Countdown `json:"timer"`
}

func newQuestionState() *QuestionState {
	return &QuestionState{Verdict: VerdictUnknown}
}

// Section owns one tier's question bucket and its runtime state. The bucket
// is append-only: bonus questions go at the end and never renumber or reset
// the state of earlier questions.
type Section struct {
	Tier      model.Tier
	Questions []model.Question
	States    []*QuestionState
	Expanded  bool
}

func newSection(tier model.Tier, questions []model.Question) *Section {
	states := make([]*QuestionState, len(questions))
	for i := range states {
		states[i] = newQuestionState()
	}
	return &Section{
		Tier:      tier,
		Questions: append([]model.Question(nil), questions...),
		States:    states,
		Expanded:  true,
	}
}

// appendBonus adds externally generated questions with fresh runtime state:
// empty answer, not revealed, idle timer, unknown verdict.
func (s *Section) appendBonus(questions []model.Question) {
	for i := range questions {
		s.Questions = append(s.Questions, questions[i])
		s.States = append(s.States, newQuestionState())
	}
}

// verdict returns the effective verdict for question i. Multiple-choice is
// recomputed from the live answer on every call so a changed selection can
// never leave a stale verdict behind.
func (s *Section) verdict(i int) Verdict {
	q := &s.Questions[i]
	if q.Kind() == model.KindMultipleChoice {
		if s.States[i].Answer == "" {
			return VerdictUnknown
		}
		if s.States[i].Answer == q.ModelAnswer {
			return VerdictCorrect
		}
		return VerdictIncorrect
	}
	return s.States[i].Verdict
}

// score recomputes (earned, total) from current runtime state only. It has
// no side effects and may be called on every state change.
func (s *Section) score() (earned, total int) {
	for i := range s.Questions {
		points := s.Questions[i].Points()
		total += points
		if s.verdict(i) == VerdictCorrect {
			earned += points
		}
	}
	return earned, total
}

// allRevealed reports whether the bucket is non-empty and every question is
// effectively visible under the given session-level overrides. It is derived
// on each call, never stored.
func (s *Section) allRevealed(teacherMode, printBlank bool) bool {
	if len(s.Questions) == 0 || printBlank {
		return false
	}
	for i := range s.States {
		if !teacherMode && !s.States[i].Revealed {
			return false
		}
	}
	return true
}
