package session

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/waraqati/waraqa-backend/internal/model"
)

// testWorksheet builds the reference worksheet: tier below has two
// open-ended questions and one multiple-choice question whose correct
// option is "B"; the other tiers carry one open-ended question each.
func testWorksheet() *model.Worksheet {
	return &model.Worksheet{
		ID: uuid.New(),
		Meta: model.WorksheetMeta{
			Title:            "نص تجريبي",
			Grade:            "Y12",
			TotalTimeMinutes: 1,
		},
		Passage: "نص قرائي للاختبار.",
		Below: []model.Question{
			{Type: "تحليل", Prompt: "حلل الفكرة الرئيسة.", ModelAnswer: "الفكرة الأولى", Evidence: "السطر الأول"},
			{Type: "استنباط", Prompt: "استنبط موقف الكاتب.", ModelAnswer: "موقف مؤيد", Evidence: "السطر الثاني"},
			{Type: "فهم", Prompt: "اختر الإجابة الصحيحة.", ModelAnswer: "B", Evidence: "السطر الثالث", Options: []string{"A", "B", "C", "D"}},
		},
		Within: []model.Question{
			{Type: "تقييم", Prompt: "قيم حجة الكاتب.", ModelAnswer: "حجة متماسكة", Evidence: "الفقرة الثانية"},
		},
		Above: []model.Question{
			{Type: "ابتكار", Prompt: "اقترح خاتمة بديلة.", ModelAnswer: "خاتمة مفتوحة", Evidence: "الفقرة الأخيرة"},
		},
	}
}

func drainEvents(ch <-chan Event) []Event {
	var events []Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestNewSessionStartsEmpty(t *testing.T) {
	s := New(testWorksheet())
	defer s.Close()

	view := s.Snapshot()
	if view.TeacherMode || view.PrintBlank {
		t.Error("fresh session must start in student view without print-blank")
	}
	if view.GlobalTimer.Started {
		t.Error("global timer must not start on its own")
	}
	for _, tier := range view.Tiers {
		if tier.Earned != 0 {
			t.Errorf("tier %s: earned = %d, want 0", tier.Tier, tier.Earned)
		}
		if tier.AllRevealed {
			t.Errorf("tier %s: all_revealed must be false on a fresh session", tier.Tier)
		}
		for _, q := range tier.Questions {
			if q.Answer != "" || q.Revealed || q.Verdict != VerdictUnknown {
				t.Errorf("tier %s question %d: runtime state not empty", tier.Tier, q.Index)
			}
			if q.Timer.Running || q.Timer.Expired {
				t.Errorf("tier %s question %d: timer must be idle", tier.Tier, q.Index)
			}
		}
	}
}

func TestMultipleChoiceVerdictIsDerived(t *testing.T) {
	s := New(testWorksheet())
	defer s.Close()
	mc := QuestionID{Tier: model.TierBelow, Index: 2}

	tests := []struct {
		name   string
		answer string
		want   Verdict
	}{
		{"no answer", "", VerdictUnknown},
		{"correct option", "B", VerdictCorrect},
		{"switched to wrong option", "C", VerdictIncorrect},
		{"switched back to correct", "B", VerdictCorrect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.answer != "" {
				if err := s.SetAnswer(mc, tt.answer); err != nil {
					t.Fatalf("SetAnswer: %v", err)
				}
			}
			got, err := s.VerdictFor(mc)
			if err != nil {
				t.Fatalf("VerdictFor: %v", err)
			}
			if got != tt.want {
				t.Errorf("verdict = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestOpenEndedVerdictLifecycle(t *testing.T) {
	s := New(testWorksheet())
	defer s.Close()
	q := QuestionID{Tier: model.TierBelow, Index: 0}

	// Unknown until an evaluation completes.
	if err := s.SetAnswer(q, "إجابة الطالب"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if v, _ := s.VerdictFor(q); v != VerdictUnknown {
		t.Fatalf("verdict before evaluation = %s, want unknown", v)
	}

	// A failed evaluation leaves verdict and feedback untouched.
	if _, err := s.BeginEvaluation(q, "معايير"); err != nil {
		t.Fatalf("BeginEvaluation: %v", err)
	}
	s.FinishEvaluation(q, "", 0, errors.New("collaborator down"))
	view := s.Snapshot()
	st := view.Tiers[0].Questions[0]
	if st.Verdict != VerdictUnknown || st.Feedback != "" {
		t.Fatalf("failed evaluation mutated state: verdict=%s feedback=%q", st.Verdict, st.Feedback)
	}

	// Score >= 1 maps to correct, score 0 to incorrect.
	if _, err := s.BeginEvaluation(q, "معايير"); err != nil {
		t.Fatalf("BeginEvaluation after failure: %v", err)
	}
	s.FinishEvaluation(q, "أحسنت", 2, nil)
	if v, _ := s.VerdictFor(q); v != VerdictCorrect {
		t.Errorf("verdict after score 2 = %s, want correct", v)
	}

	other := QuestionID{Tier: model.TierBelow, Index: 1}
	if err := s.SetAnswer(other, "إجابة ناقصة جداً"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if _, err := s.BeginEvaluation(other, "معايير"); err != nil {
		t.Fatalf("BeginEvaluation: %v", err)
	}
	s.FinishEvaluation(other, "غير صحيحة", 0, nil)
	if v, _ := s.VerdictFor(other); v != VerdictIncorrect {
		t.Errorf("verdict after score 0 = %s, want incorrect", v)
	}
}

func TestEvaluationGuards(t *testing.T) {
	s := New(testWorksheet())
	defer s.Close()
	open := QuestionID{Tier: model.TierBelow, Index: 0}
	mc := QuestionID{Tier: model.TierBelow, Index: 2}

	if _, err := s.BeginEvaluation(mc, ""); !errors.Is(err, ErrNotOpenEnded) {
		t.Errorf("evaluating a multiple-choice question: err = %v, want ErrNotOpenEnded", err)
	}
	if _, err := s.BeginEvaluation(open, ""); !errors.Is(err, ErrEmptyAnswer) {
		t.Errorf("evaluating an empty answer: err = %v, want ErrEmptyAnswer", err)
	}
	if err := s.SetAnswer(open, "   \t "); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if _, err := s.BeginEvaluation(open, ""); !errors.Is(err, ErrEmptyAnswer) {
		t.Errorf("evaluating a whitespace answer: err = %v, want ErrEmptyAnswer", err)
	}

	if err := s.SetAnswer(open, "إجابة"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	input, err := s.BeginEvaluation(open, "المعايير")
	if err != nil {
		t.Fatalf("BeginEvaluation: %v", err)
	}
	if input.StudentAnswer != "إجابة" {
		t.Errorf("snapshot answer = %q, want the live answer", input.StudentAnswer)
	}
	if _, err := s.BeginEvaluation(open, ""); !errors.Is(err, ErrEvaluationBusy) {
		t.Errorf("second in-flight evaluation: err = %v, want ErrEvaluationBusy", err)
	}

	// An evaluation on one question must not block another question.
	other := QuestionID{Tier: model.TierWithin, Index: 0}
	if err := s.SetAnswer(other, "إجابة أخرى"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if _, err := s.BeginEvaluation(other, ""); err != nil {
		t.Errorf("independent question blocked by busy scope: %v", err)
	}
}

func TestSectionScoreScenario(t *testing.T) {
	s := New(testWorksheet())
	defer s.Close()

	// Correct multiple-choice pick: 1 of 5 points.
	if err := s.SetAnswer(QuestionID{Tier: model.TierBelow, Index: 2}, "B"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	earned, total, err := s.SectionScore(model.TierBelow)
	if err != nil {
		t.Fatalf("SectionScore: %v", err)
	}
	if earned != 1 || total != 5 {
		t.Fatalf("score after MC answer = %d/%d, want 1/5", earned, total)
	}

	// Both open-ended evaluations come back with score 2: 5 of 5.
	for _, idx := range []int{0, 1} {
		id := QuestionID{Tier: model.TierBelow, Index: idx}
		if err := s.SetAnswer(id, "إجابة وافية"); err != nil {
			t.Fatalf("SetAnswer: %v", err)
		}
		if _, err := s.BeginEvaluation(id, ""); err != nil {
			t.Fatalf("BeginEvaluation: %v", err)
		}
		s.FinishEvaluation(id, "ممتاز", 2, nil)
	}
	earned, total, _ = s.SectionScore(model.TierBelow)
	if earned != 5 || total != 5 {
		t.Fatalf("score after evaluations = %d/%d, want 5/5", earned, total)
	}

	// All-revealed flips once every item is individually revealed.
	if revealed, _ := s.AllRevealed(model.TierBelow); revealed {
		t.Fatal("all_revealed must be false before reveals")
	}
	for idx := 0; idx < 3; idx++ {
		if err := s.ToggleReveal(QuestionID{Tier: model.TierBelow, Index: idx}); err != nil {
			t.Fatalf("ToggleReveal: %v", err)
		}
	}
	if revealed, _ := s.AllRevealed(model.TierBelow); !revealed {
		t.Fatal("all_revealed must be true once every item is revealed")
	}

	// Scores recompute without side effects: asking twice changes nothing.
	again, _, _ := s.SectionScore(model.TierBelow)
	if again != earned {
		t.Errorf("score recomputation drifted: %d then %d", earned, again)
	}
}

func TestTeacherModeCountsAsRevealed(t *testing.T) {
	s := New(testWorksheet())
	defer s.Close()

	s.SetTeacherMode(true)
	if revealed, _ := s.AllRevealed(model.TierWithin); !revealed {
		t.Error("teacher mode must make every question effectively visible")
	}

	// Turning it off again falls back to individual flags (none set).
	s.SetTeacherMode(false)
	if revealed, _ := s.AllRevealed(model.TierWithin); revealed {
		t.Error("individual reveal flags must not be altered by teacher mode")
	}
}

func TestBonusAppendKeepsExistingState(t *testing.T) {
	s := New(testWorksheet())
	defer s.Close()
	existing := QuestionID{Tier: model.TierWithin, Index: 0}

	if err := s.SetAnswer(existing, "إجابة محفوظة"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := s.ToggleReveal(existing); err != nil {
		t.Fatalf("ToggleReveal: %v", err)
	}

	if err := s.BeginBonus(model.TierWithin); err != nil {
		t.Fatalf("BeginBonus: %v", err)
	}
	// The guard is global across tiers and levels.
	if err := s.BeginBonus(model.TierAbove); !errors.Is(err, ErrBonusBusy) {
		t.Errorf("overlapping bonus request: err = %v, want ErrBonusBusy", err)
	}

	bonus := []model.Question{
		{Type: "تحليل", Prompt: "سؤال إضافي ١", ModelAnswer: "جواب ١", Evidence: "دليل ١"},
		{Type: "تحليل", Prompt: "سؤال إضافي ٢", ModelAnswer: "جواب ٢", Evidence: "دليل ٢"},
	}
	s.FinishBonus(model.TierWithin, bonus, nil)

	if got := s.SectionLen(model.TierWithin); got != 3 {
		t.Fatalf("bucket length = %d, want 3", got)
	}

	view := s.Snapshot()
	within := view.Tiers[1]
	if within.Questions[0].Answer != "إجابة محفوظة" || !within.Questions[0].Revealed {
		t.Error("pre-existing question lost its runtime state after bonus append")
	}
	for _, q := range within.Questions[1:] {
		if q.Answer != "" || q.Revealed || q.Verdict != VerdictUnknown || q.Timer.Running || q.Timer.Expired {
			t.Errorf("bonus question %d must start with fresh runtime state", q.Index)
		}
		if q.Question.Type != "تحليل" {
			t.Errorf("bonus question %d: type = %q, want the requested level", q.Index, q.Question.Type)
		}
	}

	// The slot is free again after completion.
	if err := s.BeginBonus(model.TierAbove); err != nil {
		t.Errorf("bonus slot not released: %v", err)
	}
	s.FinishBonus(model.TierAbove, nil, errors.New("collaborator down"))
	if got := s.SectionLen(model.TierAbove); got != 1 {
		t.Errorf("failed bonus request altered the bucket: len = %d, want 1", got)
	}
}

func TestGlobalTimerExpiresExactlyOnce(t *testing.T) {
	s := New(testWorksheet())
	defer s.Close()
	events, unsubscribe := s.Subscribe()
	defer unsubscribe()

	if err := s.StartGlobalTimer(); err != nil {
		t.Fatalf("StartGlobalTimer: %v", err)
	}
	if err := s.StartGlobalTimer(); !errors.Is(err, ErrTimerAlreadyRuns) {
		t.Errorf("double start: err = %v, want ErrTimerAlreadyRuns", err)
	}

	// One minute of simulated time plus a generous overshoot.
	for i := 0; i < 90; i++ {
		s.Tick()
	}

	gt := s.GlobalTimer()
	if gt.Started {
		t.Error("started must be false after expiry")
	}
	if gt.Remaining != 0 {
		t.Errorf("remaining = %d, want 0 (never below zero)", gt.Remaining)
	}
	if !gt.Expired {
		t.Error("expired flag must be set")
	}

	expiries := 0
	for _, ev := range drainEvents(events) {
		if ev.Type == EventSessionExpired {
			expiries++
		}
	}
	if expiries != 1 {
		t.Errorf("session expiry notifications = %d, want exactly 1", expiries)
	}

	// Expiry is terminal within the session.
	if err := s.StartGlobalTimer(); !errors.Is(err, ErrTimerAlreadyRuns) {
		t.Errorf("restart after expiry: err = %v, want ErrTimerAlreadyRuns", err)
	}
}

func TestQuestionTimerLifecycle(t *testing.T) {
	s := New(testWorksheet())
	defer s.Close()
	events, unsubscribe := s.Subscribe()
	defer unsubscribe()

	open := QuestionID{Tier: model.TierAbove, Index: 0}
	if err := s.RecordInteraction(open); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}

	view := s.Snapshot()
	timer := view.Tiers[2].Questions[0].Timer
	if !timer.Running || timer.Remaining != 90 {
		t.Fatalf("open-ended timer after interaction = %+v, want running at 90s", timer)
	}

	// Re-interaction never resets the countdown.
	s.Tick()
	if err := s.SetAnswer(open, "بداية إجابة"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	timer = s.Snapshot().Tiers[2].Questions[0].Timer
	if timer.Remaining != 89 {
		t.Fatalf("timer remaining = %d after one tick, want 89 (no reset)", timer.Remaining)
	}

	for i := 0; i < 100; i++ {
		s.Tick()
	}
	timer = s.Snapshot().Tiers[2].Questions[0].Timer
	if timer.Running || !timer.Expired || timer.Remaining != 0 {
		t.Fatalf("timer after free-run = %+v, want finished at 0", timer)
	}

	expired := 0
	for _, ev := range drainEvents(events) {
		if ev.Type == EventQuestionExpired && ev.Tier == model.TierAbove && ev.Index == 0 {
			expired++
		}
	}
	if expired != 1 {
		t.Errorf("question expiry events = %d, want exactly 1", expired)
	}

	// Finishing is terminal: further interaction must not restart it.
	if err := s.RecordInteraction(open); err != nil {
		t.Fatalf("RecordInteraction after expiry: %v", err)
	}
	timer = s.Snapshot().Tiers[2].Questions[0].Timer
	if timer.Running {
		t.Error("finished timer must not restart on re-interaction")
	}
}

func TestTimerDoesNotStartInTeacherMode(t *testing.T) {
	s := New(testWorksheet())
	defer s.Close()

	s.SetTeacherMode(true)
	id := QuestionID{Tier: model.TierBelow, Index: 2}
	if err := s.SetAnswer(id, "B"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	timer := s.Snapshot().Tiers[0].Questions[2].Timer
	if timer.Running {
		t.Error("timers must not start while answers are shown")
	}

	// MC timer starts at 30s once teacher mode is off.
	s.SetTeacherMode(false)
	if err := s.RecordInteraction(id); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}
	timer = s.Snapshot().Tiers[0].Questions[2].Timer
	if !timer.Running || timer.Remaining != 30 {
		t.Errorf("MC timer = %+v, want running at 30s", timer)
	}
}

func TestPrintBlankForcesHiddenAndReverts(t *testing.T) {
	s := New(testWorksheet())
	defer s.Close()

	revealed := QuestionID{Tier: model.TierBelow, Index: 0}
	if err := s.ToggleReveal(revealed); err != nil {
		t.Fatalf("ToggleReveal: %v", err)
	}
	s.SetTeacherMode(true)
	if err := s.SetExpanded(model.TierAbove, false); err != nil {
		t.Fatalf("SetExpanded: %v", err)
	}

	s.SetPrintBlank(true)
	view := s.Snapshot()
	for _, tier := range view.Tiers {
		if !tier.Expanded {
			t.Errorf("tier %s must render expanded in print-blank mode", tier.Tier)
		}
		if tier.AllRevealed {
			t.Errorf("tier %s: all_revealed must be false in print-blank mode", tier.Tier)
		}
		for _, q := range tier.Questions {
			if q.Visible {
				t.Errorf("tier %s question %d visible in print-blank mode", tier.Tier, q.Index)
			}
		}
	}

	// Prior reveal and teacher-mode state come back when the mode ends.
	s.SetPrintBlank(false)
	view = s.Snapshot()
	if !view.TeacherMode {
		t.Error("teacher mode lost across print-blank")
	}
	if !view.Tiers[0].Questions[0].Revealed {
		t.Error("individual reveal flag lost across print-blank")
	}
	if !view.Tiers[0].Questions[0].Visible {
		t.Error("question must be visible again after print-blank ends")
	}
}

func TestSetFocusedTier(t *testing.T) {
	s := New(testWorksheet())
	defer s.Close()

	if view := s.Snapshot(); view.FocusedTier != nil {
		t.Errorf("fresh session focused tier = %v, want nil", *view.FocusedTier)
	}

	within := model.TierWithin
	if err := s.SetFocusedTier(&within); err != nil {
		t.Fatalf("SetFocusedTier: %v", err)
	}
	view := s.Snapshot()
	if view.FocusedTier == nil || *view.FocusedTier != model.TierWithin {
		t.Errorf("focused tier = %v, want within", view.FocusedTier)
	}

	bogus := model.Tier("sideways")
	if err := s.SetFocusedTier(&bogus); !errors.Is(err, ErrQuestionNotFound) {
		t.Errorf("SetFocusedTier(invalid): err = %v, want ErrQuestionNotFound", err)
	}
	// A rejected tier never replaces the current focus.
	if view := s.Snapshot(); view.FocusedTier == nil || *view.FocusedTier != model.TierWithin {
		t.Error("rejected focus change must leave the current focus intact")
	}

	// nil resets the filter to all three tiers.
	if err := s.SetFocusedTier(nil); err != nil {
		t.Fatalf("SetFocusedTier(nil): %v", err)
	}
	if view := s.Snapshot(); view.FocusedTier != nil {
		t.Errorf("focused tier after reset = %v, want nil", *view.FocusedTier)
	}
}

func TestClosedSessionRejectsActions(t *testing.T) {
	s := New(testWorksheet())
	s.Close()
	s.Close() // idempotent

	id := QuestionID{Tier: model.TierBelow, Index: 0}
	if err := s.SetAnswer(id, "x"); !errors.Is(err, ErrClosed) {
		t.Errorf("SetAnswer on closed session: err = %v, want ErrClosed", err)
	}
	if err := s.StartGlobalTimer(); !errors.Is(err, ErrClosed) {
		t.Errorf("StartGlobalTimer on closed session: err = %v, want ErrClosed", err)
	}

	// Ticks after close must be inert.
	s.Tick()
}
