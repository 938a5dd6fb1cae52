package session

import (
	"github.com/google/uuid"
	"github.com/waraqati/waraqa-backend/internal/model"
)

// QuestionView is one question plus its runtime state as sent to clients.
type QuestionView struct {
	Index    int            `json:"index"`
	Question model.Question `json:"question"`
	Answer   string         `json:"answer"`
	Revealed bool           `json:"revealed"`
	Visible  bool           `json:"visible"`
	Verdict  Verdict        `json:"verdict"`
	Feedback string         `json:"feedback,omitempty"`
	Timer    Countdown      `json:"timer"`
}

// TierView is one section with its derived score and reveal summary.
type TierView struct {
	Tier        model.Tier     `json:"tier"`
	Expanded    bool           `json:"expanded"`
	Earned      int            `json:"earned"`
	Total       int            `json:"total"`
	AllRevealed bool           `json:"all_revealed"`
	Questions   []QuestionView `json:"questions"`
}

// GlobalTimerView mirrors the advisory exam countdown.
type GlobalTimerView struct {
	Remaining int  `json:"remaining"`
	Started   bool `json:"started"`
	Expired   bool `json:"expired"`
}

// View is a full client-facing snapshot of the session, rebuilt from current
// runtime state on every call. It carries everything a reloading page needs.
type View struct {
	ID          uuid.UUID       `json:"id"`
	WorksheetID uuid.UUID       `json:"worksheet_id"`
	TeacherMode bool            `json:"teacher_mode"`
	PrintBlank  bool            `json:"print_blank"`
	FocusedTier *model.Tier     `json:"focused_tier,omitempty"`
	GlobalTimer GlobalTimerView `json:"global_timer"`
	Tiers       []TierView      `json:"tiers"`
}

// Snapshot assembles the current View. Scores and reveal conditions are
// recomputed, never read from stored aggregates.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := View{
		ID:          s.ID,
		WorksheetID: s.WorksheetID,
		TeacherMode: s.teacherMode,
		PrintBlank:  s.printBlank,
		FocusedTier: s.focusedTier,
		GlobalTimer: GlobalTimerView{
			Remaining: s.globalTimer.Remaining,
			Started:   s.globalStarted,
			Expired:   s.globalTimer.Expired,
		},
	}

	for _, tier := range model.Tiers {
		sec := s.sections[tier]
		earned, total := sec.score()
		tv := TierView{
			Tier:        tier,
			Expanded:    sec.Expanded,
			Earned:      earned,
			Total:       total,
			AllRevealed: sec.allRevealed(s.teacherMode, s.printBlank),
			Questions:   make([]QuestionView, 0, len(sec.Questions)),
		}
		for i := range sec.Questions {
			st := sec.States[i]
			tv.Questions = append(tv.Questions, QuestionView{
				Index:    i,
				Question: sec.Questions[i],
				Answer:   st.Answer,
				Revealed: st.Revealed,
				Visible:  s.effectiveVisibleLocked(st),
				Verdict:  sec.verdict(i),
				Feedback: st.Feedback,
				Timer:    st.Timer,
			})
		}
		view.Tiers = append(view.Tiers, tv)
	}
	return view
}

// SectionScore returns the derived (earned, total) for one tier.
func (s *Session) SectionScore(tier model.Tier) (earned, total int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, ok := s.sections[tier]
	if !ok {
		return 0, 0, ErrQuestionNotFound
	}
	earned, total = sec.score()
	return earned, total, nil
}

// AllRevealed reports the derived reveal condition for one tier.
func (s *Session) AllRevealed(tier model.Tier) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, ok := s.sections[tier]
	if !ok {
		return false, ErrQuestionNotFound
	}
	return sec.allRevealed(s.teacherMode, s.printBlank), nil
}

// GlobalTimer returns the advisory countdown state.
func (s *Session) GlobalTimer() GlobalTimerView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return GlobalTimerView{
		Remaining: s.globalTimer.Remaining,
		Started:   s.globalStarted,
		Expired:   s.globalTimer.Expired,
	}
}

// Worksheet exposes the immutable worksheet this session runs over.
func (s *Session) Worksheet() *model.Worksheet {
	return s.worksheet
}

// SectionLen returns the current bucket length for one tier.
func (s *Session) SectionLen(tier model.Tier) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sec, ok := s.sections[tier]; ok {
		return len(sec.Questions)
	}
	return 0
}
