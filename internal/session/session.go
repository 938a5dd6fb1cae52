// Package session implements the worksheet session state machine: three
// append-only tier buckets with per-question runtime state, per-question and
// global countdown timers, reveal/teacher-mode visibility and live scoring.
// All transitions happen under one mutex; asynchronous collaborators are
// coordinated through single-flight guards, never through shared state.
package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/waraqati/waraqa-backend/internal/model"
)

// State-machine errors surfaced to handlers.
var (
	ErrClosed           = errors.New("session is closed")
	ErrQuestionNotFound = errors.New("question not found")
	ErrNotOpenEnded     = errors.New("question is not open-ended")
	ErrEmptyAnswer      = errors.New("answer is empty")
	ErrEvaluationBusy   = errors.New("evaluation already in flight for this question")
	ErrBonusBusy        = errors.New("bonus generation already in flight")
	ErrNoTotalTime      = errors.New("worksheet has no total time configured")
	ErrTimerAlreadyRuns = errors.New("global timer already started")
)

// QuestionID is the positional composite key of one question. Identifiers
// stay stable because buckets are append-only; reordering is not supported.
type QuestionID struct {
	Tier  model.Tier `json:"tier"`
	Index int        `json:"index"`
}

// EventType enumerates events pushed to session subscribers.
type EventType string

const (
	EventTick            EventType = "tick"
	EventQuestionExpired EventType = "question_expired"
	EventSessionExpired  EventType = "session_expired"
)

// Event is a timer notification streamed to connected clients.
type Event struct {
	Type      EventType  `json:"type"`
	Tier      model.Tier `json:"tier,omitempty"`
	Index     int        `json:"index,omitempty"`
	Remaining int        `json:"remaining"`
}

// Session is the top-level coordinator for one live worksheet run. It owns
// the three section aggregators, the global exam timer and the visibility
// overrides, and guards every external-collaborator scope with a
// single-flight flag.
type Session struct {
	ID          uuid.UUID
	WorksheetID uuid.UUID

	mu        sync.Mutex
	worksheet *model.Worksheet
	sections  map[model.Tier]*Section

	teacherMode bool
	printBlank  bool
	focusedTier *model.Tier

	globalTimer   Countdown
	globalStarted bool
	// globalNotified guarantees at most one session-expiry event.
	globalNotified bool

	evalBusy  map[QuestionID]bool
	bonusBusy bool

	subscribers map[int]chan Event
	nextSubID   int

	lastActivity time.Time
	closed       bool
	stopClock    chan struct{}
}

// New builds a fresh session over a generated worksheet. All runtime state
// starts empty; nothing is inherited from previous sessions.
func New(worksheet *model.Worksheet) *Session {
	s := &Session{
		ID:           uuid.New(),
		WorksheetID:  worksheet.ID,
		worksheet:    worksheet,
		sections:     make(map[model.Tier]*Section, len(model.Tiers)),
		evalBusy:     make(map[QuestionID]bool),
		subscribers:  make(map[int]chan Event),
		lastActivity: time.Now(),
		stopClock:    make(chan struct{}),
	}
	for _, tier := range model.Tiers {
		s.sections[tier] = newSection(tier, worksheet.TierQuestions(tier))
	}
	return s
}

// StartClock launches the 1 Hz tick loop that drives every countdown in the
// session. Close stops the loop; no callback can fire after Close returns.
func (s *Session) StartClock() {
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopClock:
				return
			case <-ticker.C:
				s.Tick()
			}
		}
	}()
}

// Close tears the session down: the tick loop stops and all subscriber
// channels are closed. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.stopClock)
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
}

// Subscribe registers an event channel and returns it with an unsubscribe
// function. Events are dropped, not blocked on, when a subscriber lags.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, 64)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subscribers[id]; ok {
			close(sub)
			delete(s.subscribers, id)
		}
	}
}

func (s *Session) emitLocked(ev Event) {
	for _, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Tick advances every running countdown by one second. It is called once per
// second by the clock goroutine and directly by deterministic tests.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if s.globalStarted {
		if s.globalTimer.tick() {
			s.globalStarted = false
			if !s.globalNotified {
				s.globalNotified = true
				s.emitLocked(Event{Type: EventSessionExpired})
			}
		} else {
			s.emitLocked(Event{Type: EventTick, Remaining: s.globalTimer.Remaining})
		}
	}

	for _, tier := range model.Tiers {
		sec := s.sections[tier]
		for i := range sec.States {
			if sec.States[i].Timer.tick() {
				s.emitLocked(Event{
					Type:  EventQuestionExpired,
					Tier:  tier,
					Index: i,
				})
			}
		}
	}
}

// touchLocked records activity for the idle janitor.
func (s *Session) touchLocked() {
	s.lastActivity = time.Now()
}

// LastActivity reports when the session last saw an action.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func (s *Session) lookupLocked(id QuestionID) (*Section, *model.Question, *QuestionState, error) {
	sec, ok := s.sections[id.Tier]
	if !ok {
		return nil, nil, nil, ErrQuestionNotFound
	}
	if id.Index < 0 || id.Index >= len(sec.Questions) {
		return nil, nil, nil, ErrQuestionNotFound
	}
	return sec, &sec.Questions[id.Index], sec.States[id.Index], nil
}

// startTimerLocked arms a question countdown on first interaction. Nothing
// happens in teacher (answers-shown) mode or once the timer has finished.
func (s *Session) startTimerLocked(q *model.Question, st *QuestionState) {
	if s.teacherMode || s.printBlank {
		return
	}
	st.Timer.start(q.TimerSeconds())
}

// RecordInteraction marks the first touch of a question (focus, keystroke or
// option click) and starts its countdown when eligible.
func (s *Session) RecordInteraction(id QuestionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	_, q, st, err := s.lookupLocked(id)
	if err != nil {
		return err
	}
	s.startTimerLocked(q, st)
	s.touchLocked()
	return nil
}

// SetAnswer stores the student's current answer text and counts as an
// interaction. For multiple-choice this is the option's literal text.
func (s *Session) SetAnswer(id QuestionID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	_, q, st, err := s.lookupLocked(id)
	if err != nil {
		return err
	}
	s.startTimerLocked(q, st)
	st.Answer = text
	s.touchLocked()
	return nil
}

// ToggleReveal flips a question's individual reveal flag. It never touches
// the verdict; multiple-choice correctness is derived, so revealing shows it
// immediately without a recompute step.
func (s *Session) ToggleReveal(id QuestionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	_, _, st, err := s.lookupLocked(id)
	if err != nil {
		return err
	}
	st.Revealed = !st.Revealed
	s.touchLocked()
	return nil
}

// EffectiveVisible reports whether a question's answer and evidence are
// currently shown: print-blank forces everything hidden, teacher mode forces
// everything shown, otherwise the individual reveal flag decides.
func (s *Session) EffectiveVisible(id QuestionID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _, st, err := s.lookupLocked(id)
	if err != nil {
		return false, err
	}
	return s.effectiveVisibleLocked(st), nil
}

func (s *Session) effectiveVisibleLocked(st *QuestionState) bool {
	if s.printBlank {
		return false
	}
	return s.teacherMode || st.Revealed
}

// VerdictFor returns the current verdict for a question.
func (s *Session) VerdictFor(id QuestionID) (Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, _, _, err := s.lookupLocked(id)
	if err != nil {
		return VerdictUnknown, err
	}
	return sec.verdict(id.Index), nil
}

// EvaluationInput is the snapshot handed to the external evaluator.
type EvaluationInput struct {
	Prompt        string
	ModelAnswer   string
	StudentAnswer string
	Criteria      string
}

// BeginEvaluation validates and claims the per-question evaluation slot.
// Empty answers are rejected locally before any network call; a second
// request while one is outstanding is rejected, never interleaved. The
// caller must finish with FinishEvaluation on every path.
func (s *Session) BeginEvaluation(id QuestionID, criteria string) (*EvaluationInput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	_, q, st, err := s.lookupLocked(id)
	if err != nil {
		return nil, err
	}
	if q.Kind() != model.KindOpenEnded {
		return nil, ErrNotOpenEnded
	}
	if strings.TrimSpace(st.Answer) == "" {
		return nil, ErrEmptyAnswer
	}
	if s.evalBusy[id] {
		return nil, ErrEvaluationBusy
	}
	s.evalBusy[id] = true
	s.touchLocked()
	return &EvaluationInput{
		Prompt:        q.Prompt,
		ModelAnswer:   q.ModelAnswer,
		StudentAnswer: st.Answer,
		Criteria:      criteria,
	}, nil
}

// FinishEvaluation releases the per-question slot and, on success, stores
// feedback and maps score ≥ 1 to correct. On failure the prior verdict and
// feedback stay exactly as they were.
func (s *Session) FinishEvaluation(id QuestionID, feedback string, score int, evalErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.evalBusy, id)
	if evalErr != nil {
		return
	}
	_, _, st, err := s.lookupLocked(id)
	if err != nil {
		return
	}
	st.Feedback = feedback
	if score >= 1 {
		st.Verdict = VerdictCorrect
	} else {
		st.Verdict = VerdictIncorrect
	}
}

// BeginBonus claims the global bonus-generation slot (one in flight across
// all tiers and levels). The caller must finish with FinishBonus.
func (s *Session) BeginBonus(tier model.Tier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if !tier.Valid() {
		return ErrQuestionNotFound
	}
	if s.bonusBusy {
		return ErrBonusBusy
	}
	s.bonusBusy = true
	s.touchLocked()
	return nil
}

// FinishBonus releases the bonus slot and, on success, appends the returned
// questions to the tier bucket with fresh runtime state. Existing questions
// keep their identifiers and state untouched.
func (s *Session) FinishBonus(tier model.Tier, questions []model.Question, bonusErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bonusBusy = false
	if bonusErr != nil {
		return
	}
	if sec, ok := s.sections[tier]; ok {
		sec.appendBonus(questions)
	}
}

// SetTeacherMode toggles the global answers-shown override. Individual
// reveal flags set by the student are left as they are.
func (s *Session) SetTeacherMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teacherMode = on
	s.touchLocked()
}

// SetPrintBlank toggles print-blank mode: every question is hidden and all
// sections render expanded, regardless of other flags. Prior reveal and
// teacher-mode state is untouched and takes effect again when the mode ends.
func (s *Session) SetPrintBlank(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.printBlank = on
	if on {
		for _, sec := range s.sections {
			sec.Expanded = true
		}
	}
	s.touchLocked()
}

// SetFocusedTier restricts display to one tier; nil shows all three.
func (s *Session) SetFocusedTier(tier *model.Tier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tier != nil && !tier.Valid() {
		return ErrQuestionNotFound
	}
	s.focusedTier = tier
	s.touchLocked()
	return nil
}

// SetExpanded sets a section's expand/collapse presentation flag.
func (s *Session) SetExpanded(tier model.Tier, expanded bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sec, ok := s.sections[tier]
	if !ok {
		return ErrQuestionNotFound
	}
	sec.Expanded = expanded
	s.touchLocked()
	return nil
}

// StartGlobalTimer converts the worksheet's total time to seconds and starts
// the advisory exam countdown. Valid only once per run and only when the
// worksheet carries a positive total time.
func (s *Session) StartGlobalTimer() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.worksheet.Meta.TotalTimeMinutes <= 0 {
		return ErrNoTotalTime
	}
	if s.globalStarted || s.globalTimer.Expired {
		return ErrTimerAlreadyRuns
	}
	s.globalTimer = Countdown{Remaining: s.worksheet.Meta.TotalTimeMinutes * 60}
	s.globalTimer.Running = true
	s.globalStarted = true
	s.touchLocked()
	return nil
}
