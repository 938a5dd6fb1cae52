package model

// Tier identifies one of the three expectation levels a worksheet question
// belongs to. The set is fixed; buckets are append-only after generation.
type Tier string

const (
	TierBelow  Tier = "below"
	TierWithin Tier = "within"
	TierAbove  Tier = "above"
)

// Tiers lists the levels in display order.
var Tiers = []Tier{TierBelow, TierWithin, TierAbove}

// Valid reports whether t is one of the three known tiers.
func (t Tier) Valid() bool {
	return t == TierBelow || t == TierWithin || t == TierAbove
}

// QuestionKind discriminates the two question shapes. Presence of options is
// the sole discriminator; points and timer policy are total over the kind.
type QuestionKind string

const (
	KindMultipleChoice QuestionKind = "MULTIPLE_CHOICE"
	KindOpenEnded      QuestionKind = "OPEN_ENDED"
)

// Question is an immutable record produced by the generative collaborator.
type Question struct {
	Type            string   `json:"type"`
	Prompt          string   `json:"question"`
	ModelAnswer     string   `json:"answer"`
	Evidence        string   `json:"evidence"`
	SuccessCriteria string   `json:"success_criteria,omitempty"`
	Options         []string `json:"options,omitempty"`
}

// Kind returns the question's variant.
func (q *Question) Kind() QuestionKind {
	if len(q.Options) > 0 {
		return KindMultipleChoice
	}
	return KindOpenEnded
}

// Points returns the score weight: 1 for multiple-choice, 2 for open-ended.
func (q *Question) Points() int {
	if q.Kind() == KindMultipleChoice {
		return 1
	}
	return 2
}

// TimerSeconds returns the suggested countdown duration: 30s for
// multiple-choice, 90s for open-ended.
func (q *Question) TimerSeconds() int {
	if q.Kind() == KindMultipleChoice {
		return 30
	}
	return 90
}
