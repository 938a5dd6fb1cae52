package model

import (
	"time"

	"github.com/google/uuid"
)

// WorksheetMeta carries the pedagogical parameters echoed back by the
// generative collaborator alongside the questions.
type WorksheetMeta struct {
	Title     string   `json:"title"`
	Grade     string   `json:"grade"`
	TextType  string   `json:"text_type"`
	Skill     string   `json:"skill"`
	Objective string   `json:"objective"`
	Criteria  []string `json:"criteria"`
	// TotalTimeMinutes is the teacher-chosen overall exam time; it seeds
	// the session's global countdown when started.
	TotalTimeMinutes int `json:"total_time_minutes"`
}

// RubricLevel is one performance band inside a rubric category.
type RubricLevel struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RubricCategory groups levels under a single assessed criterion.
type RubricCategory struct {
	Category string        `json:"category"`
	Levels   []RubricLevel `json:"levels"`
}

// TextImage is an illustrative image generated for a visual idea extracted
// from the passage. URL is a data URI.
type TextImage struct {
	Idea string `json:"idea"`
	URL  string `json:"url"`
}

// Worksheet is a generated, persisted worksheet: the passage, its metadata
// and the three tier buckets. Question slices are stored as JSONB.
type Worksheet struct {
	ID        uuid.UUID        `json:"id"`
	AuthorID  int              `json:"author_id"`
	Meta      WorksheetMeta    `json:"meta"`
	Passage   string           `json:"passage"`
	Below     []Question       `json:"below"`
	Within    []Question       `json:"within"`
	Above     []Question       `json:"above"`
	Rubric    []RubricCategory `json:"rubric,omitempty"`
	Images    []TextImage      `json:"images,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// TierQuestions returns the base bucket for the given tier.
func (w *Worksheet) TierQuestions(t Tier) []Question {
	switch t {
	case TierBelow:
		return w.Below
	case TierWithin:
		return w.Within
	case TierAbove:
		return w.Above
	}
	return nil
}

// GenerateWorksheetRequest is the payload for generating a new worksheet.
type GenerateWorksheetRequest struct {
	Grade            string `json:"grade" binding:"required,min=1,max=32"`
	TextType         string `json:"text_type" binding:"required,min=1,max=64"`
	Skill            string `json:"skill" binding:"required,min=1,max=128"`
	Objective        string `json:"objective" binding:"required,min=1,max=1000"`
	Criteria         string `json:"criteria" binding:"required,min=1,max=2000"`
	Passage          string `json:"passage" binding:"required,min=1"`
	CountBelow       int    `json:"count_below" binding:"required,min=1,max=10"`
	CountWithin      int    `json:"count_within" binding:"required,min=1,max=10"`
	CountAbove       int    `json:"count_above" binding:"required,min=1,max=10"`
	TotalTimeMinutes int    `json:"total_time_minutes" binding:"required,min=5,max=180"`
}

// AddImageRequest is the payload for generating a custom illustrative image.
type AddImageRequest struct {
	Idea string `json:"idea" binding:"required,min=1,max=500"`
}

// BonusQuestionsRequest asks for extra questions at one cognitive level,
// appended to a single tier bucket.
type BonusQuestionsRequest struct {
	Tier  Tier   `json:"tier" binding:"required"`
	Level string `json:"level" binding:"required,min=1,max=64"`
	Count int    `json:"count" binding:"required,min=1,max=10"`
}
