package models

import (
	"fmt"
	"strings"
	"time"
)

// SkillLevel selects which parallel summary text is shown for a paper.
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "Beginner"
	SkillIntermediate SkillLevel = "Intermediate"
)

// ParseSkillLevel accepts the two supported levels case-insensitively and
// defaults an empty value to Beginner.
func ParseSkillLevel(s string) (SkillLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "beginner":
		return SkillBeginner, nil
	case "intermediate":
		return SkillIntermediate, nil
	}
	return "", fmt.Errorf("unknown skill level %q", s)
}

// Paper is an immutable bibliographic record written by the external
// ingestion pipeline. This service never mutates it.
type Paper struct {
	ID            string    `json:"id"`
	ArxivID       string    `json:"arxiv_id"`
	Title         string    `json:"title"`
	Abstract      string    `json:"abstract"`
	Authors       []string  `json:"authors"`
	Categories    string    `json:"categories_name"`
	PublishedDate time.Time `json:"published_date"`
	CreatedAt     time.Time `json:"created_at"`
	PDFURL        string    `json:"pdf_url,omitempty"`
	AbstractURL   string    `json:"abstract_url,omitempty"`
}

// SummaryStatusCompleted is the only processing_status that makes a summary
// usable. Anything else means "fall back to the raw abstract"; it is not an
// error state.
const SummaryStatusCompleted = "completed"

// Summary holds the summary_papers columns for one requested skill level.
// The unused level's columns are never fetched.
type Summary struct {
	PaperID  string `json:"arxiv_paper_id"`
	Title    string `json:"title,omitempty"`
	Overview string `json:"overview,omitempty"`
	Content  string `json:"content,omitempty"`
}

// Empty reports whether all level-specific fields are blank.
func (s Summary) Empty() bool {
	return s.Title == "" && s.Overview == "" && s.Content == ""
}

// Article is the read-time merge of one Paper with the summary fields
// matching the caller's skill level. It is never persisted.
type Article struct {
	ID               string    `json:"id"`
	ArxivID          string    `json:"arxiv_id"`
	Title            string    `json:"title"`
	Abstract         string    `json:"abstract"`
	Authors          []string  `json:"authors"`
	Categories       string    `json:"categories_name"`
	PublishedDate    time.Time `json:"published_date"`
	CreatedAt        time.Time `json:"created_at"`
	PDFURL           string    `json:"pdf_url,omitempty"`
	AbstractURL      string    `json:"abstract_url,omitempty"`
	PrimaryCategory  string    `json:"primary_category,omitempty"`
	SummaryTitle     string    `json:"summary_title,omitempty"`
	SummaryOverview  string    `json:"summary_overview,omitempty"`
	SummaryContent   string    `json:"summary_content,omitempty"`
	HasSummary       bool      `json:"has_summary"`
	ShortDescription string    `json:"short_description"`
	Slug             string    `json:"slug"`
}

type SavedArticle struct {
	UserID    string    `json:"user_id"`
	PaperID   string    `json:"paper_id"`
	CreatedAt time.Time `json:"created_at"`
}

// MaxCommentLength is enforced server-side; the web client enforces it
// redundantly.
const MaxCommentLength = 2000

type Comment struct {
	ID         string    `json:"id"`
	PaperID    string    `json:"paper_id"`
	UserID     string    `json:"user_id"`
	Body       string    `json:"body"`
	AuthorName string    `json:"author_name,omitempty"`
	Edited     bool      `json:"edited"`
	Deleted    bool      `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// QuizSubmission records the one-shot quiz outcome per (user, paper).
// Both outcomes are terminal.
type QuizSubmission struct {
	UserID     string    `json:"user_id"`
	PaperID    string    `json:"paper_id"`
	IsCorrect  bool      `json:"is_correct"`
	AnsweredAt time.Time `json:"answered_at"`
}

type Profile struct {
	UserID            string     `json:"user_id"`
	Name              string     `json:"name"`
	Title             string     `json:"title,omitempty"`
	Institution       string     `json:"institution,omitempty"`
	ResearchInterests string     `json:"research_interests,omitempty"`
	SkillLevel        SkillLevel `json:"skill_level"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type Category struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ViewEvent is a best-effort analytics record; losing one is acceptable.
type ViewEvent struct {
	ID          string    `json:"id"`
	PaperID     string    `json:"paper_id"`
	UserID      string    `json:"user_id,omitempty"`
	AnonymousID string    `json:"anonymous_id,omitempty"`
	ViewedAt    time.Time `json:"viewed_at"`
}
