package models

import (
	"time"

	"learnhub/backend/store"
)

type Option struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"isCorrect"`
}

type Question struct {
	Text    string   `json:"text" validate:"required"`
	Hint    string   `json:"hint,omitempty"`
	Options []Option `json:"options" validate:"required,min=2,dive"`
}

type Assignment struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	CourseID  string     `json:"courseId,omitempty"`
	DueDate   time.Time  `json:"dueDate"`
	Questions []Question `json:"questions"`
	CreatedBy string     `json:"createdBy,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func AssignmentFromDocument(doc *store.Document) Assignment {
	f := doc.Fields
	a := Assignment{
		ID:        doc.ID,
		Title:     firstNonEmpty(str(f, "title"), "Untitled assignment"),
		CourseID:  str(f, "courseId"),
		DueDate:   parseTime(str(f, "dueDate")),
		CreatedBy: str(f, "createdBy"),
		CreatedAt: parseTime(str(f, "createdAt")),
	}
	for _, q := range objects(f, "questions") {
		question := Question{Text: str(q, "text"), Hint: str(q, "hint")}
		for _, o := range objects(q, "options") {
			question.Options = append(question.Options, Option{
				Text:      str(o, "text"),
				IsCorrect: toBool(o["isCorrect"]),
			})
		}
		a.Questions = append(a.Questions, question)
	}
	return a
}

func (a *Assignment) Fields() store.Fields {
	questions := make([]any, 0, len(a.Questions))
	for _, q := range a.Questions {
		options := make([]any, 0, len(q.Options))
		for _, o := range q.Options {
			options = append(options, map[string]any{"text": o.Text, "isCorrect": o.IsCorrect})
		}
		questions = append(questions, map[string]any{
			"text":    q.Text,
			"hint":    q.Hint,
			"options": options,
		})
	}
	return store.Fields{
		"title":     a.Title,
		"courseId":  a.CourseID,
		"dueDate":   formatTime(a.DueDate),
		"questions": questions,
		"createdBy": a.CreatedBy,
		"createdAt": formatTime(a.CreatedAt),
	}
}

type SubmissionStatus string

const (
	StatusPending   SubmissionStatus = "pending"
	StatusSubmitted SubmissionStatus = "submitted"
)

// Submission is one graded attempt of a learner on an assignment.
type Submission struct {
	ID           string           `json:"id"`
	AssignmentID string           `json:"assignmentId"`
	UserID       string           `json:"userId"`
	Selections   []int            `json:"selections"`
	Score        float64          `json:"score"`
	Status       SubmissionStatus `json:"status"`
	Attempt      int              `json:"attempt"`
	SubmittedAt  time.Time        `json:"submittedAt"`
}

func SubmissionFromDocument(doc *store.Document) Submission {
	f := doc.Fields
	s := Submission{
		ID:           doc.ID,
		AssignmentID: str(f, "assignmentId"),
		UserID:       str(f, "userId"),
		Score:        num(f, "score"),
		Status:       SubmissionStatus(firstNonEmpty(str(f, "status"), string(StatusPending))),
		Attempt:      toInt(f["attempt"]),
		SubmittedAt:  parseTime(str(f, "submittedAt")),
	}
	if raw, ok := f["selections"].([]any); ok {
		for _, v := range raw {
			s.Selections = append(s.Selections, toInt(v))
		}
	}
	return s
}

func (s *Submission) Fields() store.Fields {
	selections := make([]any, 0, len(s.Selections))
	for _, v := range s.Selections {
		selections = append(selections, v)
	}
	return store.Fields{
		"assignmentId": s.AssignmentID,
		"userId":       s.UserID,
		"selections":   selections,
		"score":        s.Score,
		"status":       string(s.Status),
		"attempt":      s.Attempt,
		"submittedAt":  formatTime(s.SubmittedAt),
	}
}
