package grading

import (
	"fmt"
	"strings"
	"time"

	"learnhub/backend/apperr"
	"learnhub/backend/models"
)

// Grade scores selections against the answer key: 100 * correct / questions.
// selections[i] is the chosen option of question i, nil when unanswered.
// The score is not rounded. A selection outside the question's options, or
// a question with no correct option, simply counts as wrong.
func Grade(a *models.Assignment, selections []*int) (float64, error) {
	if len(selections) < len(a.Questions) {
		return 0, fmt.Errorf("%d of %d answered: %w", len(selections), len(a.Questions), apperr.ErrIncompleteSubmission)
	}
	for i := range a.Questions {
		if selections[i] == nil {
			return 0, fmt.Errorf("question %d unanswered: %w", i+1, apperr.ErrIncompleteSubmission)
		}
	}
	if len(a.Questions) == 0 {
		return 0, nil
	}

	correct := 0
	for i, q := range a.Questions {
		sel := *selections[i]
		if sel >= 0 && sel < len(q.Options) && q.Options[sel].IsCorrect {
			correct++
		}
	}
	return 100 * float64(correct) / float64(len(a.Questions)), nil
}

// ValidateAnswerKey is the authoring-time check: every question needs text,
// at least two options and exactly one correct option.
func ValidateAnswerKey(a *models.Assignment) error {
	fields := map[string]string{}
	if strings.TrimSpace(a.Title) == "" {
		fields["title"] = "title is required"
	}
	if len(a.Questions) == 0 {
		fields["questions"] = "at least one question is required"
	}
	for i, q := range a.Questions {
		key := fmt.Sprintf("questions[%d]", i)
		if strings.TrimSpace(q.Text) == "" {
			fields[key] = "question text is required"
			continue
		}
		if len(q.Options) < 2 {
			fields[key] = "at least two options are required"
			continue
		}
		n := 0
		for _, o := range q.Options {
			if o.IsCorrect {
				n++
			}
		}
		if n != 1 {
			fields[key] = fmt.Sprintf("exactly one correct option is required, got %d", n)
		}
	}
	if len(fields) > 0 {
		return apperr.NewValidation(fields)
	}
	return nil
}

type QuestionView struct {
	Text    string   `json:"text"`
	Hint    string   `json:"hint,omitempty"`
	Options []string `json:"options"`
}

// AssignmentView is what a learner sees: the questions without the key.
type AssignmentView struct {
	ID        string                  `json:"id"`
	Title     string                  `json:"title"`
	CourseID  string                  `json:"courseId,omitempty"`
	DueDate   time.Time               `json:"dueDate"`
	Questions []QuestionView          `json:"questions"`
	Status    models.SubmissionStatus `json:"status"`
	Score     *float64                `json:"score,omitempty"`
}

func Redact(a *models.Assignment) AssignmentView {
	v := AssignmentView{
		ID:        a.ID,
		Title:     a.Title,
		CourseID:  a.CourseID,
		DueDate:   a.DueDate,
		Questions: make([]QuestionView, 0, len(a.Questions)),
		Status:    models.StatusPending,
	}
	for _, q := range a.Questions {
		opts := make([]string, 0, len(q.Options))
		for _, o := range q.Options {
			opts = append(opts, o.Text)
		}
		v.Questions = append(v.Questions, QuestionView{Text: q.Text, Hint: q.Hint, Options: opts})
	}
	return v
}
