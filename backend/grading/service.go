package grading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"learnhub/backend/apperr"
	"learnhub/backend/models"
	"learnhub/backend/store"
	"learnhub/backend/utils"
)

// maxAttemptClaims bounds how often Submit moves to the next attempt number
// after losing a race for one.
const maxAttemptClaims = 5

// Service grades submissions on the server and records them.
type Service struct {
	store           store.DocumentStore
	attemptsAllowed int
	now             func() time.Time
	log             *utils.Logger
}

// NewService builds the grading service. attemptsAllowed <= 0 allows any
// number of submissions per learner and assignment.
func NewService(s store.DocumentStore, attemptsAllowed int, log *utils.Logger) *Service {
	return &Service{
		store:           s,
		attemptsAllowed: attemptsAllowed,
		now:             time.Now,
		log:             log.With("component", "Grading"),
	}
}

func (s *Service) Assignment(ctx context.Context, id string) (*models.Assignment, error) {
	doc, err := s.store.Get(ctx, store.Assignments, id)
	if err != nil {
		return nil, fmt.Errorf("assignment %s: %w", id, err)
	}
	a := models.AssignmentFromDocument(doc)
	return &a, nil
}

// List returns assignments, optionally only those of one course.
func (s *Service) List(ctx context.Context, courseID string) ([]models.Assignment, error) {
	opts := store.ListOptions{}
	if courseID != "" {
		opts.Filters = map[string]any{"courseId": courseID}
	}
	docs, err := s.store.List(ctx, store.Assignments, opts)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	out := make([]models.Assignment, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.AssignmentFromDocument(d))
	}
	return out, nil
}

// Create validates the answer key before anything is written.
func (s *Service) Create(ctx context.Context, a models.Assignment, authorID string) (*models.Assignment, error) {
	if err := ValidateAnswerKey(&a); err != nil {
		return nil, err
	}
	a.CreatedBy = authorID
	a.CreatedAt = s.now().UTC()

	id, err := s.store.Create(ctx, store.Assignments, a.Fields())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrPersistence, err)
	}
	a.ID = id
	return &a, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, store.Assignments, id); err != nil {
		return fmt.Errorf("assignment %s: %w", id, err)
	}
	return nil
}

// Submissions lists the attempts of userID, optionally for one assignment.
func (s *Service) Submissions(ctx context.Context, userID, assignmentID string) ([]models.Submission, error) {
	filters := map[string]any{"userId": userID}
	if assignmentID != "" {
		filters["assignmentId"] = assignmentID
	}
	docs, err := s.store.List(ctx, store.Submissions, store.ListOptions{Filters: filters})
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	out := make([]models.Submission, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.SubmissionFromDocument(d))
	}
	return out, nil
}

// Submit grades selections and records the attempt as submitted.
func (s *Service) Submit(ctx context.Context, userID, assignmentID string, selections []*int) (*models.Submission, error) {
	a, err := s.Assignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	previous, err := s.Submissions(ctx, userID, assignmentID)
	if err != nil {
		return nil, err
	}
	attempt := 1
	for _, p := range previous {
		if p.Attempt >= attempt {
			attempt = p.Attempt + 1
		}
	}

	score, err := Grade(a, selections)
	if err != nil {
		return nil, err
	}

	sub := models.Submission{
		AssignmentID: assignmentID,
		UserID:       userID,
		Selections:   make([]int, 0, len(a.Questions)),
		Score:        score,
		Status:       models.StatusSubmitted,
		SubmittedAt:  s.now().UTC(),
	}
	for i := range a.Questions {
		sub.Selections = append(sub.Selections, *selections[i])
	}

	// Each attempt number is claimed once per learner and assignment, so
	// concurrent submits cannot share a number or overrun the limit.
	for claims := 0; ; claims++ {
		if s.attemptsAllowed > 0 && attempt > s.attemptsAllowed {
			return nil, fmt.Errorf("%d of %d attempts used: %w", attempt-1, s.attemptsAllowed, apperr.ErrAttemptsExhausted)
		}
		sub.Attempt = attempt
		sub.ID = SubmissionID(userID, assignmentID, attempt)

		err := s.store.Insert(ctx, store.Submissions, sub.ID, sub.Fields())
		if err == nil {
			break
		}
		if !errors.Is(err, apperr.ErrConflict) || claims >= maxAttemptClaims {
			s.log.Warn("submission write failed", "user_id", userID, "assignment_id", assignmentID, "attempt", attempt, "error", err)
			return nil, fmt.Errorf("%w: %w", apperr.ErrPersistence, err)
		}
		attempt++
	}
	s.log.Info("assignment submitted", "user_id", userID, "assignment_id", assignmentID, "score", score, "attempt", sub.Attempt)
	return &sub, nil
}

// SubmissionID is the document id of one attempt: a name-based UUID of the
// learner, the assignment and the attempt number.
func SubmissionID(userID, assignmentID string, attempt int) string {
	key := fmt.Sprintf("%s/%s/%d", userID, assignmentID, attempt)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

// ViewFor redacts a and attaches the learner's latest result, if any.
func ViewFor(a *models.Assignment, submissions []models.Submission) AssignmentView {
	v := Redact(a)
	var latest *models.Submission
	for i := range submissions {
		sub := &submissions[i]
		if sub.AssignmentID != a.ID {
			continue
		}
		if latest == nil || sub.Attempt > latest.Attempt {
			latest = sub
		}
	}
	if latest != nil {
		v.Status = latest.Status
		score := latest.Score
		v.Score = &score
	}
	return v
}
