package grading

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/backend/apperr"
	"learnhub/backend/models"
	"learnhub/backend/store"
	"learnhub/backend/utils"
)

func intp(v int) *int { return &v }

// threeQuestions has the correct answer at index 1 for every question.
func threeQuestions() *models.Assignment {
	q := func(text string) models.Question {
		return models.Question{Text: text, Options: []models.Option{
			{Text: "a"}, {Text: "b", IsCorrect: true}, {Text: "c"},
		}}
	}
	return &models.Assignment{ID: "a1", Title: "Quiz", Questions: []models.Question{q("one"), q("two"), q("three")}}
}

func TestGradeIsNotRounded(t *testing.T) {
	score, err := Grade(threeQuestions(), []*int{intp(1), intp(0), intp(1)})
	require.NoError(t, err)
	assert.InDelta(t, 66.67, score, 0.01)
	assert.Equal(t, 200.0/3.0, score)
}

func TestGradeIncompleteSubmission(t *testing.T) {
	_, err := Grade(threeQuestions(), []*int{intp(1), intp(1)})
	assert.ErrorIs(t, err, apperr.ErrIncompleteSubmission)

	_, err = Grade(threeQuestions(), []*int{intp(1), nil, intp(1)})
	assert.ErrorIs(t, err, apperr.ErrIncompleteSubmission)
}

func TestGradeMalformedKey(t *testing.T) {
	a := threeQuestions()
	a.Questions[0].Options[1].IsCorrect = false

	score, err := Grade(a, []*int{intp(1), intp(1), intp(7)})
	require.NoError(t, err)
	// first has no correct option, third is out of range
	assert.InDelta(t, 33.33, score, 0.01)

	score, err = Grade(&models.Assignment{}, nil)
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestValidateAnswerKey(t *testing.T) {
	require.NoError(t, ValidateAnswerKey(threeQuestions()))

	bad := threeQuestions()
	bad.Questions[0].Options[0].IsCorrect = true
	bad.Questions[2].Options = bad.Questions[2].Options[:1]
	err := ValidateAnswerKey(bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "questions[0]")
	assert.Contains(t, verr.Fields, "questions[2]")
	assert.NotContains(t, verr.Fields, "questions[1]")
}

func TestRedactHidesKey(t *testing.T) {
	v := Redact(threeQuestions())
	assert.Equal(t, []string{"a", "b", "c"}, v.Questions[0].Options)
	assert.Equal(t, models.StatusPending, v.Status)
	assert.Nil(t, v.Score)
}

func TestSubmitRecordsAttempts(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	svc := NewService(s, 2, utils.NopLogger())

	created, err := svc.Create(ctx, *threeQuestions(), "author-1")
	require.NoError(t, err)

	first, err := svc.Submit(ctx, "u1", created.ID, []*int{intp(1), intp(1), intp(1)})
	require.NoError(t, err)
	assert.Equal(t, 100.0, first.Score)
	assert.Equal(t, models.StatusSubmitted, first.Status)
	assert.Equal(t, 1, first.Attempt)

	second, err := svc.Submit(ctx, "u1", created.ID, []*int{intp(0), intp(1), intp(1)})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Attempt)

	_, err = svc.Submit(ctx, "u1", created.ID, []*int{intp(1), intp(1), intp(1)})
	assert.ErrorIs(t, err, apperr.ErrAttemptsExhausted)

	// another learner is unaffected
	_, err = svc.Submit(ctx, "u2", created.ID, []*int{intp(1), intp(1), intp(1)})
	require.NoError(t, err)

	subs, err := svc.Submissions(ctx, "u1", created.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 2)

	view := ViewFor(created, subs)
	assert.Equal(t, models.StatusSubmitted, view.Status)
	require.NotNil(t, view.Score)
	assert.InDelta(t, 66.67, *view.Score, 0.01)
}

func TestConcurrentSubmitsRespectLimit(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	svc := NewService(s, 2, utils.NopLogger())

	created, err := svc.Create(ctx, *threeQuestions(), "author-1")
	require.NoError(t, err)

	const n = 6
	var wg sync.WaitGroup
	results := make([]*models.Submission, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Submit(ctx, "u1", created.ID, []*int{intp(1), intp(1), intp(1)})
		}(i)
	}
	wg.Wait()

	var attempts []int
	for i, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, apperr.ErrAttemptsExhausted)
			continue
		}
		attempts = append(attempts, results[i].Attempt)
	}
	assert.ElementsMatch(t, []int{1, 2}, attempts)

	subs, err := svc.Submissions(ctx, "u1", created.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}

func TestSubmissionIDIsPerAttempt(t *testing.T) {
	assert.Equal(t, SubmissionID("u1", "a1", 1), SubmissionID("u1", "a1", 1))
	assert.NotEqual(t, SubmissionID("u1", "a1", 1), SubmissionID("u1", "a1", 2))
	assert.NotEqual(t, SubmissionID("u1", "a1", 1), SubmissionID("u2", "a1", 1))
}

func TestSubmitIncompleteWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	svc := NewService(s, 0, utils.NopLogger())

	created, err := svc.Create(ctx, *threeQuestions(), "author-1")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, "u1", created.ID, []*int{intp(1)})
	assert.ErrorIs(t, err, apperr.ErrIncompleteSubmission)

	subs, err := svc.Submissions(ctx, "u1", "")
	require.NoError(t, err)
	assert.Empty(t, subs)

	_, err = svc.Submit(ctx, "u1", "missing", []*int{intp(1)})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateRejectsBadKey(t *testing.T) {
	svc := NewService(store.NewMemoryStore(), 0, utils.NopLogger())
	_, err := svc.Create(context.Background(), models.Assignment{Title: "empty"}, "author-1")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
