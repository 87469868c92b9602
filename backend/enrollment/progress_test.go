package enrollment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/backend/apperr"
	"learnhub/backend/models"
	"learnhub/backend/store"
)

func TestPercent(t *testing.T) {
	cases := []struct {
		name   string
		bitmap map[int]bool
		total  int
		want   int
	}{
		{"no lectures", map[int]bool{0: true}, 0, 0},
		{"empty bitmap", nil, 4, 0},
		{"one of three", map[int]bool{0: true}, 3, 33},
		{"two of three", map[int]bool{0: true, 1: true}, 3, 67},
		{"half up", map[int]bool{3: true}, 8, 13},
		{"false entries ignored", map[int]bool{0: true, 1: false}, 2, 50},
		{"all", map[int]bool{0: true, 1: true}, 2, 100},
		{"out of range ignored", map[int]bool{0: true, 5: true}, 2, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Percent(tc.bitmap, tc.total))
		})
	}
}

func TestHasJustCompletedIsEdgeTriggered(t *testing.T) {
	steps := []map[int]bool{
		{0: false, 1: false},
		{0: true, 1: false},
		{0: true, 1: true},
		{0: true, 1: true},
	}
	var fired []int
	for i := 1; i < len(steps); i++ {
		if HasJustCompleted(CompletedCount(steps[i-1], 2), CompletedCount(steps[i], 2), 2) {
			fired = append(fired, i)
		}
	}
	assert.Equal(t, []int{2}, fired)

	assert.False(t, HasJustCompleted(0, 0, 0))
}

func TestSetLectureComplete(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	cat := &fakeCatalog{courses: map[string]*models.Course{"c1": courseWith("c1", 2)}}
	l := newTestLedger(t, s, cat)

	p := seedProfile(t, s, emptyProfile("u1"))
	p, err := l.Enroll(ctx, p, "c1")
	require.NoError(t, err)

	first, err := l.SetLectureComplete(ctx, p, "c1", 0, true)
	require.NoError(t, err)
	assert.Equal(t, 50, first.Percent)
	assert.False(t, first.JustCompleted)

	second, err := l.SetLectureComplete(ctx, first.Profile, "c1", 1, true)
	require.NoError(t, err)
	assert.Equal(t, 100, second.Percent)
	assert.True(t, second.JustCompleted)

	again, err := l.SetLectureComplete(ctx, second.Profile, "c1", 1, true)
	require.NoError(t, err)
	assert.Equal(t, 100, again.Percent)
	assert.False(t, again.JustCompleted)

	undo, err := l.SetLectureComplete(ctx, again.Profile, "c1", 0, false)
	require.NoError(t, err)
	assert.Equal(t, 50, undo.Percent)

	doc, err := s.Get(ctx, store.Users, "u1")
	require.NoError(t, err)
	stored := models.ProfileFromDocument(doc, "")
	assert.Equal(t, 50, stored.ProgressPercent["c1"])
	assert.Equal(t, map[int]bool{0: false, 1: true}, stored.CompletedLectures["c1"])
}

func TestSetLectureCompletePreconditions(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	cat := &fakeCatalog{courses: map[string]*models.Course{
		"c1":    courseWith("c1", 2),
		"empty": courseWith("empty", 0),
	}}
	l := newTestLedger(t, s, cat)
	p := seedProfile(t, s, emptyProfile("u1"))

	_, err := l.SetLectureComplete(ctx, p, "c1", 0, true)
	assert.ErrorIs(t, err, apperr.ErrNotEnrolled)

	p, err = l.Enroll(ctx, p, "c1")
	require.NoError(t, err)
	_, err = l.SetLectureComplete(ctx, p, "c1", 2, true)
	assert.ErrorIs(t, err, apperr.ErrIndexOutOfRange)
	_, err = l.SetLectureComplete(ctx, p, "c1", -1, true)
	assert.ErrorIs(t, err, apperr.ErrIndexOutOfRange)

	p, err = l.Enroll(ctx, p, "empty")
	require.NoError(t, err)
	assert.Equal(t, 0, p.ProgressPercent["empty"])
	_, err = l.SetLectureComplete(ctx, p, "empty", 0, true)
	assert.ErrorIs(t, err, apperr.ErrIndexOutOfRange)
}
