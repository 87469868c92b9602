package enrollment

import (
	"context"
	"fmt"

	"learnhub/backend/apperr"
	"learnhub/backend/models"
)

// CompletedCount counts lectures marked complete. Absent indices count as
// not complete, and indices outside [0,total) are ignored.
func CompletedCount(bitmap map[int]bool, total int) int {
	n := 0
	for i, done := range bitmap {
		if done && i >= 0 && i < total {
			n++
		}
	}
	return n
}

// Percent is round-half-up of 100*completed/total, and 0 for a course
// without lectures.
func Percent(bitmap map[int]bool, total int) int {
	if total <= 0 {
		return 0
	}
	return percentOf(CompletedCount(bitmap, total), total)
}

func percentOf(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*completed + total) / (2 * total)
}

// HasJustCompleted is edge-triggered: true only on the step that reaches
// the last lecture, never again while the course stays complete.
func HasJustCompleted(previousCompleted, newCompleted, total int) bool {
	return total > 0 && newCompleted == total && previousCompleted < total
}

type ProgressUpdate struct {
	Profile        *models.LearnerProfile
	Percent        int
	CompletedCount int
	TotalLectures  int
	JustCompleted  bool
}

// SetLectureComplete flips one lecture of an enrolled course and writes the
// bitmap and the recomputed percent in a single versioned write.
func (l *Ledger) SetLectureComplete(ctx context.Context, profile *models.LearnerProfile, courseID string, lectureIndex int, complete bool) (*ProgressUpdate, error) {
	if !profile.IsEnrolled(courseID) {
		return nil, fmt.Errorf("course %s: %w", courseID, apperr.ErrNotEnrolled)
	}
	course, err := l.courses.Course(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("course %s: %w", courseID, err)
	}
	total := course.TotalLectures()
	if lectureIndex < 0 || lectureIndex >= total {
		return nil, fmt.Errorf("lecture %d of %d: %w", lectureIndex, total, apperr.ErrIndexOutOfRange)
	}

	var before, after int
	updated, err := l.apply(ctx, profile, func(p *models.LearnerProfile) error {
		if !p.IsEnrolled(courseID) {
			return fmt.Errorf("course %s: %w", courseID, apperr.ErrNotEnrolled)
		}
		bitmap := p.CompletedLectures[courseID]
		if bitmap == nil {
			bitmap = map[int]bool{}
		}
		before = CompletedCount(bitmap, total)
		bitmap[lectureIndex] = complete
		after = CompletedCount(bitmap, total)

		p.CompletedLectures[courseID] = bitmap
		p.ProgressPercent[courseID] = percentOf(after, total)
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &ProgressUpdate{
		Profile:        updated,
		Percent:        updated.ProgressPercent[courseID],
		CompletedCount: after,
		TotalLectures:  total,
		JustCompleted:  HasJustCompleted(before, after, total),
	}
	if res.JustCompleted {
		l.log.Info("course completed", "user_id", updated.ID, "course_id", courseID)
	}
	return res, nil
}
