// Package dashboard aggregates ledgers and submissions into the per-role
// overview screens.
package dashboard

import (
	"context"
	"fmt"
	"sort"

	"learnhub/backend/enrollment"
	"learnhub/backend/models"
	"learnhub/backend/store"
)

type CourseSource interface {
	Courses(ctx context.Context) ([]models.Course, error)
}

type Service struct {
	store   store.DocumentStore
	courses CourseSource
}

func NewService(s store.DocumentStore, courses CourseSource) *Service {
	return &Service{store: s, courses: courses}
}

// Learner builds the dashboard of an already reconciled profile.
func (s *Service) Learner(ctx context.Context, p *models.LearnerProfile) (*models.ProgressOverview, error) {
	courses, err := s.courses.Courses(ctx)
	if err != nil {
		return nil, err
	}
	subs, err := s.store.List(ctx, store.Submissions, store.ListOptions{Filters: map[string]any{"userId": p.ID}})
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	submissions := make([]models.Submission, 0, len(subs))
	for _, d := range subs {
		submissions = append(submissions, models.SubmissionFromDocument(d))
	}
	return LearnerOverview(p, courses, submissions), nil
}

// LearnerOverview lists enrolled courses, most recent enrollment first.
// Ids without a catalog entry are skipped.
func LearnerOverview(p *models.LearnerProfile, courses []models.Course, submissions []models.Submission) *models.ProgressOverview {
	byID := indexCourses(courses)
	out := &models.ProgressOverview{Courses: []models.CourseProgress{}}

	for _, id := range p.SortedEnrollments() {
		course, ok := byID[id]
		if !ok {
			continue
		}
		total := course.TotalLectures()
		done := enrollment.CompletedCount(p.CompletedLectures[id], total)
		row := models.CourseProgress{
			CourseID:          id,
			Title:             course.Title,
			Instructor:        course.Instructor,
			Percent:           p.ProgressPercent[id],
			CompletedLectures: done,
			TotalLectures:     total,
			EnrolledAt:        p.EnrollmentDates[id],
			Completed:         p.ProgressPercent[id] >= 100,
		}
		if row.Completed {
			out.TotalCoursesCompleted++
		}
		out.Courses = append(out.Courses, row)
	}
	out.TotalEnrolled = len(out.Courses)

	latest := latestAttempts(submissions)
	out.TotalSubmissions = len(latest)
	if len(latest) > 0 {
		sum := 0.0
		for _, sub := range latest {
			sum += sub.Score
		}
		out.AverageScore = sum / float64(len(latest))
	}
	return out
}

// Instructor aggregates every learner ledger over the instructor's courses.
func (s *Service) Instructor(ctx context.Context, displayName string, owned func(*models.Course) bool) (*models.InstructorOverview, error) {
	courses, err := s.courses.Courses(ctx)
	if err != nil {
		return nil, err
	}
	profiles, err := s.profiles(ctx)
	if err != nil {
		return nil, err
	}

	var mine []models.Course
	for i := range courses {
		if owned(&courses[i]) {
			mine = append(mine, courses[i])
		}
	}
	return &models.InstructorOverview{
		Instructor: displayName,
		Courses:    CourseStats(mine, profiles),
	}, nil
}

// CourseStats counts enrollments, completions and average progress per
// course, ordered by title.
func CourseStats(courses []models.Course, profiles []*models.LearnerProfile) []models.CourseAnalytics {
	out := make([]models.CourseAnalytics, 0, len(courses))
	for _, c := range courses {
		row := models.CourseAnalytics{CourseID: c.ID, Title: c.Title}
		sum := 0
		for _, p := range profiles {
			if !p.IsEnrolled(c.ID) {
				continue
			}
			row.Enrollments++
			pct := p.ProgressPercent[c.ID]
			sum += pct
			if pct >= 100 {
				row.Completed++
			}
		}
		if row.Enrollments > 0 {
			row.AverageProgress = float64(sum) / float64(row.Enrollments)
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// Platform is the admin overview.
func (s *Service) Platform(ctx context.Context) (*models.PlatformAnalytics, error) {
	profiles, err := s.profiles(ctx)
	if err != nil {
		return nil, err
	}
	courses, err := s.courses.Courses(ctx)
	if err != nil {
		return nil, err
	}
	assignments, err := s.store.List(ctx, store.Assignments, store.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	subs, err := s.store.List(ctx, store.Submissions, store.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	out := &models.PlatformAnalytics{
		TotalUsers:         len(profiles),
		UsersByRole:        map[models.Role]int{},
		CoursesCreated:     len(courses),
		AssignmentsCreated: len(assignments),
		Submissions:        len(subs),
	}
	byID := indexCourses(courses)
	enrollments, progress := 0, 0
	for _, p := range profiles {
		out.UsersByRole[p.Role]++
		for _, id := range p.EnrolledCourseIDs {
			// profiles not loaded since a course was deleted still list it
			if _, ok := byID[id]; !ok {
				continue
			}
			enrollments++
			progress += p.ProgressPercent[id]
		}
	}
	if enrollments > 0 {
		out.AverageProgress = float64(progress) / float64(enrollments)
	}
	if len(subs) > 0 {
		sum := 0.0
		for _, d := range subs {
			sum += models.SubmissionFromDocument(d).Score
		}
		out.AverageScore = sum / float64(len(subs))
	}
	return out, nil
}

func (s *Service) profiles(ctx context.Context) ([]*models.LearnerProfile, error) {
	docs, err := s.store.List(ctx, store.Users, store.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]*models.LearnerProfile, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.ProfileFromDocument(d, ""))
	}
	return out, nil
}

func indexCourses(courses []models.Course) map[string]*models.Course {
	m := make(map[string]*models.Course, len(courses))
	for i := range courses {
		m[courses[i].ID] = &courses[i]
	}
	return m
}

// latestAttempts keeps the highest attempt per assignment.
func latestAttempts(subs []models.Submission) []models.Submission {
	latest := map[string]models.Submission{}
	for _, s := range subs {
		if cur, ok := latest[s.AssignmentID]; !ok || s.Attempt > cur.Attempt {
			latest[s.AssignmentID] = s
		}
	}
	out := make([]models.Submission, 0, len(latest))
	for _, s := range latest {
		out = append(out, s)
	}
	return out
}
