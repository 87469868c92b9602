package enrollment

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"learnhub/backend/apperr"
	"learnhub/backend/models"
	"learnhub/backend/store"
	"learnhub/backend/utils"
)

// CourseLookup resolves a course id. A missing course must be reported
// as apperr.ErrNotFound; any other error is treated as transient.
type CourseLookup interface {
	Course(ctx context.Context, id string) (*models.Course, error)
}

// Ledger owns the enrollment mappings of learner profiles. Every mutation
// works on a clone of the profile and is written with a version check, so a
// failed write leaves the caller's profile untouched and two writers on the
// same profile cannot clobber each other.
type Ledger struct {
	store      store.DocumentStore
	courses    CourseLookup
	maxRetries int
	now        func() time.Time
	log        *utils.Logger
}

func NewLedger(s store.DocumentStore, courses CourseLookup, maxRetries int, log *utils.Logger) *Ledger {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Ledger{
		store:      s,
		courses:    courses,
		maxRetries: maxRetries,
		now:        time.Now,
		log:        log.With("component", "Ledger"),
	}
}

// Load reads the profile of userID and reconciles it against the catalog.
func (l *Ledger) Load(ctx context.Context, userID, fallbackName string) (*models.LearnerProfile, error) {
	doc, err := l.store.Get(ctx, store.Users, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", userID, err)
	}
	return l.Reconcile(ctx, models.ProfileFromDocument(doc, fallbackName))
}

// Reconcile drops enrolled ids whose course no longer exists, removes map
// entries for ids that are not enrolled, and recomputes percentages from the
// bitmaps. The result is written back only when something changed, which
// makes a second run a no-op.
func (l *Ledger) Reconcile(ctx context.Context, profile *models.LearnerProfile) (*models.LearnerProfile, error) {
	found := map[string]*models.Course{}
	missing := map[string]bool{}
	resolve := func(ids []string) error {
		for _, id := range ids {
			if _, ok := found[id]; ok || missing[id] {
				continue
			}
			course, err := l.courses.Course(ctx, id)
			if errors.Is(err, apperr.ErrNotFound) {
				missing[id] = true
				continue
			}
			if err != nil {
				return fmt.Errorf("reconcile course %s: %w", id, err)
			}
			found[id] = course
		}
		return nil
	}
	if err := resolve(profile.EnrolledCourseIDs); err != nil {
		return nil, err
	}

	check := profile.Clone()
	l.prune(check, found, missing)
	if reflect.DeepEqual(check, profile) {
		return profile, nil
	}

	// A retry re-reads the profile, which may hold ids enrolled meanwhile.
	fix := func(p *models.LearnerProfile) error {
		if err := resolve(p.EnrolledCourseIDs); err != nil {
			return err
		}
		l.prune(p, found, missing)
		return nil
	}
	dropped := len(profile.EnrolledCourseIDs) - len(check.EnrolledCourseIDs)
	updated, err := l.apply(ctx, profile, fix)
	if err != nil {
		return nil, err
	}
	l.log.Info("ledger reconciled", "user_id", profile.ID, "dropped", dropped)
	return updated, nil
}

// prune enforces the ledger invariants on p. Only ids in missing are
// dropped; an enrolled id that was never looked up is left as is.
func (l *Ledger) prune(p *models.LearnerProfile, found map[string]*models.Course, missing map[string]bool) {
	kept := p.EnrolledCourseIDs[:0:0]
	enrolled := map[string]bool{}
	for _, id := range p.EnrolledCourseIDs {
		if missing[id] {
			continue
		}
		kept = append(kept, id)
		enrolled[id] = true

		course, ok := found[id]
		if !ok {
			continue
		}
		total := course.TotalLectures()
		if bitmap := p.CompletedLectures[id]; bitmap != nil {
			for i := range bitmap {
				if i >= total {
					delete(bitmap, i)
				}
			}
		}
		if _, ok := p.EnrollmentDates[id]; !ok {
			p.EnrollmentDates[id] = l.now().UTC()
		}
		p.ProgressPercent[id] = Percent(p.CompletedLectures[id], total)
	}
	if len(kept) == 0 {
		kept = nil
	}
	p.EnrolledCourseIDs = kept

	for id := range p.EnrollmentDates {
		if !enrolled[id] {
			delete(p.EnrollmentDates, id)
		}
	}
	for id := range p.ProgressPercent {
		if !enrolled[id] {
			delete(p.ProgressPercent, id)
		}
	}
	for id := range p.CompletedLectures {
		if !enrolled[id] {
			delete(p.CompletedLectures, id)
		}
	}
}

// Enroll adds courseID with the current time and zero progress.
func (l *Ledger) Enroll(ctx context.Context, profile *models.LearnerProfile, courseID string) (*models.LearnerProfile, error) {
	if profile.IsEnrolled(courseID) {
		return nil, fmt.Errorf("course %s: %w", courseID, apperr.ErrAlreadyEnrolled)
	}
	if _, err := l.courses.Course(ctx, courseID); err != nil {
		return nil, fmt.Errorf("course %s: %w", courseID, err)
	}

	updated, err := l.apply(ctx, profile, func(p *models.LearnerProfile) error {
		if p.IsEnrolled(courseID) {
			return fmt.Errorf("course %s: %w", courseID, apperr.ErrAlreadyEnrolled)
		}
		p.EnrolledCourseIDs = append(p.EnrolledCourseIDs, courseID)
		p.EnrollmentDates[courseID] = l.now().UTC()
		p.ProgressPercent[courseID] = 0
		delete(p.CompletedLectures, courseID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.log.Info("enrolled", "user_id", profile.ID, "course_id", courseID)
	return updated, nil
}

// Drop removes courseID from every ledger mapping.
func (l *Ledger) Drop(ctx context.Context, profile *models.LearnerProfile, courseID string) (*models.LearnerProfile, error) {
	if !profile.IsEnrolled(courseID) {
		return nil, fmt.Errorf("course %s: %w", courseID, apperr.ErrNotEnrolled)
	}

	updated, err := l.apply(ctx, profile, func(p *models.LearnerProfile) error {
		if !p.IsEnrolled(courseID) {
			return fmt.Errorf("course %s: %w", courseID, apperr.ErrNotEnrolled)
		}
		var kept []string
		for _, id := range p.EnrolledCourseIDs {
			if id != courseID {
				kept = append(kept, id)
			}
		}
		p.EnrolledCourseIDs = kept
		delete(p.EnrollmentDates, courseID)
		delete(p.ProgressPercent, courseID)
		delete(p.CompletedLectures, courseID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.log.Info("dropped", "user_id", profile.ID, "course_id", courseID)
	return updated, nil
}

// apply runs fn on a clone of profile and writes the ledger fields only if
// the stored version still matches. On a version conflict the profile is
// re-read and fn applied again, up to maxRetries times.
func (l *Ledger) apply(ctx context.Context, profile *models.LearnerProfile, fn func(p *models.LearnerProfile) error) (*models.LearnerProfile, error) {
	current := profile
	for attempt := 0; ; attempt++ {
		next := current.Clone()
		if err := fn(next); err != nil {
			return nil, err
		}

		err := l.store.UpdateIfVersion(ctx, store.Users, next.ID, current.Version, next.LedgerFields())
		if err == nil {
			next.Version = current.Version + 1
			return next, nil
		}
		if !errors.Is(err, apperr.ErrConflict) || attempt >= l.maxRetries {
			l.log.Warn("ledger write failed", "user_id", profile.ID, "attempt", attempt+1, "error", err)
			return nil, fmt.Errorf("%w: %w", apperr.ErrPersistence, err)
		}

		doc, err := l.store.Get(ctx, store.Users, current.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", apperr.ErrPersistence, err)
		}
		current = models.ProfileFromDocument(doc, current.Name)
	}
}
