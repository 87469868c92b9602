package models

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"learnhub/backend/store"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleLearner    Role = "learner"
	RoleInstructor Role = "instructor"
)

func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleLearner:
		return RoleLearner, true
	case RoleInstructor:
		return RoleInstructor, true
	}
	return "", false
}

// LearnerProfile is the user document plus its enrollment ledger.
// Version is the store version the profile was read at.
type LearnerProfile struct {
	ID                string                  `json:"id"`
	Name              string                  `json:"name"`
	Email             string                  `json:"email"`
	Role              Role                    `json:"role"`
	EnrolledCourseIDs []string                `json:"enrolledCourseIds"`
	EnrollmentDates   map[string]time.Time    `json:"enrollmentDates"`
	ProgressPercent   map[string]int          `json:"progressPercent"`
	CompletedLectures map[string]map[int]bool `json:"completedLectures"`
	CreatedAt         time.Time               `json:"createdAt"`
	Version           int64                   `json:"-"`
}

// ProfileFromDocument resolves every profile default once. fallbackName is
// the identity provider's display name, used when the document has none.
func ProfileFromDocument(doc *store.Document, fallbackName string) *LearnerProfile {
	f := doc.Fields
	role, ok := ParseRole(str(f, "role"))
	if !ok {
		role = RoleLearner
	}

	p := &LearnerProfile{
		ID:                doc.ID,
		Name:              firstNonEmpty(str(f, "name"), fallbackName, "User"),
		Email:             str(f, "email"),
		Role:              role,
		EnrollmentDates:   map[string]time.Time{},
		ProgressPercent:   map[string]int{},
		CompletedLectures: map[string]map[int]bool{},
		CreatedAt:         parseTime(str(f, "createdAt")),
		Version:           doc.Version,
	}

	seen := map[string]bool{}
	for _, id := range strSlice(f, "enrolledCourseIds") {
		if !seen[id] {
			seen[id] = true
			p.EnrolledCourseIDs = append(p.EnrolledCourseIDs, id)
		}
	}
	for id, v := range obj(f["enrollmentDates"]) {
		if s, ok := v.(string); ok {
			p.EnrollmentDates[id] = parseTime(s)
		}
	}
	for id, v := range obj(f["progressPercent"]) {
		p.ProgressPercent[id] = clampPercent(toInt(v))
	}
	for id, v := range obj(f["completedLectures"]) {
		bitmap := map[int]bool{}
		for idx, done := range obj(v) {
			i, err := strconv.Atoi(idx)
			if err != nil || i < 0 {
				continue
			}
			bitmap[i] = toBool(done)
		}
		p.CompletedLectures[id] = bitmap
	}
	return p
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func (p *LearnerProfile) IsEnrolled(courseID string) bool {
	for _, id := range p.EnrolledCourseIDs {
		if id == courseID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy; ledger mutations work on clones so a failed
// write never touches the caller's profile.
func (p *LearnerProfile) Clone() *LearnerProfile {
	out := *p
	out.EnrolledCourseIDs = append([]string(nil), p.EnrolledCourseIDs...)
	out.EnrollmentDates = make(map[string]time.Time, len(p.EnrollmentDates))
	for k, v := range p.EnrollmentDates {
		out.EnrollmentDates[k] = v
	}
	out.ProgressPercent = make(map[string]int, len(p.ProgressPercent))
	for k, v := range p.ProgressPercent {
		out.ProgressPercent[k] = v
	}
	out.CompletedLectures = make(map[string]map[int]bool, len(p.CompletedLectures))
	for k, bitmap := range p.CompletedLectures {
		cp := make(map[int]bool, len(bitmap))
		for i, done := range bitmap {
			cp[i] = done
		}
		out.CompletedLectures[k] = cp
	}
	return &out
}

// LedgerFields is the persisted form of the four ledger mappings. They are
// always written together.
func (p *LearnerProfile) LedgerFields() store.Fields {
	ids := make([]any, 0, len(p.EnrolledCourseIDs))
	for _, id := range p.EnrolledCourseIDs {
		ids = append(ids, id)
	}
	dates := map[string]any{}
	for id, t := range p.EnrollmentDates {
		dates[id] = formatTime(t)
	}
	percent := map[string]any{}
	for id, v := range p.ProgressPercent {
		percent[id] = v
	}
	completed := map[string]any{}
	for id, bitmap := range p.CompletedLectures {
		m := map[string]any{}
		for i, done := range bitmap {
			m[strconv.Itoa(i)] = done
		}
		completed[id] = m
	}
	return store.Fields{
		"enrolledCourseIds": ids,
		"enrollmentDates":   dates,
		"progressPercent":   percent,
		"completedLectures": completed,
	}
}

// Fields is the full document written at signup.
func (p *LearnerProfile) Fields() store.Fields {
	f := p.LedgerFields()
	f["name"] = p.Name
	f["email"] = p.Email
	f["role"] = string(p.Role)
	f["createdAt"] = formatTime(p.CreatedAt)
	return f
}

// SortedEnrollments lists enrolled ids, most recent enrollment first.
func (p *LearnerProfile) SortedEnrollments() []string {
	ids := append([]string(nil), p.EnrolledCourseIDs...)
	sort.SliceStable(ids, func(i, j int) bool {
		return p.EnrollmentDates[ids[i]].After(p.EnrollmentDates[ids[j]])
	})
	return ids
}
