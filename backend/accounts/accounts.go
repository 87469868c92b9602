// Package accounts handles signup, login and the editable part of a profile.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"learnhub/backend/apperr"
	"learnhub/backend/models"
	"learnhub/backend/session"
	"learnhub/backend/store"
	"learnhub/backend/utils"
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=80"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=learner instructor admin"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Service struct {
	store store.DocumentStore
	cost  int
	now   func() time.Time
	log   *utils.Logger
}

func NewService(s store.DocumentStore, log *utils.Logger) *Service {
	return &Service{
		store: s,
		cost:  bcrypt.DefaultCost,
		now:   time.Now,
		log:   log.With("component", "Accounts"),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the profile and its credentials. The role is fixed here
// and never changes afterwards; admin cannot be self-assigned.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.LearnerProfile, error) {
	if err := utils.Validate(in); err != nil {
		return nil, err
	}
	role := models.RoleLearner
	if in.Role != "" {
		role, _ = models.ParseRole(in.Role)
	}
	if role == models.RoleAdmin {
		return nil, fmt.Errorf("admin role cannot be self-assigned: %w", apperr.ErrForbidden)
	}

	email := normalizeEmail(in.Email)
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// Credentials are keyed by email; claiming them first leaves one winner
	// per address.
	id := uuid.NewString()
	createdAt := s.now().UTC()
	err = s.store.Insert(ctx, store.Credentials, email, store.Fields{
		"userId":       id,
		"passwordHash": string(hash),
		"createdAt":    createdAt.Format(time.RFC3339Nano),
	})
	switch {
	case errors.Is(err, apperr.ErrConflict):
		return nil, apperr.ErrEmailTaken
	case err != nil:
		return nil, fmt.Errorf("%w: %w", apperr.ErrPersistence, err)
	}

	profile := &models.LearnerProfile{
		ID:                id,
		Name:              strings.TrimSpace(in.Name),
		Email:             email,
		Role:              role,
		EnrollmentDates:   map[string]time.Time{},
		ProgressPercent:   map[string]int{},
		CompletedLectures: map[string]map[int]bool{},
		CreatedAt:         createdAt,
	}
	if err := s.store.Insert(ctx, store.Users, id, profile.Fields()); err != nil {
		if derr := s.store.Delete(ctx, store.Credentials, email); derr != nil {
			s.log.Error("orphaned credentials after failed signup", "user_id", id, "error", derr)
		}
		return nil, fmt.Errorf("%w: %w", apperr.ErrPersistence, err)
	}

	doc, err := s.store.Get(ctx, store.Users, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrPersistence, err)
	}
	s.log.Info("user registered", "user_id", id, "role", role)
	return models.ProfileFromDocument(doc, profile.Name), nil
}

// Login checks the password and returns the stored profile. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, in LoginInput) (*models.LearnerProfile, error) {
	if err := utils.Validate(in); err != nil {
		return nil, err
	}
	email := normalizeEmail(in.Email)
	invalid := fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthorized)

	creds, err := s.store.Get(ctx, store.Credentials, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrPersistence, err)
	}
	hash, _ := creds.Fields["passwordHash"].(string)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(in.Password)); err != nil {
		return nil, invalid
	}

	userID, _ := creds.Fields["userId"].(string)
	doc, err := s.store.Get(ctx, store.Users, userID)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", userID, err)
	}

	if err := s.store.SetFields(ctx, store.Credentials, email, store.Fields{
		"lastLoginAt": s.now().UTC().Format(time.RFC3339Nano),
	}); err != nil {
		s.log.Warn("could not record login", "user_id", userID, "error", err)
	}
	return models.ProfileFromDocument(doc, ""), nil
}

// Rename updates the display name. It is the only profile field a user can
// change.
func (s *Service) Rename(ctx context.Context, userID, name string) (*models.LearnerProfile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.NewValidation(map[string]string{"name": "is required"})
	}
	doc, err := s.store.Get(ctx, store.Users, userID)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", userID, err)
	}
	if err := s.store.UpdateIfVersion(ctx, store.Users, userID, doc.Version, store.Fields{"name": name}); err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrPersistence, err)
	}
	p := models.ProfileFromDocument(doc, "")
	p.Name = name
	p.Version = doc.Version + 1
	return p, nil
}

func SessionFor(p *models.LearnerProfile) session.Session {
	return session.Session{
		UserID:      p.ID,
		DisplayName: p.Name,
		Email:       p.Email,
		Role:        p.Role,
	}
}
