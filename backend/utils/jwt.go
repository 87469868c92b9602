package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"learnhub/backend/apperr"
	"learnhub/backend/config"
	"learnhub/backend/models"
	"learnhub/backend/session"
)

type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func GenerateJWTToken(s session.Session, cfg *config.Config) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: s.UserID,
		Name:   s.DisplayName,
		Email:  s.Email,
		Role:   string(s.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.JWTTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseJWTToken verifies an HS256 token and returns the session it names.
func ParseJWTToken(tokenString string, cfg *config.Config) (session.Session, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return session.Session{}, fmt.Errorf("invalid token: %w", apperr.ErrUnauthorized)
	}
	if claims.UserID == "" {
		return session.Session{}, fmt.Errorf("token without user id: %w", apperr.ErrUnauthorized)
	}
	role, ok := models.ParseRole(claims.Role)
	if !ok {
		role = models.RoleLearner
	}
	return session.Session{
		UserID:      claims.UserID,
		DisplayName: claims.Name,
		Email:       claims.Email,
		Role:        role,
	}, nil
}

// ExtractSessionFromToken reads the Authorization header, with or without
// the Bearer prefix.
func ExtractSessionFromToken(c *fiber.Ctx, cfg *config.Config) (session.Session, error) {
	tokenString := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if tokenString == "" {
		return session.Session{}, fmt.Errorf("missing authorization token: %w", apperr.ErrUnauthorized)
	}
	if len(tokenString) > 7 && strings.EqualFold(tokenString[:7], "bearer ") {
		tokenString = strings.TrimSpace(tokenString[7:])
	}
	return ParseJWTToken(tokenString, cfg)
}
