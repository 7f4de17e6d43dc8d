package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sanu276140-eng/examsk24/internal/config"
	"github.com/sanu276140-eng/examsk24/internal/model"
	"github.com/sanu276140-eng/examsk24/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// Identity gateway errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
)

// Collection holding credential records: {email, display_name, password_hash}.
const identitiesCollection = "identities"

// TokenTypeAdmin marks tokens issued to the admin surface.
const TokenTypeAdmin = "admin"

// Claims extends JWT registered claims with the identity snapshot embedded at
// login time.
type Claims struct {
	jwt.RegisteredClaims
	TokenType   string `json:"token_type"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// Identity rebuilds the identity carried by the claims.
func (c *Claims) Identity() model.Identity {
	return model.Identity{
		ID:          c.Subject,
		Email:       c.Email,
		DisplayName: c.DisplayName,
	}
}

// Service authenticates credentials against the identities collection and
// issues JWTs for the HTTP surface.
type Service struct {
	st  store.Store
	cfg *config.Config
}

// NewService creates an identity Service.
func NewService(st store.Store, cfg *config.Config) *Service {
	return &Service{st: st, cfg: cfg}
}

// Authenticate verifies email/password and returns the matching identity.
// Any failure — unknown email, store error, wrong password — reports
// ErrInvalidCredentials so callers cannot distinguish which part failed.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.Identity, error) {
	docs, err := s.st.Collection(identitiesCollection).
		Where("email", store.OpEq, email).
		Limit(1).
		Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("lookup identity: %w", err)
	}
	if len(docs) == 0 {
		// Burn a hash comparison so response timing does not reveal whether
		// the email exists.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000"), []byte(password))
		return nil, ErrInvalidCredentials
	}

	doc := docs[0]
	hash := store.Str(doc.Fields, "password_hash")
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &model.Identity{
		ID:          doc.ID,
		Email:       store.Str(doc.Fields, "email"),
		DisplayName: store.Str(doc.Fields, "display_name"),
	}, nil
}

// CreateIdentity registers a new credential record and returns the identity.
// Part of the admin-creation flow; never called by end users.
func (s *Service) CreateIdentity(ctx context.Context, email, password, displayName string) (*model.Identity, error) {
	existing, err := s.st.Collection(identitiesCollection).
		Where("email", store.OpEq, email).
		Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.st.Collection(identitiesCollection).Add(ctx, map[string]any{
		"email":         email,
		"display_name":  displayName,
		"password_hash": string(hash),
	})
	if err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}

	return &model.Identity{ID: id, Email: email, DisplayName: displayName}, nil
}

// GenerateToken creates a signed admin JWT for the identity.
func (s *Service) GenerateToken(identity *model.Identity) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		TokenType:   TokenTypeAdmin,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *Service) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
