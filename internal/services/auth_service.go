package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/soaringjerry/Pulse/internal/logger"
	"github.com/soaringjerry/Pulse/internal/models"
)

type AuthStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	// CreateUserWithProfile inserts both rows in one transaction and
	// returns models.ErrDuplicate when the email is taken.
	CreateUserWithProfile(ctx context.Context, u *models.User, p *models.UserProfile) error
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
}

type AuthService struct {
	store AuthStore
	log   *logger.Logger
	now   func() time.Time
	cost  int
}

// Registration is the signup form: credentials plus the initial profile fields.
type Registration struct {
	Email      string
	Password   string
	Department string
	City       string
}

func NewAuthService(store AuthStore, log *logger.Logger) *AuthService {
	return &AuthService{
		store: store,
		log:   log.With("service", "AuthService"),
		now:   func() time.Time { return time.Now().UTC() },
		cost:  bcrypt.DefaultCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a regular (non-admin) user and their profile.
func (s *AuthService) Register(ctx context.Context, reg Registration) (*models.User, error) {
	email := normalizeEmail(reg.Email)
	if email == "" || strings.TrimSpace(reg.Password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, NewInvalidError("invalid email")
	}
	existing, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateIdentity
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user := &models.User{Email: email, PassHash: hash, CreatedAt: now}
	profile := &models.UserProfile{
		Department: optionalString(reg.Department),
		City:       optionalString(reg.City),
		UpdatedAt:  now,
	}
	if err := s.store.CreateUserWithProfile(ctx, user, profile); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, ErrDuplicateIdentity
		}
		return nil, err
	}
	s.log.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and records the login time.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	u, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.PassHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	now := s.now()
	if err := s.store.TouchLastLogin(ctx, u.ID, now); err != nil {
		return nil, err
	}
	u.LastLogin = &now
	s.log.Info("user logged in", "user_id", u.ID, "admin", u.IsAdmin)
	return u, nil
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
