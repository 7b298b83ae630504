package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/soaringjerry/Pulse/internal/models"
)

type ProfileStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, p *models.UserProfile) error
	SetHideScores(ctx context.Context, userID string, hide bool) error
}

// ProfileRecord is the profile page: the login email plus profile fields.
type ProfileRecord struct {
	Email string `json:"email"`
	models.UserProfile
}

// ProfileUpdate carries the editable fields; all are required by the form.
type ProfileUpdate struct {
	FullName     string `json:"full_name"`
	Age          int    `json:"age"`
	Gender       string `json:"gender"`
	YearsService int    `json:"years_service"`
	Department   string `json:"department"`
	City         string `json:"city"`
}

type Settings struct {
	IsAdmin    bool `json:"is_admin"`
	HideScores bool `json:"hide_scores"`
}

var genders = []string{"Male", "Female", "Other"}

type ProfileService struct {
	store ProfileStore
	now   func() time.Time
}

func NewProfileService(store ProfileStore) *ProfileService {
	return &ProfileService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*ProfileRecord, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	p, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &models.UserProfile{UserID: userID}
	}
	return &ProfileRecord{Email: u.Email, UserProfile: *p}, nil
}

func (s *ProfileService) Update(ctx context.Context, userID string, in ProfileUpdate) (*ProfileRecord, error) {
	if in.Age < 18 || in.Age > 100 {
		return nil, NewInvalidError("age must be between 18 and 100")
	}
	if in.YearsService < 0 || in.YearsService > 50 {
		return nil, NewInvalidError("years of service must be between 0 and 50")
	}
	gender := ""
	for _, g := range genders {
		if strings.EqualFold(g, strings.TrimSpace(in.Gender)) {
			gender = g
		}
	}
	if gender == "" {
		return nil, NewInvalidError(fmt.Sprintf("gender must be one of %s", strings.Join(genders, ", ")))
	}
	age, years := in.Age, in.YearsService
	p := &models.UserProfile{
		UserID:       userID,
		FullName:     optionalString(in.FullName),
		Age:          &age,
		Gender:       &gender,
		YearsService: &years,
		Department:   optionalString(in.Department),
		City:         optionalString(in.City),
		UpdatedAt:    s.now(),
	}
	if err := s.store.UpdateProfile(ctx, p); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *ProfileService) Settings(ctx context.Context, userID string) (*Settings, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return &Settings{IsAdmin: u.IsAdmin, HideScores: u.HideScores}, nil
}

func (s *ProfileService) SetHideScores(ctx context.Context, userID string, hide bool) (*Settings, error) {
	if err := s.store.SetHideScores(ctx, userID, hide); err != nil {
		return nil, err
	}
	return s.Settings(ctx, userID)
}
