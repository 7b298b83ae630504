package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/soaringjerry/Pulse/internal/models"
)

const (
	wellbeingTypeID    uint = 1
	relationshipTypeID uint = 2
)

// stubStore is an in-memory implementation of every store interface in
// this package. Inserts made through RunInTx are only kept when fn succeeds.
type stubStore struct {
	users     map[string]*models.User
	profiles  map[string]*models.UserProfile
	types     []models.AssessmentType
	questions []models.AssessmentQuestion
	options   []models.ResponseOption
	levels    []models.SeverityLevel
	responses []models.AssessmentResponse

	insertErr error
	nextID    int
}

func newStubStore() *stubStore {
	s := &stubStore{users: map[string]*models.User{}, profiles: map[string]*models.UserProfile{}}
	s.types = []models.AssessmentType{
		{ID: wellbeingTypeID, Code: "WELLBEING", Title: "Wellbeing Check"},
		{ID: relationshipTypeID, Code: "RELATIONSHIP", Title: "Relationship Assessment Scale"},
	}
	for i := 1; i <= 10; i++ {
		s.questions = append(s.questions, models.AssessmentQuestion{ID: uint(i), AssessmentTypeID: wellbeingTypeID, QuestionOrder: i, QuestionText: fmt.Sprintf("W%d", i)})
	}
	for i := 1; i <= 7; i++ {
		s.questions = append(s.questions, models.AssessmentQuestion{ID: uint(100 + i), AssessmentTypeID: relationshipTypeID, QuestionOrder: i, QuestionText: fmt.Sprintf("R%d", i)})
	}
	for v := 1; v <= 5; v++ {
		s.options = append(s.options,
			models.ResponseOption{ID: uint(v), AssessmentTypeID: wellbeingTypeID, OptionOrder: v, OptionText: fmt.Sprintf("w%d", v), OptionValue: v},
			models.ResponseOption{ID: uint(10 + v), AssessmentTypeID: relationshipTypeID, OptionOrder: v, OptionText: fmt.Sprintf("r%d", v), OptionValue: v},
		)
	}
	s.levels = []models.SeverityLevel{
		{ID: 1, AssessmentTypeID: wellbeingTypeID, MinScore: 10, MaxScore: 17, SeverityLabel: "Low"},
		{ID: 2, AssessmentTypeID: wellbeingTypeID, MinScore: 18, MaxScore: 24, SeverityLabel: "Moderate"},
		{ID: 3, AssessmentTypeID: wellbeingTypeID, MinScore: 25, MaxScore: 35, SeverityLabel: "Severe"},
		{ID: 4, AssessmentTypeID: wellbeingTypeID, MinScore: 36, MaxScore: 50, SeverityLabel: "Extreme"},
		{ID: 5, AssessmentTypeID: relationshipTypeID, MinScore: 7, MaxScore: 16, SeverityLabel: "Low Satisfaction"},
		{ID: 6, AssessmentTypeID: relationshipTypeID, MinScore: 17, MaxScore: 26, SeverityLabel: "Moderate Satisfaction"},
		{ID: 7, AssessmentTypeID: relationshipTypeID, MinScore: 27, MaxScore: 35, SeverityLabel: "High Satisfaction"},
	}
	return s
}

// answersFor builds answers picking, per question in order, the option with the raw value.
func (s *stubStore) answersFor(typeID uint, raws []int) []Answer {
	qs, _ := s.ListQuestions(context.Background(), typeID)
	opts, _ := s.ListOptions(context.Background(), typeID)
	out := make([]Answer, 0, len(raws))
	for i, q := range qs {
		if i >= len(raws) {
			break
		}
		for _, o := range opts {
			if o.OptionValue == raws[i] {
				out = append(out, Answer{QuestionID: q.ID, OptionID: o.ID, RawValue: raws[i]})
			}
		}
	}
	return out
}

func (s *stubStore) addUser(email string, admin bool) *models.User {
	s.nextID++
	u := &models.User{ID: fmt.Sprintf("u%d", s.nextID), Email: email, IsAdmin: admin}
	s.users[u.ID] = u
	return u
}

func (s *stubStore) GetUser(_ context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *stubStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubStore) CreateUserWithProfile(_ context.Context, u *models.User, p *models.UserProfile) error {
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return models.ErrDuplicate
		}
	}
	s.nextID++
	u.ID = fmt.Sprintf("u%d", s.nextID)
	p.UserID = u.ID
	cp := *u
	s.users[u.ID] = &cp
	pc := *p
	s.profiles[u.ID] = &pc
	return nil
}

func (s *stubStore) TouchLastLogin(_ context.Context, userID string, at time.Time) error {
	if u, ok := s.users[userID]; ok {
		u.LastLogin = &at
	}
	return nil
}

func (s *stubStore) SetHideScores(_ context.Context, userID string, hide bool) error {
	u, ok := s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.HideScores = hide
	return nil
}

func (s *stubStore) GetProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	if p, ok := s.profiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (s *stubStore) UpdateProfile(_ context.Context, p *models.UserProfile) error {
	cp := *p
	s.profiles[p.UserID] = &cp
	return nil
}

func (s *stubStore) ListAssessmentTypes(context.Context) ([]models.AssessmentType, error) {
	return append([]models.AssessmentType(nil), s.types...), nil
}

func (s *stubStore) GetAssessmentType(_ context.Context, id uint) (*models.AssessmentType, error) {
	for _, at := range s.types {
		if at.ID == id {
			cp := at
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubStore) GetAssessmentTypeByCode(_ context.Context, code string) (*models.AssessmentType, error) {
	for _, at := range s.types {
		if strings.EqualFold(at.Code, code) {
			cp := at
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubStore) ListQuestions(_ context.Context, typeID uint) ([]models.AssessmentQuestion, error) {
	out := []models.AssessmentQuestion{}
	for _, q := range s.questions {
		if q.AssessmentTypeID == typeID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionOrder < out[j].QuestionOrder })
	return out, nil
}

func (s *stubStore) ListOptions(_ context.Context, typeID uint) ([]models.ResponseOption, error) {
	out := []models.ResponseOption{}
	for _, o := range s.options {
		if o.AssessmentTypeID == typeID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubStore) ListSeverityLevels(_ context.Context, typeID uint) ([]models.SeverityLevel, error) {
	out := []models.SeverityLevel{}
	for _, l := range s.levels {
		if l.AssessmentTypeID == typeID {
			out = append(out, l)
		}
	}
	return out, nil
}

type stubTx struct {
	*stubStore
	pending []models.AssessmentResponse
}

func (tx *stubTx) InsertResponse(_ context.Context, r *models.AssessmentResponse) error {
	if tx.insertErr != nil {
		return tx.insertErr
	}
	tx.pending = append(tx.pending, *r)
	return nil
}

func (s *stubStore) RunInTx(_ context.Context, fn func(tx ScoringTx) error) error {
	tx := &stubTx{stubStore: s}
	if err := fn(tx); err != nil {
		return err
	}
	s.responses = append(s.responses, tx.pending...)
	return nil
}

func (s *stubStore) ListResponseRows(_ context.Context, filter models.ResponseFilter) ([]models.ResponseRow, error) {
	question := func(id uint) models.AssessmentQuestion {
		for _, q := range s.questions {
			if q.ID == id {
				return q
			}
		}
		return models.AssessmentQuestion{}
	}
	rows := []models.ResponseRow{}
	for _, r := range s.responses {
		at, _ := s.GetAssessmentType(context.Background(), r.AssessmentTypeID)
		if at == nil {
			return nil, errors.New("dangling assessment type")
		}
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		if filter.ResponseID != "" && r.ID != filter.ResponseID {
			continue
		}
		if filter.AssessmentCode != "" && !strings.EqualFold(at.Code, filter.AssessmentCode) {
			continue
		}
		label := ""
		for _, l := range s.levels {
			if l.ID == r.SeverityID {
				label = l.SeverityLabel
			}
		}
		for _, d := range r.Details {
			q := question(d.QuestionID)
			answer := ""
			for _, o := range s.options {
				if o.ID == d.SelectedOptionID {
					answer = o.OptionText
				}
			}
			rows = append(rows, models.ResponseRow{
				ResponseID:      r.ID,
				UserID:          r.UserID,
				AssessmentCode:  at.Code,
				AssessmentTitle: at.Title,
				TotalScore:      r.TotalScore,
				SeverityLabel:   label,
				CreatedAt:       r.CreatedAt,
				QuestionOrder:   q.QuestionOrder,
				QuestionText:    q.QuestionText,
				OptionText:      answer,
				ResponseValue:   d.ResponseValue,
			})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if a.ResponseID != b.ResponseID {
			return a.ResponseID < b.ResponseID
		}
		return a.QuestionOrder < b.QuestionOrder
	})
	return rows, nil
}
