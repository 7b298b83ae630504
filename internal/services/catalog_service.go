package services

import (
	"context"
	"fmt"

	"github.com/soaringjerry/Pulse/internal/models"
)

type CatalogStore interface {
	CatalogReader
	ListAssessmentTypes(ctx context.Context) ([]models.AssessmentType, error)
	GetAssessmentType(ctx context.Context, id uint) (*models.AssessmentType, error)
}

type OptionView struct {
	ID    uint   `json:"option_id"`
	Text  string `json:"text"`
	Value int    `json:"value"`
	Order int    `json:"order"`
}

type QuestionView struct {
	ID      uint         `json:"question_id"`
	Order   int          `json:"question_order"`
	Text    string       `json:"question_text"`
	Options []OptionView `json:"options"`
}

type Questionnaire struct {
	AssessmentTypeID uint           `json:"assessment_type_id"`
	Code             string         `json:"code"`
	Title            string         `json:"title"`
	Questions        []QuestionView `json:"questions"`
}

// CatalogService serves the static questionnaire definitions.
type CatalogService struct {
	store CatalogStore
}

func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

func (s *CatalogService) ListAssessments(ctx context.Context) ([]models.AssessmentType, error) {
	return s.store.ListAssessmentTypes(ctx)
}

// Questionnaire returns the questions of one assessment in display order,
// each carrying the assessment's shared option set.
func (s *CatalogService) Questionnaire(ctx context.Context, typeID uint) (*Questionnaire, error) {
	at, err := s.store.GetAssessmentType(ctx, typeID)
	if err != nil {
		return nil, err
	}
	if at == nil {
		return nil, ErrAssessmentNotFound
	}
	questions, err := s.store.ListQuestions(ctx, at.ID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrAssessmentNotFound
	}
	options, err := s.store.ListOptions(ctx, at.ID)
	if err != nil {
		return nil, err
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("assessment %s has no response options", at.Code)
	}
	opts := make([]OptionView, 0, len(options))
	for _, o := range options {
		opts = append(opts, OptionView{ID: o.ID, Text: o.OptionText, Value: o.OptionValue, Order: o.OptionOrder})
	}
	out := &Questionnaire{AssessmentTypeID: at.ID, Code: at.Code, Title: at.Title, Questions: make([]QuestionView, 0, len(questions))}
	for _, q := range questions {
		out.Questions = append(out.Questions, QuestionView{ID: q.ID, Order: q.QuestionOrder, Text: q.QuestionText, Options: opts})
	}
	return out, nil
}
