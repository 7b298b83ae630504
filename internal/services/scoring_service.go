package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soaringjerry/Pulse/internal/logger"
	"github.com/soaringjerry/Pulse/internal/models"
)

// ScoringTx is the transactional view of the store used while scoring and
// saving one submission. Every call runs inside the same transaction.
type ScoringTx interface {
	GetAssessmentType(ctx context.Context, id uint) (*models.AssessmentType, error)
	ListQuestions(ctx context.Context, typeID uint) ([]models.AssessmentQuestion, error)
	ListOptions(ctx context.Context, typeID uint) ([]models.ResponseOption, error)
	ListSeverityLevels(ctx context.Context, typeID uint) ([]models.SeverityLevel, error)
	InsertResponse(ctx context.Context, r *models.AssessmentResponse) error
}

// ScoringStore opens a transaction; a non-nil error from fn rolls it back.
type ScoringStore interface {
	RunInTx(ctx context.Context, fn func(tx ScoringTx) error) error
}

// Answer is one raw answer as sent by the presentation layer.
type Answer struct {
	QuestionID uint `json:"question_id"`
	OptionID   uint `json:"option_id"`
	RawValue   int  `json:"raw_value"`
}

type Submission struct {
	UserID           string
	AssessmentTypeID uint
	Answers          []Answer
}

// ScoredAnswer is an answer after reverse scoring.
type ScoredAnswer struct {
	QuestionID    uint `json:"question_id"`
	OptionID      uint `json:"option_id"`
	Position      int  `json:"position"`
	RawValue      int  `json:"raw_value"`
	ResponseValue int  `json:"response_value"`
}

type SubmissionResult struct {
	ResponseID     string         `json:"response_id"`
	AssessmentCode string         `json:"assessment_code"`
	TotalScore     int            `json:"total_score"`
	SeverityLabel  string         `json:"severity_label"`
	CreatedAt      time.Time      `json:"created_at"`
	Answers        []ScoredAnswer `json:"answers"`
}

// ScoringService scores a submission and saves it atomically.
type ScoringService struct {
	store  ScoringStore
	policy ReversePolicy
	log    *logger.Logger
	now    func() time.Time
	idGen  func() string
}

func NewScoringService(store ScoringStore, policy ReversePolicy, log *logger.Logger) *ScoringService {
	if policy == nil {
		policy = DefaultReversePolicy()
	}
	return &ScoringService{
		store:  store,
		policy: policy,
		log:    log.With("service", "ScoringService"),
		now:    func() time.Time { return time.Now().UTC() },
		idGen:  uuid.NewString,
	}
}

// Submit validates, scores, classifies and persists one submission. Nothing
// is written unless every step succeeds.
func (s *ScoringService) Submit(ctx context.Context, sub Submission) (*SubmissionResult, error) {
	if s.store == nil {
		return nil, errors.New("scoring service store is nil")
	}
	if sub.UserID == "" {
		return nil, NewUnauthorizedError("user required")
	}
	var result *SubmissionResult
	err := s.store.RunInTx(ctx, func(tx ScoringTx) error {
		at, err := tx.GetAssessmentType(ctx, sub.AssessmentTypeID)
		if err != nil {
			return fmt.Errorf("%w: load assessment type: %w", ErrPersistence, err)
		}
		if at == nil {
			return ErrAssessmentNotFound
		}
		questions, err := tx.ListQuestions(ctx, at.ID)
		if err != nil {
			return fmt.Errorf("%w: load questions: %w", ErrPersistence, err)
		}
		options, err := tx.ListOptions(ctx, at.ID)
		if err != nil {
			return fmt.Errorf("%w: load options: %w", ErrPersistence, err)
		}
		scored, err := s.scoreAnswers(at.Code, questions, options, sub.Answers)
		if err != nil {
			return err
		}
		total := 0
		for _, a := range scored {
			total += a.ResponseValue
		}
		levels, err := tx.ListSeverityLevels(ctx, at.ID)
		if err != nil {
			return fmt.Errorf("%w: load severity levels: %w", ErrPersistence, err)
		}
		level, err := Classify(levels, total)
		if err != nil {
			return fmt.Errorf("%s: %w", at.Code, err)
		}

		resp := &models.AssessmentResponse{
			ID:               s.idGen(),
			UserID:           sub.UserID,
			AssessmentTypeID: at.ID,
			TotalScore:       total,
			SeverityID:       level.ID,
			CreatedAt:        s.now(),
			Details:          make([]models.ResponseDetail, 0, len(scored)),
		}
		for _, a := range scored {
			resp.Details = append(resp.Details, models.ResponseDetail{
				ResponseID:       resp.ID,
				QuestionID:       a.QuestionID,
				SelectedOptionID: a.OptionID,
				ResponseValue:    a.ResponseValue,
			})
		}
		if err := tx.InsertResponse(ctx, resp); err != nil {
			return fmt.Errorf("%w: insert response: %w", ErrPersistence, err)
		}
		result = &SubmissionResult{
			ResponseID:     resp.ID,
			AssessmentCode: at.Code,
			TotalScore:     total,
			SeverityLabel:  level.SeverityLabel,
			CreatedAt:      resp.CreatedAt,
			Answers:        scored,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrClassificationNotFound) || errors.Is(err, ErrAmbiguousClassification) || errors.Is(err, ErrPersistence) {
			s.log.Error("assessment submission failed", "user_id", sub.UserID, "assessment_type_id", sub.AssessmentTypeID, "error", err)
		}
		return nil, err
	}
	s.log.Info("assessment submitted", "user_id", sub.UserID, "response_id", result.ResponseID, "code", result.AssessmentCode, "total", result.TotalScore)
	return result, nil
}

// scoreAnswers checks that answers cover every question exactly once with
// options of the same assessment, then applies the reverse policy.
// Output follows question order.
func (s *ScoringService) scoreAnswers(code string, questions []models.AssessmentQuestion, options []models.ResponseOption, answers []Answer) ([]ScoredAnswer, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("%s: assessment has no questions: %w", code, ErrAssessmentNotFound)
	}
	optionByID := make(map[uint]models.ResponseOption, len(options))
	for _, o := range options {
		optionByID[o.ID] = o
	}
	byQuestion := make(map[uint]Answer, len(answers))
	for _, a := range answers {
		if _, dup := byQuestion[a.QuestionID]; dup {
			return nil, ErrIncompleteSubmission
		}
		byQuestion[a.QuestionID] = a
	}
	if len(byQuestion) != len(questions) {
		return nil, ErrIncompleteSubmission
	}

	out := make([]ScoredAnswer, 0, len(questions))
	for _, q := range questions {
		a, ok := byQuestion[q.ID]
		if !ok {
			return nil, ErrIncompleteSubmission
		}
		opt, ok := optionByID[a.OptionID]
		if !ok {
			return nil, NewInvalidError(fmt.Sprintf("option %d does not belong to this assessment", a.OptionID))
		}
		if opt.OptionValue != a.RawValue {
			return nil, NewInvalidError(fmt.Sprintf("raw value %d does not match option %d", a.RawValue, a.OptionID))
		}
		out = append(out, ScoredAnswer{
			QuestionID:    q.ID,
			OptionID:      a.OptionID,
			Position:      q.QuestionOrder,
			RawValue:      a.RawValue,
			ResponseValue: s.policy.Adjust(code, q.QuestionOrder, a.RawValue),
		})
	}
	return out, nil
}
