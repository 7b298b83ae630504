package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/soaringjerry/Pulse/internal/models"
)

// ReverseScore maps a raw Likert value to its reverse-scored value
// given the number of points in the scale (e.g., 5 or 7).
// raw is expected to be within [1, points]. Out-of-range values are clamped.
func ReverseScore(raw, points int) int {
	if points < 2 {
		return raw
	}
	if raw < 1 {
		raw = 1
	}
	if raw > points {
		raw = points
	}
	return (points + 1) - raw
}

// ReverseRule names the 1-based question positions of one assessment that
// are reverse scored on a 1..ScaleMax scale.
type ReverseRule struct {
	Positions []int
	ScaleMax  int
}

func (r ReverseRule) reverses(position int) bool {
	for _, p := range r.Positions {
		if p == position {
			return true
		}
	}
	return false
}

// ReversePolicy maps assessment codes to their reverse-scoring rule.
// Codes absent from the policy are scored with raw values.
type ReversePolicy map[string]ReverseRule

// DefaultReversePolicy reverses items 4 and 7 of the Relationship Assessment Scale.
func DefaultReversePolicy() ReversePolicy {
	return ReversePolicy{
		"RELATIONSHIP": {Positions: []int{4, 7}, ScaleMax: 5},
	}
}

// Rule returns the rule for code, if any.
func (p ReversePolicy) Rule(code string) (ReverseRule, bool) {
	r, ok := p[strings.ToUpper(code)]
	return r, ok
}

// Adjust returns the stored value for a raw answer at the given position.
func (p ReversePolicy) Adjust(code string, position, raw int) int {
	rule, ok := p.Rule(code)
	if !ok || !rule.reverses(position) {
		return raw
	}
	return ReverseScore(raw, rule.ScaleMax)
}

// CatalogReader is the read-only reference data needed to validate a policy.
type CatalogReader interface {
	GetAssessmentTypeByCode(ctx context.Context, code string) (*models.AssessmentType, error)
	ListQuestions(ctx context.Context, typeID uint) ([]models.AssessmentQuestion, error)
	ListOptions(ctx context.Context, typeID uint) ([]models.ResponseOption, error)
}

// Validate checks every rule against the stored question set: the code must
// exist, each position must be an existing question ordinal, and ScaleMax
// must equal the largest option value of that assessment.
func (p ReversePolicy) Validate(ctx context.Context, catalog CatalogReader) error {
	codes := make([]string, 0, len(p))
	for code := range p {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		rule := p[code]
		if rule.ScaleMax < 2 {
			return fmt.Errorf("reverse rule %s: scale max %d must be at least 2", code, rule.ScaleMax)
		}
		at, err := catalog.GetAssessmentTypeByCode(ctx, code)
		if err != nil {
			return fmt.Errorf("reverse rule %s: %w", code, err)
		}
		if at == nil {
			return fmt.Errorf("reverse rule %s: unknown assessment code", code)
		}
		questions, err := catalog.ListQuestions(ctx, at.ID)
		if err != nil {
			return fmt.Errorf("reverse rule %s: %w", code, err)
		}
		orders := make(map[int]struct{}, len(questions))
		for _, q := range questions {
			orders[q.QuestionOrder] = struct{}{}
		}
		for _, pos := range rule.Positions {
			if _, ok := orders[pos]; !ok {
				return fmt.Errorf("reverse rule %s: no question at position %d", code, pos)
			}
		}
		options, err := catalog.ListOptions(ctx, at.ID)
		if err != nil {
			return fmt.Errorf("reverse rule %s: %w", code, err)
		}
		maxValue := 0
		for i, o := range options {
			if i == 0 || o.OptionValue > maxValue {
				maxValue = o.OptionValue
			}
		}
		if maxValue != rule.ScaleMax {
			return fmt.Errorf("reverse rule %s: scale max %d does not match largest option value %d", code, rule.ScaleMax, maxValue)
		}
	}
	return nil
}

// Classify returns the single severity level whose inclusive range contains
// total. Gaps and overlaps are configuration defects and fail loudly.
func Classify(levels []models.SeverityLevel, total int) (*models.SeverityLevel, error) {
	var match *models.SeverityLevel
	for i := range levels {
		lv := &levels[i]
		if total < lv.MinScore || total > lv.MaxScore {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("%w: score %d in %q and %q", ErrAmbiguousClassification, total, match.SeverityLabel, lv.SeverityLabel)
		}
		match = lv
	}
	if match == nil {
		return nil, fmt.Errorf("%w: score %d", ErrClassificationNotFound, total)
	}
	return match, nil
}
