package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/soaringjerry/Pulse/internal/models"
)

type ExportStore interface {
	ListResponseRows(ctx context.Context, filter models.ResponseFilter) ([]models.ResponseRow, error)
}

// ExportLongCSV renders one row per answered question.
func ExportLongCSV(rows []models.ResponseRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"response_id", "user_id", "assessment_code", "question_order", "answer", "response_value", "total_score", "severity", "created_at"})
	for _, r := range rows {
		rec := []string{
			r.ResponseID,
			r.UserID,
			r.AssessmentCode,
			strconv.Itoa(r.QuestionOrder),
			r.OptionText,
			strconv.Itoa(r.ResponseValue),
			strconv.Itoa(r.TotalScore),
			r.SeverityLabel,
			r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportScoreCSV renders one row per response with its total and severity.
func ExportScoreCSV(rows []models.ResponseRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"response_id", "user_id", "assessment_code", "total_score", "severity", "created_at"})
	seen := map[string]struct{}{}
	for _, r := range rows {
		if _, ok := seen[r.ResponseID]; ok {
			continue
		}
		seen[r.ResponseID] = struct{}{}
		rec := []string{
			r.ResponseID,
			r.UserID,
			r.AssessmentCode,
			strconv.Itoa(r.TotalScore),
			r.SeverityLabel,
			r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

type ExportService struct {
	store ExportStore
}

func NewExportService(store ExportStore) *ExportService {
	return &ExportService{store: store}
}

// Export renders all responses, optionally for one assessment code, in
// "long" (default) or "score" format.
func (s *ExportService) Export(ctx context.Context, code, format string) ([]byte, error) {
	rows, err := s.store.ListResponseRows(ctx, models.ResponseFilter{AssessmentCode: code})
	if err != nil {
		return nil, err
	}
	switch format {
	case "", "long":
		return ExportLongCSV(rows)
	case "score":
		return ExportScoreCSV(rows)
	default:
		return nil, NewInvalidError("unsupported format")
	}
}
