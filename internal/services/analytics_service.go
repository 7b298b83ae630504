package services

import (
	"context"
	"sort"

	"github.com/soaringjerry/Pulse/internal/models"
)

type AnalyticsStore interface {
	GetAssessmentTypeByCode(ctx context.Context, code string) (*models.AssessmentType, error)
	ListQuestions(ctx context.Context, typeID uint) ([]models.AssessmentQuestion, error)
	ListSeverityLevels(ctx context.Context, typeID uint) ([]models.SeverityLevel, error)
	ListResponseRows(ctx context.Context, filter models.ResponseFilter) ([]models.ResponseRow, error)
}

type AnalyticsService struct {
	store AnalyticsStore
}

type AnalyticsItem struct {
	Position int     `json:"position"`
	Text     string  `json:"text"`
	Mean     float64 `json:"mean"`
	Total    int     `json:"total"`
}

type SeverityCount struct {
	Label    string `json:"label"`
	MinScore int    `json:"min_score"`
	MaxScore int    `json:"max_score"`
	Count    int    `json:"count"`
}

type AnalyticsTimeseries struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// AnalyticsSummary aggregates every user's responses to one assessment.
type AnalyticsSummary struct {
	Code           string                `json:"code"`
	Title          string                `json:"title"`
	TotalResponses int                   `json:"total_responses"`
	MeanScore      float64               `json:"mean_score"`
	Severity       []SeverityCount       `json:"severity"`
	Items          []AnalyticsItem       `json:"items"`
	Timeseries     []AnalyticsTimeseries `json:"timeseries"`
	Alpha          float64               `json:"alpha"`
	N              int                   `json:"n"`
}

func NewAnalyticsService(store AnalyticsStore) *AnalyticsService {
	return &AnalyticsService{store: store}
}

// Summary is admin-only; callers check the role before calling.
func (s *AnalyticsService) Summary(ctx context.Context, code string) (*AnalyticsSummary, error) {
	at, err := s.store.GetAssessmentTypeByCode(ctx, code)
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
	levels, err := s.store.ListSeverityLevels(ctx, at.ID)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListResponseRows(ctx, models.ResponseFilter{AssessmentCode: at.Code})
	if err != nil {
		return nil, err
	}

	responses := groupScores(rows)
	summary := &AnalyticsSummary{
		Code:           at.Code,
		Title:          at.Title,
		TotalResponses: len(responses),
		Severity:       buildSeverityCounts(levels, responses),
		Items:          buildAnalyticsItems(questions, rows),
		Timeseries:     buildTimeseries(responses),
	}
	if len(responses) > 0 {
		sum := 0
		for _, r := range responses {
			sum += r.total
		}
		summary.MeanScore = float64(sum) / float64(len(responses))
	}
	matrix, n := buildAlphaMatrix(questions, responses)
	summary.Alpha = CronbachAlpha(matrix)
	summary.N = n
	return summary, nil
}

type scoredResponse struct {
	id       string
	total    int
	severity string
	day      string
	values   map[int]float64 // by question position
}

func groupScores(rows []models.ResponseRow) []*scoredResponse {
	out := []*scoredResponse{}
	index := map[string]*scoredResponse{}
	for _, r := range rows {
		sr, ok := index[r.ResponseID]
		if !ok {
			sr = &scoredResponse{
				id:       r.ResponseID,
				total:    r.TotalScore,
				severity: r.SeverityLabel,
				day:      r.CreatedAt.UTC().Format("2006-01-02"),
				values:   map[int]float64{},
			}
			index[r.ResponseID] = sr
			out = append(out, sr)
		}
		sr.values[r.QuestionOrder] = float64(r.ResponseValue)
	}
	return out
}

func buildSeverityCounts(levels []models.SeverityLevel, responses []*scoredResponse) []SeverityCount {
	counts := map[string]int{}
	for _, r := range responses {
		counts[r.severity]++
	}
	out := make([]SeverityCount, 0, len(levels))
	for _, lv := range levels {
		out = append(out, SeverityCount{Label: lv.SeverityLabel, MinScore: lv.MinScore, MaxScore: lv.MaxScore, Count: counts[lv.SeverityLabel]})
	}
	return out
}

func buildAnalyticsItems(questions []models.AssessmentQuestion, rows []models.ResponseRow) []AnalyticsItem {
	sums := map[int]int{}
	counts := map[int]int{}
	for _, r := range rows {
		sums[r.QuestionOrder] += r.ResponseValue
		counts[r.QuestionOrder]++
	}
	out := make([]AnalyticsItem, 0, len(questions))
	for _, q := range questions {
		item := AnalyticsItem{Position: q.QuestionOrder, Text: q.QuestionText, Total: counts[q.QuestionOrder]}
		if item.Total > 0 {
			item.Mean = float64(sums[q.QuestionOrder]) / float64(item.Total)
		}
		out = append(out, item)
	}
	return out
}

// buildAlphaMatrix keeps only responses that answered every question.
func buildAlphaMatrix(questions []models.AssessmentQuestion, responses []*scoredResponse) ([][]float64, int) {
	positions := make([]int, 0, len(questions))
	for _, q := range questions {
		positions = append(positions, q.QuestionOrder)
	}
	sort.Ints(positions)
	matrix := make([][]float64, 0, len(responses))
	for _, r := range responses {
		row := make([]float64, 0, len(positions))
		complete := true
		for _, p := range positions {
			v, ok := r.values[p]
			if !ok {
				complete = false
				break
			}
			row = append(row, v)
		}
		if complete {
			matrix = append(matrix, row)
		}
	}
	return matrix, len(matrix)
}

func buildTimeseries(responses []*scoredResponse) []AnalyticsTimeseries {
	counts := map[string]int{}
	for _, r := range responses {
		counts[r.day]++
	}
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)
	out := make([]AnalyticsTimeseries, 0, len(days))
	for _, d := range days {
		out = append(out, AnalyticsTimeseries{Date: d, Count: counts[d]})
	}
	return out
}
