package services

import (
	"context"
	"time"

	"github.com/soaringjerry/Pulse/internal/models"
)

// HistoryStore reads a user's responses joined with reference data.
type HistoryStore interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListResponseRows(ctx context.Context, filter models.ResponseFilter) ([]models.ResponseRow, error)
}

// RoleContext is the viewer's requested mode. Whether scores are shown also
// depends on the stored admin flag of the user.
type RoleContext struct {
	AdminView bool
}

type DetailView struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Value    int    `json:"value"`
}

// HistoryEntry is one past submission. Score and Severity stay nil outside
// admin view so they never reach the client.
type HistoryEntry struct {
	ResponseID      string       `json:"response_id"`
	AssessmentCode  string       `json:"assessment_code"`
	AssessmentTitle string       `json:"assessment_title"`
	CreatedAt       time.Time    `json:"created_at"`
	Score           *int         `json:"score,omitempty"`
	Severity        *string      `json:"severity,omitempty"`
	Details         []DetailView `json:"details"`
}

type RadarPoint struct {
	Category string `json:"category"`
	Score    int    `json:"score"`
}

type HistoryView struct {
	ShowScores bool           `json:"show_scores"`
	Entries    []HistoryEntry `json:"entries"`
	Radar      []RadarPoint   `json:"radar,omitempty"`
}

type HistoryService struct {
	store HistoryStore
}

func NewHistoryService(store HistoryStore) *HistoryService {
	return &HistoryService{store: store}
}

// History returns the user's submissions, newest first.
func (s *HistoryService) History(ctx context.Context, userID string, role RoleContext) (*HistoryView, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	rows, err := s.store.ListResponseRows(ctx, models.ResponseFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	show := role.AdminView && user.IsAdmin
	view := &HistoryView{ShowScores: show, Entries: buildEntries(rows, show)}
	if show {
		view.Radar = buildRadar(view.Entries, rows)
	}
	return view, nil
}

// Entry returns one of the user's responses for drill-down.
func (s *HistoryService) Entry(ctx context.Context, userID, responseID string, role RoleContext) (*HistoryEntry, error) {
	if responseID == "" {
		return nil, ErrResponseNotFound
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	rows, err := s.store.ListResponseRows(ctx, models.ResponseFilter{UserID: userID, ResponseID: responseID})
	if err != nil {
		return nil, err
	}
	entries := buildEntries(rows, role.AdminView && user.IsAdmin)
	if len(entries) == 0 {
		return nil, ErrResponseNotFound
	}
	return &entries[0], nil
}

// buildEntries groups flattened rows by response, keeping row order.
func buildEntries(rows []models.ResponseRow, show bool) []HistoryEntry {
	entries := []HistoryEntry{}
	index := map[string]int{}
	for _, r := range rows {
		i, ok := index[r.ResponseID]
		if !ok {
			e := HistoryEntry{
				ResponseID:      r.ResponseID,
				AssessmentCode:  r.AssessmentCode,
				AssessmentTitle: r.AssessmentTitle,
				CreatedAt:       r.CreatedAt,
				Details:         []DetailView{},
			}
			if show {
				score := r.TotalScore
				label := r.SeverityLabel
				e.Score = &score
				e.Severity = &label
			}
			entries = append(entries, e)
			i = len(entries) - 1
			index[r.ResponseID] = i
		}
		entries[i].Details = append(entries[i].Details, DetailView{
			Question: r.QuestionText,
			Answer:   r.OptionText,
			Value:    r.ResponseValue,
		})
	}
	return entries
}

// buildRadar keeps the first (most recent) total per assessment code.
func buildRadar(entries []HistoryEntry, rows []models.ResponseRow) []RadarPoint {
	totals := make(map[string]int, len(entries))
	for _, r := range rows {
		totals[r.ResponseID] = r.TotalScore
	}
	seen := map[string]struct{}{}
	out := []RadarPoint{}
	for _, e := range entries {
		if _, ok := seen[e.AssessmentCode]; ok {
			continue
		}
		seen[e.AssessmentCode] = struct{}{}
		out = append(out, RadarPoint{Category: e.AssessmentCode, Score: totals[e.ResponseID]})
	}
	return out
}
