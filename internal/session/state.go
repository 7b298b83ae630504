// Package session holds per-login navigation state: who is signed in,
// whether an admin is looking at the admin view, the active section and the
// response opened for drill-down. State is passed explicitly; nothing here
// is process-global.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Section string

const (
	SectionDashboard   Section = "Dashboard"
	SectionAssessments Section = "Assessments"
	SectionProfile     Section = "Profile"
)

var sections = []Section{SectionDashboard, SectionAssessments, SectionProfile}

var (
	// ErrUnauthenticated is returned when no live session exists.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrUnknownSection is returned by SelectSection for names outside Sections().
	ErrUnknownSection = errors.New("unknown section")
)

// Sections lists the navigable sections in menu order.
func Sections() []Section {
	return append([]Section(nil), sections...)
}

// ParseSection matches name case-insensitively against the known sections.
func ParseSection(name string) (Section, error) {
	for _, s := range sections {
		if strings.EqualFold(string(s), strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSection, name)
}

// State is the Authenticated state. The Unauthenticated state has no
// value: a missing State is unauthenticated.
type State struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	IsAdmin          bool      `json:"is_admin"`
	AdminView        bool      `json:"admin_view"`
	Section          Section   `json:"section"`
	SelectedResponse string    `json:"selected_response,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Start enters the Authenticated state after login or registration.
// Admins start in admin view; everyone else is pinned to the normal view.
func Start(id, userID string, isAdmin bool, now time.Time) *State {
	return &State{
		ID:        id,
		UserID:    userID,
		IsAdmin:   isAdmin,
		AdminView: isAdmin,
		Section:   SectionDashboard,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ShowScores reports whether score and severity may be shown.
func (s *State) ShowScores() bool {
	return s != nil && s.IsAdmin && s.AdminView
}

// ToggleAdminView sets the admin-view flag and reports whether the view
// changed and needs a refresh. It is a no-op for non-admins.
func (s *State) ToggleAdminView(on bool) bool {
	if !s.IsAdmin || s.AdminView == on {
		return false
	}
	s.AdminView = on
	return true
}

// SyncAdmin applies the stored admin flag to a live session and reports
// whether it differed. A revoked admin drops out of admin view at once; a
// newly granted admin keeps the normal view until they toggle it.
func (s *State) SyncAdmin(isAdmin bool) bool {
	if s.IsAdmin == isAdmin {
		return false
	}
	s.IsAdmin = isAdmin
	if !isAdmin {
		s.AdminView = false
	}
	return true
}

// SelectSection replaces the active section. The selected response is kept.
func (s *State) SelectSection(name string) error {
	sec, err := ParseSection(name)
	if err != nil {
		return err
	}
	s.Section = sec
	return nil
}

// OpenResponse selects a response for drill-down. It survives section
// changes until CloseResponse or logout.
func (s *State) OpenResponse(responseID string) {
	s.SelectedResponse = responseID
}

func (s *State) CloseResponse() {
	s.SelectedResponse = ""
}

// AssessmentSubmitted lands the user on the dashboard after a successful save.
func (s *State) AssessmentSubmitted() {
	s.Section = SectionDashboard
}
