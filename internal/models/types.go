package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicate is returned by stores when a unique key is violated.
var ErrDuplicate = errors.New("duplicate key")

// User is an account. PassHash never leaves the server.
type User struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	Email      string     `gorm:"uniqueIndex;not null;size:255" json:"email"`
	PassHash   []byte     `gorm:"not null" json:"-"`
	IsAdmin    bool       `gorm:"not null;default:false" json:"is_admin"`
	HideScores bool       `gorm:"not null;default:false" json:"hide_scores"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`

	Profile *UserProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// UserProfile is 1:1 with User. Unset fields stay NULL.
type UserProfile struct {
	UserID       string    `gorm:"primaryKey;size:36" json:"user_id"`
	FullName     *string   `gorm:"size:255" json:"full_name"`
	Age          *int      `json:"age"`
	Gender       *string   `gorm:"size:32" json:"gender"`
	YearsService *int      `json:"years_service"`
	Department   *string   `gorm:"size:255" json:"department"`
	City         *string   `gorm:"size:255" json:"city"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AssessmentType is a named questionnaire, e.g. PHQ9 or RELATIONSHIP.
type AssessmentType struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Code  string `gorm:"uniqueIndex;not null;size:64" json:"code"`
	Title string `gorm:"not null;size:255" json:"title"`
}

type AssessmentQuestion struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	AssessmentTypeID uint   `gorm:"index;not null" json:"assessment_type_id"`
	QuestionOrder    int    `gorm:"not null" json:"question_order"`
	QuestionText     string `gorm:"not null" json:"question_text"`
}

// ResponseOption belongs to an assessment type and is shared by all of its questions.
type ResponseOption struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	AssessmentTypeID uint   `gorm:"index;not null" json:"assessment_type_id"`
	OptionOrder      int    `gorm:"not null" json:"option_order"`
	OptionText       string `gorm:"not null" json:"option_text"`
	OptionValue      int    `gorm:"not null" json:"option_value"`
}

// SeverityLevel maps the inclusive range [MinScore, MaxScore] to a label.
type SeverityLevel struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	AssessmentTypeID uint   `gorm:"index;not null" json:"assessment_type_id"`
	MinScore         int    `gorm:"not null" json:"min_score"`
	MaxScore         int    `gorm:"not null" json:"max_score"`
	SeverityLabel    string `gorm:"not null;size:64" json:"severity_label"`
}

// AssessmentResponse is one submitted questionnaire. Rows are never updated.
type AssessmentResponse struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	UserID           string    `gorm:"index;not null;size:36" json:"user_id"`
	AssessmentTypeID uint      `gorm:"index;not null" json:"assessment_type_id"`
	TotalScore       int       `gorm:"not null" json:"total_score"`
	SeverityID       uint      `gorm:"not null" json:"severity_id"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`

	Details []ResponseDetail `gorm:"foreignKey:ResponseID;constraint:OnDelete:CASCADE" json:"details,omitempty"`
}

func (r *AssessmentResponse) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ResponseDetail stores the scored value, which for reverse-scored
// questions differs from the selected option's raw value.
type ResponseDetail struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	ResponseID       string `gorm:"index;not null;size:36" json:"response_id"`
	QuestionID       uint   `gorm:"not null" json:"question_id"`
	SelectedOptionID uint   `gorm:"not null" json:"selected_option_id"`
	ResponseValue    int    `gorm:"not null" json:"response_value"`
}

// ResponseRow is one flattened history row: a response joined with its
// type, severity, and a single detail with question and option text.
type ResponseRow struct {
	ResponseID      string
	UserID          string
	AssessmentCode  string
	AssessmentTitle string
	TotalScore      int
	SeverityLabel   string
	CreatedAt       time.Time
	QuestionOrder   int
	QuestionText    string
	OptionText      string
	ResponseValue   int
}

// ResponseFilter narrows ListResponseRows; empty fields match everything.
type ResponseFilter struct {
	UserID         string
	ResponseID     string
	AssessmentCode string
}
