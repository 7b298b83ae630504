package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/soaringjerry/Pulse/internal/config"
	"github.com/soaringjerry/Pulse/internal/logger"
	"github.com/soaringjerry/Pulse/internal/models"
	"github.com/soaringjerry/Pulse/internal/services"
)

// Store is the relational persistence layer. A Store returned by
// Transaction is bound to that transaction.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open connects with the configured driver. SQLite is pinned to a single
// connection so in-memory databases and pragmas behave.
func Open(cfg config.DatabaseConfig, log *logger.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if cfg.Driver != "postgres" {
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		for _, stmt := range []string{"PRAGMA foreign_keys = ON", "PRAGMA journal_mode = WAL"} {
			if err := gdb.Exec(stmt).Error; err != nil {
				return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
			}
		}
	}
	return New(gdb, log), nil
}

func New(gdb *gorm.DB, log *logger.Logger) *Store {
	return &Store{db: gdb, log: log.With("component", "Store")}
}

// DB exposes the underlying handle for tests and maintenance commands.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.AssessmentType{},
		&models.AssessmentQuestion{},
		&models.ResponseOption{},
		&models.SeverityLevel{},
		&models.AssessmentResponse{},
		&models.ResponseDetail{},
	)
}

// Transaction runs fn in one database transaction; an error rolls back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, log: s.log})
	})
}

// RunInTx implements services.ScoringStore.
func (s *Store) RunInTx(ctx context.Context, fn func(tx services.ScoringTx) error) error {
	return s.Transaction(ctx, func(tx *Store) error { return fn(tx) })
}

func notFoundAsNil(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// --- users ---

func (s *Store) CreateUserWithProfile(ctx context.Context, u *models.User, p *models.UserProfile) error {
	err := s.Transaction(ctx, func(tx *Store) error {
		if err := tx.db.Omit("Profile").Create(u).Error; err != nil {
			return err
		}
		p.UserID = u.ID
		return tx.db.Create(p).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", models.ErrDuplicate, u.Email)
	}
	if err != nil {
		s.log.Error("create user failed", "error", err)
	}
	return err
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&u).Error
	if err != nil {
		return nil, notFoundAsNil(err)
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &u, nil
}

func (s *Store) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("last_login", at).Error
}

func (s *Store) SetHideScores(ctx context.Context, userID string, hide bool) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("hide_scores", hide)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return services.ErrUserNotFound
	}
	return nil
}

// SetAdmin grants or revokes the admin flag by email.
func (s *Store) SetAdmin(ctx context.Context, email string, admin bool) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Update("is_admin", admin)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return services.ErrUserNotFound
	}
	return nil
}

// --- profiles ---

func (s *Store) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var p models.UserProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &p, nil
}

// UpdateProfile overwrites every editable field, creating the row if missing.
func (s *Store) UpdateProfile(ctx context.Context, p *models.UserProfile) error {
	res := s.db.WithContext(ctx).Model(&models.UserProfile{}).Where("user_id = ?", p.UserID).Updates(map[string]any{
		"full_name":     p.FullName,
		"age":           p.Age,
		"gender":        p.Gender,
		"years_service": p.YearsService,
		"department":    p.Department,
		"city":          p.City,
		"updated_at":    p.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(p).Error
}

// --- reference data ---

func (s *Store) ListAssessmentTypes(ctx context.Context) ([]models.AssessmentType, error) {
	var out []models.AssessmentType
	err := s.db.WithContext(ctx).Order("id").Find(&out).Error
	return out, err
}

func (s *Store) GetAssessmentType(ctx context.Context, id uint) (*models.AssessmentType, error) {
	var at models.AssessmentType
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&at).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &at, nil
}

func (s *Store) GetAssessmentTypeByCode(ctx context.Context, code string) (*models.AssessmentType, error) {
	var at models.AssessmentType
	if err := s.db.WithContext(ctx).Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).First(&at).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &at, nil
}

func (s *Store) ListQuestions(ctx context.Context, typeID uint) ([]models.AssessmentQuestion, error) {
	var out []models.AssessmentQuestion
	err := s.db.WithContext(ctx).Where("assessment_type_id = ?", typeID).Order("question_order, id").Find(&out).Error
	return out, err
}

func (s *Store) ListOptions(ctx context.Context, typeID uint) ([]models.ResponseOption, error) {
	var out []models.ResponseOption
	err := s.db.WithContext(ctx).Where("assessment_type_id = ?", typeID).Order("option_order, id").Find(&out).Error
	return out, err
}

func (s *Store) ListSeverityLevels(ctx context.Context, typeID uint) ([]models.SeverityLevel, error) {
	var out []models.SeverityLevel
	err := s.db.WithContext(ctx).Where("assessment_type_id = ?", typeID).Order("min_score, id").Find(&out).Error
	return out, err
}

func (s *Store) CountAssessmentTypes(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.AssessmentType{}).Count(&n).Error
	return n, err
}

// --- responses ---

// InsertResponse writes the header row, then the detail rows. Callers run
// it inside Transaction so a failed detail insert leaves nothing behind.
func (s *Store) InsertResponse(ctx context.Context, r *models.AssessmentResponse) error {
	details := r.Details
	if err := s.db.WithContext(ctx).Omit("Details").Create(r).Error; err != nil {
		return err
	}
	if len(details) == 0 {
		return nil
	}
	for i := range details {
		details[i].ResponseID = r.ID
	}
	return s.db.WithContext(ctx).Create(&details).Error
}

// ListResponseRows returns one row per answered question, newest response
// first and questions in display order.
func (s *Store) ListResponseRows(ctx context.Context, filter models.ResponseFilter) ([]models.ResponseRow, error) {
	q := s.db.WithContext(ctx).Table("assessment_responses AS ar").
		Select(`ar.id AS response_id, ar.user_id AS user_id, aty.code AS assessment_code,
			aty.title AS assessment_title, ar.total_score AS total_score, sl.severity_label AS severity_label,
			ar.created_at AS created_at, aq.question_order AS question_order, aq.question_text AS question_text,
			ro.option_text AS option_text, rd.response_value AS response_value`).
		Joins("JOIN assessment_types aty ON ar.assessment_type_id = aty.id").
		Joins("JOIN severity_levels sl ON ar.severity_id = sl.id").
		Joins("JOIN response_details rd ON rd.response_id = ar.id").
		Joins("JOIN assessment_questions aq ON rd.question_id = aq.id").
		Joins("JOIN response_options ro ON rd.selected_option_id = ro.id")
	if filter.UserID != "" {
		q = q.Where("ar.user_id = ?", filter.UserID)
	}
	if filter.ResponseID != "" {
		q = q.Where("ar.id = ?", filter.ResponseID)
	}
	if filter.AssessmentCode != "" {
		q = q.Where("aty.code = ?", strings.ToUpper(filter.AssessmentCode))
	}
	var rows []models.ResponseRow
	if err := q.Order("ar.created_at DESC").Order("ar.id").Order("aq.question_order").Scan(&rows).Error; err != nil {
		s.log.Error("list response rows failed", "error", err)
		return nil, err
	}
	return rows, nil
}

var (
	_ services.ScoringStore   = (*Store)(nil)
	_ services.ScoringTx      = (*Store)(nil)
	_ services.AuthStore      = (*Store)(nil)
	_ services.ProfileStore   = (*Store)(nil)
	_ services.HistoryStore   = (*Store)(nil)
	_ services.CatalogStore   = (*Store)(nil)
	_ services.AnalyticsStore = (*Store)(nil)
	_ services.ExportStore    = (*Store)(nil)
)
