package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/councilflow/councilflow/types"
)

// reviewerRow is the GORM model for persisted reviewer weights.
type reviewerRow struct {
	ID                 string  `gorm:"primaryKey;size:128"`
	DisplayName        string  `gorm:"size:256"`
	Role               string  `gorm:"size:64;index"`
	BaseWeight         float64 `gorm:"not null"`
	PerformanceHistory float64 `gorm:"not null;default:0"`
	UpdatedAt          time.Time
}

func (reviewerRow) TableName() string { return "reviewer_weights" }

// decisionRow archives final decisions for later analysis.
type decisionRow struct {
	SessionID  string `gorm:"primaryKey;size:128"`
	ProposalID string `gorm:"size:128;index"`
	Payload    string `gorm:"type:text"`
	DecidedAt  time.Time
	CreatedAt  time.Time
}

func (decisionRow) TableName() string { return "decision_archive" }

// GormWeightRepo stores reviewer weights and a decision archive in a
// SQLite database via GORM. The zero value is not usable; construct
// with NewGormWeightRepo.
type GormWeightRepo struct {
	db *gorm.DB
}

// NewGormWeightRepo opens (or creates) the SQLite database at path and
// runs migrations. Use ":memory:" for an in-process database.
func NewGormWeightRepo(path string) (*GormWeightRepo, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.AutoMigrate(&reviewerRow{}, &decisionRow{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &GormWeightRepo{db: db}, nil
}

// LoadWeights returns the stored reviewer, or ErrNotFound.
func (r *GormWeightRepo) LoadWeights(ctx context.Context, reviewerID string) (*types.Reviewer, error) {
	if reviewerID == "" {
		return nil, ErrInvalidInput
	}

	var row reviewerRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", reviewerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rowToReviewer(&row), nil
}

// SaveWeights upserts a reviewer's stored state.
func (r *GormWeightRepo) SaveWeights(ctx context.Context, rev *types.Reviewer) error {
	if rev == nil || rev.ID == "" {
		return ErrInvalidInput
	}

	row := reviewerRow{
		ID:                 rev.ID,
		DisplayName:        rev.DisplayName,
		Role:               rev.Role,
		BaseWeight:         rev.BaseWeight,
		PerformanceHistory: rev.PerformanceHistory,
		UpdatedAt:          time.Now(),
	}
	return r.db.WithContext(ctx).Save(&row).Error
}

// LoadAll returns every stored reviewer.
func (r *GormWeightRepo) LoadAll(ctx context.Context) ([]types.Reviewer, error) {
	var rows []reviewerRow
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]types.Reviewer, 0, len(rows))
	for i := range rows {
		out = append(out, *rowToReviewer(&rows[i]))
	}
	return out, nil
}

// ArchiveDecision records a final decision in the archive table.
func (r *GormWeightRepo) ArchiveDecision(ctx context.Context, d *types.FinalDecision) error {
	if d == nil || d.SessionID == "" {
		return ErrInvalidInput
	}

	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}
	row := decisionRow{
		SessionID:  d.SessionID,
		ProposalID: d.ProposalID,
		Payload:    string(payload),
		DecidedAt:  d.DecidedAt,
	}
	return r.db.WithContext(ctx).Save(&row).Error
}

// ArchivedDecisions returns archived decisions for a proposal, newest
// first.
func (r *GormWeightRepo) ArchivedDecisions(ctx context.Context, proposalID string) ([]types.FinalDecision, error) {
	var rows []decisionRow
	err := r.db.WithContext(ctx).
		Where("proposal_id = ?", proposalID).
		Order("decided_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]types.FinalDecision, 0, len(rows))
	for i := range rows {
		var d types.FinalDecision
		if err := json.Unmarshal([]byte(rows[i].Payload), &d); err != nil {
			return nil, fmt.Errorf("unmarshal decision: %w", err)
		}
		out = append(out, d)
	}
	return out, nil
}

// Close closes the underlying database connection.
func (r *GormWeightRepo) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func rowToReviewer(row *reviewerRow) *types.Reviewer {
	return &types.Reviewer{
		ID:                 row.ID,
		DisplayName:        row.DisplayName,
		Role:               row.Role,
		BaseWeight:         row.BaseWeight,
		PerformanceHistory: row.PerformanceHistory,
	}
}
