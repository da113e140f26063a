package repository

import (
	"context"

	"github.com/lshigami/Assessa/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptRepository interface {
	WithTx(tx *gorm.DB) AttemptRepository
	Create(ctx context.Context, attempt *model.Attempt) error
	FindByID(ctx context.Context, id uint) (*model.Attempt, error)
	FindByCandidateAndTest(ctx context.Context, candidateID, testID uint) (*model.Attempt, error)
	ListByCandidate(ctx context.Context, candidateID uint) ([]model.Attempt, error)
	ListByTest(ctx context.Context, testID uint) ([]model.Attempt, error)
	ListByTests(ctx context.Context, testIDs []uint) ([]model.Attempt, error)
	TestIDsByCandidate(ctx context.Context, candidateID uint) ([]uint, error)
	ExistsForTest(ctx context.Context, testID uint) (bool, error)
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) WithTx(tx *gorm.DB) AttemptRepository {
	return &attemptRepository{db: tx}
}

// Create fails with a duplicate-key error when the candidate already has an
// attempt for the test.
func (r *attemptRepository) Create(ctx context.Context, attempt *model.Attempt) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(attempt).Error
}

func (r *attemptRepository) FindByID(ctx context.Context, id uint) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.db.WithContext(ctx).
		Preload("Test", unscoped).
		First(&attempt, id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindByCandidateAndTest(ctx context.Context, candidateID, testID uint) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.db.WithContext(ctx).
		Where("candidate_id = ? AND test_id = ?", candidateID, testID).
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) ListByCandidate(ctx context.Context, candidateID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.db.WithContext(ctx).
		Preload("Test", unscoped).
		Where("candidate_id = ?", candidateID).
		Order("submitted_at DESC").
		Order("id DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) ListByTest(ctx context.Context, testID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.db.WithContext(ctx).
		Preload("Candidate").
		Where("test_id = ?", testID).
		Order("submitted_at DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) ListByTests(ctx context.Context, testIDs []uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	if len(testIDs) == 0 {
		return attempts, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Candidate").
		Preload("Test").
		Where("test_id IN ?", testIDs).
		Order("submitted_at DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) TestIDsByCandidate(ctx context.Context, candidateID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.Attempt{}).
		Where("candidate_id = ?", candidateID).
		Pluck("test_id", &ids).Error
	return ids, err
}

func (r *attemptRepository) ExistsForTest(ctx context.Context, testID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Attempt{}).Where("test_id = ?", testID).Count(&count).Error
	return count > 0, err
}

func unscoped(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}
