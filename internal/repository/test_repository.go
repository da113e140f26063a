package repository

import (
	"context"

	"github.com/lshigami/Assessa/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TestWithCount is a test header plus the number of questions it holds.
type TestWithCount struct {
	model.Test
	QuestionCount int
}

type TestRepository interface {
	WithTx(tx *gorm.DB) TestRepository
	Create(ctx context.Context, test *model.Test) error
	FindByID(ctx context.Context, id uint) (*model.Test, error)
	FindByIDWithQuestions(ctx context.Context, id uint) (*model.Test, error)
	// FindByIDUnscoped also returns soft-deleted tests, for attempt history.
	FindByIDUnscoped(ctx context.Context, id uint) (*model.Test, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Test, error)
	ListByCreator(ctx context.Context, hrID uint) ([]TestWithCount, error)
	ListPublished(ctx context.Context) ([]TestWithCount, error)
	ListPublishedOr(ctx context.Context, extraIDs []uint) ([]TestWithCount, error)
	IDsByCreator(ctx context.Context, hrID uint) ([]uint, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
}

type testRepository struct {
	db *gorm.DB
}

func NewTestRepository(db *gorm.DB) TestRepository {
	return &testRepository{db: db}
}

func (r *testRepository) WithTx(tx *gorm.DB) TestRepository {
	return &testRepository{db: tx}
}

// Create inserts the test with its questions and options in one statement chain.
func (r *testRepository) Create(ctx context.Context, test *model.Test) error {
	return r.db.WithContext(ctx).Create(test).Error
}

func (r *testRepository) FindByID(ctx context.Context, id uint) (*model.Test, error) {
	var test model.Test
	if err := r.db.WithContext(ctx).First(&test, id).Error; err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *testRepository) FindByIDWithQuestions(ctx context.Context, id uint) (*model.Test, error) {
	var test model.Test
	err := preloadQuestions(r.db.WithContext(ctx)).First(&test, id).Error
	if err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *testRepository) FindByIDUnscoped(ctx context.Context, id uint) (*model.Test, error) {
	var test model.Test
	err := preloadQuestions(r.db.WithContext(ctx).Unscoped()).First(&test, id).Error
	if err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *testRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Test, error) {
	var tests []model.Test
	if len(ids) == 0 {
		return tests, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tests).Error
	return tests, err
}

func (r *testRepository) ListByCreator(ctx context.Context, hrID uint) ([]TestWithCount, error) {
	return r.listWithCount(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("tests.created_by = ?", hrID)
	})
}

func (r *testRepository) ListPublished(ctx context.Context) ([]TestWithCount, error) {
	return r.listWithCount(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("tests.published = ?", true)
	})
}

// ListPublishedOr returns published tests plus the listed ids even when unpublished.
func (r *testRepository) ListPublishedOr(ctx context.Context, extraIDs []uint) ([]TestWithCount, error) {
	if len(extraIDs) == 0 {
		return r.ListPublished(ctx)
	}
	return r.listWithCount(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("tests.published = ? OR tests.id IN ?", true, extraIDs)
	})
}

func (r *testRepository) listWithCount(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]TestWithCount, error) {
	var results []TestWithCount
	err := r.db.WithContext(ctx).Model(&model.Test{}).
		Select("tests.*, (SELECT COUNT(*) FROM questions WHERE questions.test_id = tests.id) AS question_count").
		Scopes(scope).
		Order("tests.created_at DESC").
		Order("tests.id DESC").
		Scan(&results).Error
	return results, err
}

func (r *testRepository) IDsByCreator(ctx context.Context, hrID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.Test{}).Where("created_by = ?", hrID).Pluck("id", &ids).Error
	return ids, err
}

func (r *testRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.Test{}).Where("id = ?", id).Omit(clause.Associations).Updates(fields).Error
}

// Delete soft-deletes the test; assignments and attempts keep referencing it.
func (r *testRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Test{}, id).Error
}

func preloadQuestions(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.position ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("options.position ASC")
		})
}
