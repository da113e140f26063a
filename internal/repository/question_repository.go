package repository

import (
	"context"

	"github.com/lshigami/Assessa/internal/model"
	"gorm.io/gorm"
)

type QuestionRepository interface {
	WithTx(tx *gorm.DB) QuestionRepository
	FindByTestID(ctx context.Context, testID uint) ([]model.Question, error)
	// ReplaceForTest drops the test's questions and options and inserts the given set.
	ReplaceForTest(ctx context.Context, testID uint, questions []model.Question) error
}

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) WithTx(tx *gorm.DB) QuestionRepository {
	return &questionRepository{db: tx}
}

func (r *questionRepository) FindByTestID(ctx context.Context, testID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("options.position ASC")
		}).
		Where("test_id = ?", testID).
		Order("position ASC").
		Find(&questions).Error
	return questions, err
}

func (r *questionRepository) ReplaceForTest(ctx context.Context, testID uint, questions []model.Question) error {
	db := r.db.WithContext(ctx)
	sub := db.Model(&model.Question{}).Select("id").Where("test_id = ?", testID)
	if err := db.Where("question_id IN (?)", sub).Delete(&model.Option{}).Error; err != nil {
		return err
	}
	if err := db.Where("test_id = ?", testID).Delete(&model.Question{}).Error; err != nil {
		return err
	}
	if len(questions) == 0 {
		return nil
	}
	for i := range questions {
		questions[i].TestID = testID
	}
	return db.Create(&questions).Error
}
