package repository

import (
	"context"
	"time"

	"github.com/lshigami/Assessa/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssignmentRepository interface {
	WithTx(tx *gorm.DB) AssignmentRepository
	Create(ctx context.Context, assignment *model.Assignment) error
	FindByID(ctx context.Context, id uint) (*model.Assignment, error)
	FindByToken(ctx context.Context, token string) (*model.Assignment, error)
	FindForCandidate(ctx context.Context, testID, candidateID uint, email string) (*model.Assignment, error)
	ExistingEmails(ctx context.Context, testID uint, emails []string) ([]string, error)
	ListByTest(ctx context.Context, testID uint) ([]model.Assignment, error)
	ListByTests(ctx context.Context, testIDs []uint) ([]model.Assignment, error)
	TestIDsForCandidate(ctx context.Context, candidateID uint, email string) ([]uint, error)
	LinkCandidate(ctx context.Context, id, candidateID uint) error
	LinkCandidateByEmail(ctx context.Context, email string, candidateID uint) (int64, error)
	MarkInvitationSent(ctx context.Context, id uint) error
	// Transition moves the assignment to status `to` only while it is in one of
	// `from`. It reports whether a row changed.
	Transition(ctx context.Context, id uint, from []model.AssignmentStatus, to model.AssignmentStatus, at time.Time) (bool, error)
	MarkCompleted(ctx context.Context, testID, candidateID uint, email string, at time.Time) (int64, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) WithTx(tx *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: tx}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *model.Assignment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(assignment).Error
}

func (r *assignmentRepository) FindByID(ctx context.Context, id uint) (*model.Assignment, error) {
	var a model.Assignment
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepository) FindByToken(ctx context.Context, token string) (*model.Assignment, error) {
	var a model.Assignment
	if err := r.db.WithContext(ctx).Where("access_token = ?", token).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// FindForCandidate matches on the linked candidate id or, for invitations not
// yet linked, on the email the invitation was sent to.
func (r *assignmentRepository) FindForCandidate(ctx context.Context, testID, candidateID uint, email string) (*model.Assignment, error) {
	var a model.Assignment
	err := r.db.WithContext(ctx).
		Where("test_id = ?", testID).
		Where("candidate_id = ? OR candidate_email = ?", candidateID, email).
		Order("id ASC").
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepository) ExistingEmails(ctx context.Context, testID uint, emails []string) ([]string, error) {
	var existing []string
	if len(emails) == 0 {
		return existing, nil
	}
	err := r.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("test_id = ? AND candidate_email IN ?", testID, emails).
		Pluck("candidate_email", &existing).Error
	return existing, err
}

func (r *assignmentRepository) ListByTest(ctx context.Context, testID uint) ([]model.Assignment, error) {
	var list []model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Candidate").
		Where("test_id = ?", testID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *assignmentRepository) ListByTests(ctx context.Context, testIDs []uint) ([]model.Assignment, error) {
	var list []model.Assignment
	if len(testIDs) == 0 {
		return list, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Candidate").
		Preload("Test").
		Where("test_id IN ?", testIDs).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *assignmentRepository) TestIDsForCandidate(ctx context.Context, candidateID uint, email string) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("candidate_id = ? OR candidate_email = ?", candidateID, email).
		Pluck("test_id", &ids).Error
	return ids, err
}

func (r *assignmentRepository) LinkCandidate(ctx context.Context, id, candidateID uint) error {
	return r.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("id = ? AND candidate_id IS NULL", id).
		Update("candidate_id", candidateID).Error
}

func (r *assignmentRepository) LinkCandidateByEmail(ctx context.Context, email string, candidateID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("candidate_email = ? AND candidate_id IS NULL", email).
		Update("candidate_id", candidateID)
	return res.RowsAffected, res.Error
}

func (r *assignmentRepository) MarkInvitationSent(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("id = ?", id).
		Update("invitation_sent", true).Error
}

func (r *assignmentRepository) Transition(ctx context.Context, id uint, from []model.AssignmentStatus, to model.AssignmentStatus, at time.Time) (bool, error) {
	fields := map[string]interface{}{"status": to}
	switch to {
	case model.AssignmentActive:
		fields["started_at"] = at
	case model.AssignmentCompleted:
		fields["completed_at"] = at
	}
	res := r.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(fields)
	return res.RowsAffected > 0, res.Error
}

// MarkCompleted completes any unfinished assignment the candidate holds for the
// test. Zero rows affected is not an error.
func (r *assignmentRepository) MarkCompleted(ctx context.Context, testID, candidateID uint, email string, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("test_id = ?", testID).
		Where("candidate_id = ? OR candidate_email = ?", candidateID, email).
		Where("status IN ?", []model.AssignmentStatus{model.AssignmentPending, model.AssignmentActive}).
		Updates(map[string]interface{}{
			"status":       model.AssignmentCompleted,
			"completed_at": at,
			"candidate_id": candidateID,
		})
	return res.RowsAffected, res.Error
}
