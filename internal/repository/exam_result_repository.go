package repository

import (
	"context"
	"courtcert_backend/internal/model"
	"courtcert_backend/internal/util"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExamResultRepository struct {
	DB       *gorm.DB
	Attempts *AttemptRepository
}

func NewExamResultRepository(db *gorm.DB, attempts *AttemptRepository) *ExamResultRepository {
	return &ExamResultRepository{DB: db, Attempts: attempts}
}

// RecordAndClose 追加成绩并删除考试快照，两步在同一事务内提交。
// attempt_id 唯一，重复的完成请求不会产生第二条成绩，而是返回已有成绩，created 为 false
func (r *ExamResultRepository) RecordAndClose(ctx context.Context, result *model.ExamResult) (*model.ExamResult, bool, error) {
	stored := result
	created := true

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(result)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var existing model.ExamResult
			if err := tx.Where("attempt_id = ?", result.AttemptID).First(&existing).Error; err != nil {
				return err
			}
			stored = &existing
			created = false
		}
		return r.Attempts.DeleteTx(tx, result.AttemptID)
	})
	if err != nil {
		return nil, false, err
	}
	r.Attempts.Evict(ctx, result.AttemptID)
	return stored, created, nil
}

func (r *ExamResultRepository) FindByID(ctx context.Context, id uint) (*model.ExamResult, error) {
	var res model.ExamResult
	if err := r.DB.WithContext(ctx).First(&res, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrResultNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *ExamResultRepository) FindByAttemptID(ctx context.Context, attemptID string) (*model.ExamResult, error) {
	var res model.ExamResult
	if err := r.DB.WithContext(ctx).Where("attempt_id = ?", attemptID).First(&res).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrResultNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *ExamResultRepository) ListByOwner(ctx context.Context, userID, courseID uint) ([]model.ExamResult, error) {
	var results []model.ExamResult
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("completed_at desc, id desc").
		Find(&results).Error
	return results, err
}
