package repository

import (
	"context"
	"courtcert_backend/internal/model"
	"courtcert_backend/internal/util"
	"errors"

	"gorm.io/gorm"
)

// LearnerRepository 读取资料服务维护的学员资料与报名记录
type LearnerRepository struct {
	DB *gorm.DB
}

func NewLearnerRepository(db *gorm.DB) *LearnerRepository {
	return &LearnerRepository{DB: db}
}

func (r *LearnerRepository) FindByID(ctx context.Context, id uint) (*model.Learner, error) {
	var l model.Learner
	if err := r.DB.WithContext(ctx).First(&l, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLearnerNotFound
		}
		return nil, err
	}
	return &l, nil
}

// IsEligible 已购买课程且完成全部课时才能参加期末考试
func (r *LearnerRepository) IsEligible(ctx context.Context, userID, courseID uint) (bool, error) {
	var e model.Enrollment
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return e.Paid && e.LessonsCompleted, nil
}
