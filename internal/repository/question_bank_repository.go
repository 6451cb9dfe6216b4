package repository

import (
	"context"
	"courtcert_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionBankRepository struct {
	DB *gorm.DB
}

func NewQuestionBankRepository(db *gorm.DB) *QuestionBankRepository {
	return &QuestionBankRepository{DB: db}
}

func (r *QuestionBankRepository) Create(ctx context.Context, entries []model.QuestionBankEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Create(&entries).Error
}

// ListVersions 返回课程题库的所有版本标签
func (r *QuestionBankRepository) ListVersions(ctx context.Context, courseID uint) ([]string, error) {
	var versions []string
	err := r.DB.WithContext(ctx).Model(&model.QuestionBankEntry{}).
		Where("course_id = ?", courseID).
		Distinct("version").
		Order("version asc").
		Pluck("version", &versions).Error
	return versions, err
}

func (r *QuestionBankRepository) ListByVersion(ctx context.Context, courseID uint, version string) ([]model.QuestionBankEntry, error) {
	var entries []model.QuestionBankEntry
	err := r.DB.WithContext(ctx).
		Where("course_id = ? AND version = ?", courseID, version).
		Order("id asc").
		Find(&entries).Error
	return entries, err
}
