package repository

import (
	"context"
	"courtcert_backend/internal/matching"
	"courtcert_backend/internal/model"
	"courtcert_backend/internal/util"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// AttorneyRepository 律师名录只读查询
type AttorneyRepository struct {
	DB *gorm.DB
}

func NewAttorneyRepository(db *gorm.DB) *AttorneyRepository {
	return &AttorneyRepository{DB: db}
}

func (r *AttorneyRepository) FindByID(ctx context.Context, id uint) (*model.AttorneyRecord, error) {
	var a model.AttorneyRecord
	if err := r.DB.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttorneyNotFound
		}
		return nil, err
	}
	return &a, nil
}

// FindByEmail 忽略大小写的邮箱精确匹配，可能返回多条
func (r *AttorneyRepository) FindByEmail(ctx context.Context, email string) ([]model.AttorneyRecord, error) {
	var list []model.AttorneyRecord
	err := r.DB.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Order("id asc").
		Find(&list).Error
	return list, err
}

// FindByEmailPrefix 邮箱前缀匹配，limit 用于判断是否唯一
func (r *AttorneyRepository) FindByEmailPrefix(ctx context.Context, prefix string, limit int) ([]model.AttorneyRecord, error) {
	var list []model.AttorneyRecord
	err := r.DB.WithContext(ctx).
		Where("LOWER(email) LIKE ? ESCAPE '!'", escapeLike(strings.ToLower(strings.TrimSpace(prefix)))+"%").
		Order("id asc").
		Limit(limit).
		Find(&list).Error
	return list, err
}

// FindSurnameCandidates 按归一化姓氏预筛选，实际相似度在服务层计算
func (r *AttorneyRepository) FindSurnameCandidates(ctx context.Context, f matching.CandidateFilter) ([]model.AttorneyRecord, error) {
	var list []model.AttorneyRecord
	if f.MaxLen == 0 {
		return list, nil
	}

	cond := r.DB.Where("surname_len BETWEEN ? AND ?", f.MinLen, f.MaxLen)
	if f.Contains != "" {
		cond = cond.Or("surname_key LIKE ? ESCAPE '!'", "%"+escapeLike(f.Contains)+"%")
	}
	if len(f.Within) > 0 {
		cond = cond.Or("surname_key IN ?", f.Within)
	}
	err := r.DB.WithContext(ctx).
		Where(cond).
		Order("id asc").
		Find(&list).Error
	return list, err
}

func (r *AttorneyRepository) Create(ctx context.Context, records []model.AttorneyRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Create(&records).Error
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
