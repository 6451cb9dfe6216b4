package repository

import (
	"context"
	"courtcert_backend/internal/model"
	"courtcert_backend/internal/util"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CertificateRepository struct {
	DB *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) *CertificateRepository {
	return &CertificateRepository{DB: db}
}

// InsertIfAbsent 依赖唯一索引原子地插入证书。
// 任一唯一约束冲突（同一学员课程已有证书，或编号/验证码撞车）都不报错，只返回 inserted=false，由调用方区分
func (r *CertificateRepository) InsertIfAbsent(ctx context.Context, cert *model.Certificate) (bool, error) {
	cert.Live = model.LiveFlag()
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(cert)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindLive 查询 (学员, 课程) 的有效证书
func (r *CertificateRepository) FindLive(ctx context.Context, userID, courseID uint) (*model.Certificate, error) {
	var c model.Certificate
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND course_id = ? AND live = ?", userID, courseID, true).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCertificateNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CertificateRepository) FindByID(ctx context.Context, id uint) (*model.Certificate, error) {
	var c model.Certificate
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCertificateNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CertificateRepository) FindByVerificationCode(ctx context.Context, code string) (*model.Certificate, error) {
	var c model.Certificate
	if err := r.DB.WithContext(ctx).Where("verification_code = ?", code).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCertificateNotFound
		}
		return nil, err
	}
	return &c, nil
}

// UpdateParticipantName 管理员更正姓名，这是证书唯一允许的修改
func (r *CertificateRepository) UpdateParticipantName(ctx context.Context, id uint, name string) error {
	res := r.DB.WithContext(ctx).Model(&model.Certificate{}).
		Where("id = ?", id).
		Update("participant_name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrCertificateNotFound
	}
	return nil
}

// Revoke 软删除证书并清空 live，之后可以为同一学员课程重新签发
func (r *CertificateRepository) Revoke(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Model(&model.Certificate{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"live":       nil,
			"deleted_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrCertificateNotFound
	}
	return nil
}

func (r *CertificateRepository) MarkNotified(ctx context.Context, id uint, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&model.Certificate{}).
		Where("id = ? AND notified_at IS NULL", id).
		Update("notified_at", at).Error
}

// ListPendingNotification 已签发但签发事件尚未成功发布的证书
func (r *CertificateRepository) ListPendingNotification(ctx context.Context, limit int) ([]model.Certificate, error) {
	var certs []model.Certificate
	err := r.DB.WithContext(ctx).
		Where("notified_at IS NULL AND live = ?", true).
		Order("id asc").
		Limit(limit).
		Find(&certs).Error
	return certs, err
}

// BindRecipient 设置证书副本的律师接收人，重复绑定时覆盖
func (r *CertificateRepository) BindRecipient(ctx context.Context, recipient *model.CertificateRecipient) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "certificate_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"attorney_id", "bound_at", "updated_at"}),
	}).Create(recipient).Error
}

func (r *CertificateRepository) FindRecipient(ctx context.Context, certificateID uint) (*model.CertificateRecipient, error) {
	var rec model.CertificateRecipient
	if err := r.DB.WithContext(ctx).Where("certificate_id = ?", certificateID).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}
