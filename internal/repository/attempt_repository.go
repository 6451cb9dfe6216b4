package repository

import (
	"context"
	"courtcert_backend/internal/model"
	"courtcert_backend/internal/util"
	"courtcert_backend/pkg/logger"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const attemptCacheTTL = 24 * time.Hour

// AttemptRepository 考试快照以数据库为准，Redis 只做按 ID 读取的缓存。
// 缓存只在写库提交成功后写入，读库不回填；删除在事务提交后才清缓存，
// 并发读不会把已删除的快照重新写回缓存
type AttemptRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewAttemptRepository(db *gorm.DB, rdb *redis.Client) *AttemptRepository {
	return &AttemptRepository{DB: db, Redis: rdb}
}

func attemptKey(id string) string {
	return fmt.Sprintf("exam:attempt:%s", id)
}

// Create 插入新的快照；同一 (学员, 课程) 已存在快照时返回已存在的那条，created 为 false
func (r *AttemptRepository) Create(ctx context.Context, attempt *model.ExamAttempt) (*model.ExamAttempt, bool, error) {
	res := r.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(attempt)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := r.FindByOwner(ctx, attempt.UserID, attempt.CourseID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	r.cache(ctx, attempt)
	return attempt, true, nil
}

// Replace 丢弃该学员该课程的旧快照并写入新快照，两步在同一事务内完成
func (r *AttemptRepository) Replace(ctx context.Context, attempt *model.ExamAttempt) error {
	var oldIDs []string
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.ExamAttempt{}).
			Where("user_id = ? AND course_id = ?", attempt.UserID, attempt.CourseID).
			Pluck("id", &oldIDs).Error; err != nil {
			return err
		}
		if err := tx.
			Where("user_id = ? AND course_id = ?", attempt.UserID, attempt.CourseID).
			Delete(&model.ExamAttempt{}).Error; err != nil {
			return err
		}
		return tx.Create(attempt).Error
	})
	if err != nil {
		return err
	}
	for _, id := range oldIDs {
		r.evict(ctx, id)
	}
	r.cache(ctx, attempt)
	return nil
}

func (r *AttemptRepository) FindByID(ctx context.Context, id string) (*model.ExamAttempt, error) {
	if a := r.cached(ctx, id); a != nil {
		return a, nil
	}

	var a model.ExamAttempt
	if err := r.DB.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AttemptRepository) FindByOwner(ctx context.Context, userID, courseID uint) (*model.ExamAttempt, error) {
	var a model.ExamAttempt
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	return &a, nil
}

// SaveAnswer 条件更新：只有当前题号仍为 expectedIndex 时才写入，保证快照要么完整更新要么不变
func (r *AttemptRepository) SaveAnswer(ctx context.Context, attempt *model.ExamAttempt, expectedIndex int) error {
	res := r.DB.WithContext(ctx).Model(&model.ExamAttempt{}).
		Where("id = ? AND current_index = ?", attempt.ID, expectedIndex).
		Updates(map[string]interface{}{
			"current_index": attempt.CurrentIndex,
			"correct_count": attempt.CorrectCount,
			"answers":       attempt.Answers,
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		r.evict(ctx, attempt.ID)
		return res.Error
	}
	if res.RowsAffected == 0 {
		r.evict(ctx, attempt.ID)
		return fmt.Errorf("%w: question %d was already answered", util.ErrInvalidSubmission, expectedIndex)
	}
	r.cache(ctx, attempt)
	return nil
}

// DeleteTx 在调用方事务内物理删除快照，提交成功后调用方须再调用 Evict
func (r *AttemptRepository) DeleteTx(tx *gorm.DB, id string) error {
	return tx.Delete(&model.ExamAttempt{}, "id = ?", id).Error
}

// Evict 清除缓存中的快照
func (r *AttemptRepository) Evict(ctx context.Context, id string) {
	r.evict(ctx, id)
}

func (r *AttemptRepository) cache(ctx context.Context, a *model.ExamAttempt) {
	if r.Redis == nil {
		return
	}
	data, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := r.Redis.Set(ctx, attemptKey(a.ID), data, attemptCacheTTL).Err(); err != nil {
		logger.Log.Warn("failed to cache exam attempt", zap.String("attemptId", a.ID), zap.Error(err))
		r.evict(ctx, a.ID)
	}
}

func (r *AttemptRepository) cached(ctx context.Context, id string) *model.ExamAttempt {
	if r.Redis == nil {
		return nil
	}
	data, err := r.Redis.Get(ctx, attemptKey(id)).Bytes()
	if err != nil {
		return nil
	}
	var a model.ExamAttempt
	if err := json.Unmarshal(data, &a); err != nil {
		r.evict(ctx, id)
		return nil
	}
	return &a
}

func (r *AttemptRepository) evict(ctx context.Context, id string) {
	if r.Redis == nil {
		return
	}
	r.Redis.Del(ctx, attemptKey(id))
}
