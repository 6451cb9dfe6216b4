package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// swagger:model
// BaseModel 学员、成绩、证书等长期记录，删除走软删除
type BaseModel struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// swagger:model
// SnapshotBase 临时快照使用 UUID 主键，不带软删除列，
// 删除即物理删除，唯一索引不会被残留行占用
type SnapshotBase struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *SnapshotBase) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = GenerateUUID()
	}
	return nil
}

func GenerateUUID() string {
	return uuid.New().String()
}
