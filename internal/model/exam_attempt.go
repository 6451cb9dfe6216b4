package model

import (
	"time"

	"gorm.io/datatypes"
)

// swagger:model ExamAttempt
// ExamAttempt 进行中的考试快照，每个 (学员, 课程) 最多一条，完成或重新开始时物理删除
type ExamAttempt struct {
	SnapshotBase

	UserID        uint                          `gorm:"uniqueIndex:uniq_attempt_owner;not null" json:"userId"`
	CourseID      uint                          `gorm:"uniqueIndex:uniq_attempt_owner;not null" json:"courseId"`
	DeviceSession string                        `gorm:"size:64" json:"deviceSession"`
	Paper         datatypes.JSONType[ExamPaper] `json:"paper"`
	CurrentIndex  int                           `gorm:"not null;default:0" json:"currentIndex"`
	CorrectCount  int                           `gorm:"not null;default:0" json:"correctCount"`
	Answers       datatypes.JSONSlice[string]   `json:"answers"`
	StartedAt     time.Time                     `json:"startedAt"`
}

func (ExamAttempt) TableName() string {
	return "exam_attempts"
}

// Completed 是否所有题目都已作答
func (a *ExamAttempt) Completed() bool {
	return a.CurrentIndex >= a.Paper.Data().Len()
}
