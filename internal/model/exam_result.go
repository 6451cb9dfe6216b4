package model

import (
	"time"

	"gorm.io/datatypes"
)

// MissedQuestion 答错的题目及复习指引，不记录正确选项
type MissedQuestion struct {
	Index       int    `json:"index"`
	EntryID     uint   `json:"entryId"`
	Selected    string `json:"selected"`
	Remediation string `json:"remediation,omitempty"`
}

// swagger:model ExamResult
// ExamResult 只追加，不论是否通过都会记录
type ExamResult struct {
	BaseModel

	UserID       uint                                `gorm:"index:idx_result_owner;not null" json:"userId"`
	CourseID     uint                                `gorm:"index:idx_result_owner;not null" json:"courseId"`
	AttemptID    string                              `gorm:"type:varchar(36);uniqueIndex;not null" json:"attemptId"`
	PaperVersion string                              `gorm:"size:32" json:"paperVersion"`
	Correct      int                                 `json:"correct"`
	Total        int                                 `json:"total"`
	Score        float64                             `json:"score"`
	Passed       bool                                `gorm:"default:false" json:"passed"`
	CompletedAt  time.Time                           `json:"completedAt"`
	Missed       datatypes.JSONSlice[MissedQuestion] `json:"missed"`
}

func (ExamResult) TableName() string {
	return "exam_results"
}
