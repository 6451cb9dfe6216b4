package model

import "gorm.io/datatypes"

// OptionsPerQuestion 每道题固定四个选项
const OptionsPerQuestion = 4

// BankOption 题库中的单个选项，Remediation 指向答错该选项时需复习的课程章节
type BankOption struct {
	Text        string `json:"text"`
	Remediation string `json:"remediation,omitempty"`
}

// swagger:model QuestionBankEntry
type QuestionBankEntry struct {
	BaseModel

	CourseID        uint                            `gorm:"index:idx_bank_course_version;not null" json:"courseId"`
	Version         string                          `gorm:"size:32;index:idx_bank_course_version;not null" json:"version"`
	Text            string                          `gorm:"type:text;not null" json:"text"`
	Options         datatypes.JSONSlice[BankOption] `json:"options"`
	CorrectPosition int                             `gorm:"not null" json:"-"`
}

func (QuestionBankEntry) TableName() string {
	return "question_bank_entries"
}
