package model

import (
	"time"
)

// CourtSnapshot 签发时冻结的法院信息，之后修改个人资料不会影响已签发证书
type CourtSnapshot struct {
	LegalName  string `gorm:"size:200" json:"legalName"`
	State      string `gorm:"size:64" json:"state"`
	County     string `gorm:"size:100" json:"county"`
	CaseNumber string `gorm:"size:100" json:"caseNumber"`
}

// swagger:model Certificate
// Certificate 每个 (学员, 课程) 最多一张未删除证书。
// Live 未删除时为 true，删除时置为 NULL，使唯一索引 (user_id, course_id, live) 只约束有效证书
type Certificate struct {
	BaseModel

	UserID            uint          `gorm:"uniqueIndex:uniq_cert_owner;not null" json:"userId"`
	CourseID          uint          `gorm:"uniqueIndex:uniq_cert_owner;not null" json:"courseId"`
	Live              *bool         `gorm:"uniqueIndex:uniq_cert_owner" json:"-"`
	ResultID          uint          `gorm:"index;not null" json:"resultId"`
	CertificateNumber string        `gorm:"size:16;uniqueIndex;not null" json:"certificateNumber"`
	VerificationCode  string        `gorm:"size:32;uniqueIndex;not null" json:"verificationCode"`
	ParticipantName   string        `gorm:"size:200;not null" json:"participantName"`
	IssuedAt          time.Time     `json:"issuedAt"`
	ExpiresAt         time.Time     `json:"expiresAt"`
	Court             CourtSnapshot `gorm:"embedded;embeddedPrefix:court_" json:"court"`
	NotifiedAt        *time.Time    `gorm:"index" json:"-"`
}

func (Certificate) TableName() string {
	return "certificates"
}

// Expired 下载有效期检查，只在读取时判断，从不因过期删除
func (c *Certificate) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// LiveFlag 返回有效证书使用的 Live 值
func LiveFlag() *bool {
	v := true
	return &v
}

// swagger:model CertificateRecipient
// CertificateRecipient 证书副本的律师接收人，绑定是下游的显式操作
type CertificateRecipient struct {
	BaseModel

	CertificateID uint      `gorm:"uniqueIndex;not null" json:"certificateId"`
	AttorneyID    uint      `gorm:"index;not null" json:"attorneyId"`
	BoundAt       time.Time `json:"boundAt"`
}

func (CertificateRecipient) TableName() string {
	return "certificate_recipients"
}
