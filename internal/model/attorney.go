package model

import (
	"courtcert_backend/internal/matching"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
)

// swagger:model AttorneyRecord
// AttorneyRecord 律师名录条目，由其他系统维护，本服务只读
type AttorneyRecord struct {
	BaseModel

	FirstName  string `gorm:"size:100" json:"firstName"`
	LastName   string `gorm:"size:100;not null" json:"lastName"`
	Firm       string `gorm:"size:200" json:"firm"`
	Email      string `gorm:"size:200;index" json:"email"`
	Street     string `gorm:"size:200" json:"street"`
	City       string `gorm:"size:100" json:"city"`
	State      string `gorm:"size:64" json:"state"`
	PostalCode string `gorm:"size:20" json:"postalCode"`

	// 姓氏的归一化形式和长度，用于模糊匹配前的预筛选
	SurnameKey string `gorm:"size:100;index" json:"-"`
	SurnameLen int    `gorm:"index" json:"-"`
}

func (AttorneyRecord) TableName() string {
	return "attorneys"
}

func (a *AttorneyRecord) BeforeSave(tx *gorm.DB) error {
	a.Email = strings.TrimSpace(a.Email)
	a.SurnameKey = matching.Normalize(a.LastName)
	a.SurnameLen = utf8.RuneCountInString(a.SurnameKey)
	return nil
}

func (a *AttorneyRecord) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}
