package model

type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
)

// swagger:model Learner
// Learner 学员资料，由资料服务维护；签发证书时从这里快照法院信息
type Learner struct {
	BaseModel
	Name       string `gorm:"size:100;not null" json:"name"`
	Email      string `gorm:"size:100;unique;not null" json:"email"`
	LegalName  string `gorm:"size:200" json:"legalName"`
	State      string `gorm:"size:64" json:"state"`
	County     string `gorm:"size:100" json:"county"`
	CaseNumber string `gorm:"size:100" json:"caseNumber"`
}

func (Learner) TableName() string {
	return "learners"
}

// ParticipantName 证书上显示的姓名，优先使用法定姓名
func (l *Learner) ParticipantName() string {
	if l.LegalName != "" {
		return l.LegalName
	}
	return l.Name
}

// swagger:model Enrollment
// Enrollment 课程购买与课时完成情况，由报名/支付服务写入
type Enrollment struct {
	BaseModel
	UserID           uint `gorm:"uniqueIndex:uniq_enrollment;not null" json:"userId"`
	CourseID         uint `gorm:"uniqueIndex:uniq_enrollment;not null" json:"courseId"`
	Paid             bool `gorm:"default:false" json:"paid"`
	LessonsCompleted bool `gorm:"default:false" json:"lessonsCompleted"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
