package service

import (
	"context"
	"courtcert_backend/internal/config"
	"courtcert_backend/internal/model"
	"courtcert_backend/internal/repository"
	"courtcert_backend/pkg/database"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	testCourseID      uint = 7
	testQuestionCount      = 20
	testThreshold          = 0.70
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库在所有连接关闭后即销毁，单连接同时保证并发测试串行访问
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// recordingPublisher 记录发布的事件，Fail 为 true 时模拟通知服务不可用
type recordingPublisher struct {
	mu     sync.Mutex
	Fail   bool
	Events []CertificateIssuedEvent
}

func (p *recordingPublisher) PublishCertificateIssued(ctx context.Context, event CertificateIssuedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Fail {
		return errors.New("notification service unavailable")
	}
	p.Events = append(p.Events, event)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Events)
}

type fixture struct {
	db *gorm.DB

	learners  *repository.LearnerRepository
	bank      *repository.QuestionBankRepository
	attempts  *repository.AttemptRepository
	results   *repository.ExamResultRepository
	certs     *repository.CertificateRepository
	attorneys *repository.AttorneyRepository

	selector     *QuestionSelector
	grading      *GradingService
	certificates *CertificateService
	session      *ExamSessionService
	attorney     *AttorneyService
	events       *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	f := &fixture{db: db, events: &recordingPublisher{}}
	f.learners = repository.NewLearnerRepository(db)
	f.bank = repository.NewQuestionBankRepository(db)
	f.attempts = repository.NewAttemptRepository(db, nil)
	f.results = repository.NewExamResultRepository(db, f.attempts)
	f.certs = repository.NewCertificateRepository(db)
	f.attorneys = repository.NewAttorneyRepository(db)

	f.selector = NewQuestionSelectorWithSource(f.bank, testQuestionCount, rand.NewPCG(42, 1024))
	f.grading = NewGradingService(f.results, testThreshold)
	f.certificates = NewCertificateService(f.certs, f.results, f.attorneys, f.learners, nil, f.events, config.CertificateConfig{
		ValidityMonths:      12,
		MaxGenerateAttempts: 5,
		ExportPrefix:        "certificates",
	})
	f.session = NewExamSessionService(f.learners, f.attempts, f.selector, f.grading, f.certificates)
	f.attorney = NewAttorneyService(f.attorneys, config.AttorneyConfig{
		MinScore:             0.55,
		AutoSelectScore:      0.85,
		EmailPrefixMinLength: 8,
		MaxCandidates:        10,
	})
	return f
}

// seedBank 写入 n 道题，正确选项位置轮换，每个选项带独立的复习章节
func (f *fixture) seedBank(t *testing.T, courseID uint, version string, n int) []model.QuestionBankEntry {
	t.Helper()
	entries := make([]model.QuestionBankEntry, 0, n)
	for i := 0; i < n; i++ {
		opts := make([]model.BankOption, 0, model.OptionsPerQuestion)
		for j := 0; j < model.OptionsPerQuestion; j++ {
			opts = append(opts, model.BankOption{
				Text:        fmt.Sprintf("q%d option %d", i, j),
				Remediation: fmt.Sprintf("lesson-%d-%d", i, j),
			})
		}
		entries = append(entries, model.QuestionBankEntry{
			CourseID:        courseID,
			Version:         version,
			Text:            fmt.Sprintf("%s question %d", version, i),
			Options:         opts,
			CorrectPosition: i % model.OptionsPerQuestion,
		})
	}
	require.NoError(t, f.bank.Create(context.Background(), entries))
	return entries
}

func (f *fixture) seedLearner(t *testing.T, name string, courseID uint, eligible bool) *model.Learner {
	t.Helper()
	l := &model.Learner{
		Name:       name,
		Email:      strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		LegalName:  name,
		State:      "CA",
		County:     "Alameda",
		CaseNumber: "FL-" + strings.ToUpper(strings.ReplaceAll(name, " ", "")),
	}
	require.NoError(t, f.db.Create(l).Error)
	require.NoError(t, f.db.Create(&model.Enrollment{
		UserID:           l.ID,
		CourseID:         courseID,
		Paid:             true,
		LessonsCompleted: eligible,
	}).Error)
	return l
}

// seedPassedResult 直接写入一条通过的成绩，用于单独测试签发
func (f *fixture) seedPassedResult(t *testing.T, userID, courseID uint) *model.ExamResult {
	t.Helper()
	r := &model.ExamResult{
		UserID:      userID,
		CourseID:    courseID,
		AttemptID:   model.GenerateUUID(),
		Correct:     18,
		Total:       20,
		Score:       0.9,
		Passed:      true,
		CompletedAt: time.Now(),
	}
	require.NoError(t, f.db.Create(r).Error)
	return r
}

// answerAll 前 correct 道题选正确答案，其余选错误答案
func (f *fixture) answerAll(t *testing.T, userID uint, attempt *model.ExamAttempt, correct int) *model.ExamAttempt {
	t.Helper()
	ctx := context.Background()
	paper := attempt.Paper.Data()
	current := attempt
	for i, q := range paper.Questions {
		d := q.CorrectDisplay()
		if i >= correct {
			d = (d + 1) % model.OptionsPerQuestion
		}
		var err error
		current, err = f.session.SubmitAnswer(ctx, userID, attempt.ID, i, model.DisplayLabels[d])
		require.NoError(t, err)
	}
	return current
}

func (f *fixture) countRows(t *testing.T, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(m).Count(&n).Error)
	return n
}
