package service

import (
	"context"
	"courtcert_backend/internal/model"
	"courtcert_backend/internal/repository"
	"courtcert_backend/internal/util"
	"courtcert_backend/pkg/tracing"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// QuestionSelector 从题库的某个版本中随机抽题组卷，并为每道题独立打乱选项
type QuestionSelector struct {
	Bank          *repository.QuestionBankRepository
	QuestionCount int

	mu  sync.Mutex
	rng *rand.Rand
}

func NewQuestionSelector(bank *repository.QuestionBankRepository, questionCount int) *QuestionSelector {
	seed := uint64(time.Now().UnixNano())
	return NewQuestionSelectorWithSource(bank, questionCount, rand.NewPCG(seed, seed>>1|1))
}

// NewQuestionSelectorWithSource 指定随机源，测试中用于复现抽题结果
func NewQuestionSelectorWithSource(bank *repository.QuestionBankRepository, questionCount int, src rand.Source) *QuestionSelector {
	return &QuestionSelector{
		Bank:          bank,
		QuestionCount: questionCount,
		rng:           rand.New(src),
	}
}

// SelectPaper 每次调用（包括重新开始考试）都会重新抽题并重新打乱，题库不足时返回配置错误而不是少出题
func (s *QuestionSelector) SelectPaper(ctx context.Context, courseID uint) (paper *model.ExamPaper, err error) {
	ctx, span := tracing.Tracer.Start(ctx, "QuestionSelector.SelectPaper")
	span.SetAttributes(attribute.Int64("course.id", int64(courseID)))
	defer func() { tracing.End(span, err) }()

	versions, err := s.Bank.ListVersions(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: course %d has no question bank", util.ErrConfiguration, courseID)
	}

	version := versions[s.intN(len(versions))]
	entries, err := s.Bank.ListByVersion(ctx, courseID, version)
	if err != nil {
		return nil, err
	}
	if len(entries) < s.QuestionCount {
		return nil, fmt.Errorf("%w: course %d version %q has %d questions, exam needs %d",
			util.ErrConfiguration, courseID, version, len(entries), s.QuestionCount)
	}

	picked := s.perm(len(entries))[:s.QuestionCount]
	questions := make([]model.PaperQuestion, 0, s.QuestionCount)
	for _, idx := range picked {
		q, err := s.shuffleEntry(entries[idx])
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}

	span.SetAttributes(attribute.String("bank.version", version))
	return &model.ExamPaper{
		CourseID:  courseID,
		Version:   version,
		Questions: questions,
	}, nil
}

func (s *QuestionSelector) shuffleEntry(e model.QuestionBankEntry) (model.PaperQuestion, error) {
	if len(e.Options) != model.OptionsPerQuestion {
		return model.PaperQuestion{}, fmt.Errorf("%w: bank entry %d has %d options", util.ErrConfiguration, e.ID, len(e.Options))
	}
	if e.CorrectPosition < 0 || e.CorrectPosition >= model.OptionsPerQuestion {
		return model.PaperQuestion{}, fmt.Errorf("%w: bank entry %d has correct position %d", util.ErrConfiguration, e.ID, e.CorrectPosition)
	}

	q := model.PaperQuestion{
		EntryID:         e.ID,
		Text:            e.Text,
		CorrectPosition: e.CorrectPosition,
	}
	for display, canonical := range s.perm(model.OptionsPerQuestion) {
		q.Order[display] = canonical
		q.Options[display] = e.Options[canonical].Text
	}
	for canonical, opt := range e.Options {
		q.Remediation[canonical] = opt.Remediation
	}
	return q, nil
}

func (s *QuestionSelector) perm(n int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Perm(n)
}

func (s *QuestionSelector) intN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}
