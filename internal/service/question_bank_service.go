package service

import (
	"context"
	"courtcert_backend/internal/model"
	"courtcert_backend/internal/repository"
	"courtcert_backend/internal/util"
	"courtcert_backend/pkg/logger"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// BankQuestionInput 导入题库时的单道题
type BankQuestionInput struct {
	Text            string
	Options         []model.BankOption
	CorrectPosition int
}

type QuestionBankService struct {
	Repo *repository.QuestionBankRepository
}

func NewQuestionBankService(repo *repository.QuestionBankRepository) *QuestionBankService {
	return &QuestionBankService{Repo: repo}
}

// ImportVersion 导入一个题库版本，已存在的版本不可追加
func (s *QuestionBankService) ImportVersion(ctx context.Context, courseID uint, version string, questions []BankQuestionInput) (int, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		return 0, fmt.Errorf("%w: version is required", util.ErrInvalidInput)
	}

	existing, err := s.Repo.ListByVersion(ctx, courseID, version)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, fmt.Errorf("%w: version %q already exists for course %d", util.ErrInvalidInput, version, courseID)
	}

	entries := make([]model.QuestionBankEntry, 0, len(questions))
	for i, q := range questions {
		if strings.TrimSpace(q.Text) == "" {
			return 0, fmt.Errorf("%w: question %d has no text", util.ErrInvalidInput, i)
		}
		if len(q.Options) != model.OptionsPerQuestion {
			return 0, fmt.Errorf("%w: question %d needs exactly %d options", util.ErrInvalidInput, i, model.OptionsPerQuestion)
		}
		if q.CorrectPosition < 0 || q.CorrectPosition >= model.OptionsPerQuestion {
			return 0, fmt.Errorf("%w: question %d has correct position %d", util.ErrInvalidInput, i, q.CorrectPosition)
		}
		entries = append(entries, model.QuestionBankEntry{
			CourseID:        courseID,
			Version:         version,
			Text:            q.Text,
			Options:         q.Options,
			CorrectPosition: q.CorrectPosition,
		})
	}

	if err := s.Repo.Create(ctx, entries); err != nil {
		return 0, err
	}
	logger.Log.Info("question bank version imported",
		zap.Uint("courseId", courseID),
		zap.String("version", version),
		zap.Int("questions", len(entries)))
	return len(entries), nil
}
