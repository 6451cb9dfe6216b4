package service

import (
	"context"
	"courtcert_backend/internal/model"
	"courtcert_backend/internal/repository"
	"courtcert_backend/pkg/logger"
	"courtcert_backend/pkg/monitoring"
	"courtcert_backend/pkg/tracing"
	"time"

	"go.uber.org/zap"
)

// 浮点误差容忍，保证 14/20 在阈值 0.70 时判定为通过
const scoreEpsilon = 1e-9

// GradeOutcome 评分结果
type GradeOutcome struct {
	Correct int
	Total   int
	Score   float64
	Passed  bool
	Missed  []model.MissedQuestion
}

// GradePaper 根据试卷内嵌的映射重新判定每道题，不信任快照中的累计得分
func GradePaper(paper model.ExamPaper, answers []string, threshold float64) GradeOutcome {
	out := GradeOutcome{Total: paper.Len()}
	for i, q := range paper.Questions {
		selected := ""
		if i < len(answers) {
			selected = answers[i]
		}
		if q.IsCorrect(selected) {
			out.Correct++
			continue
		}

		missed := model.MissedQuestion{
			Index:    i,
			EntryID:  q.EntryID,
			Selected: selected,
		}
		if d, ok := model.LabelIndex(selected); ok {
			missed.Remediation = q.Remediation[q.CanonicalOf(d)]
		}
		out.Missed = append(out.Missed, missed)
	}

	if out.Total > 0 {
		out.Score = float64(out.Correct) / float64(out.Total)
	}
	out.Passed = out.Total > 0 && out.Score+scoreEpsilon >= threshold
	return out
}

type GradingService struct {
	Results       *repository.ExamResultRepository
	PassThreshold float64
}

func NewGradingService(results *repository.ExamResultRepository, passThreshold float64) *GradingService {
	return &GradingService{Results: results, PassThreshold: passThreshold}
}

// Record 评分并追加成绩，同时删除考试快照。不论是否通过都会写入成绩。
// 同一次考试重复调用时返回已存在的成绩，created 为 false
func (s *GradingService) Record(ctx context.Context, attempt *model.ExamAttempt) (result *model.ExamResult, created bool, err error) {
	ctx, span := tracing.Tracer.Start(ctx, "GradingService.Record")
	defer func() { tracing.End(span, err) }()

	paper := attempt.Paper.Data()
	outcome := GradePaper(paper, attempt.Answers, s.PassThreshold)

	result = &model.ExamResult{
		UserID:       attempt.UserID,
		CourseID:     attempt.CourseID,
		AttemptID:    attempt.ID,
		PaperVersion: paper.Version,
		Correct:      outcome.Correct,
		Total:        outcome.Total,
		Score:        outcome.Score,
		Passed:       outcome.Passed,
		CompletedAt:  time.Now(),
		Missed:       outcome.Missed,
	}

	stored, created, err := s.Results.RecordAndClose(ctx, result)
	if err != nil {
		return nil, false, err
	}

	if created {
		verdict := "fail"
		if stored.Passed {
			verdict = "pass"
		}
		monitoring.ExamsFinalized.WithLabelValues(verdict).Inc()
		logger.Log.Info("exam graded",
			zap.Uint("userId", stored.UserID),
			zap.Uint("courseId", stored.CourseID),
			zap.String("attemptId", stored.AttemptID),
			zap.Int("correct", stored.Correct),
			zap.Int("total", stored.Total),
			zap.Bool("passed", stored.Passed))
	}
	return stored, created, nil
}

func (s *GradingService) ListResults(ctx context.Context, userID, courseID uint) ([]model.ExamResult, error) {
	return s.Results.ListByOwner(ctx, userID, courseID)
}
