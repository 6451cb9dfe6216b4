package service

import (
	"context"
	"courtcert_backend/internal/model"
	"courtcert_backend/internal/repository"
	"courtcert_backend/internal/util"
	"courtcert_backend/pkg/logger"
	"courtcert_backend/pkg/tracing"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// EligibilityChecker 由报名/课程进度服务提供，只在开始考试时检查一次
type EligibilityChecker interface {
	IsEligible(ctx context.Context, userID, courseID uint) (bool, error)
}

// CertificateIssuer 考试通过后的签发入口
type CertificateIssuer interface {
	IssueIfPassed(ctx context.Context, resultID uint) (*model.Certificate, bool, error)
}

type StartResult struct {
	Attempt *model.ExamAttempt
	// Resumable 为 true 表示返回的是已存在的快照，attempt ID 即恢复凭证
	Resumable bool
}

type FinalizeOutcome struct {
	Result      *model.ExamResult
	Certificate *model.Certificate
}

type ExamSessionService struct {
	Eligibility  EligibilityChecker
	Attempts     *repository.AttemptRepository
	Selector     *QuestionSelector
	Grading      *GradingService
	Certificates CertificateIssuer
}

func NewExamSessionService(
	eligibility EligibilityChecker,
	attempts *repository.AttemptRepository,
	selector *QuestionSelector,
	grading *GradingService,
	certificates CertificateIssuer,
) *ExamSessionService {
	return &ExamSessionService{
		Eligibility:  eligibility,
		Attempts:     attempts,
		Selector:     selector,
		Grading:      grading,
		Certificates: certificates,
	}
}

func (s *ExamSessionService) checkEligible(ctx context.Context, userID, courseID uint) error {
	ok, err := s.Eligibility.IsEligible(ctx, userID, courseID)
	if err != nil {
		return err
	}
	if !ok {
		return util.ErrNotEligible
	}
	return nil
}

func (s *ExamSessionService) newAttempt(ctx context.Context, userID, courseID uint, deviceSession string) (*model.ExamAttempt, error) {
	paper, err := s.Selector.SelectPaper(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return &model.ExamAttempt{
		UserID:        userID,
		CourseID:      courseID,
		DeviceSession: deviceSession,
		Paper:         datatypes.NewJSONType(*paper),
		Answers:       datatypes.JSONSlice[string]{},
		StartedAt:     time.Now(),
	}, nil
}

// StartOrResume 有进行中的快照时原样返回，否则抽题组卷并创建新快照
func (s *ExamSessionService) StartOrResume(ctx context.Context, userID, courseID uint, deviceSession string) (res *StartResult, err error) {
	ctx, span := tracing.Tracer.Start(ctx, "ExamSessionService.StartOrResume")
	span.SetAttributes(attribute.Int64("user.id", int64(userID)), attribute.Int64("course.id", int64(courseID)))
	defer func() { tracing.End(span, err) }()

	if err := s.checkEligible(ctx, userID, courseID); err != nil {
		return nil, err
	}

	existing, err := s.Attempts.FindByOwner(ctx, userID, courseID)
	if err == nil {
		return &StartResult{Attempt: existing, Resumable: true}, nil
	}
	if !errors.Is(err, util.ErrAttemptNotFound) {
		return nil, err
	}

	attempt, err := s.newAttempt(ctx, userID, courseID, deviceSession)
	if err != nil {
		return nil, err
	}
	stored, created, err := s.Attempts.Create(ctx, attempt)
	if err != nil {
		return nil, err
	}
	if created {
		logger.Log.Info("exam attempt started",
			zap.String("attemptId", stored.ID),
			zap.Uint("userId", userID),
			zap.Uint("courseId", courseID),
			zap.String("bankVersion", stored.Paper.Data().Version))
	}
	return &StartResult{Attempt: stored, Resumable: !created}, nil
}

// Resume 按 ID 恢复快照，不属于当前学员的快照视为不存在
func (s *ExamSessionService) Resume(ctx context.Context, userID uint, attemptID string) (*model.ExamAttempt, error) {
	attempt, err := s.Attempts.FindByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, util.ErrAttemptNotFound
	}
	return attempt, nil
}

// Restart 丢弃旧快照并重新抽题，失败次数不设上限
func (s *ExamSessionService) Restart(ctx context.Context, userID, courseID uint, deviceSession string) (attempt *model.ExamAttempt, err error) {
	ctx, span := tracing.Tracer.Start(ctx, "ExamSessionService.Restart")
	defer func() { tracing.End(span, err) }()

	if err := s.checkEligible(ctx, userID, courseID); err != nil {
		return nil, err
	}
	attempt, err = s.newAttempt(ctx, userID, courseID, deviceSession)
	if err != nil {
		return nil, err
	}
	if err := s.Attempts.Replace(ctx, attempt); err != nil {
		return nil, err
	}
	logger.Log.Info("exam attempt restarted",
		zap.String("attemptId", attempt.ID),
		zap.Uint("userId", userID),
		zap.Uint("courseId", courseID))
	return attempt, nil
}

// SubmitAnswer 只接受当前题号的 A-D 答案；校验失败时快照保持不变
func (s *ExamSessionService) SubmitAnswer(ctx context.Context, userID uint, attemptID string, questionIndex int, label string) (*model.ExamAttempt, error) {
	attempt, err := s.Resume(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}

	label = strings.ToUpper(strings.TrimSpace(label))
	paper := attempt.Paper.Data()
	if questionIndex < 0 || questionIndex >= paper.Len() {
		return nil, fmt.Errorf("%w: question index %d out of range", util.ErrInvalidSubmission, questionIndex)
	}
	if questionIndex != attempt.CurrentIndex {
		return nil, fmt.Errorf("%w: expected question %d, got %d", util.ErrInvalidSubmission, attempt.CurrentIndex, questionIndex)
	}
	if _, ok := model.LabelIndex(label); !ok {
		return nil, fmt.Errorf("%w: unknown option %q", util.ErrInvalidSubmission, label)
	}

	next := *attempt
	next.Answers = append(append(datatypes.JSONSlice[string]{}, attempt.Answers...), label)
	next.CurrentIndex = attempt.CurrentIndex + 1
	if paper.Questions[questionIndex].IsCorrect(label) {
		next.CorrectCount = attempt.CorrectCount + 1
	}

	if err := s.Attempts.SaveAnswer(ctx, &next, attempt.CurrentIndex); err != nil {
		return nil, err
	}
	return &next, nil
}

// Finalize 评分并结束考试；重复调用返回已保存的成绩与证书
func (s *ExamSessionService) Finalize(ctx context.Context, userID uint, attemptID string) (out *FinalizeOutcome, err error) {
	ctx, span := tracing.Tracer.Start(ctx, "ExamSessionService.Finalize")
	span.SetAttributes(attribute.String("attempt.id", attemptID))
	defer func() { tracing.End(span, err) }()

	attempt, err := s.Resume(ctx, userID, attemptID)
	if errors.Is(err, util.ErrAttemptNotFound) {
		// 快照已被删除：可能是已完成的考试被重复提交
		result, rerr := s.Grading.Results.FindByAttemptID(ctx, attemptID)
		if rerr != nil {
			if errors.Is(rerr, util.ErrResultNotFound) {
				return nil, util.ErrAttemptNotFound
			}
			return nil, rerr
		}
		if result.UserID != userID {
			return nil, util.ErrAttemptNotFound
		}
		return s.outcome(ctx, result)
	}
	if err != nil {
		return nil, err
	}
	if !attempt.Completed() {
		return nil, fmt.Errorf("%w: %d of %d questions answered",
			util.ErrAttemptIncomplete, attempt.CurrentIndex, attempt.Paper.Data().Len())
	}

	result, _, err := s.Grading.Record(ctx, attempt)
	if err != nil {
		return nil, err
	}
	return s.outcome(ctx, result)
}

func (s *ExamSessionService) outcome(ctx context.Context, result *model.ExamResult) (*FinalizeOutcome, error) {
	out := &FinalizeOutcome{Result: result}
	if !result.Passed || s.Certificates == nil {
		return out, nil
	}
	cert, _, err := s.Certificates.IssueIfPassed(ctx, result.ID)
	if err != nil {
		return nil, err
	}
	out.Certificate = cert
	return out, nil
}

func (s *ExamSessionService) ListResults(ctx context.Context, userID, courseID uint) ([]model.ExamResult, error) {
	return s.Grading.ListResults(ctx, userID, courseID)
}
