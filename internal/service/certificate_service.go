package service

import (
	"context"
	"courtcert_backend/internal/config"
	"courtcert_backend/internal/model"
	"courtcert_backend/internal/repository"
	"courtcert_backend/internal/util"
	"courtcert_backend/pkg/logger"
	"courtcert_backend/pkg/monitoring"
	"courtcert_backend/pkg/tracing"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const downloadLinkTTL = 15 * time.Minute

// LearnerProfiles 资料服务，签发时从中快照法定姓名与法院信息
type LearnerProfiles interface {
	FindByID(ctx context.Context, id uint) (*model.Learner, error)
}

// CertificateDocument 交给外部 PDF 渲染服务的证书数据
type CertificateDocument struct {
	CertificateNumber string              `json:"certificateNumber"`
	VerificationCode  string              `json:"verificationCode"`
	ParticipantName   string              `json:"participantName"`
	CourseID          uint                `json:"courseId"`
	IssuedAt          time.Time           `json:"issuedAt"`
	ExpiresAt         time.Time           `json:"expiresAt"`
	Court             model.CourtSnapshot `json:"court"`
	VerifyPath        string              `json:"verifyPath"`
}

type CertificateDownload struct {
	Document CertificateDocument `json:"document"`
	URL      string              `json:"url,omitempty"`
}

// CertificateVerification 公开验证结果，不包含案件编号等敏感信息
type CertificateVerification struct {
	CertificateNumber string    `json:"certificateNumber"`
	ParticipantName   string    `json:"participantName"`
	CourseID          uint      `json:"courseId"`
	State             string    `json:"state"`
	County            string    `json:"county"`
	IssuedAt          time.Time `json:"issuedAt"`
	ExpiresAt         time.Time `json:"expiresAt"`
	Current           bool      `json:"current"`
}

type CertificateService struct {
	Repo      *repository.CertificateRepository
	Results   *repository.ExamResultRepository
	Attorneys *repository.AttorneyRepository
	Profiles  LearnerProfiles
	Storage   *StorageService
	Events    EventPublisher
	IDs       IdentifierGenerator
	Config    config.CertificateConfig
	Now       func() time.Time
}

func NewCertificateService(
	repo *repository.CertificateRepository,
	results *repository.ExamResultRepository,
	attorneys *repository.AttorneyRepository,
	profiles LearnerProfiles,
	storage *StorageService,
	events EventPublisher,
	cfg config.CertificateConfig,
) *CertificateService {
	return &CertificateService{
		Repo:      repo,
		Results:   results,
		Attorneys: attorneys,
		Profiles:  profiles,
		Storage:   storage,
		Events:    events,
		IDs:       NewRandomIdentifiers(),
		Config:    cfg,
		Now:       time.Now,
	}
}

func verifyPath(code string) string {
	return "/api/public/certificates/verify/" + code
}

// IssueIfPassed 幂等签发。已有有效证书时直接返回，created 为 false；
// 插入时的唯一约束冲突同样视为成功，绝不返回重复错误
func (s *CertificateService) IssueIfPassed(ctx context.Context, resultID uint) (cert *model.Certificate, created bool, err error) {
	ctx, span := tracing.Tracer.Start(ctx, "CertificateService.IssueIfPassed")
	span.SetAttributes(attribute.Int64("result.id", int64(resultID)))
	defer func() { tracing.End(span, err) }()

	result, err := s.Results.FindByID(ctx, resultID)
	if err != nil {
		return nil, false, err
	}
	if !result.Passed {
		return nil, false, util.ErrExamNotPassed
	}
	return s.issue(ctx, result)
}

// IssueForLearner 学员手动触发签发，只能针对自己的成绩
func (s *CertificateService) IssueForLearner(ctx context.Context, userID, resultID uint) (*model.Certificate, bool, error) {
	result, err := s.Results.FindByID(ctx, resultID)
	if err != nil {
		return nil, false, err
	}
	if result.UserID != userID {
		return nil, false, util.ErrResultNotFound
	}
	return s.IssueIfPassed(ctx, resultID)
}

func (s *CertificateService) issue(ctx context.Context, result *model.ExamResult) (*model.Certificate, bool, error) {
	existing, err := s.Repo.FindLive(ctx, result.UserID, result.CourseID)
	if err == nil {
		monitoring.CertificatesIssued.WithLabelValues("existing").Inc()
		return existing, false, nil
	}
	if !errors.Is(err, util.ErrCertificateNotFound) {
		return nil, false, err
	}

	profile, err := s.Profiles.FindByID(ctx, result.UserID)
	if err != nil {
		return nil, false, err
	}

	issuedAt := s.Now()
	expiresAt := now.With(issuedAt.AddDate(0, s.Config.ValidityMonths, 0)).EndOfDay()

	for attempt := 1; attempt <= s.Config.MaxGenerateAttempts; attempt++ {
		number, err := s.IDs.CertificateNumber()
		if err != nil {
			return nil, false, err
		}

		cert := &model.Certificate{
			UserID:            result.UserID,
			CourseID:          result.CourseID,
			ResultID:          result.ID,
			CertificateNumber: number,
			VerificationCode:  s.IDs.VerificationCode(),
			ParticipantName:   profile.ParticipantName(),
			IssuedAt:          issuedAt,
			ExpiresAt:         expiresAt,
			Court: model.CourtSnapshot{
				LegalName:  profile.LegalName,
				State:      profile.State,
				County:     profile.County,
				CaseNumber: profile.CaseNumber,
			},
		}

		inserted, err := s.Repo.InsertIfAbsent(ctx, cert)
		if err != nil {
			return nil, false, err
		}
		if inserted {
			monitoring.CertificatesIssued.WithLabelValues("created").Inc()
			logger.Log.Info("certificate issued",
				zap.Uint("certificateId", cert.ID),
				zap.String("certificateNumber", cert.CertificateNumber),
				zap.Uint("userId", cert.UserID),
				zap.Uint("courseId", cert.CourseID))
			s.notify(ctx, cert)
			return cert, true, nil
		}

		// 插入被唯一约束拦下：要么并发请求先签发了证书，要么编号/验证码撞车
		existing, err := s.Repo.FindLive(ctx, result.UserID, result.CourseID)
		if err == nil {
			monitoring.CertificatesIssued.WithLabelValues("existing").Inc()
			return existing, false, nil
		}
		if !errors.Is(err, util.ErrCertificateNotFound) {
			return nil, false, err
		}

		monitoring.IdentifierCollisions.Inc()
		logger.Log.Warn("certificate identifier collision, regenerating",
			zap.Uint("userId", result.UserID),
			zap.Uint("courseId", result.CourseID),
			zap.Int("attempt", attempt))
	}

	logger.Log.Error("certificate identifier generation exhausted",
		zap.Uint("userId", result.UserID),
		zap.Uint("courseId", result.CourseID),
		zap.Int("attempts", s.Config.MaxGenerateAttempts))
	return nil, false, fmt.Errorf("%w after %d attempts", util.ErrIdentifierExhausted, s.Config.MaxGenerateAttempts)
}

// notify 在证书落库之后发布事件；失败时保留 notified_at 为空，由定时任务补发
func (s *CertificateService) notify(ctx context.Context, cert *model.Certificate) bool {
	if s.Events == nil {
		return false
	}
	if err := s.Events.PublishCertificateIssued(ctx, NewCertificateIssuedEvent(cert)); err != nil {
		logger.Log.Warn("failed to publish certificate issued event",
			zap.Uint("certificateId", cert.ID), zap.Error(err))
		return false
	}
	if err := s.Repo.MarkNotified(ctx, cert.ID, s.Now()); err != nil {
		logger.Log.Warn("failed to mark certificate notified",
			zap.Uint("certificateId", cert.ID), zap.Error(err))
		return false
	}
	return true
}

// RepublishPending 补发尚未成功发布的签发事件，返回成功数量
func (s *CertificateService) RepublishPending(ctx context.Context, batch int) (int, error) {
	certs, err := s.Repo.ListPendingNotification(ctx, batch)
	if err != nil {
		return 0, err
	}
	sent := 0
	for i := range certs {
		if s.notify(ctx, &certs[i]) {
			sent++
		}
	}
	return sent, nil
}

func (s *CertificateService) Get(ctx context.Context, userID, courseID uint) (*model.Certificate, error) {
	return s.Repo.FindLive(ctx, userID, courseID)
}

// Download 读取时检查有效期，过期证书保留但不再提供下载
func (s *CertificateService) Download(ctx context.Context, userID, courseID uint) (dl *CertificateDownload, err error) {
	ctx, span := tracing.Tracer.Start(ctx, "CertificateService.Download")
	defer func() { tracing.End(span, err) }()

	cert, err := s.Repo.FindLive(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if cert.Expired(s.Now()) {
		s.removeExport(ctx, cert)
		return nil, util.ErrCertificateExpired
	}

	doc := CertificateDocument{
		CertificateNumber: cert.CertificateNumber,
		VerificationCode:  cert.VerificationCode,
		ParticipantName:   cert.ParticipantName,
		CourseID:          cert.CourseID,
		IssuedAt:          cert.IssuedAt,
		ExpiresAt:         cert.ExpiresAt,
		Court:             cert.Court,
		VerifyPath:        verifyPath(cert.VerificationCode),
	}
	dl = &CertificateDownload{Document: doc}
	if s.Storage == nil {
		return dl, nil
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	dl.URL, err = s.Storage.Export(ctx, s.exportKey(cert), data, util.MimeJSON, downloadLinkTTL)
	if err != nil {
		return nil, err
	}
	return dl, nil
}

// Verify 第三方凭验证码核验证书真伪，无需登录
func (s *CertificateService) Verify(ctx context.Context, code string) (*CertificateVerification, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil, util.ErrCertificateNotFound
	}
	cert, err := s.Repo.FindByVerificationCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return &CertificateVerification{
		CertificateNumber: cert.CertificateNumber,
		ParticipantName:   cert.ParticipantName,
		CourseID:          cert.CourseID,
		State:             cert.Court.State,
		County:            cert.Court.County,
		IssuedAt:          cert.IssuedAt,
		ExpiresAt:         cert.ExpiresAt,
		Current:           !cert.Expired(s.Now()),
	}, nil
}

// CorrectParticipantName 管理员更正证书姓名
func (s *CertificateService) CorrectParticipantName(ctx context.Context, certificateID uint, name string) (*model.Certificate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: participant name is required", util.ErrInvalidInput)
	}
	if err := s.Repo.UpdateParticipantName(ctx, certificateID, name); err != nil {
		return nil, err
	}
	logger.Log.Info("certificate participant name corrected", zap.Uint("certificateId", certificateID))
	return s.Repo.FindByID(ctx, certificateID)
}

// Revoke 软删除证书并清理已导出的渲染数据，之后可重新签发
func (s *CertificateService) Revoke(ctx context.Context, certificateID uint) error {
	cert, err := s.Repo.FindByID(ctx, certificateID)
	if err != nil {
		return err
	}
	if err := s.Repo.Revoke(ctx, certificateID); err != nil {
		return err
	}
	s.removeExport(ctx, cert)
	logger.Log.Info("certificate revoked", zap.Uint("certificateId", certificateID))
	return nil
}

func (s *CertificateService) exportKey(cert *model.Certificate) string {
	return path.Join(s.Config.ExportPrefix, cert.CertificateNumber+".json")
}

// removeExport 清理失败只记录日志，证书状态以数据库为准
func (s *CertificateService) removeExport(ctx context.Context, cert *model.Certificate) {
	if s.Storage == nil {
		return
	}
	if err := s.Storage.Remove(ctx, s.exportKey(cert)); err != nil {
		logger.Log.Warn("failed to remove certificate export",
			zap.Uint("certificateId", cert.ID), zap.Error(err))
	}
}

// BindRecipient 将律师绑定为证书副本接收人，律师名录本身不做任何修改
func (s *CertificateService) BindRecipient(ctx context.Context, userID, courseID, attorneyID uint) (*model.CertificateRecipient, error) {
	cert, err := s.Repo.FindLive(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	attorney, err := s.Attorneys.FindByID(ctx, attorneyID)
	if err != nil {
		return nil, err
	}

	recipient := &model.CertificateRecipient{
		CertificateID: cert.ID,
		AttorneyID:    attorneyID,
		BoundAt:       s.Now(),
	}
	if err := s.Repo.BindRecipient(ctx, recipient); err != nil {
		return nil, err
	}
	logger.Log.Info("certificate recipient bound",
		zap.Uint("certificateId", cert.ID),
		zap.Uint("attorneyId", attorney.ID),
		zap.String("attorney", attorney.FullName()))
	return s.Repo.FindRecipient(ctx, cert.ID)
}
