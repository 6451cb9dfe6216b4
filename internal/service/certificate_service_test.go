package service

import (
	"context"
	"courtcert_backend/internal/model"
	"courtcert_backend/internal/util"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/jinzhu/now"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedIdentifiers 按顺序返回预设的编号，用完后重复最后一个
type scriptedIdentifiers struct {
	mu      sync.Mutex
	numbers []string
	calls   int
}

func (s *scriptedIdentifiers) CertificateNumber() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.numbers) {
		i = len(s.numbers) - 1
	}
	s.calls++
	return s.numbers[i], nil
}

func (s *scriptedIdentifiers) VerificationCode() string {
	return NewRandomIdentifiers().VerificationCode()
}

func TestRandomIdentifiersFormat(t *testing.T) {
	ids := NewRandomIdentifiers()
	pattern := regexp.MustCompile(`^[2-9A-HJ-NP-Z]{5}-[2-9A-HJ-NP-Z]{5}$`)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		n, err := ids.CertificateNumber()
		require.NoError(t, err)
		assert.Regexp(t, pattern, n)
		seen[n] = true

		code := ids.VerificationCode()
		assert.Len(t, code, 32)
		assert.Regexp(t, `^[0-9a-f]{32}$`, code)
	}
	assert.Greater(t, len(seen), 190)
}

func TestIssueIfPassedRejectsFailedResult(t *testing.T) {
	f := newFixture(t)
	learner := f.seedLearner(t, "Ana Ruiz", testCourseID, true)
	failed := &model.ExamResult{UserID: learner.ID, CourseID: testCourseID, AttemptID: model.GenerateUUID(), Correct: 10, Total: 20, Score: 0.5}
	require.NoError(t, f.db.Create(failed).Error)

	_, _, err := f.certificates.IssueIfPassed(context.Background(), failed.ID)
	assert.ErrorIs(t, err, util.ErrExamNotPassed)

	_, _, err = f.certificates.IssueIfPassed(context.Background(), 9999)
	assert.ErrorIs(t, err, util.ErrResultNotFound)
}

func TestIssueIfPassedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	learner := f.seedLearner(t, "Ana Ruiz", testCourseID, true)
	result := f.seedPassedResult(t, learner.ID, testCourseID)
	ctx := context.Background()

	cert, created, err := f.certificates.IssueIfPassed(ctx, result.ID)
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := f.certificates.IssueIfPassed(ctx, result.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, cert.ID, again.ID)
	assert.Equal(t, cert.CertificateNumber, again.CertificateNumber)

	// 另一条通过的成绩同样不会产生第二张证书
	other := f.seedPassedResult(t, learner.ID, testCourseID)
	third, created, err := f.certificates.IssueIfPassed(ctx, other.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, cert.CertificateNumber, third.CertificateNumber)

	assert.Equal(t, int64(1), f.countRows(t, &model.Certificate{}))
	assert.Equal(t, 1, f.events.count())
}

func TestConcurrentIssueCreatesOneCertificate(t *testing.T) {
	f := newFixture(t)
	learner := f.seedLearner(t, "Ana Ruiz", testCourseID, true)
	result := f.seedPassedResult(t, learner.ID, testCourseID)

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	numbers := map[string]int{}
	createdCount := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cert, created, err := f.certificates.IssueIfPassed(context.Background(), result.ID)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			numbers[cert.CertificateNumber]++
			if created {
				createdCount++
			}
		}()
	}
	wg.Wait()

	assert.Len(t, numbers, 1)
	assert.Equal(t, 1, createdCount)
	assert.Equal(t, int64(1), f.countRows(t, &model.Certificate{}))
}

func TestIssueRegeneratesOnIdentifierCollision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.seedLearner(t, "Bo Chen", testCourseID, true)
	learner := f.seedLearner(t, "Ana Ruiz", testCourseID, true)

	f.certificates.IDs = &scriptedIdentifiers{numbers: []string{"AAAAA-AAAAA"}}
	taken, created, err := f.certificates.IssueIfPassed(ctx, f.seedPassedResult(t, other.ID, testCourseID).ID)
	require.NoError(t, err)
	require.True(t, created)

	ids := &scriptedIdentifiers{numbers: []string{taken.CertificateNumber, taken.CertificateNumber, "BBBBB-BBBBB"}}
	f.certificates.IDs = ids
	cert, created, err := f.certificates.IssueIfPassed(ctx, f.seedPassedResult(t, learner.ID, testCourseID).ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "BBBBB-BBBBB", cert.CertificateNumber)
	assert.Equal(t, learner.ID, cert.UserID)
	assert.Equal(t, 3, ids.calls)
}

func TestIssueGivesUpAfterMaxAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := f.seedLearner(t, "Bo Chen", testCourseID, true)
	learner := f.seedLearner(t, "Ana Ruiz", testCourseID, true)

	f.certificates.IDs = &scriptedIdentifiers{numbers: []string{"AAAAA-AAAAA"}}
	_, _, err := f.certificates.IssueIfPassed(ctx, f.seedPassedResult(t, other.ID, testCourseID).ID)
	require.NoError(t, err)

	ids := &scriptedIdentifiers{numbers: []string{"AAAAA-AAAAA"}}
	f.certificates.IDs = ids
	_, _, err = f.certificates.IssueIfPassed(ctx, f.seedPassedResult(t, learner.ID, testCourseID).ID)
	assert.ErrorIs(t, err, util.ErrIdentifierExhausted)
	assert.Equal(t, f.certificates.Config.MaxGenerateAttempts, ids.calls)

	_, err = f.certificates.Get(ctx, learner.ID, testCourseID)
	assert.ErrorIs(t, err, util.ErrCertificateNotFound)
}

func TestCertificateSnapshotSurvivesProfileEdits(t *testing.T) {
	f := newFixture(t)
	learner := f.seedLearner(t, "Ana Ruiz", testCourseID, true)
	ctx := context.Background()

	cert, _, err := f.certificates.IssueIfPassed(ctx, f.seedPassedResult(t, learner.ID, testCourseID).ID)
	require.NoError(t, err)
	assert.Equal(t, "Alameda", cert.Court.County)

	require.NoError(t, f.db.Model(&model.Learner{}).Where("id = ?", learner.ID).Updates(map[string]interface{}{
		"legal_name": "Ana Ruiz-Soto",
		"county":     "Marin",
	}).Error)

	stored, err := f.certificates.Get(ctx, learner.ID, testCourseID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Ruiz", stored.ParticipantName)
	assert.Equal(t, "Alameda", stored.Court.County)
	assert.Equal(t, cert.Court.CaseNumber, stored.Court.CaseNumber)

	corrected, err := f.certificates.CorrectParticipantName(ctx, cert.ID, "  Ana Ruiz-Soto ")
	require.NoError(t, err)
	assert.Equal(t, "Ana Ruiz-Soto", corrected.ParticipantName)
	assert.Equal(t, cert.CertificateNumber, corrected.CertificateNumber)
	assert.Equal(t, "Alameda", corrected.Court.County)

	_, err = f.certificates.CorrectParticipantName(ctx, cert.ID, " ")
	assert.ErrorIs(t, err, util.ErrInvalidInput)
}

func TestDownloadGatedByValidityWindow(t *testing.T) {
	f := newFixture(t)
	learner := f.seedLearner(t, "Ana Ruiz", testCourseID, true)
	ctx := context.Background()

	issuedAt := time.Date(2025, 3, 14, 9, 30, 0, 0, time.Local)
	f.certificates.Now = func() time.Time { return issuedAt }
	cert, _, err := f.certificates.IssueIfPassed(ctx, f.seedPassedResult(t, learner.ID, testCourseID).ID)
	require.NoError(t, err)
	assert.True(t, now.With(time.Date(2026, 3, 14, 0, 0, 0, 0, time.Local)).EndOfDay().Equal(cert.ExpiresAt))

	f.certificates.Now = func() time.Time { return time.Date(2026, 3, 14, 23, 0, 0, 0, time.Local) }
	dl, err := f.certificates.Download(ctx, learner.ID, testCourseID)
	require.NoError(t, err)
	assert.Equal(t, cert.CertificateNumber, dl.Document.CertificateNumber)
	assert.Equal(t, "/api/public/certificates/verify/"+cert.VerificationCode, dl.Document.VerifyPath)

	f.certificates.Now = func() time.Time { return time.Date(2026, 3, 15, 0, 0, 1, 0, time.Local) }
	_, err = f.certificates.Download(ctx, learner.ID, testCourseID)
	assert.ErrorIs(t, err, util.ErrCertificateExpired)

	// 过期证书保留，仍可查询和验证
	_, err = f.certificates.Get(ctx, learner.ID, testCourseID)
	require.NoError(t, err)
	v, err := f.certificates.Verify(ctx, cert.VerificationCode)
	require.NoError(t, err)
	assert.False(t, v.Current)
}

func TestVerifyByCode(t *testing.T) {
	f := newFixture(t)
	learner := f.seedLearner(t, "Ana Ruiz", testCourseID, true)
	ctx := context.Background()

	cert, _, err := f.certificates.IssueIfPassed(ctx, f.seedPassedResult(t, learner.ID, testCourseID).ID)
	require.NoError(t, err)

	v, err := f.certificates.Verify(ctx, "  "+cert.VerificationCode+" ")
	require.NoError(t, err)
	assert.Equal(t, cert.CertificateNumber, v.CertificateNumber)
	assert.Equal(t, "CA", v.State)
	assert.True(t, v.Current)

	_, err = f.certificates.Verify(ctx, "deadbeef")
	assert.ErrorIs(t, err, util.ErrCertificateNotFound)
	_, err = f.certificates.Verify(ctx, "")
	assert.ErrorIs(t, err, util.ErrCertificateNotFound)
}

func TestRevokeAllowsReissue(t *testing.T) {
	f := newFixture(t)
	learner := f.seedLearner(t, "Ana Ruiz", testCourseID, true)
	ctx := context.Background()
	result := f.seedPassedResult(t, learner.ID, testCourseID)

	first, _, err := f.certificates.IssueIfPassed(ctx, result.ID)
	require.NoError(t, err)
	require.NoError(t, f.certificates.Revoke(ctx, first.ID))
	assert.ErrorIs(t, f.certificates.Revoke(ctx, first.ID), util.ErrCertificateNotFound)

	_, err = f.certificates.Get(ctx, learner.ID, testCourseID)
	assert.ErrorIs(t, err, util.ErrCertificateNotFound)

	second, created, err := f.certificates.IssueIfPassed(ctx, result.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.CertificateNumber, second.CertificateNumber)
}

func TestFailedPublishIsRepublished(t *testing.T) {
	f := newFixture(t)
	learner := f.seedLearner(t, "Ana Ruiz", testCourseID, true)
	ctx := context.Background()

	f.events.Fail = true
	cert, created, err := f.certificates.IssueIfPassed(ctx, f.seedPassedResult(t, learner.ID, testCourseID).ID)
	require.NoError(t, err)
	require.True(t, created)

	pending, err := f.certs.ListPendingNotification(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	f.events.Fail = false
	sent, err := f.certificates.RepublishPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Equal(t, 1, f.events.count())
	assert.Equal(t, cert.CertificateNumber, f.events.Events[0].CertificateNumber)

	sent, err = f.certificates.RepublishPending(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestBindRecipient(t *testing.T) {
	f := newFixture(t)
	learner := f.seedLearner(t, "Ana Ruiz", testCourseID, true)
	ctx := context.Background()
	attorneys := []model.AttorneyRecord{
		{FirstName: "Maria", LastName: "Gonzalez", Email: "maria@gonzalezlaw.com"},
		{FirstName: "Tom", LastName: "Baker", Email: "tom@bakerlaw.com"},
	}
	require.NoError(t, f.attorneys.Create(ctx, attorneys))

	_, err := f.certificates.BindRecipient(ctx, learner.ID, testCourseID, attorneys[0].ID)
	assert.ErrorIs(t, err, util.ErrCertificateNotFound)

	_, _, err = f.certificates.IssueIfPassed(ctx, f.seedPassedResult(t, learner.ID, testCourseID).ID)
	require.NoError(t, err)

	rec, err := f.certificates.BindRecipient(ctx, learner.ID, testCourseID, attorneys[0].ID)
	require.NoError(t, err)
	assert.Equal(t, attorneys[0].ID, rec.AttorneyID)

	rec, err = f.certificates.BindRecipient(ctx, learner.ID, testCourseID, attorneys[1].ID)
	require.NoError(t, err)
	assert.Equal(t, attorneys[1].ID, rec.AttorneyID)
	assert.Equal(t, int64(1), f.countRows(t, &model.CertificateRecipient{}))

	_, err = f.certificates.BindRecipient(ctx, learner.ID, testCourseID, 9999)
	assert.ErrorIs(t, err, util.ErrAttorneyNotFound)
}
