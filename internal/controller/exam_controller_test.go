package controller

import (
	"bytes"
	"context"
	"courtcert_backend/internal/config"
	"courtcert_backend/internal/middleware"
	"courtcert_backend/internal/model"
	"courtcert_backend/internal/repository"
	"courtcert_backend/internal/service"
	"courtcert_backend/internal/util"
	"courtcert_backend/pkg/database"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret-test-secret-test-secret"

type examAPI struct {
	db     *gorm.DB
	router *gin.Engine
	token  string
}

func newExamAPI(t *testing.T, questions int) *examAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := database.InitDB(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	}, true)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	learner := &model.Learner{Name: "Ana Ruiz", Email: "ana@example.com", LegalName: "Ana Ruiz", State: "CA"}
	require.NoError(t, db.Create(learner).Error)
	require.NoError(t, db.Create(&model.Enrollment{UserID: learner.ID, CourseID: 1, Paid: true, LessonsCompleted: true}).Error)

	bankRepo := repository.NewQuestionBankRepository(db)
	bank := service.NewQuestionBankService(bankRepo)
	inputs := make([]service.BankQuestionInput, 0, questions)
	for i := 0; i < questions; i++ {
		inputs = append(inputs, service.BankQuestionInput{
			Text: fmt.Sprintf("question %d", i),
			Options: []model.BankOption{
				{Text: "right", Remediation: "none"},
				{Text: "wrong 1", Remediation: "lesson-1"},
				{Text: "wrong 2", Remediation: "lesson-2"},
				{Text: "wrong 3", Remediation: "lesson-3"},
			},
			CorrectPosition: 0,
		})
	}
	_, err = bank.ImportVersion(context.Background(), 1, "v1", inputs)
	require.NoError(t, err)

	learners := repository.NewLearnerRepository(db)
	attempts := repository.NewAttemptRepository(db, nil)
	results := repository.NewExamResultRepository(db, attempts)
	certs := repository.NewCertificateRepository(db)
	attorneys := repository.NewAttorneyRepository(db)

	certSvc := service.NewCertificateService(certs, results, attorneys, learners, nil, service.LogPublisher{}, config.CertificateConfig{
		ValidityMonths:      12,
		MaxGenerateAttempts: 5,
	})
	session := service.NewExamSessionService(
		learners,
		attempts,
		service.NewQuestionSelector(bankRepo, questions),
		service.NewGradingService(results, 0.70),
		certSvc,
	)

	exams := NewExamController(session)
	certificates := NewCertificateController(certSvc)

	router := gin.New()
	api := router.Group("/api")
	api.GET("/public/certificates/verify/:code", certificates.Verify)
	auth := api.Group("")
	auth.Use(middleware.AuthMiddleware(testSecret))
	auth.POST("/exams/:courseId/start", exams.StartOrResume)
	auth.GET("/exams/attempts/:attemptId", exams.Resume)
	auth.POST("/exams/attempts/:attemptId/answers", exams.SubmitAnswer)
	auth.POST("/exams/attempts/:attemptId/finalize", exams.Finalize)
	auth.GET("/certificates/:courseId", certificates.Get)

	token, err := util.GenerateJWT(learner, model.Student, testSecret, time.Hour)
	require.NoError(t, err)
	return &examAPI{db: db, router: router, token: token}
}

func (a *examAPI) do(t *testing.T, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	if out != nil && w.Code < 300 {
		env := struct {
			Data json.RawMessage `json:"data"`
		}{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return w.Code
}

func TestExamFlowOverHTTP(t *testing.T) {
	api := newExamAPI(t, 5)

	var attempt AttemptResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/api/exams/1/start", nil, &attempt))
	require.Len(t, attempt.Questions, 5)
	assert.False(t, attempt.Resumable)

	// 学员视图只有题面与 A-D 选项
	raw := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/exams/attempts/"+attempt.ID, nil)
	req.Header.Set("Authorization", "Bearer "+api.token)
	api.router.ServeHTTP(raw, req)
	require.Equal(t, http.StatusOK, raw.Code)
	assert.NotContains(t, raw.Body.String(), "correctPosition")
	assert.NotContains(t, raw.Body.String(), "remediation")
	assert.NotContains(t, raw.Body.String(), "order")

	for i, q := range attempt.Questions {
		label := ""
		for _, o := range q.Options {
			if o.Text == "right" {
				label = o.Label
			}
		}
		require.NotEmpty(t, label)
		code := api.do(t, http.MethodPost, "/api/exams/attempts/"+attempt.ID+"/answers",
			SubmitAnswerRequest{QuestionIndex: &i, Answer: label}, nil)
		require.Equal(t, http.StatusOK, code)
	}

	var out FinalizeResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/api/exams/attempts/"+attempt.ID+"/finalize", nil, &out))
	assert.True(t, out.Result.Passed)
	require.NotNil(t, out.Certificate)

	var again FinalizeResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/api/exams/attempts/"+attempt.ID+"/finalize", nil, &again))
	require.NotNil(t, again.Certificate)
	assert.Equal(t, out.Certificate.CertificateNumber, again.Certificate.CertificateNumber)

	var cert CertificateResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/certificates/1", nil, &cert))
	assert.Equal(t, out.Certificate.CertificateNumber, cert.CertificateNumber)

	api.token = ""
	var verified service.CertificateVerification
	require.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/public/certificates/verify/"+cert.VerificationCode, nil, &verified))
	assert.Equal(t, "Ana Ruiz", verified.ParticipantName)
}

func TestExamEndpointsMapErrors(t *testing.T) {
	api := newExamAPI(t, 5)

	var attempt AttemptResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/api/exams/1/start", nil, &attempt))

	two := 2
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodPost, "/api/exams/attempts/"+attempt.ID+"/answers",
		SubmitAnswerRequest{QuestionIndex: &two, Answer: "A"}, nil))
	assert.Equal(t, http.StatusConflict, api.do(t, http.MethodPost, "/api/exams/attempts/"+attempt.ID+"/finalize", nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/api/exams/attempts/missing", nil, nil))
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodPost, "/api/exams/2/start", nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/api/certificates/1", nil, nil))

	api.token = "not-a-jwt"
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodPost, "/api/exams/1/start", nil, nil))
}

func TestExamResponsesWithholdAnswerKey(t *testing.T) {
	api := newExamAPI(t, 5)

	var attempt AttemptResponse
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/api/exams/1/start", nil, &attempt))

	raw := func(method, path string, body interface{}) string {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+api.token)
		w := httptest.NewRecorder()
		api.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		return w.Body.String()
	}

	// 每题都选错误选项
	for i, q := range attempt.Questions {
		label := ""
		for _, o := range q.Options {
			if o.Text != "right" {
				label = o.Label
				break
			}
		}
		body := raw(http.MethodPost, "/api/exams/attempts/"+attempt.ID+"/answers", SubmitAnswerRequest{QuestionIndex: &i, Answer: label})
		assert.NotContains(t, body, "correctCount")
		assert.NotContains(t, body, "correct\"")
	}

	body := raw(http.MethodPost, "/api/exams/attempts/"+attempt.ID+"/finalize", nil)
	assert.NotContains(t, body, "correctLabel")
	assert.NotContains(t, body, "correctPosition")

	var out FinalizeResponse
	env := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal([]byte(body), &env))
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.False(t, out.Result.Passed)
	assert.Zero(t, out.Result.Correct)
	require.Len(t, out.Result.Missed, 5)
	for _, m := range out.Result.Missed {
		assert.Contains(t, []string{"lesson-1", "lesson-2", "lesson-3"}, m.Remediation)
	}
	assert.Nil(t, out.Certificate)
}
