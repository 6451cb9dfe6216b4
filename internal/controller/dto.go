package controller

import (
	"courtcert_backend/internal/model"
	"time"

	"github.com/jinzhu/copier"
)

type StartExamRequest struct {
	DeviceSession string `json:"deviceSession" binding:"max=64"`
}

type SubmitAnswerRequest struct {
	QuestionIndex *int   `json:"questionIndex" binding:"required,min=0"`
	Answer        string `json:"answer" binding:"required,max=1"`
}

type OptionView struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// QuestionView 学员看到的题目，不含正确答案与展示顺序映射
type QuestionView struct {
	Index   int          `json:"index"`
	Text    string       `json:"text"`
	Options []OptionView `json:"options"`
}

// AttemptResponse 不返回累计答对数，学员在交卷前拿不到逐题对错
type AttemptResponse struct {
	ID            string         `json:"id"`
	CourseID      uint           `json:"courseId"`
	DeviceSession string         `json:"deviceSession"`
	CurrentIndex  int            `json:"currentIndex"`
	Total         int            `json:"total"`
	Answers       []string       `json:"answers"`
	StartedAt     time.Time      `json:"startedAt"`
	Resumable     bool           `json:"resumable"`
	Questions     []QuestionView `json:"questions"`
}

func toAttemptResponse(a *model.ExamAttempt, resumable bool) AttemptResponse {
	var resp AttemptResponse
	copier.Copy(&resp, a)
	resp.Answers = append([]string{}, a.Answers...)
	resp.Resumable = resumable

	paper := a.Paper.Data()
	resp.Total = paper.Len()
	resp.Questions = make([]QuestionView, 0, paper.Len())
	for i, q := range paper.Questions {
		view := QuestionView{Index: i, Text: q.Text}
		for d, text := range q.Options {
			view.Options = append(view.Options, OptionView{Label: model.DisplayLabels[d], Text: text})
		}
		resp.Questions = append(resp.Questions, view)
	}
	return resp
}

type ResultResponse struct {
	ID           uint                   `json:"id"`
	CourseID     uint                   `json:"courseId"`
	AttemptID    string                 `json:"attemptId"`
	PaperVersion string                 `json:"paperVersion"`
	Correct      int                    `json:"correct"`
	Total        int                    `json:"total"`
	Score        float64                `json:"score"`
	Passed       bool                   `json:"passed"`
	CompletedAt  time.Time              `json:"completedAt"`
	Missed       []model.MissedQuestion `json:"missed"`
}

func toResultResponse(r *model.ExamResult) ResultResponse {
	var resp ResultResponse
	copier.Copy(&resp, r)
	resp.Missed = append([]model.MissedQuestion{}, r.Missed...)
	return resp
}

type CertificateResponse struct {
	ID                uint                `json:"id"`
	CourseID          uint                `json:"courseId"`
	CertificateNumber string              `json:"certificateNumber"`
	VerificationCode  string              `json:"verificationCode"`
	ParticipantName   string              `json:"participantName"`
	IssuedAt          time.Time           `json:"issuedAt"`
	ExpiresAt         time.Time           `json:"expiresAt"`
	Court             model.CourtSnapshot `json:"court"`
	Expired           bool                `json:"expired"`
}

func toCertificateResponse(c *model.Certificate, now time.Time) CertificateResponse {
	var resp CertificateResponse
	copier.Copy(&resp, c)
	resp.Court = c.Court
	resp.Expired = c.Expired(now)
	return resp
}

type FinalizeResponse struct {
	Result      ResultResponse       `json:"result"`
	Certificate *CertificateResponse `json:"certificate,omitempty"`
}

type IssueResponse struct {
	Certificate CertificateResponse `json:"certificate"`
	Created     bool                `json:"created"`
}

type BindRecipientRequest struct {
	AttorneyID uint `json:"attorneyId" binding:"required"`
}

type CorrectNameRequest struct {
	ParticipantName string `json:"participantName" binding:"required,max=200"`
}

type ImportQuestionBankRequest struct {
	Version   string                  `json:"version" binding:"required,max=32"`
	Questions []ImportQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

type ImportQuestionRequest struct {
	Text            string             `json:"text" binding:"required"`
	Options         []model.BankOption `json:"options" binding:"required,len=4"`
	CorrectPosition *int               `json:"correctPosition" binding:"required,min=0,max=3"`
}

type ImportAttorneysRequest struct {
	Attorneys []model.AttorneyRecord `json:"attorneys" binding:"required,min=1"`
}
