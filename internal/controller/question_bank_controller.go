package controller

import (
	"courtcert_backend/internal/service"
	"courtcert_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuestionBankController struct {
	Service *service.QuestionBankService
}

func NewQuestionBankController(svc *service.QuestionBankService) *QuestionBankController {
	return &QuestionBankController{Service: svc}
}

// @Summary 导入题库版本
// @Tags 管理员
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param body body ImportQuestionBankRequest true "题库"
// @Success 201 {object} util.Response
// @Router /admin/courses/{courseId}/question-bank [post]
func (c *QuestionBankController) Import(ctx *gin.Context) {
	courseID, ok := parseUintParam(ctx, "courseId")
	if !ok {
		return
	}
	var req ImportQuestionBankRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	questions := make([]service.BankQuestionInput, 0, len(req.Questions))
	for _, q := range req.Questions {
		questions = append(questions, service.BankQuestionInput{
			Text:            q.Text,
			Options:         q.Options,
			CorrectPosition: *q.CorrectPosition,
		})
	}

	n, err := c.Service.ImportVersion(ctx.Request.Context(), courseID, req.Version, questions)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"version": req.Version, "imported": n})
}
