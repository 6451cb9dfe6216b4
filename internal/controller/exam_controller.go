package controller

import (
	"courtcert_backend/internal/service"
	"courtcert_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

type ExamController struct {
	Service *service.ExamSessionService
}

func NewExamController(svc *service.ExamSessionService) *ExamController {
	return &ExamController{Service: svc}
}

// @Summary 开始或恢复期末考试
// @Description 已有进行中的考试时原样返回，resumable 为 true
// @Tags 期末考试
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param body body StartExamRequest false "设备会话"
// @Success 200 {object} util.Response{data=AttemptResponse}
// @Failure 403 {object} util.Response
// @Router /exams/{courseId}/start [post]
func (c *ExamController) StartOrResume(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	courseID, ok := parseUintParam(ctx, "courseId")
	if !ok {
		return
	}
	var req StartExamRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	res, err := c.Service.StartOrResume(ctx.Request.Context(), user.UserID, courseID, req.DeviceSession)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, toAttemptResponse(res.Attempt, res.Resumable))
}

// @Summary 重新开始期末考试
// @Description 丢弃进行中的考试并重新抽题
// @Tags 期末考试
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param body body StartExamRequest false "设备会话"
// @Success 201 {object} util.Response{data=AttemptResponse}
// @Router /exams/{courseId}/restart [post]
func (c *ExamController) Restart(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	courseID, ok := parseUintParam(ctx, "courseId")
	if !ok {
		return
	}
	var req StartExamRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	attempt, err := c.Service.Restart(ctx.Request.Context(), user.UserID, courseID, req.DeviceSession)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, toAttemptResponse(attempt, false))
}

// @Summary 恢复考试
// @Tags 期末考试
// @Produce json
// @Security ApiKeyAuth
// @Param attemptId path string true "考试ID"
// @Success 200 {object} util.Response{data=AttemptResponse}
// @Router /exams/attempts/{attemptId} [get]
func (c *ExamController) Resume(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	attempt, err := c.Service.Resume(ctx.Request.Context(), user.UserID, ctx.Param("attemptId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, toAttemptResponse(attempt, true))
}

// @Summary 提交答案
// @Description 只接受当前题号，答案为 A-D
// @Tags 期末考试
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param attemptId path string true "考试ID"
// @Param body body SubmitAnswerRequest true "答案"
// @Success 200 {object} util.Response{data=AttemptResponse}
// @Failure 400 {object} util.Response
// @Router /exams/attempts/{attemptId}/answers [post]
func (c *ExamController) SubmitAnswer(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempt, err := c.Service.SubmitAnswer(ctx.Request.Context(), user.UserID, ctx.Param("attemptId"), *req.QuestionIndex, req.Answer)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, toAttemptResponse(attempt, true))
}

// @Summary 交卷
// @Description 评分并记录成绩，通过时签发证书；重复交卷返回已有成绩
// @Tags 期末考试
// @Produce json
// @Security ApiKeyAuth
// @Param attemptId path string true "考试ID"
// @Success 200 {object} util.Response{data=FinalizeResponse}
// @Failure 409 {object} util.Response
// @Router /exams/attempts/{attemptId}/finalize [post]
func (c *ExamController) Finalize(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	out, err := c.Service.Finalize(ctx.Request.Context(), user.UserID, ctx.Param("attemptId"))
	if err != nil {
		respondError(ctx, err)
		return
	}

	resp := FinalizeResponse{Result: toResultResponse(out.Result)}
	if out.Certificate != nil {
		cert := toCertificateResponse(out.Certificate, time.Now())
		resp.Certificate = &cert
	}
	util.Success(ctx, resp)
}

// @Summary 考试成绩历史
// @Tags 期末考试
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=[]ResultResponse}
// @Router /exams/{courseId}/results [get]
func (c *ExamController) ListResults(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	courseID, ok := parseUintParam(ctx, "courseId")
	if !ok {
		return
	}

	results, err := c.Service.ListResults(ctx.Request.Context(), user.UserID, courseID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	list := make([]ResultResponse, 0, len(results))
	for i := range results {
		list = append(list, toResultResponse(&results[i]))
	}
	util.Success(ctx, list)
}
