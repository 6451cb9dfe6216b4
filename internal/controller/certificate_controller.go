package controller

import (
	"courtcert_backend/internal/service"
	"courtcert_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type CertificateController struct {
	Service *service.CertificateService
}

func NewCertificateController(svc *service.CertificateService) *CertificateController {
	return &CertificateController{Service: svc}
}

// @Summary 签发证书
// @Description 幂等：已签发时返回已有证书，created 为 false
// @Tags 证书
// @Produce json
// @Security ApiKeyAuth
// @Param resultId path int true "成绩ID"
// @Success 200 {object} util.Response{data=IssueResponse}
// @Failure 409 {object} util.Response
// @Router /certificates/results/{resultId}/issue [post]
func (c *CertificateController) Issue(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	resultID, ok := parseUintParam(ctx, "resultId")
	if !ok {
		return
	}

	cert, created, err := c.Service.IssueForLearner(ctx.Request.Context(), user.UserID, resultID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	resp := IssueResponse{Certificate: toCertificateResponse(cert, c.Service.Now()), Created: created}
	if created {
		util.Created(ctx, resp)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 获取证书
// @Tags 证书
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=CertificateResponse}
// @Router /certificates/{courseId} [get]
func (c *CertificateController) Get(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	courseID, ok := parseUintParam(ctx, "courseId")
	if !ok {
		return
	}

	cert, err := c.Service.Get(ctx.Request.Context(), user.UserID, courseID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, toCertificateResponse(cert, c.Service.Now()))
}

// @Summary 下载证书
// @Description 返回渲染数据与限时下载链接，过期证书返回 410
// @Tags 证书
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Success 200 {object} util.Response{data=service.CertificateDownload}
// @Failure 410 {object} util.Response
// @Router /certificates/{courseId}/download [get]
func (c *CertificateController) Download(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	courseID, ok := parseUintParam(ctx, "courseId")
	if !ok {
		return
	}

	dl, err := c.Service.Download(ctx.Request.Context(), user.UserID, courseID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, dl)
}

// @Summary 绑定律师副本接收人
// @Tags 证书
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param courseId path int true "课程ID"
// @Param body body BindRecipientRequest true "律师"
// @Success 200 {object} util.Response
// @Router /certificates/{courseId}/recipient [put]
func (c *CertificateController) BindRecipient(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}
	courseID, ok := parseUintParam(ctx, "courseId")
	if !ok {
		return
	}
	var req BindRecipientRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	recipient, err := c.Service.BindRecipient(ctx.Request.Context(), user.UserID, courseID, req.AttorneyID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, recipient)
}

// @Summary 验证证书
// @Description 凭验证码公开核验证书，无需登录
// @Tags 证书
// @Produce json
// @Param code path string true "验证码"
// @Success 200 {object} util.Response{data=service.CertificateVerification}
// @Router /public/certificates/verify/{code} [get]
func (c *CertificateController) Verify(ctx *gin.Context) {
	v, err := c.Service.Verify(ctx.Request.Context(), ctx.Param("code"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, v)
}

// @Summary 更正证书姓名
// @Tags 管理员
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "证书ID"
// @Param body body CorrectNameRequest true "姓名"
// @Success 200 {object} util.Response{data=CertificateResponse}
// @Router /admin/certificates/{id}/name [put]
func (c *CertificateController) CorrectName(ctx *gin.Context) {
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}
	var req CorrectNameRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	cert, err := c.Service.CorrectParticipantName(ctx.Request.Context(), id, req.ParticipantName)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, toCertificateResponse(cert, c.Service.Now()))
}

// @Summary 撤销证书
// @Tags 管理员
// @Security ApiKeyAuth
// @Param id path int true "证书ID"
// @Success 204
// @Router /admin/certificates/{id} [delete]
func (c *CertificateController) Revoke(ctx *gin.Context) {
	id, ok := parseUintParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.Service.Revoke(ctx.Request.Context(), id); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
