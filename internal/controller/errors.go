package controller

import (
	"courtcert_backend/internal/util"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// respondError 将领域错误映射为 HTTP 状态码，未知错误记录日志后返回通用 500
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrNotEligible):
		util.Error(ctx, http.StatusForbidden, "learner is not eligible for this exam")
	case errors.Is(err, util.ErrInvalidSubmission), errors.Is(err, util.ErrInvalidInput):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrAttemptNotFound),
		errors.Is(err, util.ErrResultNotFound),
		errors.Is(err, util.ErrCertificateNotFound),
		errors.Is(err, util.ErrLearnerNotFound),
		errors.Is(err, util.ErrAttorneyNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrCertificateExpired):
		util.Gone(ctx, "certificate has expired")
	case errors.Is(err, util.ErrExamNotPassed):
		util.Conflict(ctx, "exam was not passed")
	case errors.Is(err, util.ErrAttemptIncomplete):
		util.Conflict(ctx, err.Error())
	default:
		// 包括 ErrConfiguration 与 ErrIdentifierExhausted，细节只写日志
		util.LogInternalError(ctx, err)
	}
}

func parseUintParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func currentUser(ctx *gin.Context) (*util.Claims, bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return nil, false
	}
	return claims, true
}
