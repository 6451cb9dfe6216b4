package controller

import (
	"courtcert_backend/internal/service"
	"courtcert_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AttorneyController struct {
	Service *service.AttorneyService
}

func NewAttorneyController(svc *service.AttorneyService) *AttorneyController {
	return &AttorneyController{Service: svc}
}

// @Summary 查找律师
// @Description 先按邮箱精确匹配，再按邮箱前缀，最后按姓名模糊匹配；没有结果时返回空列表
// @Tags 律师
// @Produce json
// @Security ApiKeyAuth
// @Param name query string false "姓名片段"
// @Param email query string false "邮箱片段"
// @Success 200 {object} util.Response{data=service.AttorneyResolution}
// @Router /attorneys/resolve [get]
func (c *AttorneyController) Resolve(ctx *gin.Context) {
	name := ctx.Query("name")
	email := ctx.Query("email")
	if name == "" && email == "" {
		util.BadRequest(ctx, "name or email is required")
		return
	}

	res, err := c.Service.Resolve(ctx.Request.Context(), name, email)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// @Summary 导入律师名录
// @Tags 管理员
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body ImportAttorneysRequest true "律师列表"
// @Success 201 {object} util.Response
// @Router /admin/attorneys [post]
func (c *AttorneyController) Import(ctx *gin.Context) {
	var req ImportAttorneysRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	n, err := c.Service.Import(ctx.Request.Context(), req.Attorneys)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"imported": n})
}
