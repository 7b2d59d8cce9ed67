package controller

import (
	"io"

	"github.com/gin-gonic/gin"

	"partsshop_v1_202610/internal/api/dto"
	"partsshop_v1_202610/internal/service"
	"partsshop_v1_202610/pkg/utils"
)

// UploadController 图片上传
type UploadController struct {
	storage *service.StorageService
}

func NewUploadController(storage *service.StorageService) *UploadController {
	return &UploadController{storage: storage}
}

// Upload 上传本地图片（multipart 字段 file）
// @Summary 上传图片
// @Tags Upload
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "图片"
// @Success 200 {object} dto.UploadResp
// @Router /api/admin/uploads [post]
func (c *UploadController) Upload(ctx *gin.Context) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		badRequest(ctx, "缺少文件: "+err.Error())
		return
	}
	if fh.Size > utils.MaxDownloadSize {
		badRequest(ctx, "文件过大")
		return
	}

	f, err := fh.Open()
	if err != nil {
		fail(ctx, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		fail(ctx, err)
		return
	}

	url, err := c.storage.UploadImage(ctx.Request.Context(), data, fh.Filename)
	if err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "上传成功", dto.UploadResp{URL: url})
}

// UploadRemote 抓取远程图片并转存
// @Summary 远程图片转存
// @Tags Upload
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.RemoteUploadReq true "图片地址"
// @Success 200 {object} dto.UploadResp
// @Router /api/admin/uploads/remote [post]
func (c *UploadController) UploadRemote(ctx *gin.Context) {
	var req dto.RemoteUploadReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "参数错误: "+err.Error())
		return
	}
	url, err := c.storage.UploadFromURL(ctx.Request.Context(), req.URL)
	if err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "上传成功", dto.UploadResp{URL: url})
}

// Delete 删除已上传的图片
// @Summary 删除图片
// @Tags Upload
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UploadResp true "图片地址"
// @Success 200 {object} map[string]interface{}
// @Router /api/admin/uploads [delete]
func (c *UploadController) Delete(ctx *gin.Context) {
	var req dto.UploadResp
	if err := ctx.ShouldBindJSON(&req); err != nil || req.URL == "" {
		badRequest(ctx, "缺少 url")
		return
	}
	if err := c.storage.Delete(ctx.Request.Context(), req.URL); err != nil {
		fail(ctx, err)
		return
	}
	okMsg(ctx, "删除成功", nil)
}
