package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"partsshop_v1_202610/internal/facet"
	"partsshop_v1_202610/internal/service"
	"partsshop_v1_202610/pkg/logger"
)

// ==================== 统一响应 ====================

func ok(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": data,
	})
}

func okMsg(ctx *gin.Context, message string, data interface{}) {
	body := gin.H{
		"code":    0,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	ctx.JSON(http.StatusOK, body)
}

func badRequest(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusBadRequest, gin.H{
		"code":    400,
		"message": message,
	})
}

// fail 把业务错误映射为 HTTP 状态码
func fail(ctx *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.L().Error("[API] 请求处理失败",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.FullPath()),
			zap.Error(err))
	}
	ctx.JSON(status, gin.H{
		"code":    status,
		"message": err.Error(),
	})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, facet.ErrCategoryNotFound):
		return http.StatusNotFound
	case facet.IsMalformed(err),
		errors.Is(err, service.ErrInvalidArgument),
		errors.Is(err, service.ErrInvalidOldPassword):
		return http.StatusBadRequest
	case facet.IsCyclic(err),
		errors.Is(err, service.ErrDuplicateKey),
		errors.Is(err, service.ErrCategoryInUse),
		errors.Is(err, service.ErrAttributeInUse),
		errors.Is(err, service.ErrBrandInUse),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrInvalidStatusTransition),
		errors.Is(err, service.ErrUsernameExists),
		errors.Is(err, service.ErrEmailExists),
		errors.Is(err, service.ErrCannotDeleteAdmin):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrUserDisabled):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// paramID 解析路径中的正整数 ID
func paramID(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(ctx, "无效的 "+name)
		return 0, false
	}
	return id, true
}
