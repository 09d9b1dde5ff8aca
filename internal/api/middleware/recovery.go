package middleware

import (
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/linkup/pkg/logger"
	"github.com/d60-Lab/linkup/pkg/response"
)

// Recovery 捕获 panic，上报 sentry（若已初始化）并返回 500。
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		err := fmt.Errorf("panic: %v", recovered)
		logger.Error("panic recovered", zap.String("path", c.FullPath()), zap.Error(err))
		sentry.CaptureException(err)
		c.JSON(http.StatusInternalServerError, response.Response{Code: 500, Msg: "internal error"})
		c.Abort()
	})
}
