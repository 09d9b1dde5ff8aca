package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/linkup/internal/api/middleware"
	"github.com/d60-Lab/linkup/pkg/response"
)

// ListNotifications 查询当前用户的通知。带 session_id 时顺带清零该会话的
// 未读计数（查看通知页即视为已读）。
// @Summary 查询通知列表
// @Tags 通知
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Param session_id query string false "要清零未读计数的信息流会话"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	viewer := middleware.ViewerID(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	list, err := h.notifRepo.ListByReceiver(c.Request.Context(), viewer, (page-1)*pageSize, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	if sid := c.Query("session_id"); sid != "" {
		if s, ok := h.feedManager.Get(sid); ok && s.ViewerID == viewer {
			s.Counter().Reset()
		}
	}

	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}
