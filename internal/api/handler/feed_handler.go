package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/linkup/internal/api/middleware"
	"github.com/d60-Lab/linkup/internal/feed"
	"github.com/d60-Lab/linkup/pkg/response"
)

// OpenFeedSession 打开一个信息流会话并订阅实时变更
// @Summary 打开信息流会话
// @Tags 信息流
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/feed/sessions [post]
func (h *Handler) OpenFeedSession(c *gin.Context) {
	viewer := middleware.ViewerID(c)
	s, err := h.feedManager.Open(c.Request.Context(), viewer)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"session_id": s.ID})
}

// FeedLoadMore 拉下一页并返回合并后的整个列表
// @Summary 信息流加载更多
// @Tags 信息流
// @Param id path string true "会话ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/feed/sessions/{id}/more [post]
func (h *Handler) FeedLoadMore(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if _, err := s.LoadMore(c.Request.Context()); err != nil {
		if errors.Is(err, feed.ErrSessionClosed) {
			response.NotFound(c, "session closed")
			return
		}
		response.InternalError(c, err)
		return
	}
	posts, hasMore, err := s.Snapshot(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"posts": posts, "has_more": hasMore})
}

// FeedSnapshot 返回会话当前可见列表
// @Summary 信息流快照
// @Tags 信息流
// @Param id path string true "会话ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/feed/sessions/{id} [get]
func (h *Handler) FeedSnapshot(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	posts, hasMore, err := s.Snapshot(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{
		"posts":              posts,
		"has_more":           hasMore,
		"notification_count": s.Counter().Value(),
	})
}

// CloseFeedSession 关闭会话，退订实时变更
// @Summary 关闭信息流会话
// @Tags 信息流
// @Param id path string true "会话ID"
// @Success 200 {object} response.Response
// @Router /api/v1/feed/sessions/{id} [delete]
func (h *Handler) CloseFeedSession(c *gin.Context) {
	if !h.feedManager.Close(c.Param("id")) {
		response.NotFound(c, "session not found")
		return
	}
	response.Success(c, nil)
}

// session 取会话并校验归属；失败时已写响应。
func (h *Handler) session(c *gin.Context) (*feed.Session, bool) {
	s, ok := h.feedManager.Get(c.Param("id"))
	if !ok {
		response.NotFound(c, "session not found")
		return nil, false
	}
	if s.ViewerID != middleware.ViewerID(c) {
		response.NotFound(c, "session not found")
		return nil, false
	}
	return s, true
}
