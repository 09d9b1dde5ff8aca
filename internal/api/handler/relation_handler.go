package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/linkup/internal/api/middleware"
	"github.com/d60-Lab/linkup/internal/service"
	"github.com/d60-Lab/linkup/pkg/response"
)

type followRequest struct {
	ToUserID string `json:"to_user_id" binding:"required,userid"`
}

// Follow 建立关注（粉丝表异步冗余）
// @Summary 关注用户
// @Tags 关系链
// @Accept json
// @Produce json
// @Param request body followRequest true "关注对象"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/relations/follow [post]
func (h *Handler) Follow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	viewer := middleware.ViewerID(c)
	if err := h.relService.Follow(c.Request.Context(), viewer, req.ToUserID); err != nil {
		if errors.Is(err, service.ErrFollowSelf) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// Unfollow 取消关注
// @Summary 取消关注
// @Tags 关系链
// @Accept json
// @Produce json
// @Param request body followRequest true "取关对象"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/v1/relations/unfollow [post]
func (h *Handler) Unfollow(c *gin.Context) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	viewer := middleware.ViewerID(c)
	if err := h.relService.Unfollow(c.Request.Context(), viewer, req.ToUserID); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// FollowStatus 查询当前用户是否关注了目标用户
// @Summary 查询关注状态
// @Tags 关系链
// @Param user_id path string true "目标用户ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/relations/{user_id}/status [get]
func (h *Handler) FollowStatus(c *gin.Context) {
	viewer := middleware.ViewerID(c)
	target := c.Param("user_id")
	following, err := h.relService.IsFollowing(c.Request.Context(), viewer, target)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"following": following})
}

// FollowCounts 查询某用户的粉丝数与关注数
// @Summary 查询关注/粉丝计数
// @Tags 关系链
// @Param user_id path string true "用户ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/relations/{user_id}/counts [get]
func (h *Handler) FollowCounts(c *gin.Context) {
	target := c.Param("user_id")
	followers, err := h.relService.FollowersCount(c.Request.Context(), target)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	following, err := h.relService.FollowingCount(c.Request.Context(), target)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"followers": followers, "following": following})
}

// ListFollowing 查询某用户关注的人（带资料快照）
// @Summary 查询关注列表
// @Tags 关系链
// @Param user_id path string true "用户ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/relations/{user_id}/following [get]
func (h *Handler) ListFollowing(c *gin.Context) {
	userID := c.Param("user_id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	ids, err := h.relService.ListFollowing(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	list, err := h.profiles.GetMulti(c.Request.Context(), ids)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// ListFans 查询某用户的粉丝（来自冗余表，带资料快照）
// @Summary 查询粉丝列表（来自冗余表）
// @Tags 关系链
// @Param user_id path string true "用户ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/relations/{user_id}/fans [get]
func (h *Handler) ListFans(c *gin.Context) {
	userID := c.Param("user_id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	ids, err := h.relService.ListFans(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	list, err := h.profiles.GetMulti(c.Request.Context(), ids)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}
