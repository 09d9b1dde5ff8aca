package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/d60-Lab/linkup/internal/api/middleware"
	"github.com/d60-Lab/linkup/pkg/response"
)

// GetUser 查询用户资料（含粉丝/关注计数）
// @Summary 查询用户资料
// @Tags 用户
// @Param user_id path string true "用户ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/users/{user_id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	id := c.Param("user_id")
	u, err := h.userRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	followers, err := h.relService.FollowersCount(c.Request.Context(), id)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	following, err := h.relService.FollowingCount(c.Request.Context(), id)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{
		"user":      u,
		"followers": followers,
		"following": following,
	})
}

type updateProfileRequest struct {
	Username string `json:"username" binding:"required"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
}

// UpdateProfile 修改当前用户资料，并让信息流里的作者快照缓存失效
// @Summary 修改个人资料
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body updateProfileRequest true "资料内容"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/users/me [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	viewer := middleware.ViewerID(c)
	if err := h.userRepo.UpdateProfile(c.Request.Context(), viewer, req.Username, req.Bio, req.Image); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	h.profiles.Invalidate(c.Request.Context(), viewer)
	response.Success(c, nil)
}

// SearchUsers 按昵称搜索用户
// @Summary 搜索用户
// @Tags 用户
// @Param q query string true "昵称子串"
// @Param limit query int false "返回上限" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/users/search [get]
func (h *Handler) SearchUsers(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.BadRequest(c, "missing query")
		return
	}
	limit := 20
	users, err := h.userRepo.Search(c.Request.Context(), q, limit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"list": users})
}
