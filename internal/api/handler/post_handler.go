package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/d60-Lab/linkup/internal/api/middleware"
	"github.com/d60-Lab/linkup/pkg/response"
)

type createPostRequest struct {
	Body string `json:"body"`
	File string `json:"file"`
}

// CreatePost 发布帖子
// @Summary 发布帖子
// @Tags 帖子
// @Accept json
// @Produce json
// @Param request body createPostRequest true "帖子内容"
// @Success 200 {object} response.Response{data=model.Post}
// @Failure 400 {object} response.Response
// @Router /api/v1/posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.Body == "" && req.File == "" {
		response.BadRequest(c, "post needs a body or an attachment")
		return
	}
	viewer := middleware.ViewerID(c)
	post, err := h.postService.Create(c.Request.Context(), viewer, req.Body, req.File)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, post)
}

// UpdatePost 编辑帖子（仅 body 与 file 可改）
// @Summary 编辑帖子
// @Tags 帖子
// @Accept json
// @Produce json
// @Param id path string true "帖子ID"
// @Param request body createPostRequest true "帖子内容"
// @Success 200 {object} response.Response
// @Router /api/v1/posts/{id} [put]
func (h *Handler) UpdatePost(c *gin.Context) {
	id := c.Param("id")
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	existing, err := h.postService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "post not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	if existing.AuthorID != middleware.ViewerID(c) {
		response.BadRequest(c, "not the author")
		return
	}
	if err := h.postService.Update(c.Request.Context(), id, req.Body, req.File); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// DeletePost 删除帖子
// @Summary 删除帖子
// @Tags 帖子
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response
// @Router /api/v1/posts/{id} [delete]
func (h *Handler) DeletePost(c *gin.Context) {
	id := c.Param("id")
	existing, err := h.postService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "post not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	if existing.AuthorID != middleware.ViewerID(c) {
		response.BadRequest(c, "not the author")
		return
	}
	if err := h.postService.Delete(c.Request.Context(), id); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}

// ListUserPosts 查询某用户的帖子（个人主页）
// @Summary 查询用户帖子
// @Tags 帖子
// @Param user_id path string true "用户ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/users/{user_id}/posts [get]
func (h *Handler) ListUserPosts(c *gin.Context) {
	userID := c.Param("user_id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	posts, err := h.postService.ListByAuthor(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": posts})
}
