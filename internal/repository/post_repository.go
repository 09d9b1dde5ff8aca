package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/linkup/internal/model"
)

type PostRepository interface {
	// FetchFeed 按创建时间倒序取 authorIDs 发布的帖子，最多 limit 条（作者资料一并带出）
	FetchFeed(ctx context.Context, limit int, authorIDs []string) ([]*model.Post, error)
	ListByAuthor(ctx context.Context, authorID string, offset, limit int) ([]*model.Post, error)
	GetByID(ctx context.Context, id string) (*model.Post, error)
	Create(ctx context.Context, tx *gorm.DB, post *model.Post) error
	// Update 只允许改 body 与 file
	Update(ctx context.Context, tx *gorm.DB, id string, body, file string) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository { return &postRepository{db: db} }

func (r *postRepository) FetchFeed(ctx context.Context, limit int, authorIDs []string) ([]*model.Post, error) {
	var res []*model.Post
	if len(authorIDs) == 0 {
		return res, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("author_id IN ?", authorIDs).
		Order("created_at DESC").
		Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID string, offset, limit int) ([]*model.Post, error) {
	var res []*model.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	if err := r.db.WithContext(ctx).Preload("Author").Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// 写路径接收事务句柄，便于 service 层把帖子与 outbox 事件放进同一事务。
// tx 传 nil 时退回仓储自身的 db。

func (r *postRepository) Create(ctx context.Context, tx *gorm.DB, post *model.Post) error {
	return r.conn(tx).WithContext(ctx).Create(post).Error
}

func (r *postRepository) Update(ctx context.Context, tx *gorm.DB, id string, body, file string) error {
	return r.conn(tx).WithContext(ctx).
		Model(&model.Post{}).
		Where("id = ?", id).
		Updates(map[string]any{"body": body, "file": file}).Error
}

func (r *postRepository) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	return r.conn(tx).WithContext(ctx).Where("id = ?", id).Delete(&model.Post{}).Error
}

func (r *postRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
