package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/linkup/internal/model"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]*model.User, error)
	// Search 按昵称子串查找用户（搜索页）
	Search(ctx context.Context, query string, limit int) ([]*model.User, error)
	Create(ctx context.Context, user *model.User) error
	// UpdateProfile 只允许改昵称/简介/头像
	UpdateProfile(ctx context.Context, id string, username, bio, image string) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	var res []*model.User
	if len(ids) == 0 {
		return res, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&res).Error
	return res, err
}

func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]*model.User, error) {
	var res []*model.User
	if limit <= 0 {
		limit = 20
	}
	err := r.db.WithContext(ctx).
		Where("username LIKE ?", "%"+query+"%").
		Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) UpdateProfile(ctx context.Context, id string, username, bio, image string) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"username": username, "bio": bio, "image": image})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
