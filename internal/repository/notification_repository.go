package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/d60-Lab/linkup/internal/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, n *model.Notification) error
	ListByReceiver(ctx context.Context, receiverID string, offset, limit int) ([]*model.Notification, error)
}

type notificationRepository struct{ db *gorm.DB }

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, tx *gorm.DB, n *model.Notification) error {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	return conn.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) ListByReceiver(ctx context.Context, receiverID string, offset, limit int) ([]*model.Notification, error) {
	var res []*model.Notification
	err := r.db.WithContext(ctx).
		Where("receiver_id = ?", receiverID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}
