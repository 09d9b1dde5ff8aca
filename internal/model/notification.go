package model

import "time"

// Notification 站内通知（点赞/评论/关注等），ReceiverID 决定投递对象
type Notification struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	SenderID   string `gorm:"type:varchar(36);index:idx_notification_sender"`
	ReceiverID string `gorm:"type:varchar(36);index:idx_notification_receiver;not null"`
	Title      string `gorm:"type:varchar(128)"`
	Data       string `gorm:"type:text"` // 跳转载荷（postId 等），JSON 字符串
	CreatedAt  time.Time
}

func (Notification) TableName() string { return "notifications" }
