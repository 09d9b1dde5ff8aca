package model

import "time"

// User 用户资料（昵称/头像供信息流反范化快照使用）
type User struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Username  string `gorm:"type:varchar(64);index:idx_user_name;not null"`
	Email     string `gorm:"type:varchar(128);uniqueIndex"`
	Bio       string `gorm:"type:text"`
	Image     string `gorm:"type:varchar(255)"` // 头像在对象存储中的路径
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string { return "users" }
