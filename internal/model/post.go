package model

import "time"

// Post 内容主体。Body 与 File 为创建后唯一可变的字段。
type Post struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	AuthorID  string    `gorm:"type:varchar(36);index:idx_post_author;not null"`
	Body      string    `gorm:"type:text"`
	File      string    `gorm:"type:varchar(255)"` // 附件在对象存储中的路径，可为空
	CreatedAt time.Time `gorm:"index:idx_post_created"`
	UpdatedAt time.Time

	// belongs-to 作者，Fetch 时 Preload
	Author *User `gorm:"foreignKey:AuthorID"`
}

func (Post) TableName() string { return "posts" }
