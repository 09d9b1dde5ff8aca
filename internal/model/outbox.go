package model

import "time"

// Outbox 变更事件外发盒：与业务写入同事务落地，由 Dispatcher 轮询发布。
// 发布成功前不置 done，投递语义为至少一次。
type Outbox struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	Topic       string    `gorm:"type:varchar(32);index:idx_outbox_topic;not null"` // posts, notifications
	Kind        string    `gorm:"type:varchar(16);not null"`                        // insert, update, delete
	RecordID    string    `gorm:"type:varchar(36);index:idx_outbox_record"`
	Payload     string    `gorm:"type:text"` // 变更后记录 JSON，delete 时为空
	OldPayload  string    `gorm:"type:text"` // 变更前记录 JSON，delete 时携带 id
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time // 最近一次状态变化，processing 行按它判定是否滞留
	Status      string    `gorm:"type:varchar(16);index"` // pending, processing, done
	ProcessedAt *time.Time
}

func (Outbox) TableName() string { return "outbox" }
