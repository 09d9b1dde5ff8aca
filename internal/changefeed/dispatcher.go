package changefeed

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/linkup/internal/model"
	"github.com/d60-Lab/linkup/pkg/logger"
)

// Dispatcher 轮询 outbox 并把 pending 事件发布到 Bus。
// 发布成功才置 done，失败回退 pending 等下一轮重试；认领后崩溃遗留的
// processing 行超过 staleClaimAge 会被重新入队，整体为至少一次投递。
// 假定单实例运行，不做行级抢占。
type Dispatcher struct {
	db           *gorm.DB
	bus          *Bus
	claimLimit   int
	pollInterval time.Duration
}

// staleClaimAge 之内的 processing 行视为仍在发布中
const staleClaimAge = 30 * time.Second

func NewDispatcher(db *gorm.DB, bus *Bus, claimLimit int, pollInterval time.Duration) *Dispatcher {
	if claimLimit <= 0 {
		claimLimit = 128
	}
	if pollInterval <= 0 {
		pollInterval = 50 * time.Millisecond
	}
	return &Dispatcher{db: db, bus: bus, claimLimit: claimLimit, pollInterval: pollInterval}
}

// Start 启动轮询；返回停止函数。
func (d *Dispatcher) Start() func(context.Context) error {
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(d.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if err := d.ProcessOnce(context.Background()); err != nil {
					logger.Warn("dispatcher: process failed", zap.Error(err))
				}
			}
		}
	}()
	return func(ctx context.Context) error {
		close(stop)
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ProcessOnce 处理一批 pending 事件（导出以便测试和 bench 直接驱动）。
func (d *Dispatcher) ProcessOnce(ctx context.Context) error {
	// 上次运行崩溃可能把行留在 processing，先捞回来
	cutoff := time.Now().Add(-staleClaimAge)
	if err := d.db.WithContext(ctx).
		Model(&model.Outbox{}).
		Where("status = ? AND updated_at < ?", "processing", cutoff).
		Update("status", "pending").Error; err != nil {
		return err
	}

	var batch []model.Outbox
	if err := d.db.WithContext(ctx).
		Where("status = ?", "pending").
		Order("created_at").
		Limit(d.claimLimit).
		Find(&batch).Error; err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	ids := make([]string, len(batch))
	for i, row := range batch {
		ids[i] = row.ID
	}
	if err := d.db.WithContext(ctx).
		Model(&model.Outbox{}).
		Where("id IN ?", ids).
		Update("status", "processing").Error; err != nil {
		return err
	}

	for _, row := range batch {
		ev := Event{Topic: row.Topic, Kind: Kind(row.Kind)}
		if row.Payload != "" {
			ev.New = json.RawMessage(row.Payload)
		}
		if row.OldPayload != "" {
			ev.Old = json.RawMessage(row.OldPayload)
		}

		if err := d.bus.Publish(ctx, ev); err != nil {
			logger.Warn("dispatcher: publish failed, requeue",
				zap.String("outbox_id", row.ID), zap.Error(err))
			_ = d.db.WithContext(ctx).
				Model(&model.Outbox{}).
				Where("id = ?", row.ID).
				Update("status", "pending").Error
			continue
		}

		now := time.Now()
		_ = d.db.WithContext(ctx).
			Model(&model.Outbox{}).
			Where("id = ?", row.ID).
			Updates(map[string]any{"status": "done", "processed_at": now}).Error
	}
	return nil
}
