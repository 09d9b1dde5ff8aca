package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/linkup/internal/changefeed"
	"github.com/d60-Lab/linkup/internal/model"
	"github.com/d60-Lab/linkup/internal/repository"
)

// PostService 负责帖子与通知的写路径：业务行和 outbox 事件落进同一事务，
// 变更通知由 Dispatcher 异步发布。
type PostService interface {
	Create(ctx context.Context, authorID, body, file string) (*model.Post, error)
	Update(ctx context.Context, id, body, file string) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	ListByAuthor(ctx context.Context, authorID string, page, pageSize int) ([]*model.Post, error)
	Notify(ctx context.Context, n *model.Notification) error
}

type postService struct {
	db               *gorm.DB
	postRepo         repository.PostRepository
	notificationRepo repository.NotificationRepository
}

func NewPostService(db *gorm.DB, postRepo repository.PostRepository, notificationRepo repository.NotificationRepository) PostService {
	return &postService{db: db, postRepo: postRepo, notificationRepo: notificationRepo}
}

func (s *postService) Create(ctx context.Context, authorID, body, file string) (*model.Post, error) {
	now := time.Now()
	post := &model.Post{
		ID:        uuid.New().String(),
		AuthorID:  authorID,
		Body:      body,
		File:      file,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.postRepo.Create(ctx, tx, post); err != nil {
			return err
		}
		return appendOutbox(ctx, tx, changefeed.TopicPosts, changefeed.KindInsert, post.ID, postRecord(post), nil)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) Update(ctx context.Context, id, body, file string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.postRepo.Update(ctx, tx, id, body, file); err != nil {
			return err
		}
		var updated model.Post
		if err := tx.Where("id = ?", id).First(&updated).Error; err != nil {
			return err
		}
		return appendOutbox(ctx, tx, changefeed.TopicPosts, changefeed.KindUpdate, id, postRecord(&updated), nil)
	})
}

func (s *postService) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.postRepo.Delete(ctx, tx, id); err != nil {
			return err
		}
		return appendOutbox(ctx, tx, changefeed.TopicPosts, changefeed.KindDelete, id, nil,
			&changefeed.PostRecord{ID: id})
	})
}

func (s *postService) GetByID(ctx context.Context, id string) (*model.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

func (s *postService) ListByAuthor(ctx context.Context, authorID string, page, pageSize int) ([]*model.Post, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return s.postRepo.ListByAuthor(ctx, authorID, (page-1)*pageSize, pageSize)
}

// Notify 落地一条站内通知并外发 insert 事件。
func (s *postService) Notify(ctx context.Context, n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.notificationRepo.Create(ctx, tx, n); err != nil {
			return err
		}
		rec := &changefeed.NotificationRecord{
			ID:         n.ID,
			SenderID:   n.SenderID,
			ReceiverID: n.ReceiverID,
			Title:      n.Title,
			Data:       n.Data,
		}
		return appendOutbox(ctx, tx, changefeed.TopicNotifications, changefeed.KindInsert, n.ID, rec, nil)
	})
}

func postRecord(p *model.Post) *changefeed.PostRecord {
	return &changefeed.PostRecord{
		ID:        p.ID,
		AuthorID:  p.AuthorID,
		Body:      p.Body,
		File:      p.File,
		CreatedAt: p.CreatedAt,
	}
}

func appendOutbox(ctx context.Context, tx *gorm.DB, topic string, kind changefeed.Kind, recordID string, payload, old any) error {
	row := &model.Outbox{
		ID:        uuid.New().String(),
		Topic:     topic,
		Kind:      string(kind),
		RecordID:  recordID,
		CreatedAt: time.Now(),
		Status:    "pending",
	}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		row.Payload = string(b)
	}
	if old != nil {
		b, err := json.Marshal(old)
		if err != nil {
			return err
		}
		row.OldPayload = string(b)
	}
	return tx.WithContext(ctx).Create(row).Error
}
