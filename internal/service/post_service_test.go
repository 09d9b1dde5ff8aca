package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/linkup/internal/changefeed"
	"github.com/d60-Lab/linkup/internal/model"
	"github.com/d60-Lab/linkup/internal/repository"
	"github.com/d60-Lab/linkup/pkg/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newPostService(t *testing.T) (PostService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewPostService(db, repository.NewPostRepository(db), repository.NewNotificationRepository(db)), db
}

func pendingOutbox(t *testing.T, db *gorm.DB, topic string, kind changefeed.Kind) []model.Outbox {
	t.Helper()
	var rows []model.Outbox
	require.NoError(t, db.
		Where("topic = ? AND kind = ? AND status = ?", topic, string(kind), "pending").
		Find(&rows).Error)
	return rows
}

func TestPostCreateWritesOutbox(t *testing.T) {
	svc, db := newPostService(t)
	ctx := context.Background()

	post, err := svc.Create(ctx, "author-1", "hello world", "pic.jpg")
	require.NoError(t, err)
	require.NotEmpty(t, post.ID)

	rows := pendingOutbox(t, db, changefeed.TopicPosts, changefeed.KindInsert)
	require.Len(t, rows, 1)
	require.Equal(t, post.ID, rows[0].RecordID)
	require.Empty(t, rows[0].OldPayload)

	ev := changefeed.Event{Kind: changefeed.KindInsert, New: []byte(rows[0].Payload)}
	rec, err := ev.DecodePost()
	require.NoError(t, err)
	require.Equal(t, post.ID, rec.ID)
	require.Equal(t, "author-1", rec.AuthorID)
	require.Equal(t, "hello world", rec.Body)
	require.Equal(t, "pic.jpg", rec.File)
}

func TestPostUpdateWritesOutboxWithNewState(t *testing.T) {
	svc, db := newPostService(t)
	ctx := context.Background()

	post, err := svc.Create(ctx, "author-1", "v1", "")
	require.NoError(t, err)
	require.NoError(t, svc.Update(ctx, post.ID, "v2", "new.jpg"))

	got, err := svc.GetByID(ctx, post.ID)
	require.NoError(t, err)
	require.Equal(t, "v2", got.Body)
	require.Equal(t, "new.jpg", got.File)
	require.Equal(t, "author-1", got.AuthorID)

	rows := pendingOutbox(t, db, changefeed.TopicPosts, changefeed.KindUpdate)
	require.Len(t, rows, 1)
	ev := changefeed.Event{Kind: changefeed.KindUpdate, New: []byte(rows[0].Payload)}
	rec, err := ev.DecodePost()
	require.NoError(t, err)
	require.Equal(t, "v2", rec.Body)
	require.Equal(t, "new.jpg", rec.File)
}

func TestPostUpdateMissingRowRollsBack(t *testing.T) {
	svc, db := newPostService(t)
	ctx := context.Background()

	err := svc.Update(ctx, "no-such-post", "body", "")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.Empty(t, pendingOutbox(t, db, changefeed.TopicPosts, changefeed.KindUpdate))
}

func TestPostDeleteWritesOldPayload(t *testing.T) {
	svc, db := newPostService(t)
	ctx := context.Background()

	post, err := svc.Create(ctx, "author-1", "to delete", "")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, post.ID))

	_, err = svc.GetByID(ctx, post.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	rows := pendingOutbox(t, db, changefeed.TopicPosts, changefeed.KindDelete)
	require.Len(t, rows, 1)
	require.Empty(t, rows[0].Payload)

	ev := changefeed.Event{Kind: changefeed.KindDelete, Old: []byte(rows[0].OldPayload)}
	rec, err := ev.DecodePost()
	require.NoError(t, err)
	require.Equal(t, post.ID, rec.ID)
}

func TestNotifyWritesRowAndOutbox(t *testing.T) {
	svc, db := newPostService(t)
	ctx := context.Background()

	n := &model.Notification{SenderID: "s1", ReceiverID: "r1", Title: "liked your post", Data: `{"postId":"p1"}`}
	require.NoError(t, svc.Notify(ctx, n))
	require.NotEmpty(t, n.ID)

	notifRepo := repository.NewNotificationRepository(db)
	stored, err := notifRepo.ListByReceiver(ctx, "r1", 0, 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "liked your post", stored[0].Title)

	rows := pendingOutbox(t, db, changefeed.TopicNotifications, changefeed.KindInsert)
	require.Len(t, rows, 1)
	ev := changefeed.Event{Kind: changefeed.KindInsert, New: []byte(rows[0].Payload)}
	rec, err := ev.DecodeNotification()
	require.NoError(t, err)
	require.Equal(t, "r1", rec.ReceiverID)
	require.Equal(t, "s1", rec.SenderID)
}
