package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d60-Lab/linkup/internal/cache"
	"github.com/d60-Lab/linkup/internal/changefeed"
	"github.com/d60-Lab/linkup/internal/repository"
	"github.com/d60-Lab/linkup/pkg/logger"
)

var ErrSessionClosed = errors.New("feed session closed")

// eventTimeout bounds the lookups a live event triggers (follow set, author
// profile) so a stuck store cannot wedge the mutation loop.
const eventTimeout = 5 * time.Second

// Session owns one viewer's materialized feed: the ordered post list, the
// growing page cursor and the exhaustion flag. Every mutation — page loads
// and live change events alike — runs on the session's single loop goroutine,
// in arrival order, so a fetch landing mid-stream can never clobber an event
// that was admitted first.
type Session struct {
	ID       string
	ViewerID string

	pageSize int

	// 以下状态只允许 run 协程读写
	posts   []*Post
	limit   int
	hasMore bool

	cmds      chan command
	closed    chan struct{}
	closeOnce sync.Once
	subs      []*changefeed.Subscription

	counter *Counter

	follows  repository.FollowRepository
	postRepo repository.PostRepository
	profiles *cache.ProfileCache
}

type command struct {
	run  func()
	done chan struct{} // nil for fire-and-forget event commands
}

func newSession(viewerID string, pageSize, eventBuffer int,
	follows repository.FollowRepository, postRepo repository.PostRepository, profiles *cache.ProfileCache) *Session {
	if pageSize <= 0 {
		pageSize = 10
	}
	if eventBuffer <= 0 {
		eventBuffer = 256
	}
	s := &Session{
		ID:       uuid.New().String(),
		ViewerID: viewerID,
		pageSize: pageSize,
		hasMore:  true,
		cmds:     make(chan command, eventBuffer),
		closed:   make(chan struct{}),
		counter:  &Counter{viewerID: viewerID},
		follows:  follows,
		postRepo: postRepo,
		profiles: profiles,
	}
	go s.run()
	return s
}

func (s *Session) run() {
	for {
		select {
		case cmd := <-s.cmds:
			cmd.run()
			if cmd.done != nil {
				close(cmd.done)
			}
		case <-s.closed:
			// 会话已拆除，队列里未执行的命令全部作废
			return
		}
	}
}

// dispatch runs fn on the loop goroutine and waits for it to finish.
func (s *Session) dispatch(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case s.cmds <- command{run: fn, done: done}:
	case <-s.closed:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-s.closed:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LoadMore grows the page cursor and re-fetches the feed prefix. It reports
// whether more content may remain. When the feed is already exhausted it is
// a no-op.
func (s *Session) LoadMore(ctx context.Context) (hasMore bool, err error) {
	dErr := s.dispatch(ctx, func() {
		err = s.loadMore(ctx)
		hasMore = s.hasMore
	})
	if dErr != nil {
		return false, dErr
	}
	return hasMore, err
}

func (s *Session) loadMore(ctx context.Context) error {
	if !s.hasMore {
		return nil
	}

	followees, err := s.follows.ListFolloweeIDs(ctx, s.ViewerID)
	if err != nil {
		logger.Warn("feed: follow set fetch failed",
			zap.String("session", s.ID), zap.Error(err))
		return err
	}
	// 不关注任何人时给空信息流，而不是全站流
	if len(followees) == 0 {
		s.hasMore = false
		s.posts = nil
		return nil
	}

	s.limit += s.pageSize
	fetched, err := s.postRepo.FetchFeed(ctx, s.limit, followees)
	if err != nil {
		// 取消本轮增长，下次 LoadMore 自然重试
		s.limit -= s.pageSize
		logger.Warn("feed: page fetch failed",
			zap.String("session", s.ID), zap.Int("limit", s.limit), zap.Error(err))
		return err
	}

	// 结果规模与上一轮持平说明已经见底
	if len(fetched) == len(s.posts) {
		s.hasMore = false
	}
	next := make([]*Post, len(fetched))
	for i, p := range fetched {
		next[i] = fromModel(p)
	}
	s.posts = next
	return nil
}

// Snapshot returns a copy of the current feed state.
func (s *Session) Snapshot(ctx context.Context) (posts []*Post, hasMore bool, err error) {
	err = s.dispatch(ctx, func() {
		posts = make([]*Post, len(s.posts))
		copy(posts, s.posts)
		hasMore = s.hasMore
	})
	return posts, hasMore, err
}

// handlePostEvent is the bus callback for the posts topic. It must not
// block: when the mutation queue is full the event is dropped with a
// warning, and the next LoadMore re-fetch restores consistency.
func (s *Session) handlePostEvent(ev changefeed.Event) {
	select {
	case s.cmds <- command{run: func() { s.applyPostEvent(ev) }}:
	case <-s.closed:
	default:
		logger.Warn("feed: event queue full, drop event",
			zap.String("session", s.ID), zap.String("kind", string(ev.Kind)))
	}
}

// applyPostEvent folds one change event into the materialized list. Runs on
// the loop goroutine.
func (s *Session) applyPostEvent(ev changefeed.Event) {
	switch ev.Kind {
	case changefeed.KindInsert:
		s.applyInsert(ev)
	case changefeed.KindUpdate:
		s.applyUpdate(ev)
	case changefeed.KindDelete:
		s.applyDelete(ev)
	}
}

func (s *Session) applyInsert(ev changefeed.Event) {
	rec, err := ev.DecodePost()
	if err != nil || rec.ID == "" {
		return
	}
	// 同 id 可能已经由分页拉取带回来，身份为准，不产生重复
	if s.indexOf(rec.ID) >= 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	// 每个 insert 事件都重查关注集，关注关系可能在上次拉取后变了
	followees, err := s.follows.ListFolloweeIDs(ctx, s.ViewerID)
	if err != nil {
		logger.Warn("feed: follow set fetch failed on event",
			zap.String("session", s.ID), zap.Error(err))
		return
	}
	followed := false
	for _, id := range followees {
		if id == rec.AuthorID {
			followed = true
			break
		}
	}
	if !followed {
		return
	}

	item := &Post{
		ID:           rec.ID,
		AuthorID:     rec.AuthorID,
		Body:         rec.Body,
		File:         rec.File,
		CreatedAt:    rec.CreatedAt,
		Likes:        []string{},
		CommentCount: 0,
	}
	if author, err := s.profiles.Get(ctx, rec.AuthorID); err == nil {
		item.Author = author
	}
	s.posts = append([]*Post{item}, s.posts...)
}

func (s *Session) applyUpdate(ev changefeed.Event) {
	rec, err := ev.DecodePost()
	if err != nil || rec.ID == "" {
		return
	}
	// 只覆盖可变字段，位置不动；不在列表里就忽略。
	// Snapshot 返回的元素可能还在被调用方读，这里换新对象而不是原地改
	if i := s.indexOf(rec.ID); i >= 0 {
		updated := *s.posts[i]
		updated.Body = rec.Body
		updated.File = rec.File
		s.posts[i] = &updated
	}
}

func (s *Session) applyDelete(ev changefeed.Event) {
	rec, err := ev.DecodePost()
	if err != nil || rec.ID == "" {
		return
	}
	kept := s.posts[:0]
	for _, p := range s.posts {
		if p.ID != rec.ID {
			kept = append(kept, p)
		}
	}
	s.posts = kept
}

func (s *Session) indexOf(id string) int {
	for i, p := range s.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Counter returns the session's unseen-notification counter.
func (s *Session) Counter() *Counter { return s.counter }

// Close tears the session down: both subscriptions are cancelled and any
// queued or in-flight mutation result is discarded.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		for _, sub := range s.subs {
			if err := sub.Close(); err != nil {
				logger.Warn("feed: unsubscribe failed",
					zap.String("session", s.ID), zap.Error(err))
			}
		}
	})
}
