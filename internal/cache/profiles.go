package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/linkup/internal/model"
	"github.com/d60-Lab/linkup/internal/repository"
)

// ProfileSnapshot contains the denormalized author fields feed items carry.
type ProfileSnapshot struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Image    string `json:"image"`
	Bio      string `json:"bio,omitempty"`
}

// ProfileCache serves author snapshots for the feed's live-insert path,
// read-through over Redis with a DB fallback.
type ProfileCache struct {
	users repository.UserRepository
	rdb   *redis.Client
	ttl   time.Duration
}

func NewProfileCache(users repository.UserRepository, rdb *redis.Client, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProfileCache{users: users, rdb: rdb, ttl: ttl}
}

func profileKey(id string) string { return fmt.Sprintf("profile:%s", id) }

// Get returns the snapshot for one user. A cache read failure falls through
// to the DB; only the DB miss is an error.
func (c *ProfileCache) Get(ctx context.Context, id string) (*ProfileSnapshot, error) {
	if data, err := c.rdb.Get(ctx, profileKey(id)).Bytes(); err == nil {
		var snap ProfileSnapshot
		if uErr := json.Unmarshal(data, &snap); uErr == nil {
			return &snap, nil
		}
	}

	u, err := c.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := snapshot(u)
	c.store(ctx, snap)
	return snap, nil
}

// GetMulti resolves snapshots for a batch of ids, MGet first, one bulk DB
// load for the misses. Order of the result follows ids; unknown ids are
// skipped.
func (c *ProfileCache) GetMulti(ctx context.Context, ids []string) ([]*ProfileSnapshot, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = profileKey(id)
	}

	found := make(map[string]*ProfileSnapshot, len(ids))
	if vals, err := c.rdb.MGet(ctx, keys...).Result(); err == nil {
		for i, v := range vals {
			str, ok := v.(string)
			if !ok {
				continue
			}
			var snap ProfileSnapshot
			if uErr := json.Unmarshal([]byte(str), &snap); uErr == nil {
				found[ids[i]] = &snap
			}
		}
	}

	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		users, err := c.users.ListByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			snap := snapshot(u)
			found[u.ID] = snap
			c.store(ctx, snap)
		}
	}

	res := make([]*ProfileSnapshot, 0, len(ids))
	for _, id := range ids {
		if snap, ok := found[id]; ok {
			res = append(res, snap)
		}
	}
	return res, nil
}

// Invalidate drops a cached snapshot (profile edit path).
func (c *ProfileCache) Invalidate(ctx context.Context, id string) {
	_ = c.rdb.Del(ctx, profileKey(id)).Err()
}

func (c *ProfileCache) store(ctx context.Context, snap *ProfileSnapshot) {
	if payload, err := json.Marshal(snap); err == nil {
		_ = c.rdb.Set(ctx, profileKey(snap.ID), payload, c.ttl).Err()
	}
}

func snapshot(u *model.User) *ProfileSnapshot {
	return &ProfileSnapshot{ID: u.ID, Username: u.Username, Image: u.Image, Bio: u.Bio}
}
