package presence

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/stock-chat/stock-chat/internal/config"
	"github.com/stock-chat/stock-chat/internal/domain"
	"github.com/stock-chat/stock-chat/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "stock-chat:sessions:"

// SessionStore tracks which users are currently online.  Each
// authenticated request refreshes the user's session key; keys expire
// on their own when a user stops polling.
type SessionStore interface {
	RegisterSession(ctx context.Context, user domain.User) error
	RefreshSession(ctx context.Context, userID domain.UserID) error
	SessionExists(ctx context.Context, userID domain.UserID) (bool, error)
	RemoveSession(ctx context.Context, userID domain.UserID) error
	OnlineUsers(ctx context.Context, exclude domain.UserID) ([]domain.User, error)
}

type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(cfg *config.Config) *RedisSessionStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	return &RedisSessionStore{
		client: client,
		ttl:    cfg.SessionTTL,
	}
}

func sessionKey(userID domain.UserID) string {
	return sessionKeyPrefix + userID.String()
}

func (rss *RedisSessionStore) RegisterSession(ctx context.Context, user domain.User) error {
	return rss.client.Set(ctx, sessionKey(user.ID), string(user.Username), rss.ttl).Err()
}

func (rss *RedisSessionStore) RefreshSession(ctx context.Context, userID domain.UserID) error {
	return rss.client.Expire(ctx, sessionKey(userID), rss.ttl).Err()
}

func (rss *RedisSessionStore) SessionExists(ctx context.Context, userID domain.UserID) (bool, error) {
	count, err := rss.client.Exists(ctx, sessionKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return count != 0, nil
}

func (rss *RedisSessionStore) RemoveSession(ctx context.Context, userID domain.UserID) error {
	return rss.client.Del(ctx, sessionKey(userID)).Err()
}

// OnlineUsers scans the session keys and returns every user with a
// live session other than the caller.
func (rss *RedisSessionStore) OnlineUsers(ctx context.Context, exclude domain.UserID) ([]domain.User, error) {

	var online []domain.User

	iter := rss.client.Scan(ctx, 0, sessionKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		userID, err := strconv.ParseInt(strings.TrimPrefix(key, sessionKeyPrefix), 10, 64)
		if err != nil {
			logger.LogError("Invalid session key in redis: "+key, err)
			continue
		}

		if domain.UserID(userID) == exclude {
			continue
		}

		username, err := rss.client.Get(ctx, key).Result()
		if err == redis.Nil {
			// Session expired between the scan and the read.
			continue
		}
		if err != nil {
			return nil, err
		}

		online = append(online, domain.User{ID: domain.UserID(userID), Username: domain.Username(username)})
	}

	if err := iter.Err(); err != nil {
		return nil, err
	}

	return online, nil
}
