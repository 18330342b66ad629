package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var ErrDirectoryMiss = errors.New("no active connection registered for user")

// DirectoryProvider is the cross-process mapping from user id to the active
// connection handle. Every instance of this service shares one directory, so
// two users on different instances can still find each other.
type DirectoryProvider interface {
	Register(ctx context.Context, userID string, handle string) error
	Lookup(ctx context.Context, userID string) (string, error)
	Remove(ctx context.Context, userID string) error
}

var Directory DirectoryProvider

type redisDirectory struct {
	rdb *redis.Client
}

func NewRedisDirectory(rdb *redis.Client) DirectoryProvider {
	return &redisDirectory{rdb: rdb}
}

func directoryKey(userID string) string {
	return fmt.Sprintf("videocall:directory:%s", userID)
}

// Register overwrites any previous handle for the user; last connect wins.
func (v *redisDirectory) Register(ctx context.Context, userID string, handle string) error {
	return v.rdb.Set(ctx, directoryKey(userID), handle, 0).Err()
}

func (v *redisDirectory) Lookup(ctx context.Context, userID string) (string, error) {
	val, err := v.rdb.Get(ctx, directoryKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrDirectoryMiss
	}
	return val, err
}

func (v *redisDirectory) Remove(ctx context.Context, userID string) error {
	return v.rdb.Del(ctx, directoryKey(userID)).Err()
}
