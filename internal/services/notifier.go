package services

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// ProgressNotifier fans review/processing progress out to live listeners
// (the WebSocket handler subscribes on the other side). Best-effort.
type ProgressNotifier interface {
	PublishProgress(ctx context.Context, documentID string, payload any) error
}

// ProcessQueue hands a document to the processing worker pool.
type ProcessQueue interface {
	Enqueue(ctx context.Context, documentID string) error
}

func ProgressChannel(documentID string) string {
	return "document:" + documentID + ":progress"
}

type RedisProgressNotifier struct {
	rdb *redis.Client
}

func NewRedisProgressNotifier(rdb *redis.Client) *RedisProgressNotifier {
	return &RedisProgressNotifier{rdb: rdb}
}

func (n *RedisProgressNotifier) PublishProgress(ctx context.Context, documentID string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, ProgressChannel(documentID), string(b)).Err()
}
