// Package push is the external push-sender collaborator boundary. Delivery
// is best-effort everywhere; callers log failures and move on.
package push

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// Sender delivers one push message to a destination token.
type Sender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// RedisSender hands messages to the push gateway over a Redis channel keyed
// by destination token. The gateway process owns the vendor API call.
type RedisSender struct {
	rdb *redis.Client
}

func NewRedisSender(rdb *redis.Client) *RedisSender {
	return &RedisSender{rdb: rdb}
}

type pushMessage struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

func (s *RedisSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	payload, err := json.Marshal(pushMessage{Title: title, Body: body, Data: data})
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, "push:"+token, payload).Err()
}

// LogSender is the no-op sender used in tests and when Redis is disabled.
type LogSender struct{}

func (LogSender) Send(_ context.Context, token, title, _ string, _ map[string]string) error {
	log.Printf("push (noop): token=%s title=%q", token, title)
	return nil
}
