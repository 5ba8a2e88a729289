// Package telemetry is an optional sink that publishes a controller's
// GetValues snapshots to Redis, adapted from the teacher's
// pkg/redis/client.go HSET+PUBLISH pattern. Off by default: nothing in
// pkg/vesc depends on this package.
package telemetry

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/LiamBindle/govesc/pkg/vescmsg"
)

// Sink publishes VESC measurement snapshots to a Redis hash and channel,
// one HSET field per GetValues field, exactly the
// WriteAndPublishInt/WriteAndPublishString shape the teacher uses for
// device state.
type Sink struct {
	client *redis.Client
	ctx    context.Context
	key    string
}

// NewSink connects to addr and returns a Sink that writes snapshots under
// key (e.g. "vesc:0" for the directly-attached controller, "vesc:<can_id>"
// for a forwarded one).
func NewSink(addr, password string, db int, key string) (*Sink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("telemetry: connect to redis: %w", err)
	}
	return &Sink{client: client, ctx: ctx, key: key}, nil
}

// PublishMeasurements writes every field of a get_values response as an
// HSET on s.key, then publishes a summary message on the same key so
// subscribers don't have to poll the hash.
func (s *Sink) PublishMeasurements(msg vescmsg.Message) error {
	pipe := s.client.Pipeline()
	for name, value := range msg.Fields {
		pipe.HSet(s.ctx, s.key, name, fmt.Sprintf("%v", value))
	}
	rpm, _ := msg.Get("rpm").(int64)
	vIn, _ := msg.Get("v_in").(float64)
	pipe.Publish(s.ctx, s.key, fmt.Sprintf("rpm:%d v_in:%.2f", rpm, vIn))
	_, err := pipe.Exec(s.ctx)
	if err != nil {
		return fmt.Errorf("telemetry: publish %s: %w", s.key, err)
	}
	return nil
}

// Close closes the Redis client connection.
func (s *Sink) Close() error {
	return s.client.Close()
}
