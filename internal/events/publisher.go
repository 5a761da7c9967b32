package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
)

// DefaultChannel is the Redis channel note changes are published on
const DefaultChannel = "todo-notes-changed"

type EventType string

const (
	NoteCreated EventType = "note.created"
	NoteUpdated EventType = "note.updated"
	NoteDeleted EventType = "note.deleted"
)

// NoteEvent is the payload broadcast after a successful write
type NoteEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	NoteID     int64     `json:"note_id"`
	UserIP     string    `json:"user_ip,omitempty"`
	Done       *bool     `json:"note_status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent stamps an event with a fresh id and the current time
func NewEvent(eventType EventType, noteID int64, userIP string) NoteEvent {
	return NoteEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		NoteID:     noteID,
		UserIP:     userIP,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher broadcasts note change events
type Publisher interface {
	Publish(ctx context.Context, event NoteEvent) error
	Ping(ctx context.Context) error
	Close() error
}

type redisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher connects to redisURL and verifies the connection
func NewRedisPublisher(ctx context.Context, redisURL, channel string) (Publisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// maint_notifications is not available on Redis 7
	opts.MaintNotificationsConfig = &maintnotifications.Config{
		Mode: maintnotifications.ModeDisabled,
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if channel == "" {
		channel = DefaultChannel
	}

	return &redisPublisher{client: client, channel: channel}, nil
}

func (p *redisPublisher) Publish(ctx context.Context, event NoteEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to Redis: %w", err)
	}

	return nil
}

func (p *redisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *redisPublisher) Close() error {
	return p.client.Close()
}

type nopPublisher struct{}

// NopPublisher drops every event; used when REDIS_URL is not configured
func NopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, NoteEvent) error { return nil }

func (nopPublisher) Ping(context.Context) error { return nil }

func (nopPublisher) Close() error { return nil }
