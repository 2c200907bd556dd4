package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/verified-reviews/pkg/logger"
	"go.uber.org/zap"
)

// ChannelPush is the only channel the review service emits on
const ChannelPush = "push"

// Dispatcher delivers user-facing notifications
type Dispatcher interface {
	Notify(ctx context.Context, userID uuid.UUID, title, body string, metadata map[string]interface{}) error
}

// Message is the payload published for downstream push delivery
type Message struct {
	ID        uuid.UUID              `json:"id"`
	UserID    uuid.UUID              `json:"user_id"`
	Channel   string                 `json:"channel"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

func newMessage(userID uuid.UUID, title, body string, metadata map[string]interface{}) *Message {
	return &Message{
		ID:        uuid.New(),
		UserID:    userID,
		Channel:   ChannelPush,
		Title:     title,
		Body:      body,
		Data:      metadata,
		CreatedAt: time.Now().UTC(),
	}
}

// LogDispatcher writes notifications to the log. Used when no broker is
// configured.
type LogDispatcher struct{}

// NewLogDispatcher creates a log-only dispatcher
func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

// Notify implements Dispatcher
func (d *LogDispatcher) Notify(ctx context.Context, userID uuid.UUID, title, body string, metadata map[string]interface{}) error {
	logger.WithContext(ctx).Info("notification",
		zap.String("user_id", userID.String()),
		zap.String("title", title),
		zap.String("body", body),
		zap.Any("data", metadata),
	)
	return nil
}
