package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/richxcame/verified-reviews/pkg/config"
	"github.com/richxcame/verified-reviews/pkg/logger"
	"github.com/richxcame/verified-reviews/pkg/resilience"
	"go.uber.org/zap"
)

// ErrNotificationDropped is returned when the broker is unavailable and the
// notification was not published
var ErrNotificationDropped = errors.New("notification dropped: broker unavailable")

// Publisher is the subset of *nats.Conn the dispatcher needs
type Publisher interface {
	Publish(subj string, data []byte) error
}

// NATSDispatcher publishes notifications to a NATS subject for the push
// delivery workers
type NATSDispatcher struct {
	publisher Publisher
	subject   string
	breaker   *resilience.CircuitBreaker
	retry     resilience.RetryConfig
}

// NewNATSDispatcher creates a dispatcher publishing on subject
func NewNATSDispatcher(publisher Publisher, subject string) *NATSDispatcher {
	retry := resilience.DefaultRetryConfig()
	retry.InitialBackoff = 200 * time.Millisecond
	retry.MaxBackoff = 2 * time.Second

	return &NATSDispatcher{
		publisher: publisher,
		subject:   subject,
		retry:     retry,
	}
}

// SetCircuitBreaker wires a circuit breaker around publishing
func (d *NATSDispatcher) SetCircuitBreaker(breaker *resilience.CircuitBreaker) {
	d.breaker = breaker
}

// SetRetryConfig overrides the publish retry policy
func (d *NATSDispatcher) SetRetryConfig(cfg resilience.RetryConfig) {
	d.retry = cfg
}

// Notify implements Dispatcher
func (d *NATSDispatcher) Notify(ctx context.Context, userID uuid.UUID, title, body string, metadata map[string]interface{}) error {
	msg := newMessage(userID, title, body, metadata)

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	err = d.executeWithBreaker(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, d.publisher.Publish(d.subject, payload)
	})
	if err != nil {
		if errors.Is(err, ErrNotificationDropped) {
			logger.WithContext(ctx).Warn("Notification dropped, broker unavailable",
				zap.String("notification_id", msg.ID.String()),
				zap.String("user_id", userID.String()))
		}
		return err
	}

	logger.WithContext(ctx).Debug("Notification published",
		zap.String("notification_id", msg.ID.String()),
		zap.String("subject", d.subject),
		zap.String("user_id", userID.String()))
	return nil
}

func (d *NATSDispatcher) executeWithBreaker(ctx context.Context, op resilience.Operation) error {
	var err error
	if d.breaker == nil {
		_, err = resilience.Retry(ctx, d.retry, op)
	} else {
		_, err = resilience.RetryWithBreaker(ctx, d.retry, d.breaker, op)
	}
	if err == nil {
		return nil
	}

	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("%w: %v", ErrNotificationDropped, err)
	}
	return err
}

// Connect opens a NATS connection that keeps reconnecting in the background
func Connect(cfg config.NATSConfig, serviceName string) (*nats.Conn, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name(serviceName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return conn, nil
}
