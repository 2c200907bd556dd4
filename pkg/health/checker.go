package health

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Pinger is satisfied by *pgxpool.Pool
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseChecker returns a health check function for PostgreSQL database
func DatabaseChecker(db Pinger) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return db.Ping(ctx)
	}
}

// RedisChecker returns a health check function for Redis
func RedisChecker(client *redis.Client) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return client.Ping(ctx).Err()
	}
}

// StatusChecker adapts a connection status func, such as a NATS connection's
// IsConnected, into a health check function
func StatusChecker(name string, connected func() bool) func() error {
	return func() error {
		if !connected() {
			return &NotConnectedError{Name: name}
		}
		return nil
	}
}

// NotConnectedError reports a dependency whose client is disconnected
type NotConnectedError struct {
	Name string
}

func (e *NotConnectedError) Error() string {
	return e.Name + " not connected"
}
