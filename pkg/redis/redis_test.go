package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/richxcame/verified-reviews/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============== Redis Config Tests ==============

func TestRedisConfig_RedisAddr(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.RedisConfig
		expected string
	}{
		{
			name:     "default localhost",
			cfg:      config.RedisConfig{Host: "localhost", Port: "6379"},
			expected: "localhost:6379",
		},
		{
			name:     "custom host and port",
			cfg:      config.RedisConfig{Host: "redis.example.com", Port: "6380"},
			expected: "redis.example.com:6380",
		},
		{
			name:     "empty values",
			cfg:      config.RedisConfig{},
			expected: ":",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.cfg.RedisAddr())
		})
	}
}

// ============== JSON Helpers ==============

type cached struct {
	Name   string  `json:"name"`
	Radius float64 `json:"radius"`
}

func TestSetJSON(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := NewFromClient(db)

	mock.ExpectSet("business:1", []byte(`{"name":"Cafe","radius":50}`), time.Minute).SetVal("OK")

	err := client.SetJSON(context.Background(), "business:1", cached{Name: "Cafe", Radius: 50}, time.Minute)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetJSON_Hit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := NewFromClient(db)

	mock.ExpectGet("business:1").SetVal(`{"name":"Cafe","radius":50}`)

	var out cached
	err := client.GetJSON(context.Background(), "business:1", &out)
	require.NoError(t, err)
	assert.Equal(t, "Cafe", out.Name)
	assert.Equal(t, 50.0, out.Radius)
}

func TestGetJSON_Miss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := NewFromClient(db)

	mock.ExpectGet("business:1").RedisNil()

	var out cached
	err := client.GetJSON(context.Background(), "business:1", &out)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestGetJSON_Error(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := NewFromClient(db)

	mock.ExpectGet("business:1").SetErr(errors.New("connection refused"))

	var out cached
	err := client.GetJSON(context.Background(), "business:1", &out)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestGetJSON_CorruptValue(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := NewFromClient(db)

	mock.ExpectGet("business:1").SetVal(`{not json`)

	var out cached
	err := client.GetJSON(context.Background(), "business:1", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal business:1")
}

// ============== Locks ==============

func TestAcquireLock(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := NewFromClient(db)
	mock.Regexp().ExpectSetNX("review:inflight:a:b", `[0-9a-f-]{36}`, 30*time.Second).SetVal(true)

	token, ok, err := client.AcquireLock(context.Background(), "review:inflight:a:b", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, token, 36)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquireLock_AlreadyHeld(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := NewFromClient(db)
	mock.Regexp().ExpectSetNX("review:inflight:a:b", `[0-9a-f-]{36}`, 30*time.Second).SetVal(false)

	token, ok, err := client.AcquireLock(context.Background(), "review:inflight:a:b", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, token)
}

func TestAcquireLock_Error(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := NewFromClient(db)
	mock.Regexp().ExpectSetNX("review:inflight:a:b", `[0-9a-f-]{36}`, 30*time.Second).SetErr(errors.New("connection refused"))

	_, ok, err := client.AcquireLock(context.Background(), "review:inflight:a:b", 30*time.Second)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestReleaseLock(t *testing.T) {
	tests := []struct {
		name    string
		deleted int64
	}{
		{"still held by token", 1},
		{"expired or taken over", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := redismock.NewClientMock()
			client := NewFromClient(db)
			mock.ExpectEvalSha(releaseScript.Hash(), []string{"review:inflight:a:b"}, "tok-1").SetVal(tt.deleted)

			assert.NoError(t, client.ReleaseLock(context.Background(), "review:inflight:a:b", "tok-1"))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDelete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := NewFromClient(db)
	mock.ExpectDel("business:1", "business:2").SetVal(2)

	require.NoError(t, client.Delete(context.Background(), "business:1", "business:2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	_, err := NewRedisClient(&config.RedisConfig{Host: "127.0.0.1", Port: "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis at 127.0.0.1:1")
}
