package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the shared Redis connection.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	Namespace string
}

// Redis holds the optional Redis client used for cross-instance state.
// A nil *Redis means Redis is not configured.
type Redis struct {
	Client    *redis.Client
	namespace string
}

// NewRedis builds a client with short timeouts. An empty Addr yields nil.
func NewRedis(opts RedisOptions) *Redis {
	if opts.Addr == "" {
		return nil
	}
	ns := opts.Namespace
	if ns == "" {
		ns = "classattend"
	}
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	return &Redis{Client: client, namespace: ns}
}

// Key joins parts under the client's namespace, e.g. "classattend:ratelimit:login".
func (r *Redis) Key(parts ...string) string {
	ns := "classattend"
	if r != nil && r.namespace != "" {
		ns = r.namespace
	}
	return ns + ":" + strings.Join(parts, ":")
}

// Ping returns the connection error, if any.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return fmt.Errorf("store: redis not configured")
	}
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("store: redis ping: %w", err)
	}
	return nil
}

// Healthy reports whether redis answers a ping.
func (r *Redis) Healthy(ctx context.Context) bool {
	return r.Ping(ctx) == nil
}

// Close releases the client; safe on a nil receiver.
func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
