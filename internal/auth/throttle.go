package auth

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const throttleKeyPrefix = "login:failures:"

// LoginThrottle counts failed logins per email in Redis over a fixed window.
type LoginThrottle struct {
	client      redis.Cmdable
	maxAttempts int
	window      time.Duration
}

// NewLoginThrottle builds a throttle. A nil client or non-positive limit disables it.
func NewLoginThrottle(client redis.Cmdable, maxAttempts int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{client: client, maxAttempts: maxAttempts, window: window}
}

func (t *LoginThrottle) enabled() bool {
	return t != nil && t.client != nil && t.maxAttempts > 0
}

// Allowed reports whether another attempt for email may proceed.
func (t *LoginThrottle) Allowed(ctx context.Context, email string) (bool, error) {
	if !t.enabled() {
		return true, nil
	}
	count, err := t.client.Get(ctx, throttleKey(email)).Int()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	return count < t.maxAttempts, nil
}

// Fail records a failed attempt. The window starts at the first failure.
func (t *LoginThrottle) Fail(ctx context.Context, email string) error {
	if !t.enabled() {
		return nil
	}
	key := throttleKey(email)
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		return t.client.Expire(ctx, key, t.window).Err()
	}
	return nil
}

// Reset clears the failure counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, email string) error {
	if !t.enabled() {
		return nil
	}
	return t.client.Del(ctx, throttleKey(email)).Err()
}

func throttleKey(email string) string {
	return throttleKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}
