package lock

import (
	"time"

	"github.com/google/uuid"

	"github.com/x-xyz/escrow/base/backoff"
	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/base/log"
	"github.com/x-xyz/escrow/service/redis"
)

// deletes the key only when it still holds our token
var releaseScript = redis.NewScript(1, `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisCfg struct {
	Redis redis.Service
	// Ttl bounds how long a crashed holder keeps the lock
	Ttl      time.Duration
	Attempts int
	Backoff  time.Duration
}

type redisImpl struct {
	redis    redis.Service
	ttl      time.Duration
	attempts int
	backoff  time.Duration
}

// NewRedis creates a lock shared by every replica using the same redis
func NewRedis(cfg *RedisCfg) Locker {
	im := &redisImpl{
		redis:    cfg.Redis,
		ttl:      cfg.Ttl,
		attempts: cfg.Attempts,
		backoff:  cfg.Backoff,
	}
	if im.ttl <= 0 {
		im.ttl = 30 * time.Second
	}
	if im.attempts <= 0 {
		im.attempts = 50
	}
	if im.backoff <= 0 {
		im.backoff = 20 * time.Millisecond
	}
	return im
}

func (r *redisImpl) Lock(c ctx.Ctx, key string) (func(), error) {
	token := []byte(uuid.NewString())
	b := backoff.NewExponential(r.backoff, 500*time.Millisecond)
	err := backoff.Retry(c, b, r.attempts, func(err error) bool {
		return err == ErrLockTimeout
	}, func() error {
		ok, err := r.redis.SetNX(c, key, token, r.ttl)
		if err != nil {
			return err
		}
		if !ok {
			return ErrLockTimeout
		}
		return nil
	})
	if err != nil {
		if err != ErrLockTimeout {
			c.WithFields(log.Fields{"err": err, "key": key}).Error("redis.SetNX failed")
		}
		return nil, err
	}

	return func() {
		// release even when the caller context is cancelled
		dc := ctx.Detach(c)
		if _, err := r.redis.ScriptDo(dc, releaseScript, key, token); err != nil {
			dc.WithFields(log.Fields{"err": err, "key": key}).Warn("release lock failed, expires by ttl")
		}
	}, nil
}
