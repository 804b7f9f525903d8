package lock

import (
	"errors"

	"github.com/x-xyz/escrow/base/ctx"
)

var (
	// ErrLockTimeout is returned when the lock is still held after all attempts
	ErrLockTimeout = errors.New("lock timeout")
)

// Locker serializes work on one key. The returned unlock must be called once.
type Locker interface {
	Lock(c ctx.Ctx, key string) (unlock func(), err error)
}
