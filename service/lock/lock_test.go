package lock

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/domain/keys"
	mockRedis "github.com/x-xyz/escrow/service/redis/mocks"
)

var (
	mockCtx = ctx.Background()
)

type LockTestSuite struct {
	suite.Suite
}

func (s *LockTestSuite) TestLocalSerializes() {
	l := NewLocal()
	key := keys.OrderLockKey(1)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(mockCtx, key)
			s.Require().NoError(err)
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()
	s.Equal(1, maxSeen)
	s.Empty(l.(*localImpl).entries)
}

func (s *LockTestSuite) TestLocalIndependentKeys() {
	l := NewLocal()
	unlock1, err := l.Lock(mockCtx, keys.OrderLockKey(1))
	s.Require().NoError(err)
	defer unlock1()

	unlock2, err := l.Lock(mockCtx, keys.OrderLockKey(2))
	s.Require().NoError(err)
	unlock2()
}

func (s *LockTestSuite) TestLocalCancelled() {
	l := NewLocal()
	unlock, err := l.Lock(mockCtx, "k")
	s.Require().NoError(err)

	c, cancel := ctx.WithTimeout(mockCtx, 10*time.Millisecond)
	defer cancel()
	_, err = l.Lock(c, "k")
	s.Error(err)

	unlock()
	// unlock is idempotent
	unlock()
	s.Empty(l.(*localImpl).entries)
}

func (s *LockTestSuite) TestRedisLock() {
	r := mockRedis.NewService(s.T())
	l := NewRedis(&RedisCfg{Redis: r, Ttl: time.Second, Attempts: 3, Backoff: time.Millisecond})
	key := keys.OrderLockKey(7)

	r.On("SetNX", mockCtx, key, mock.Anything, time.Second).Return(false, nil).Once()
	r.On("SetNX", mockCtx, key, mock.Anything, time.Second).Return(true, nil).Once()
	r.On("ScriptDo", mock.Anything, releaseScript, key, mock.Anything).Return(int64(1), nil).Once()

	unlock, err := l.Lock(mockCtx, key)
	s.Require().NoError(err)
	unlock()
}

func (s *LockTestSuite) TestRedisLockTimeout() {
	r := mockRedis.NewService(s.T())
	l := NewRedis(&RedisCfg{Redis: r, Ttl: time.Second, Attempts: 2, Backoff: time.Millisecond})

	r.On("SetNX", mockCtx, "k", mock.Anything, time.Second).Return(false, nil).Twice()

	_, err := l.Lock(mockCtx, "k")
	s.Equal(ErrLockTimeout, err)
}

func (s *LockTestSuite) TestRedisLockError() {
	r := mockRedis.NewService(s.T())
	l := NewRedis(&RedisCfg{Redis: r, Attempts: 3, Backoff: time.Millisecond})
	boom := errors.New("boom")

	r.On("SetNX", mockCtx, "k", mock.Anything, 30*time.Second).Return(false, boom).Once()

	_, err := l.Lock(mockCtx, "k")
	s.Equal(boom, err)
}

func TestLockTestSuite(t *testing.T) {
	suite.Run(t, new(LockTestSuite))
}
