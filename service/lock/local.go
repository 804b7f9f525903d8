package lock

import (
	"sync"

	"github.com/x-xyz/escrow/base/ctx"
)

type entry struct {
	ch   chan struct{}
	refs int
}

type localImpl struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewLocal creates a process wide keyed lock
func NewLocal() Locker {
	return &localImpl{entries: make(map[string]*entry)}
}

func (l *localImpl) Lock(c ctx.Ctx, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-c.Done():
		l.release(key, e)
		return nil, c.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

func (l *localImpl) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}
