package redis

import (
	"os"
	"testing"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/base/database/redisclient"
	"github.com/x-xyz/escrow/base/metrics"
)

var (
	mockCtx = ctx.Background()
)

// REDIS_TEST_ADDR="localhost:6379"
type redisSuite struct {
	suite.Suite
	im Service
}

func (s *redisSuite) SetupSuite() {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		s.T().Skip("REDIS_TEST_ADDR not set")
	}
	pool := redisclient.MustConnectRedis(addr, "")
	s.im = New("test", metrics.New("redis"), &Pools{Src: pool})
}

func (s *redisSuite) SetupTest() {
	_, err := s.im.Del(mockCtx, "test:a", "test:b")
	s.Require().NoError(err)
}

func (s *redisSuite) TestGetSet() {
	_, err := s.im.Get(mockCtx, "test:a")
	s.Equal(ErrNotFound, err)

	s.Require().NoError(s.im.Set(mockCtx, "test:a", []byte("v"), time.Minute))
	val, err := s.im.Get(mockCtx, "test:a")
	s.Require().NoError(err)
	s.Equal([]byte("v"), val)

	ttl, err := s.im.TTL(mockCtx, "test:a")
	s.Require().NoError(err)
	s.True(ttl > 0)

	s.Require().NoError(s.im.Set(mockCtx, "test:b", []byte("v"), Forever))
	_, err = s.im.TTL(mockCtx, "test:b")
	s.Equal(ErrNoTTL, err)
}

func (s *redisSuite) TestSetNX() {
	ok, err := s.im.SetNX(mockCtx, "test:a", []byte("1"), time.Minute)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.im.SetNX(mockCtx, "test:a", []byte("2"), time.Minute)
	s.Require().NoError(err)
	s.False(ok)

	val, err := s.im.Get(mockCtx, "test:a")
	s.Require().NoError(err)
	s.Equal([]byte("1"), val)
}

func (s *redisSuite) TestScriptDo() {
	script := NewScript(1, `return redis.call("INCRBY", KEYS[1], ARGV[1])`)
	res, err := s.im.ScriptDo(mockCtx, script, "test:a", 3)
	s.Require().NoError(err)
	s.Equal(int64(3), res)

	exists, err := s.im.Exists(mockCtx, "test:a")
	s.Require().NoError(err)
	s.True(exists)
}

func TestRedisSuite(t *testing.T) {
	suite.Run(t, new(redisSuite))
}

func TestGapTime(t *testing.T) {
	im := New("empty", metrics.New("redis"), nil)
	if _, err := im.Get(mockCtx, "k"); err != ErrGapTime {
		t.Fatalf("expect ErrGapTime, got %v", err)
	}
}

// replyConn answers every command with reply and records the command names
type replyConn struct {
	reply    interface{}
	commands []string
}

func (r *replyConn) Close() error { return nil }
func (r *replyConn) Err() error   { return nil }
func (r *replyConn) Do(commandName string, args ...interface{}) (interface{}, error) {
	r.commands = append(r.commands, commandName)
	return r.reply, nil
}
func (r *replyConn) Send(commandName string, args ...interface{}) error { return nil }
func (r *replyConn) Flush() error                                       { return nil }
func (r *replyConn) Receive() (interface{}, error)                      { return r.reply, nil }

func TestConnDo(t *testing.T) {
	conn := &replyConn{reply: []byte("v")}
	pool := &redis.Pool{Dial: func() (redis.Conn, error) { return conn, nil }}
	im := New("fake", metrics.New("redis"), &Pools{Src: pool})

	val, err := im.Get(mockCtx, "test:a")
	if err != nil {
		t.Fatalf("unexpected err %v", err)
	}
	if string(val) != "v" {
		t.Fatalf("expect v, got %s", val)
	}
	if len(conn.commands) == 0 || conn.commands[0] != "GET" {
		t.Fatalf("unexpected commands %v", conn.commands)
	}
}
