package primitive

import (
	"testing"
	"time"

	"github.com/coocood/freecache"
	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/service/cache/provider"
)

var (
	mockCtx = ctx.Background()
)

type testsuite struct {
	suite.Suite
	im *impl
}

func (ts *testsuite) SetupTest() {
	ts.im = NewPrimitive("", 1).(*impl)
}

func (ts *testsuite) TearDownTest() {
	ts.im.cache.Clear()
}

func Test(t *testing.T) {
	suite.Run(t, new(testsuite))
}

func (ts *testsuite) TestSet() {
	k := "order:1"
	v := []byte(`{"id":1}`)

	ts.NoError(ts.im.Set(mockCtx, k, v, time.Second))
	r, e := ts.im.cache.Get([]byte(k))
	ts.NoError(e)
	ts.Equal(v, r)

	time.Sleep(1100 * time.Millisecond)
	_, e = ts.im.cache.Get([]byte(k))
	ts.Equal(freecache.ErrNotFound, e)
}

func (ts *testsuite) TestGet() {
	_, _, err := ts.im.Get(mockCtx, "missing")
	ts.Equal(provider.ErrNotFound, err)

	ts.NoError(ts.im.Set(mockCtx, "order:2", []byte("v"), 10*time.Second))
	val, ttl, err := ts.im.Get(mockCtx, "order:2")
	ts.NoError(err)
	ts.Equal([]byte("v"), val)
	ts.True(ttl > 0 && ttl <= 10*time.Second)

	// no expiration
	ts.NoError(ts.im.Set(mockCtx, "order:3", []byte("w"), 0))
	_, ttl, err = ts.im.Get(mockCtx, "order:3")
	ts.NoError(err)
	ts.Equal(time.Duration(0), ttl)
}

func (ts *testsuite) TestDel() {
	ts.NoError(ts.im.Set(mockCtx, "order:4", []byte("v"), time.Minute))
	ts.NoError(ts.im.Del(mockCtx, "order:4"))
	_, _, err := ts.im.Get(mockCtx, "order:4")
	ts.Equal(provider.ErrNotFound, err)
}

func (ts *testsuite) TestSizeInMegabytes() {
	// a 1MB cache keeps entries up to about 1KB
	ts.NoError(ts.im.Set(mockCtx, "small", make([]byte, 900), time.Minute))
	ts.Equal(freecache.ErrLargeEntry, ts.im.Set(mockCtx, "large", make([]byte, 1500), time.Minute))
}
