package ethereum

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestThrottledClientTokens(t *testing.T) {
	req := require.New(t)
	c := NewThrottledClient(nil, 2)

	req.NoError(c.before(context.Background()))
	req.NoError(c.before(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	req.ErrorIs(c.before(ctx), context.DeadlineExceeded)

	c.after()
	req.NoError(c.before(context.Background()))
}
