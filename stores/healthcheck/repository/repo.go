package repository

import (
	"time"

	"github.com/x-xyz/escrow/base/ctx"
	hcdomain "github.com/x-xyz/escrow/domain/healthcheck"
	"github.com/x-xyz/escrow/domain/keys"
	"github.com/x-xyz/escrow/service/query"
	"github.com/x-xyz/escrow/service/redis"
)

const pingTimeout = 2 * time.Second

type impl struct {
	mongo query.Mongo
	redis redis.Service
}

// New creates the health check repo. Either dependency may be nil when the
// service runs without it.
func New(mongo query.Mongo, redis redis.Service) hcdomain.HealthCheckRepo {
	return &impl{
		mongo: mongo,
		redis: redis,
	}
}

func (im *impl) PingMongo(context ctx.Ctx) error {
	if im.mongo == nil {
		return nil
	}
	ctx, cancel := ctx.WithTimeout(context, pingTimeout)
	defer cancel()
	if err := im.mongo.Ping(ctx); err != nil {
		context.WithField("err", err).Error("ping mongo error")
		return err
	}
	return nil
}

func (im *impl) PingRedis(context ctx.Ctx) error {
	if im.redis == nil {
		return nil
	}
	ctx, cancel := ctx.WithTimeout(context, pingTimeout)
	defer cancel()
	if err := im.redis.Set(ctx, keys.RedisKey(keys.PfxHealthCheck, "testset"), []byte("1"), 30*time.Second); err != nil {
		context.WithField("err", err).Error("test redis set failed")
		return err
	}
	return nil
}
