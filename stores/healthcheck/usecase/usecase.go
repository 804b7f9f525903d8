package usecase

import (
	"github.com/x-xyz/escrow/base/ctx"
	hcdomain "github.com/x-xyz/escrow/domain/healthcheck"
)

type impl struct {
	repo hcdomain.HealthCheckRepo
}

// New creates new healthCheckUsecase object representation of HealthCheckUsecase interface
func New(repo hcdomain.HealthCheckRepo) hcdomain.HealthCheckUsecase {
	return &impl{
		repo: repo,
	}
}

func (im *impl) Check(context ctx.Ctx) (hcdomain.Report, error) {
	report := hcdomain.Report{}
	var first error
	for _, dep := range []struct {
		name string
		ping func(ctx.Ctx) error
	}{
		{"mongo", im.repo.PingMongo},
		{"redis", im.repo.PingRedis},
	} {
		if err := dep.ping(context); err != nil {
			report[dep.name] = err.Error()
			if first == nil {
				first = err
			}
			continue
		}
		report[dep.name] = "ok"
	}
	return report, first
}
