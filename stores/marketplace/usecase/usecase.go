package usecase

import (
	"time"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/base/log"
	"github.com/x-xyz/escrow/domain"
	"github.com/x-xyz/escrow/domain/marketplace"
)

type Cfg struct {
	Repo marketplace.Repo
}

type impl struct {
	repo marketplace.Repo
}

func New(cfg *Cfg) marketplace.UseCase {
	return &impl{
		repo: cfg.Repo,
	}
}

func (im *impl) Initialize(c ctx.Ctx, params marketplace.InitializeParams) (*marketplace.State, error) {
	if !params.Deployer.IsValid() {
		return nil, domain.ErrInvalidAddress
	}
	dai, link := params.DaiAddress, params.LinkAddress
	if dai.IsEmpty() {
		dai = marketplace.DefaultDaiAddress
	}
	if link.IsEmpty() {
		link = marketplace.DefaultLinkAddress
	}
	if !dai.IsValid() || !link.IsValid() {
		return nil, domain.ErrInvalidAddress
	}

	now := time.Now()
	deployer := params.Deployer.ToLower()
	state := marketplace.State{
		Id:           marketplace.StateId,
		Initialized:  true,
		Admins:       []domain.Address{deployer},
		AdminFee:     marketplace.DefaultAdminFee,
		FeeRecipient: deployer,
		DaiAddress:   dai.ToLower(),
		LinkAddress:  link.ToLower(),
		Version:      marketplace.StateVersion,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := im.repo.Create(c, state); err == domain.ErrConflict {
		return nil, domain.ErrAlreadyInitialized
	} else if err != nil {
		c.WithField("err", err).Error("repo.Create failed")
		return nil, err
	}

	c.WithFields(log.Fields{
		"deployer": deployer,
		"dai":      state.DaiAddress,
		"link":     state.LinkAddress,
	}).Info("marketplace initialized")
	return &state, nil
}

func (im *impl) Get(c ctx.Ctx) (*marketplace.State, error) {
	state, err := im.repo.Get(c)
	if err != nil {
		if err != domain.ErrNotInitialized {
			c.WithField("err", err).Error("repo.Get failed")
		}
		return nil, err
	}
	return state, nil
}

func (im *impl) IsAdmin(c ctx.Ctx, address domain.Address) (bool, error) {
	if !address.IsValid() {
		return false, domain.ErrInvalidAddress
	}
	return im.repo.IsAdmin(c, address)
}

func (im *impl) GetAdminFee(c ctx.Ctx) (int64, error) {
	state, err := im.Get(c)
	if err != nil {
		return 0, err
	}
	return state.AdminFee, nil
}

func (im *impl) SetAdminFee(c ctx.Ctx, caller domain.Address, percent int64) error {
	isAdmin, err := im.repo.IsAdmin(c, caller)
	if err != nil {
		c.WithField("err", err).Error("repo.IsAdmin failed")
		return err
	}
	if !isAdmin {
		return domain.ErrNotAdmin
	}
	if percent < 0 || percent > marketplace.MaxAdminFee {
		return domain.ErrInvalidFeePercent
	}
	if err := im.repo.SetAdminFee(c, percent); err != nil {
		c.WithFields(log.Fields{
			"err":     err,
			"percent": percent,
		}).Error("repo.SetAdminFee failed")
		return err
	}
	c.WithFields(log.Fields{
		"caller":  caller,
		"percent": percent,
	}).Info("admin fee updated")
	return nil
}
