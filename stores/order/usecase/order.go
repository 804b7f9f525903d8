package usecase

import (
	"fmt"
	"math"
	"time"

	"github.com/viney-shih/goroutines"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/base/log"
	"github.com/x-xyz/escrow/base/metrics"
	"github.com/x-xyz/escrow/domain"
	"github.com/x-xyz/escrow/domain/keys"
	"github.com/x-xyz/escrow/domain/marketplace"
	"github.com/x-xyz/escrow/domain/order"
	"github.com/x-xyz/escrow/domain/token"
	"github.com/x-xyz/escrow/service/cache"
	"github.com/x-xyz/escrow/service/cache/provider"
	"github.com/x-xyz/escrow/service/lock"
)

var met = metrics.New("order")

const (
	// purchasability checks running at once per FindPurchasable call
	checkConcurrency = 8
	defaultViewTtl   = 10 * time.Minute
)

// NewViewCache caches order views by id. Only terminal orders are stored
// since they can no longer change.
func NewViewCache(p provider.Provider, ttl time.Duration) cache.Service {
	if ttl <= 0 {
		ttl = defaultViewTtl
	}
	return cache.New(cache.ServiceConfig{
		Ttl:   ttl,
		Pfx:   keys.PfxOrderView,
		Cache: p,
		ShouldCache: func(v interface{}) bool {
			o, ok := v.(*order.Order)
			return ok && o.State.IsTerminal()
		},
	})
}

// ViewKey is the key of order id in the view cache
func ViewKey(id int64) string {
	return fmt.Sprint(id)
}

type OrderUseCaseCfg struct {
	Repo order.Repo
	// Assets is read for live purchasability
	Assets token.AssetContract
	// Marketplace is the operator sellers approve
	Marketplace domain.Address
	// MarketState must be initialized before orders are created, so the
	// order counter starts at zero with the marketplace
	MarketState marketplace.Repo
	Locker      lock.Locker
	// ViewCache is optional
	ViewCache cache.Service
	TimeNow   func() time.Time
}

type impl struct {
	repo        order.Repo
	assets      token.AssetContract
	marketplace domain.Address
	marketState marketplace.Repo
	locker      lock.Locker
	viewCache   cache.Service
	timeNow     func() time.Time
}

func New(cfg *OrderUseCaseCfg) order.UseCase {
	timeNow := cfg.TimeNow
	if timeNow == nil {
		timeNow = time.Now
	}
	return &impl{
		repo:        cfg.Repo,
		assets:      cfg.Assets,
		marketplace: cfg.Marketplace,
		marketState: cfg.MarketState,
		locker:      cfg.Locker,
		viewCache:   cfg.ViewCache,
		timeNow:     timeNow,
	}
}

func (im *impl) Create(c ctx.Ctx, seller domain.Address, params order.CreateParams) (*order.Order, error) {
	if !seller.IsValid() {
		return nil, domain.ErrInvalidAddress
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if _, err := im.marketState.Get(c); err != nil {
		if err != domain.ErrNotInitialized {
			c.WithField("err", err).Error("marketState.Get failed")
		}
		return nil, err
	}

	now := im.timeNow()
	// deadline must fit in int64
	if now.Unix() > math.MaxInt64-params.Duration {
		return nil, domain.ErrInvalidOrderParams
	}
	o := &order.Order{
		Seller:        seller,
		AssetContract: params.AssetContract,
		AssetId:       params.AssetId,
		Amount:        domain.NewAmount(params.Amount),
		Price:         domain.NewAmount(params.Price),
		Deadline:      now.Unix() + params.Duration,
		State:         order.StateOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	o.LowerCase()

	res, err := im.repo.Create(c, o)
	if err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"order": o,
		}).Error("repo.Create failed")
		return nil, err
	}

	met.BumpSum("created", 1)
	c.WithFields(log.Fields{
		"id":     res.Id,
		"seller": res.Seller,
	}).Info("order created")
	return res, nil
}

func (im *impl) Cancel(c ctx.Ctx, caller domain.Address, id int64) error {
	unlock, err := im.locker.Lock(c, keys.OrderLockKey(id))
	if err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("locker.Lock failed")
		return err
	}
	defer unlock()

	o, err := im.repo.FindOne(c, id)
	if err != nil {
		return err
	}
	if !o.Seller.Equals(caller) {
		return domain.ErrNotOwner
	}
	if o.State != order.StateOpen {
		return domain.ErrOrderNotOpen
	}

	cancelled := order.StateCancelled
	now := im.timeNow()
	err = im.repo.Transition(c, id, order.StateOpen, order.OrderPatchable{
		State:     &cancelled,
		UpdatedAt: &now,
	})
	if err == domain.ErrStateConflict {
		return domain.ErrOrderNotOpen
	} else if err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("repo.Transition failed")
		return err
	}

	met.BumpSum("cancelled", 1)
	c.WithField("id", id).Info("order cancelled")
	return nil
}

func (im *impl) Get(c ctx.Ctx, id int64) (*order.Order, error) {
	if id <= 0 {
		return nil, domain.ErrOrderNotFound
	}
	if im.viewCache == nil {
		return im.repo.FindOne(c, id)
	}

	res := order.Order{}
	if err := im.viewCache.GetByFunc(c, ViewKey(id), &res, func() (interface{}, error) {
		return im.findSettled(c, id)
	}); err != nil {
		return nil, err
	}
	return &res, nil
}

// findSettled reads an order for the view cache. A purchase in progress holds
// the order lock and may still revert a sold order to open, so a terminal
// state is only trusted when read again under the lock.
func (im *impl) findSettled(c ctx.Ctx, id int64) (*order.Order, error) {
	o, err := im.repo.FindOne(c, id)
	if err != nil || !o.State.IsTerminal() {
		return o, err
	}

	unlock, err := im.locker.Lock(c, keys.OrderLockKey(id))
	if err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("locker.Lock failed")
		return nil, err
	}
	defer unlock()
	return im.repo.FindOne(c, id)
}

func (im *impl) OrderCount(c ctx.Ctx) (int64, error) {
	cnt, err := im.repo.OrderCount(c)
	if err != nil {
		c.WithField("err", err).Error("repo.OrderCount failed")
		return 0, err
	}
	return cnt, nil
}

func (im *impl) FindAll(c ctx.Ctx, opts ...order.FindAllOptionsFunc) ([]*order.Order, error) {
	res, err := im.repo.FindAll(c, opts...)
	if err != nil {
		c.WithField("err", err).Error("repo.FindAll failed")
		return nil, err
	}
	return res, nil
}

func (im *impl) Count(c ctx.Ctx, opts ...order.FindAllOptionsFunc) (int, error) {
	cnt, err := im.repo.Count(c, opts...)
	if err != nil {
		c.WithField("err", err).Error("repo.Count failed")
		return 0, err
	}
	return cnt, nil
}

type checkResult struct {
	idx     int
	listing *order.Listing
}

func (im *impl) FindPurchasable(c ctx.Ctx, opts ...order.FindAllOptionsFunc) ([]*order.Listing, error) {
	now := im.timeNow()
	opts = append(opts, order.WithState(order.StateOpen), order.WithNotExpiredAt(now))
	orders, err := im.FindAll(c, opts...)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []*order.Listing{}, nil
	}

	b := goroutines.NewBatch(checkConcurrency, goroutines.WithBatchSize(len(orders)))
	defer b.Close()
	for i := range orders {
		idx := i
		b.Queue(func() (interface{}, error) {
			return checkResult{idx, im.check(c, orders[idx], now)}, nil
		})
	}
	b.QueueComplete()

	res := make([]*order.Listing, len(orders))
	for ret := range b.Results() {
		if ret.Error() != nil {
			c.WithField("err", ret.Error()).Error("purchasability check failed")
			continue
		}
		r := ret.Value().(checkResult)
		res[r.idx] = r.listing
	}
	return res, nil
}

// check re-reads the seller's approval and balance, the same preconditions
// a purchase verifies
func (im *impl) check(c ctx.Ctx, o *order.Order, now time.Time) *order.Listing {
	l := &order.Listing{Order: o, Expired: o.IsExpired(now)}
	if l.Expired {
		l.Reason = domain.ErrorCode(domain.ErrOrderExpired)
		return l
	}

	approved, err := im.assets.IsApprovedForAll(c, o.AssetContract, o.Seller, im.marketplace)
	if err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"id":  o.Id,
		}).Warn("assets.IsApprovedForAll failed")
		l.Reason = domain.ErrorCode(err)
		return l
	}
	if !approved {
		l.Reason = domain.ErrorCode(domain.ErrSellerAccessRevoked)
		return l
	}

	balance, err := im.assets.BalanceOf(c, o.AssetContract, o.Seller, o.AssetId)
	if err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"id":  o.Id,
		}).Warn("assets.BalanceOf failed")
		l.Reason = domain.ErrorCode(err)
		return l
	}
	if balance.Cmp(o.Amount.MustBig()) < 0 {
		l.Reason = domain.ErrorCode(domain.ErrSellerInsufficientBalance)
		return l
	}

	l.Purchasable = true
	return l
}
