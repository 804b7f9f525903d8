package usecase

import (
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/x-xyz/escrow/base/backoff"
	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/base/log"
	"github.com/x-xyz/escrow/base/metrics"
	"github.com/x-xyz/escrow/domain"
	"github.com/x-xyz/escrow/domain/keys"
	"github.com/x-xyz/escrow/domain/marketplace"
	"github.com/x-xyz/escrow/domain/order"
	"github.com/x-xyz/escrow/domain/settlement"
	"github.com/x-xyz/escrow/domain/token"
	"github.com/x-xyz/escrow/service/cache"
	"github.com/x-xyz/escrow/service/lock"
	orderUsecase "github.com/x-xyz/escrow/stores/order/usecase"
)

var met = metrics.New("settlement")

const (
	// payouts and undo steps are retried with these defaults
	defaultPayoutRetryStart = 200 * time.Millisecond
	defaultPayoutRetryLimit = 5 * time.Second
	defaultPayoutAttempts   = 5
)

type Cfg struct {
	Orders      order.Repo
	Marketplace marketplace.Repo
	Assets      token.AssetContract
	Currencies  []settlement.Currency
	// Custody is the marketplace operator holding escrowed funds
	Custody  domain.Address
	Locker   lock.Locker
	Notifier settlement.Notifier
	// OrderViews is the order view cache, optional
	OrderViews cache.Service

	PayoutRetryStart time.Duration
	PayoutRetryLimit time.Duration
	PayoutAttempts   int
	TimeNow          func() time.Time
}

type impl struct {
	orders      order.Repo
	marketplace marketplace.Repo
	assets      token.AssetContract
	currencies  map[settlement.CurrencyType]settlement.Currency
	custody     domain.Address
	locker      lock.Locker
	notifier    settlement.Notifier
	orderViews  cache.Service

	retryStart time.Duration
	retryLimit time.Duration
	attempts   int
	timeNow    func() time.Time
}

func New(cfg *Cfg) settlement.UseCase {
	im := &impl{
		orders:      cfg.Orders,
		marketplace: cfg.Marketplace,
		assets:      cfg.Assets,
		currencies:  make(map[settlement.CurrencyType]settlement.Currency),
		custody:     cfg.Custody.ToLower(),
		locker:      cfg.Locker,
		notifier:    cfg.Notifier,
		orderViews:  cfg.OrderViews,
		retryStart:  cfg.PayoutRetryStart,
		retryLimit:  cfg.PayoutRetryLimit,
		attempts:    cfg.PayoutAttempts,
		timeNow:     cfg.TimeNow,
	}
	for _, cur := range cfg.Currencies {
		im.currencies[cur.Type()] = cur
	}
	if im.retryStart <= 0 {
		im.retryStart = defaultPayoutRetryStart
	}
	if im.retryLimit <= 0 {
		im.retryLimit = defaultPayoutRetryLimit
	}
	if im.attempts <= 0 {
		im.attempts = defaultPayoutAttempts
	}
	if im.timeNow == nil {
		im.timeNow = time.Now
	}
	return im
}

func (im *impl) BuyWithNative(c ctx.Ctx, buyer domain.Address, orderId int64, value *big.Int) (*settlement.Receipt, error) {
	return im.buy(c, settlement.CurrencyNative, buyer, orderId, value)
}

func (im *impl) BuyWithDai(c ctx.Ctx, buyer domain.Address, orderId int64) (*settlement.Receipt, error) {
	return im.buy(c, settlement.CurrencyDai, buyer, orderId, nil)
}

func (im *impl) BuyWithLink(c ctx.Ctx, buyer domain.Address, orderId int64) (*settlement.Receipt, error) {
	return im.buy(c, settlement.CurrencyLink, buyer, orderId, nil)
}

func (im *impl) buy(c ctx.Ctx, typ settlement.CurrencyType, buyer domain.Address, orderId int64, attached *big.Int) (*settlement.Receipt, error) {
	defer met.BumpTime("buy.time", "currency", string(typ)).End()

	if !buyer.IsValid() {
		return nil, domain.ErrInvalidAddress
	}
	buyer = buyer.ToLower()
	cur, ok := im.currencies[typ]
	if !ok {
		return nil, domain.ErrInvalidCurrency
	}

	unlock, err := im.locker.Lock(c, keys.OrderLockKey(orderId))
	if err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"id":  orderId,
		}).Error("locker.Lock failed")
		return nil, err
	}
	defer unlock()

	state, err := im.marketplace.Get(c)
	if err != nil {
		return nil, err
	}

	o, err := im.orders.FindOne(c, orderId)
	if err != nil {
		return nil, err
	}
	if o.State != order.StateOpen {
		return nil, domain.ErrOrderNotAvailable
	}
	now := im.timeNow()
	if o.IsExpired(now) {
		return nil, domain.ErrOrderExpired
	}

	amount := o.Amount.MustBig()
	price := o.Price.MustBig()
	if err := im.checkAsset(c, o, amount); err != nil {
		return nil, err
	}

	paid, err := cur.Quote(c, state, buyer, price, attached)
	if err != nil {
		return nil, err
	}
	fee, proceeds := settlement.SplitFee(price, state.AdminFee)
	feeAmount := domain.NewAmount(fee)

	if err := im.settle(c, cur, state, o, buyer, paid, proceeds, fee, now); err != nil {
		return nil, err
	}

	receipt := settlement.Receipt{
		Id:            uuid.New().String(),
		OrderId:       o.Id,
		Buyer:         buyer,
		Seller:        o.Seller,
		AssetContract: o.AssetContract,
		AssetId:       o.AssetId,
		Amount:        o.Amount,
		Currency:      typ,
		Price:         o.Price,
		Paid:          domain.NewAmount(paid),
		FeePercent:    state.AdminFee,
		FeeAmount:     feeAmount,
		FeeRecipient:  state.FeeRecipient,
		Proceeds:      domain.NewAmount(proceeds),
		SettledAt:     now,
	}

	met.BumpSum("sold", 1, "currency", string(typ))
	c.WithFields(log.Fields{
		"id":       orderId,
		"buyer":    buyer,
		"currency": typ,
		"paid":     receipt.Paid,
	}).Info("order sold")

	if im.notifier != nil {
		im.notifier.NotifySale(c, receipt)
	}
	return &receipt, nil
}

// settle runs the purchase as one unit: claim the order, collect the payment,
// move the asset, then pay proceeds and fee out of custody. Any failure undoes
// the completed steps and the order is open again.
func (im *impl) settle(c ctx.Ctx, cur settlement.Currency, state *marketplace.State, o *order.Order, buyer domain.Address, paid, proceeds, fee *big.Int, now time.Time) error {
	u := &unit{orderId: o.Id}
	amount := o.Amount.MustBig()

	sold := order.StateSold
	currency := string(cur.Type())
	feeAmount := domain.NewAmount(fee)
	if err := im.orders.Transition(c, o.Id, order.StateOpen, order.OrderPatchable{
		State:     &sold,
		UpdatedAt: &now,
		Buyer:     &buyer,
		Currency:  &currency,
		FeeAmount: &feeAmount,
	}); err == domain.ErrStateConflict {
		return domain.ErrOrderNotAvailable
	} else if err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"id":  o.Id,
		}).Error("orders.Transition failed")
		return err
	}
	u.done("reopen", func() error {
		return im.reopen(c, o.Id)
	})

	if err := cur.Collect(c, state, buyer, paid); err != nil {
		c.WithFields(log.Fields{
			"err":      err,
			"id":       o.Id,
			"currency": cur.Type(),
		}).Error("currency.Collect failed")
		return u.abort(c, err)
	}
	u.done("refund", func() error {
		return im.payout(c, cur, state, buyer, paid, "refund")
	})

	if err := im.assets.SafeTransferFrom(c, o.AssetContract, o.Seller, buyer, o.AssetId, amount); err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"id":  o.Id,
		}).Error("assets.SafeTransferFrom failed")
		return u.abort(c, err)
	}
	u.done("returnAsset", func() error {
		return im.retry(c, func() error {
			return im.assets.SafeTransferFrom(c, o.AssetContract, buyer, o.Seller, o.AssetId, amount)
		})
	})

	if err := im.payout(c, cur, state, o.Seller, proceeds, "proceeds"); err != nil {
		return u.abort(c, err)
	}
	u.done("reclaimProceeds", func() error {
		return im.reclaim(c, cur, state, o.Seller, proceeds)
	})

	if err := im.payout(c, cur, state, state.FeeRecipient, fee, "fee"); err != nil {
		return u.abort(c, err)
	}
	return nil
}

// checkAsset re-reads the seller's approval and balance, both may have
// changed since the order was listed
func (im *impl) checkAsset(c ctx.Ctx, o *order.Order, amount *big.Int) error {
	approved, err := im.assets.IsApprovedForAll(c, o.AssetContract, o.Seller, im.custody)
	if err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"id":  o.Id,
		}).Error("assets.IsApprovedForAll failed")
		return err
	}
	if !approved {
		return domain.ErrSellerAccessRevoked
	}

	balance, err := im.assets.BalanceOf(c, o.AssetContract, o.Seller, o.AssetId)
	if err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"id":  o.Id,
		}).Error("assets.BalanceOf failed")
		return err
	}
	if balance.Cmp(amount) < 0 {
		return domain.ErrSellerInsufficientBalance
	}
	return nil
}

// reopen reverts a claimed order to open and drops any view of the sale
func (im *impl) reopen(c ctx.Ctx, id int64) error {
	open := order.StateOpen
	now := im.timeNow()
	if err := im.orders.Transition(c, id, order.StateSold, order.OrderPatchable{
		State:     &open,
		UpdatedAt: &now,
		ClearSale: true,
	}); err != nil {
		c.WithFields(log.Fields{
			"err": err,
			"id":  id,
		}).Error("orders.Transition reopen failed")
		return err
	}
	if im.orderViews != nil {
		if err := im.orderViews.Del(c, orderUsecase.ViewKey(id)); err != nil {
			c.WithFields(log.Fields{
				"err": err,
				"id":  id,
			}).Warn("orderViews.Del failed")
		}
	}
	return nil
}

// payout sends amount out of custody, retrying transient failures
func (im *impl) payout(c ctx.Ctx, cur settlement.Currency, state *marketplace.State, recipient domain.Address, amount *big.Int, kind string) error {
	if amount.Sign() == 0 {
		return nil
	}
	err := im.retry(c, func() error {
		return cur.Payout(c, state, recipient, amount)
	})
	if err != nil {
		met.BumpSum("payout.failed", 1, "kind", kind)
		c.WithFields(log.Fields{
			"err":       err,
			"recipient": recipient,
			"amount":    amount.String(),
			"currency":  cur.Type(),
			"kind":      kind,
		}).Error("payout failed")
	}
	return err
}

// reclaim pulls a payout back into custody
func (im *impl) reclaim(c ctx.Ctx, cur settlement.Currency, state *marketplace.State, from domain.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	return im.retry(c, func() error {
		return cur.Collect(c, state, from, amount)
	})
}

func (im *impl) retry(c ctx.Ctx, fn func() error) error {
	b := backoff.NewExponential(im.retryStart, im.retryLimit)
	return backoff.Retry(c, b, im.attempts, nil, fn)
}
