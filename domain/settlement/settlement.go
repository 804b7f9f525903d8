package settlement

import (
	"math/big"
	"time"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/domain"
	"github.com/x-xyz/escrow/domain/marketplace"
)

type CurrencyType string

const (
	CurrencyNative CurrencyType = "native"
	CurrencyDai    CurrencyType = "dai"
	CurrencyLink   CurrencyType = "link"
)

func ToCurrencyType(name string) (CurrencyType, error) {
	switch CurrencyType(name) {
	case CurrencyNative, CurrencyDai, CurrencyLink:
		return CurrencyType(name), nil
	}
	return "", domain.ErrInvalidCurrency
}

// Currency is one accepted means of payment. Collected funds are held by
// the marketplace until paid out.
type Currency interface {
	Type() CurrencyType
	// Quote checks that buyer can pay price and returns the amount that
	// will be collected. attached is the native value sent with the call.
	Quote(c ctx.Ctx, state *marketplace.State, buyer domain.Address, price, attached *big.Int) (*big.Int, error)
	// Collect moves amount from buyer into escrow
	Collect(c ctx.Ctx, state *marketplace.State, buyer domain.Address, amount *big.Int) error
	// Payout moves amount from escrow to recipient
	Payout(c ctx.Ctx, state *marketplace.State, recipient domain.Address, amount *big.Int) error
}

type Receipt struct {
	Id            string         `json:"id"`
	OrderId       int64          `json:"orderId"`
	Buyer         domain.Address `json:"buyer"`
	Seller        domain.Address `json:"seller"`
	AssetContract domain.Address `json:"assetContract"`
	AssetId       domain.TokenId `json:"assetId"`
	Amount        domain.Amount  `json:"amount"`
	Currency      CurrencyType   `json:"currency"`
	Price         domain.Amount  `json:"price"`
	Paid          domain.Amount  `json:"paid"`
	FeePercent    int64          `json:"feePercent"`
	FeeAmount     domain.Amount  `json:"feeAmount"`
	FeeRecipient  domain.Address `json:"feeRecipient"`
	Proceeds      domain.Amount  `json:"proceeds"`
	SettledAt     time.Time      `json:"settledAt"`
}

// SplitFee returns price*percent/100 rounded down and the remainder
func SplitFee(price *big.Int, percent int64) (fee *big.Int, proceeds *big.Int) {
	fee = new(big.Int).Mul(price, big.NewInt(percent))
	fee.Quo(fee, domain.Big100)
	proceeds = new(big.Int).Sub(price, fee)
	return fee, proceeds
}

type UseCase interface {
	BuyWithNative(c ctx.Ctx, buyer domain.Address, orderId int64, value *big.Int) (*Receipt, error)
	BuyWithDai(c ctx.Ctx, buyer domain.Address, orderId int64) (*Receipt, error)
	BuyWithLink(c ctx.Ctx, buyer domain.Address, orderId int64) (*Receipt, error)
}

// Notifier announces completed sales, best effort.
type Notifier interface {
	NotifySale(c ctx.Ctx, receipt Receipt)
}
