package usecase

import (
	"math/big"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/base/log"
	"github.com/x-xyz/escrow/domain"
	"github.com/x-xyz/escrow/domain/marketplace"
	"github.com/x-xyz/escrow/domain/settlement"
	"github.com/x-xyz/escrow/domain/token"
)

type nativeCurrency struct {
	bank    token.NativeBank
	custody domain.Address
}

// NewNative pays with the value attached to the purchase. The whole
// attached value is collected.
func NewNative(bank token.NativeBank, custody domain.Address) settlement.Currency {
	return &nativeCurrency{bank: bank, custody: custody}
}

func (n *nativeCurrency) Type() settlement.CurrencyType {
	return settlement.CurrencyNative
}

func (n *nativeCurrency) Quote(c ctx.Ctx, state *marketplace.State, buyer domain.Address, price, attached *big.Int) (*big.Int, error) {
	if attached == nil || attached.Cmp(price) < 0 {
		return nil, domain.ErrInsufficientPayment
	}
	balance, err := n.bank.BalanceOf(c, buyer)
	if err != nil {
		c.WithField("err", err).Error("bank.BalanceOf failed")
		return nil, err
	}
	if balance.Cmp(attached) < 0 {
		return nil, domain.ErrInsufficientBalance
	}
	return new(big.Int).Set(attached), nil
}

func (n *nativeCurrency) Collect(c ctx.Ctx, state *marketplace.State, buyer domain.Address, amount *big.Int) error {
	return n.bank.Transfer(c, buyer, n.custody, amount)
}

func (n *nativeCurrency) Payout(c ctx.Ctx, state *marketplace.State, recipient domain.Address, amount *big.Int) error {
	return n.bank.Transfer(c, n.custody, recipient, amount)
}

type tokenCurrency struct {
	typ      settlement.CurrencyType
	contract token.CurrencyContract
	custody  domain.Address
	// address picks the token out of the marketplace state
	address func(*marketplace.State) domain.Address
}

// NewDai and NewLink pull exactly the price through the buyer's allowance
func NewDai(contract token.CurrencyContract, custody domain.Address) settlement.Currency {
	return &tokenCurrency{
		typ:      settlement.CurrencyDai,
		contract: contract,
		custody:  custody,
		address:  func(s *marketplace.State) domain.Address { return s.DaiAddress },
	}
}

func NewLink(contract token.CurrencyContract, custody domain.Address) settlement.Currency {
	return &tokenCurrency{
		typ:      settlement.CurrencyLink,
		contract: contract,
		custody:  custody,
		address:  func(s *marketplace.State) domain.Address { return s.LinkAddress },
	}
}

func (t *tokenCurrency) Type() settlement.CurrencyType {
	return t.typ
}

func (t *tokenCurrency) Quote(c ctx.Ctx, state *marketplace.State, buyer domain.Address, price, _ *big.Int) (*big.Int, error) {
	tokenAddr := t.address(state)
	allowance, err := t.contract.Allowance(c, tokenAddr, buyer, t.custody)
	if err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"token": tokenAddr,
		}).Error("contract.Allowance failed")
		return nil, err
	}
	if allowance.Cmp(price) < 0 {
		return nil, domain.ErrBuyerAllowanceInsufficient
	}
	balance, err := t.contract.BalanceOf(c, tokenAddr, buyer)
	if err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"token": tokenAddr,
		}).Error("contract.BalanceOf failed")
		return nil, err
	}
	if balance.Cmp(price) < 0 {
		return nil, domain.ErrInsufficientBalance
	}
	return new(big.Int).Set(price), nil
}

func (t *tokenCurrency) Collect(c ctx.Ctx, state *marketplace.State, buyer domain.Address, amount *big.Int) error {
	return t.contract.TransferFrom(c, t.address(state), buyer, t.custody, amount)
}

func (t *tokenCurrency) Payout(c ctx.Ctx, state *marketplace.State, recipient domain.Address, amount *big.Int) error {
	return t.contract.Transfer(c, t.address(state), recipient, amount)
}
