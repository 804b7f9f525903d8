package token

import (
	"math/big"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/domain"
)

// AssetContract is a multi-token (erc1155 style) contract the marketplace
// is an approved operator of.
type AssetContract interface {
	BalanceOf(c ctx.Ctx, contract, owner domain.Address, id domain.TokenId) (*big.Int, error)
	IsApprovedForAll(c ctx.Ctx, contract, owner, operator domain.Address) (bool, error)
	// SafeTransferFrom moves amount of id, executed by the marketplace as operator
	SafeTransferFrom(c ctx.Ctx, contract, from, to domain.Address, id domain.TokenId, amount *big.Int) error
}

// CurrencyContract is a fungible (erc20 style) token.
type CurrencyContract interface {
	BalanceOf(c ctx.Ctx, token, owner domain.Address) (*big.Int, error)
	Allowance(c ctx.Ctx, token, owner, spender domain.Address) (*big.Int, error)
	// TransferFrom spends the marketplace's allowance on from
	TransferFrom(c ctx.Ctx, token, from, to domain.Address, amount *big.Int) error
	// Transfer sends from the marketplace's own balance
	Transfer(c ctx.Ctx, token, to domain.Address, amount *big.Int) error
}

// NativeBank holds native currency balances.
type NativeBank interface {
	BalanceOf(c ctx.Ctx, owner domain.Address) (*big.Int, error)
	Transfer(c ctx.Ctx, from, to domain.Address, amount *big.Int) error
}
