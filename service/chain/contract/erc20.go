package contract

import (
	"math/big"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	baseabi "github.com/x-xyz/escrow/base/abi"
	bCtx "github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/base/log"
	"github.com/x-xyz/escrow/domain"
	"github.com/x-xyz/escrow/service/chain"
)

// Erc20 moves payment tokens with the chain client's operator as spender
type Erc20 struct {
	chainService chain.Client
	chainId      int32
	abi          ethabi.ABI
}

func NewErc20(chainService chain.Client, chainId int32) *Erc20 {
	return &Erc20{
		chainService: chainService,
		chainId:      chainId,
		abi:          baseabi.ERC20TokenABI,
	}
}

func (e *Erc20) BalanceOf(ctx bCtx.Ctx, token, owner domain.Address) (*big.Int, error) {
	unpacked, err := e.chainService.Call(ctx, e.chainId, token.ToCommon(), nil, e.abi, "balanceOf", owner.ToCommon())
	if err != nil {
		return nil, err
	}
	return unpacked[0].(*big.Int), nil
}

func (e *Erc20) Allowance(ctx bCtx.Ctx, token, owner, spender domain.Address) (*big.Int, error) {
	unpacked, err := e.chainService.Call(ctx, e.chainId, token.ToCommon(), nil, e.abi, "allowance", owner.ToCommon(), spender.ToCommon())
	if err != nil {
		return nil, err
	}
	return unpacked[0].(*big.Int), nil
}

func (e *Erc20) TransferFrom(ctx bCtx.Ctx, token, from, to domain.Address, amount *big.Int) error {
	receipt, err := e.chainService.Transact(ctx, e.chainId, token.ToCommon(), e.abi, "transferFrom", from.ToCommon(), to.ToCommon(), amount)
	if err != nil {
		return err
	}
	return e.checkTransfer(ctx, receipt, token, from.ToCommon(), to.ToCommon(), amount)
}

func (e *Erc20) Transfer(ctx bCtx.Ctx, token, to domain.Address, amount *big.Int) error {
	receipt, err := e.chainService.Transact(ctx, e.chainId, token.ToCommon(), e.abi, "transfer", to.ToCommon(), amount)
	if err != nil {
		return err
	}
	return e.checkTransfer(ctx, receipt, token, e.chainService.Operator(), to.ToCommon(), amount)
}

func (e *Erc20) checkTransfer(ctx bCtx.Ctx, receipt *types.Receipt, token domain.Address, from, to common.Address, amount *big.Int) error {
	for _, l := range receipt.Logs {
		if !baseabi.IsErc20Transfer(l) {
			continue
		}
		ev, err := baseabi.ToErc20TransferLog(l)
		if err != nil {
			continue
		}
		if ev.From == from && ev.To == to && ev.Value.Cmp(amount) == 0 {
			return nil
		}
	}
	ctx.WithFields(log.Fields{
		"tx":    receipt.TxHash.Hex(),
		"token": token,
	}).Error("Transfer not found")
	return ErrTransferNotObserved
}
