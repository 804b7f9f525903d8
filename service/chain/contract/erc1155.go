package contract

import (
	"errors"
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

var ErrTransferNotObserved = errors.New("transfer event missing from receipt")

// Erc1155 reads and moves multi-tokens on one chain, acting as the
// operator the sellers approved.
type Erc1155 struct {
	chainService       chain.Client
	chainId            int32
	abi                ethabi.ABI
	erc1155InterfaceId [4]byte
}

func NewErc1155(chainService chain.Client, chainId int32) *Erc1155 {
	var interfaceId [4]byte
	copy(interfaceId[:], common.Hex2Bytes("d9b67a26"))
	return &Erc1155{
		abi:                baseabi.ERC1155TokenABI,
		chainService:       chainService,
		chainId:            chainId,
		erc1155InterfaceId: interfaceId,
	}
}

func (e *Erc1155) Supports1155Interface(ctx bCtx.Ctx, addr domain.Address) (bool, error) {
	method := "supportsInterface"
	unpacked, err := e.chainService.Call(ctx, e.chainId, addr.ToCommon(), nil, e.abi, method, e.erc1155InterfaceId)
	if err != nil {
		return false, err
	}
	return unpacked[0].(bool), nil
}

func (e *Erc1155) BalanceOf(ctx bCtx.Ctx, contract, owner domain.Address, id domain.TokenId) (*big.Int, error) {
	tokenId, err := id.Big()
	if err != nil {
		return nil, err
	}
	unpacked, err := e.chainService.Call(ctx, e.chainId, contract.ToCommon(), nil, e.abi, "balanceOf", owner.ToCommon(), tokenId)
	if err != nil {
		return nil, err
	}
	return unpacked[0].(*big.Int), nil
}

func (e *Erc1155) IsApprovedForAll(ctx bCtx.Ctx, contract, owner, operator domain.Address) (bool, error) {
	unpacked, err := e.chainService.Call(ctx, e.chainId, contract.ToCommon(), nil, e.abi, "isApprovedForAll", owner.ToCommon(), operator.ToCommon())
	if err != nil {
		return false, err
	}
	return unpacked[0].(bool), nil
}

func (e *Erc1155) SafeTransferFrom(ctx bCtx.Ctx, contract, from, to domain.Address, id domain.TokenId, amount *big.Int) error {
	tokenId, err := id.Big()
	if err != nil {
		return err
	}
	receipt, err := e.chainService.Transact(ctx, e.chainId, contract.ToCommon(), e.abi, "safeTransferFrom", from.ToCommon(), to.ToCommon(), tokenId, amount, []byte{})
	if err != nil {
		return err
	}
	if !hasTransferSingle(receipt, from.ToCommon(), to.ToCommon(), tokenId, amount) {
		ctx.WithFields(log.Fields{
			"tx":       receipt.TxHash.Hex(),
			"contract": contract,
			"id":       id,
		}).Error("TransferSingle not found")
		return ErrTransferNotObserved
	}
	return nil
}

func hasTransferSingle(receipt *types.Receipt, from, to common.Address, id, amount *big.Int) bool {
	for _, l := range receipt.Logs {
		if !baseabi.IsErc1155TransferSingle(l) {
			continue
		}
		ev, err := baseabi.ToErc1155TransferSingleLog(l)
		if err != nil {
			continue
		}
		if ev.From == from && ev.To == to && ev.Id.Cmp(id) == 0 && ev.Value.Cmp(amount) == 0 {
			return true
		}
	}
	return false
}
