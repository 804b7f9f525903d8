package contract

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	baseabi "github.com/x-xyz/escrow/base/abi"
	bCtx "github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/domain"
	"github.com/x-xyz/escrow/service/chain/mocks"
)

const chainId = int32(1)

var (
	collection = domain.Address("0x71c4658acc7b53ee814a29ce31100ff85ca23ca7")
	dai        = domain.Address("0x6b175474e89094c44da98b954eedeac495271d0f")
	seller     = domain.Address("0x94EaD797046c7b654cab82C1c27ad223b6501f1f")
	buyer      = domain.Address("0x76BE3b62873462d2142405439777e971754E8E77")
	operator   = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

type contractSuite struct {
	suite.Suite
	ctx    bCtx.Ctx
	client *mocks.Client
}

func TestContractSuite(t *testing.T) {
	suite.Run(t, new(contractSuite))
}

func (s *contractSuite) SetupTest() {
	s.ctx = bCtx.Background()
	s.client = mocks.NewClient(s.T())
}

func transferSingleLog(from, to common.Address, id, value *big.Int) *types.Log {
	data, _ := baseabi.ERC1155TokenABI.Events["TransferSingle"].Inputs.NonIndexed().Pack(id, value)
	return &types.Log{
		Topics: []common.Hash{
			baseabi.ERC1155TokenABI.Events["TransferSingle"].ID,
			common.BytesToHash(operator.Bytes()),
			common.BytesToHash(from.Bytes()),
			common.BytesToHash(to.Bytes()),
		},
		Data: data,
	}
}

func erc20TransferLog(from, to common.Address, value *big.Int) *types.Log {
	data, _ := baseabi.ERC20TokenABI.Events["Transfer"].Inputs.NonIndexed().Pack(value)
	return &types.Log{
		Topics: []common.Hash{
			baseabi.ERC20TokenABI.Events["Transfer"].ID,
			common.BytesToHash(from.Bytes()),
			common.BytesToHash(to.Bytes()),
		},
		Data: data,
	}
}

func (s *contractSuite) TestErc1155BalanceOf() {
	e := NewErc1155(s.client, chainId)
	s.client.On("Call", mock.Anything, chainId, collection.ToCommon(), (*big.Int)(nil), mock.Anything, "balanceOf", seller.ToCommon(), big.NewInt(7)).
		Return([]interface{}{big.NewInt(5)}, nil).Once()

	res, err := e.BalanceOf(s.ctx, collection, seller, "7")
	s.Require().NoError(err)
	s.Equal(int64(5), res.Int64())

	_, err = e.BalanceOf(s.ctx, collection, seller, "abc")
	s.ErrorIs(err, domain.ErrInvalidNumberFormat)
}

func (s *contractSuite) TestErc1155IsApprovedForAll() {
	e := NewErc1155(s.client, chainId)
	s.client.On("Call", mock.Anything, chainId, collection.ToCommon(), (*big.Int)(nil), mock.Anything, "isApprovedForAll", seller.ToCommon(), operator).
		Return([]interface{}{true}, nil).Once()

	ok, err := e.IsApprovedForAll(s.ctx, collection, seller, domain.Address(operator.Hex()))
	s.Require().NoError(err)
	s.True(ok)
}

func (s *contractSuite) TestErc1155SupportsInterface() {
	e := NewErc1155(s.client, chainId)
	s.client.On("Call", mock.Anything, chainId, collection.ToCommon(), (*big.Int)(nil), mock.Anything, "supportsInterface", e.erc1155InterfaceId).
		Return([]interface{}{false}, nil).Once()

	ok, err := e.Supports1155Interface(s.ctx, collection)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *contractSuite) TestErc1155SafeTransferFrom() {
	e := NewErc1155(s.client, chainId)
	id, amount := big.NewInt(7), big.NewInt(2)

	s.client.On("Transact", mock.Anything, chainId, collection.ToCommon(), mock.Anything, "safeTransferFrom", seller.ToCommon(), buyer.ToCommon(), id, amount, []byte{}).
		Return(&types.Receipt{Logs: []*types.Log{transferSingleLog(seller.ToCommon(), buyer.ToCommon(), id, amount)}}, nil).Once()
	s.NoError(e.SafeTransferFrom(s.ctx, collection, seller, buyer, "7", amount))

	// receipt without matching event
	s.client.On("Transact", mock.Anything, chainId, collection.ToCommon(), mock.Anything, "safeTransferFrom", seller.ToCommon(), buyer.ToCommon(), id, amount, []byte{}).
		Return(&types.Receipt{Logs: []*types.Log{transferSingleLog(seller.ToCommon(), buyer.ToCommon(), id, big.NewInt(1))}}, nil).Once()
	s.ErrorIs(e.SafeTransferFrom(s.ctx, collection, seller, buyer, "7", amount), ErrTransferNotObserved)

	errReverted := errors.New("reverted")
	s.client.On("Transact", mock.Anything, chainId, collection.ToCommon(), mock.Anything, "safeTransferFrom", seller.ToCommon(), buyer.ToCommon(), id, amount, []byte{}).
		Return(nil, errReverted).Once()
	s.ErrorIs(e.SafeTransferFrom(s.ctx, collection, seller, buyer, "7", amount), errReverted)
}

func (s *contractSuite) TestErc20Reads() {
	e := NewErc20(s.client, chainId)
	s.client.On("Call", mock.Anything, chainId, dai.ToCommon(), (*big.Int)(nil), mock.Anything, "balanceOf", buyer.ToCommon()).
		Return([]interface{}{big.NewInt(1000)}, nil).Once()
	s.client.On("Call", mock.Anything, chainId, dai.ToCommon(), (*big.Int)(nil), mock.Anything, "allowance", buyer.ToCommon(), operator).
		Return([]interface{}{big.NewInt(300)}, nil).Once()

	bal, err := e.BalanceOf(s.ctx, dai, buyer)
	s.Require().NoError(err)
	s.Equal(int64(1000), bal.Int64())

	allowance, err := e.Allowance(s.ctx, dai, buyer, domain.Address(operator.Hex()))
	s.Require().NoError(err)
	s.Equal(int64(300), allowance.Int64())
}

func (s *contractSuite) TestErc20Transfers() {
	e := NewErc20(s.client, chainId)
	amount := big.NewInt(300)

	s.client.On("Transact", mock.Anything, chainId, dai.ToCommon(), mock.Anything, "transferFrom", buyer.ToCommon(), operator, amount).
		Return(&types.Receipt{Logs: []*types.Log{erc20TransferLog(buyer.ToCommon(), operator, amount)}}, nil).Once()
	s.NoError(e.TransferFrom(s.ctx, dai, buyer, domain.Address(operator.Hex()), amount))

	s.client.On("Operator").Return(operator)
	s.client.On("Transact", mock.Anything, chainId, dai.ToCommon(), mock.Anything, "transfer", seller.ToCommon(), amount).
		Return(&types.Receipt{Logs: []*types.Log{erc20TransferLog(operator, seller.ToCommon(), amount)}}, nil).Once()
	s.NoError(e.Transfer(s.ctx, dai, seller, amount))

	s.client.On("Transact", mock.Anything, chainId, dai.ToCommon(), mock.Anything, "transfer", seller.ToCommon(), amount).
		Return(&types.Receipt{}, nil).Once()
	s.ErrorIs(e.Transfer(s.ctx, dai, seller, amount), ErrTransferNotObserved)
}

func (s *contractSuite) TestErc1271() {
	e := NewErc1271(s.client, chainId)
	wallet := domain.Address("0xAc461fDFc10C71861f37fe42589334e021BaA1ee")
	hash := common.HexToHash("0x01f6f4c6639ea7f7d4df5425aaefe85113235810e9dd52ccf56297a16191c3ea")
	sig := []byte{1, 2, 3}

	s.client.On("Call", mock.Anything, chainId, wallet.ToCommon(), (*big.Int)(nil), mock.Anything, "isValidSignature", hash, sig).
		Return([]interface{}{e.magicValue}, nil).Once()
	ok, err := e.IsValidSignature(s.ctx, wallet, hash, sig)
	s.Require().NoError(err)
	s.True(ok)

	s.client.On("Call", mock.Anything, chainId, wallet.ToCommon(), (*big.Int)(nil), mock.Anything, "isValidSignature", hash, sig).
		Return([]interface{}{[4]byte{}}, nil).Once()
	ok, err = e.IsValidSignature(s.ctx, wallet, hash, sig)
	s.Require().NoError(err)
	s.False(ok)

	s.client.On("Call", mock.Anything, chainId, wallet.ToCommon(), (*big.Int)(nil), mock.Anything, "isValidSignature", hash, sig).
		Return(nil, errors.New("execution reverted")).Once()
	_, err = e.IsValidSignature(s.ctx, wallet, hash, sig)
	s.Error(err)
}
