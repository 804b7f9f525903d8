package chain

import (
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	bCtx "github.com/x-xyz/escrow/base/ctx"
	bEth "github.com/x-xyz/escrow/base/ethereum"
	"github.com/x-xyz/escrow/base/log"
)

var (
	ErrUnsupportedChain = errors.New("unsupported chain")
	ErrNoOperatorKey    = errors.New("operator key not configured")
	ErrTxReverted       = errors.New("transaction reverted")
)

type ClientCfg struct {
	RpcUrls map[int32]string
	// MaxConcurrency bounds in-flight rpc requests per chain
	MaxConcurrency int
	// OperatorKey signs the transactions sent by Transact
	OperatorKey string
}

type Client interface {
	Call(bCtx.Ctx, int32, common.Address, *big.Int, abi.ABI, string, ...interface{}) ([]interface{}, error)
	// Transact sends a transaction signed by the operator and waits until it is mined
	Transact(bCtx.Ctx, int32, common.Address, abi.ABI, string, ...interface{}) (*types.Receipt, error)
	// Operator is the address Transact sends from
	Operator() common.Address
}

type clientImpl struct {
	clients map[int32]*bEth.ThrottledClient
	key     *ecdsa.PrivateKey
	// one pending send per chain keeps operator nonces in order
	sendMu map[int32]*sync.Mutex
}

func NewClient(ctx bCtx.Ctx, cfg *ClientCfg) (Client, error) {
	var (
		anyerr error
	)
	clients := make(map[int32]*bEth.ThrottledClient)
	sendMu := make(map[int32]*sync.Mutex)
	for chainId, url := range cfg.RpcUrls {
		client, err := ethclient.DialContext(ctx, url)
		if err != nil {
			anyerr = err
			ctx.WithFields(log.Fields{
				"err":     err,
				"chainId": chainId,
				"url":     url,
			}).Warn("failed to dial rpc")
			// soft warning, still let the server start
			continue
		}
		clients[chainId] = bEth.NewThrottledClient(client, cfg.MaxConcurrency)
		sendMu[chainId] = &sync.Mutex{}
	}

	impl := &clientImpl{
		clients: clients,
		sendMu:  sendMu,
	}
	if cfg.OperatorKey != "" {
		key, err := bEth.ParsePrivateKey(cfg.OperatorKey)
		if err != nil {
			ctx.WithField("err", err).Error("bEth.ParsePrivateKey failed")
			return nil, err
		}
		impl.key = key
	}
	return impl, anyerr
}

func (c *clientImpl) Operator() common.Address {
	if c.key == nil {
		return common.Address{}
	}
	return bEth.KeyAddress(c.key)
}

func (c *clientImpl) Call(ctx bCtx.Ctx, chainId int32, addr common.Address, blk *big.Int, _abi abi.ABI, method string, params ...interface{}) ([]interface{}, error) {
	client, ok := c.clients[chainId]
	if !ok {
		return nil, ErrUnsupportedChain
	}

	data, err := _abi.Pack(method, params...)
	if err != nil {
		ctx.WithFields(log.Fields{
			"method": method,
			"params": params,
			"err":    err,
		}).Error("abi.Pack failed")
		return nil, err
	}
	msg := ethereum.CallMsg{
		To:   &addr,
		Data: data,
	}
	res, err := client.CallContract(ctx, msg, blk)
	if err != nil {
		ctx.WithField("err", err).Error("client.CallContract failed")
		return nil, err
	}
	unpacked, err := _abi.Unpack(method, res)
	if err != nil {
		ctx.WithField("err", err).Error("abi.Unpack failed")
		return nil, err
	}
	return unpacked, nil
}

func (c *clientImpl) Transact(ctx bCtx.Ctx, chainId int32, addr common.Address, _abi abi.ABI, method string, params ...interface{}) (*types.Receipt, error) {
	client, ok := c.clients[chainId]
	if !ok {
		return nil, ErrUnsupportedChain
	}
	if c.key == nil {
		return nil, ErrNoOperatorKey
	}

	opts, err := bind.NewKeyedTransactorWithChainID(c.key, big.NewInt(int64(chainId)))
	if err != nil {
		ctx.WithField("err", err).Error("bind.NewKeyedTransactorWithChainID failed")
		return nil, err
	}
	opts.Context = ctx

	contract := bind.NewBoundContract(addr, _abi, client, client, client)

	mu := c.sendMu[chainId]
	mu.Lock()
	tx, err := contract.Transact(opts, method, params...)
	mu.Unlock()
	if err != nil {
		ctx.WithFields(log.Fields{
			"method": method,
			"params": params,
			"err":    err,
		}).Error("contract.Transact failed")
		return nil, err
	}

	receipt, err := bind.WaitMined(ctx, client, tx)
	if err != nil {
		ctx.WithFields(log.Fields{
			"tx":  tx.Hash().Hex(),
			"err": err,
		}).Error("bind.WaitMined failed")
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		ctx.WithFields(log.Fields{
			"tx":     tx.Hash().Hex(),
			"method": method,
		}).Error("transaction reverted")
		return receipt, ErrTxReverted
	}
	return receipt, nil
}
