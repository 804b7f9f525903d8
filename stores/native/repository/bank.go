package repository

import (
	"math/big"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/xerrors"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/base/log"
	"github.com/x-xyz/escrow/domain"
	"github.com/x-xyz/escrow/service/query"
)

// balance is one account of the native custody ledger. Amounts are kept as
// decimal strings since wei values overflow every bson number type.
type balance struct {
	Owner     domain.Address `bson:"_id"`
	Balance   domain.Amount  `bson:"balance"`
	UpdatedAt time.Time      `bson:"updatedAt"`
}

// Bank is a mongo backed domain/token.NativeBank. Transfers run in a
// transaction so that concurrent writers to one account conflict and retry.
type Bank struct {
	q query.Mongo
}

func NewBank(q query.Mongo) *Bank {
	return &Bank{q}
}

func (b *Bank) read(c ctx.Ctx, owner domain.Address) (*big.Int, error) {
	res := balance{}
	if err := b.q.FindOne(c, domain.TableNativeBalances, bson.M{"_id": owner.ToLower()}, &res); err == query.ErrNotFound {
		return new(big.Int), nil
	} else if err != nil {
		return nil, xerrors.Errorf("read balance of %s: %w", owner, err)
	}
	return res.Balance.Big()
}

func (b *Bank) write(c ctx.Ctx, owner domain.Address, value *big.Int) error {
	selector := bson.M{"_id": owner.ToLower()}
	updater := bson.M{"$set": bson.M{
		"balance":   domain.NewAmount(value),
		"updatedAt": time.Now(),
	}}
	if err := b.q.CustomPatch(c, domain.TableNativeBalances, selector, updater, true); err != nil {
		return xerrors.Errorf("write balance of %s: %w", owner, err)
	}
	return nil
}

func (b *Bank) BalanceOf(c ctx.Ctx, owner domain.Address) (*big.Int, error) {
	v, err := b.read(c, owner)
	if err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"owner": owner,
		}).Error("read failed")
		return nil, err
	}
	return v, nil
}

func (b *Bank) Transfer(c ctx.Ctx, from, to domain.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return domain.ErrInvalidNumberFormat
	}
	err := b.q.RunWithTransaction(c, func(c ctx.Ctx) error {
		fromBal, err := b.read(c, from)
		if err != nil {
			return err
		}
		if fromBal.Cmp(amount) < 0 {
			return domain.ErrInsufficientBalance
		}
		if from.Equals(to) {
			return nil
		}
		toBal, err := b.read(c, to)
		if err != nil {
			return err
		}
		if err := b.write(c, from, fromBal.Sub(fromBal, amount)); err != nil {
			return err
		}
		return b.write(c, to, toBal.Add(toBal, amount))
	})
	if err != nil && err != domain.ErrInsufficientBalance {
		c.WithFields(log.Fields{
			"err":    err,
			"from":   from,
			"to":     to,
			"amount": amount.String(),
		}).Error("q.RunWithTransaction failed")
	}
	return err
}

// Deposit credits owner with newly arrived funds
func (b *Bank) Deposit(c ctx.Ctx, owner domain.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return domain.ErrInvalidNumberFormat
	}
	err := b.q.RunWithTransaction(c, func(c ctx.Ctx) error {
		bal, err := b.read(c, owner)
		if err != nil {
			return err
		}
		return b.write(c, owner, bal.Add(bal, amount))
	})
	if err != nil {
		c.WithFields(log.Fields{
			"err":    err,
			"owner":  owner,
			"amount": amount.String(),
		}).Error("q.RunWithTransaction failed")
	}
	return err
}
