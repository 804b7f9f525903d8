package repository

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/base/log"
	"github.com/x-xyz/escrow/domain"
	"github.com/x-xyz/escrow/domain/marketplace"
	"github.com/x-xyz/escrow/service/query"
)

type impl struct {
	q query.Mongo
}

func New(q query.Mongo) marketplace.Repo {
	return &impl{q}
}

func (im *impl) Create(c ctx.Ctx, state marketplace.State) error {
	state.Id = marketplace.StateId
	if err := im.q.Insert(c, domain.TableMarketplace, state); err == query.ErrDuplicateKey {
		return domain.ErrConflict
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"state": state,
		}).Error("q.Insert failed")
		return err
	}
	return nil
}

func (im *impl) Get(c ctx.Ctx) (*marketplace.State, error) {
	res := marketplace.State{}
	if err := im.q.FindOne(c, domain.TableMarketplace, bson.M{"_id": marketplace.StateId}, &res); err == query.ErrNotFound {
		return nil, domain.ErrNotInitialized
	} else if err != nil {
		c.WithField("err", err).Error("q.FindOne failed")
		return nil, err
	}
	return &res, nil
}

func (im *impl) SetAdminFee(c ctx.Ctx, percent int64) error {
	selector := bson.M{"_id": marketplace.StateId}
	updater := bson.M{"$set": bson.M{
		"adminFee":  percent,
		"updatedAt": time.Now(),
	}}
	if err := im.q.CustomPatch(c, domain.TableMarketplace, selector, updater, false); err == query.ErrNotFound {
		return domain.ErrNotInitialized
	} else if err != nil {
		c.WithFields(log.Fields{
			"err":     err,
			"percent": percent,
		}).Error("q.CustomPatch failed")
		return err
	}
	return nil
}

func (im *impl) IsAdmin(c ctx.Ctx, address domain.Address) (bool, error) {
	qry := bson.M{
		"_id":    marketplace.StateId,
		"admins": address.ToLower(),
	}
	cnt, err := im.q.Count(c, domain.TableMarketplace, qry)
	if err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"query": qry,
		}).Error("q.Count failed")
		return false, err
	}
	return cnt > 0, nil
}
