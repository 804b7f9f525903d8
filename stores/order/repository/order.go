package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/base/database/mongoclient"
	"github.com/x-xyz/escrow/base/log"
	"github.com/x-xyz/escrow/domain"
	"github.com/x-xyz/escrow/domain/order"
	"github.com/x-xyz/escrow/service/query"
)

const orderCounterId = "orders"

type counter struct {
	Id  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

var indexes = []query.Index{
	{Keys: bson.D{{Key: "id", Value: 1}}, Unique: true},
	{Keys: bson.D{{Key: "seller", Value: 1}, {Key: "state", Value: 1}}},
	{Keys: bson.D{{Key: "assetContract", Value: 1}, {Key: "assetId", Value: 1}}},
	{Keys: bson.D{{Key: "state", Value: 1}, {Key: "deadline", Value: 1}}},
}

type orderRepoImpl struct {
	q query.Mongo
}

func NewOrderRepo(q query.Mongo) order.Repo {
	return &orderRepoImpl{q}
}

// EnsureIndexes creates the indexes the order queries rely on
func EnsureIndexes(c ctx.Ctx, q query.Mongo) error {
	return q.EnsureIndexes(c, domain.TableOrders, indexes)
}

func (im *orderRepoImpl) makeQuery(opts ...order.FindAllOptionsFunc) (bson.M, order.FindAllOptions, error) {
	options, err := order.GetFindAllOptions(opts...)
	if err != nil {
		return nil, options, err
	}
	query := bson.M{}

	if options.Seller != nil {
		query["seller"] = *options.Seller
	}

	if options.AssetContract != nil {
		query["assetContract"] = *options.AssetContract
	}

	if options.AssetId != nil {
		query["assetId"] = *options.AssetId
	}

	if options.State != nil {
		query["state"] = *options.State
	}

	if options.DeadlineGT != nil {
		query["deadline"] = bson.M{"$gt": *options.DeadlineGT}
	}

	return query, options, nil
}

func (im *orderRepoImpl) Create(c ctx.Ctx, o *order.Order) (*order.Order, error) {
	res := *o
	err := im.q.RunWithTransaction(c, func(c ctx.Ctx) error {
		cnt := counter{}
		if err := im.q.Increment(c, domain.TableCounters, bson.M{"_id": orderCounterId}, &cnt, "seq", 1); err != nil {
			c.WithField("err", err).Error("q.Increment failed")
			return err
		}
		res.Id = cnt.Seq
		if err := im.q.Insert(c, domain.TableOrders, &res); err != nil {
			c.WithFields(log.Fields{
				"err":   err,
				"order": res,
			}).Error("q.Insert failed")
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (im *orderRepoImpl) FindAll(ctx ctx.Ctx, opts ...order.FindAllOptionsFunc) ([]*order.Order, error) {
	query, options, err := im.makeQuery(opts...)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
		}).Error("im.makeQuery")
		return nil, err
	}

	offset, limit, sort := 0, 0, "id"
	if options.Offset != nil {
		offset = int(*options.Offset)
	}
	if options.Limit != nil {
		limit = int(*options.Limit)
	}
	if options.Sort != nil {
		sort = *options.Sort
	}

	res := []*order.Order{}
	err = im.q.Search(ctx, domain.TableOrders, offset, limit, sort, query, &res)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err":   err,
			"query": query,
		}).Error("failed to q.Search")
		return nil, err
	}

	return res, nil
}

func (im *orderRepoImpl) Count(ctx ctx.Ctx, opts ...order.FindAllOptionsFunc) (int, error) {
	query, _, err := im.makeQuery(opts...)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err": err,
		}).Error("im.makeQuery")
		return 0, err
	}

	cnt, err := im.q.Count(ctx, domain.TableOrders, query)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err":   err,
			"query": query,
		}).Error("failed to q.Count")
		return 0, err
	}

	return cnt, nil
}

func (im *orderRepoImpl) FindOne(ctx ctx.Ctx, id int64) (*order.Order, error) {
	qry := bson.M{"id": id}

	res := order.Order{}
	err := im.q.FindOne(ctx, domain.TableOrders, qry, &res)
	if err == query.ErrNotFound {
		return nil, domain.ErrOrderNotFound
	} else if err != nil {
		ctx.WithFields(log.Fields{
			"err":   err,
			"query": qry,
		}).Error("failed to q.FindOne")
		return nil, err
	}

	return &res, nil
}

func (im *orderRepoImpl) OrderCount(ctx ctx.Ctx) (int64, error) {
	cnt := counter{}
	err := im.q.FindOne(ctx, domain.TableCounters, bson.M{"_id": orderCounterId}, &cnt)
	if err == query.ErrNotFound {
		return 0, nil
	} else if err != nil {
		ctx.WithField("err", err).Error("failed to q.FindOne")
		return 0, err
	}
	return cnt.Seq, nil
}

func (im *orderRepoImpl) Transition(ctx ctx.Ctx, id int64, from order.State, patchable order.OrderPatchable) error {
	selector := bson.M{"id": id, "state": from}

	updater, err := mongoclient.MakeBsonM(patchable)
	if err != nil {
		ctx.WithFields(log.Fields{
			"err":       err,
			"patchable": patchable,
		}).Error("failed to mongoclient.MakeBsonM")
		return err
	}

	update := bson.M{"$set": updater}
	if patchable.ClearSale {
		update["$unset"] = bson.M{"buyer": "", "currency": "", "feeAmount": ""}
	}

	err = im.q.CustomPatch(ctx, domain.TableOrders, selector, update, false)
	if err == query.ErrNotFound {
		// tell a missing order from one that already moved on
		if _, err := im.FindOne(ctx, id); err != nil {
			return err
		}
		return domain.ErrStateConflict
	} else if err != nil {
		ctx.WithFields(log.Fields{
			"err":      err,
			"selector": selector,
			"update":   update,
		}).Error("failed to q.CustomPatch")
		return err
	}

	return nil
}
