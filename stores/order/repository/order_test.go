package repository

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/base/database/mongoclient"
	"github.com/x-xyz/escrow/domain"
	"github.com/x-xyz/escrow/domain/order"
	"github.com/x-xyz/escrow/service/query"
)

var (
	seller1    = domain.Address("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	seller2    = domain.Address("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
	collection = domain.Address("0x71c4658acc7b53ee814a29ce31100ff85ca23ca7")
	buyer      = domain.Address("0x76be3b62873462d2142405439777e971754e8e77")
)

// orderSuite runs the same cases against every Repo implementation
type orderSuite struct {
	suite.Suite

	ctx     ctx.Ctx
	newRepo func() order.Repo
	reset   func()
	im      order.Repo
}

func TestMemoryOrderSuite(t *testing.T) {
	suite.Run(t, &orderSuite{
		newRepo: NewMemoryRepo,
		reset:   func() {},
	})
}

// needs a replica set for transactions, e.g.
// MONGO_TEST_URI="mongodb://localhost:27017/?replicaSet=rs0"
func TestMongoOrderSuite(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	client := mongoclient.MustConnectMongoClient(mongoclient.Cfg{
		URI:        uri,
		AuthDBName: "admin",
		DBName:     "test",
		SetSafe:    true,
	})
	q := query.New(client, false)
	suite.Run(t, &orderSuite{
		newRepo: func() order.Repo {
			return NewOrderRepo(q)
		},
		reset: func() {
			db := client.Database(client.DbName)
			_ = db.Collection(string(domain.TableOrders)).Drop(ctx.Background())
			_ = db.Collection(string(domain.TableCounters)).Drop(ctx.Background())
			_ = EnsureIndexes(ctx.Background(), q)
		},
	})
}

func (s *orderSuite) SetupTest() {
	s.ctx = ctx.Background()
	s.reset()
	s.im = s.newRepo()
}

func (s *orderSuite) create(seller domain.Address, assetId domain.TokenId, deadline int64) *order.Order {
	o, err := s.im.Create(s.ctx, &order.Order{
		Seller:        seller,
		AssetContract: collection,
		AssetId:       assetId,
		Amount:        "100",
		Price:         "10",
		Deadline:      deadline,
		State:         order.StateOpen,
		CreatedAt:     time.Unix(deadline-3600, 0).UTC(),
		UpdatedAt:     time.Unix(deadline-3600, 0).UTC(),
	})
	s.Require().NoError(err)
	return o
}

func (s *orderSuite) TestCreateAssignsDenseIds() {
	cnt, err := s.im.OrderCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(0), cnt)

	for i := int64(1); i <= 3; i++ {
		o := s.create(seller1, "1", 2000000000)
		s.Equal(i, o.Id)
	}

	cnt, err = s.im.OrderCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(3), cnt)

	o, err := s.im.FindOne(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal(int64(2), o.Id)
	s.Equal(seller1, o.Seller)
	s.Equal(domain.Amount("100"), o.Amount)

	_, err = s.im.FindOne(s.ctx, 4)
	s.ErrorIs(err, domain.ErrOrderNotFound)
}

func (s *orderSuite) TestFindAll() {
	s.create(seller1, "1", 1000)
	s.create(seller2, "1", 2000)
	s.create(seller1, "2", 3000)

	res, err := s.im.FindAll(s.ctx, order.WithSeller(seller1))
	s.Require().NoError(err)
	s.Require().Len(res, 2)
	s.Equal(int64(1), res[0].Id)
	s.Equal(int64(3), res[1].Id)

	res, err = s.im.FindAll(s.ctx, order.WithAssetContract(collection), order.WithAssetId("1"))
	s.Require().NoError(err)
	s.Len(res, 2)

	res, err = s.im.FindAll(s.ctx, order.WithNotExpiredAt(time.Unix(2000, 0)))
	s.Require().NoError(err)
	s.Require().Len(res, 2)
	s.Equal(int64(2), res[0].Id)

	res, err = s.im.FindAll(s.ctx, order.WithSort("-id"), order.WithPagination(1, 1))
	s.Require().NoError(err)
	s.Require().Len(res, 1)
	s.Equal(int64(2), res[0].Id)

	cnt, err := s.im.Count(s.ctx, order.WithState(order.StateOpen))
	s.Require().NoError(err)
	s.Equal(3, cnt)
}

func (s *orderSuite) TestTransition() {
	o := s.create(seller1, "1", 2000000000)

	sold := order.StateSold
	now := time.Now().UTC().Truncate(time.Millisecond)
	currency := "dai"
	fee := domain.Amount("1")
	b := buyer
	s.Require().NoError(s.im.Transition(s.ctx, o.Id, order.StateOpen, order.OrderPatchable{
		State:     &sold,
		UpdatedAt: &now,
		Buyer:     &b,
		Currency:  &currency,
		FeeAmount: &fee,
	}))

	got, err := s.im.FindOne(s.ctx, o.Id)
	s.Require().NoError(err)
	s.Equal(order.StateSold, got.State)
	s.Equal(buyer, got.Buyer)
	s.Equal("dai", got.Currency)

	// second buyer loses the race
	err = s.im.Transition(s.ctx, o.Id, order.StateOpen, order.OrderPatchable{State: &sold})
	s.ErrorIs(err, domain.ErrStateConflict)

	err = s.im.Transition(s.ctx, 99, order.StateOpen, order.OrderPatchable{State: &sold})
	s.ErrorIs(err, domain.ErrOrderNotFound)

	// roll back
	open := order.StateOpen
	s.Require().NoError(s.im.Transition(s.ctx, o.Id, order.StateSold, order.OrderPatchable{State: &open, ClearSale: true}))
	got, err = s.im.FindOne(s.ctx, o.Id)
	s.Require().NoError(err)
	s.Equal(order.StateOpen, got.State)
	s.Empty(got.Buyer)
	s.Empty(got.Currency)
	s.Empty(got.FeeAmount)
}

func (s *orderSuite) TestFindOneReturnsCopy() {
	o := s.create(seller1, "1", 2000000000)
	got, err := s.im.FindOne(s.ctx, o.Id)
	s.Require().NoError(err)
	got.State = order.StateCancelled

	again, err := s.im.FindOne(s.ctx, o.Id)
	s.Require().NoError(err)
	s.Equal(order.StateOpen, again.State)
}
