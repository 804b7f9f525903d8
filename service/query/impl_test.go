package query

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/base/database/mongoclient"
	"github.com/x-xyz/escrow/domain"
)

var (
	mockCTX = ctx.Background()
)

const (
	mockTable = domain.Table("query_test")
	dbName    = "testdb"
)

// needs a replica set for transactions, e.g.
// MONGO_TEST_URI="mongodb://localhost:27017/?replicaSet=rs0"
type querySuite struct {
	suite.Suite
	im       *impl
	mongoURI string
}

func (q *querySuite) SetupSuite() {
	q.mongoURI = os.Getenv("MONGO_TEST_URI")
	if q.mongoURI == "" {
		q.T().Skip("MONGO_TEST_URI not set")
	}
	q.im = New(mongoclient.MustConnectMongoClient(mongoclient.Cfg{
		URI:        q.mongoURI,
		AuthDBName: "admin",
		DBName:     dbName,
		SetSafe:    true,
	}), false).(*impl)
}

func (q *querySuite) SetupTest() {
	q.Require().NoError(q.im.collection(mockTable).Drop(ctx.Background()))
}

type dummy struct {
	Dummy  string `bson:"dummy"`
	Update string `bson:"updatekey"`
	Record int32  `bson:"record"`
}

func (q *querySuite) TestInsertAndFindOne() {
	q.Require().NoError(q.im.Insert(mockCTX, mockTable, dummy{Dummy: "a", Update: "b"}))

	result := &dummy{}
	q.Require().NoError(q.im.FindOne(mockCTX, mockTable, bson.M{"dummy": "a"}, result))
	q.Equal(dummy{Dummy: "a", Update: "b"}, *result)

	err := q.im.FindOne(mockCTX, mockTable, bson.M{"dummy": "c"}, result)
	q.Equal(ErrNotFound, err)
}

func (q *querySuite) TestInsertShouldFailWithDuplicateKey() {
	q.Require().NoError(q.im.EnsureIndexes(mockCTX, mockTable, []Index{
		{Keys: bson.D{{Key: "dummy", Value: 1}}, Unique: true},
	}))
	q.Require().NoError(q.im.Insert(mockCTX, mockTable, dummy{Dummy: "a"}))
	q.Equal(ErrDuplicateKey, q.im.Insert(mockCTX, mockTable, dummy{Dummy: "a"}))
}

func (q *querySuite) TestCountAndSearch() {
	for i, d := range []string{"a", "b", "c"} {
		q.Require().NoError(q.im.Insert(mockCTX, mockTable, dummy{Dummy: d, Update: "x", Record: int32(i)}))
	}

	cnt, err := q.im.Count(mockCTX, mockTable, bson.M{"updatekey": "x"})
	q.Require().NoError(err)
	q.Equal(3, cnt)

	results := []dummy{}
	q.Require().NoError(q.im.Search(mockCTX, mockTable, 1, 5, "-record", bson.M{"updatekey": "x"}, &results))
	q.Require().Len(results, 2)
	q.Equal("b", results[0].Dummy)
	q.Equal("a", results[1].Dummy)
}

func (q *querySuite) TestCustomPatch() {
	q.Require().NoError(q.im.Insert(mockCTX, mockTable, dummy{Dummy: "a", Record: 5}))

	// conditional update
	err := q.im.CustomPatch(mockCTX, mockTable, bson.M{"dummy": "a", "record": bson.M{"$gte": 3}}, bson.M{"$inc": bson.M{"record": -3}}, false)
	q.Require().NoError(err)
	err = q.im.CustomPatch(mockCTX, mockTable, bson.M{"dummy": "a", "record": bson.M{"$gte": 3}}, bson.M{"$inc": bson.M{"record": -3}}, false)
	q.Equal(ErrNotFound, err)

	v := &dummy{}
	q.Require().NoError(q.im.FindOne(mockCTX, mockTable, bson.M{"dummy": "a"}, v))
	q.Equal(int32(2), v.Record)

	// upsert
	q.Require().NoError(q.im.CustomPatch(mockCTX, mockTable, bson.M{"dummy": "b"}, bson.M{"$set": bson.M{"record": 6}}, true))
	q.Require().NoError(q.im.FindOne(mockCTX, mockTable, bson.M{"dummy": "b"}, v))
	q.Equal(int32(6), v.Record)
}

func (q *querySuite) TestIncrementMany() {
	type counter struct {
		Id  string `bson:"_id"`
		Seq int64  `bson:"seq"`
	}
	result := &counter{}
	q.Require().NoError(q.im.IncrementMany(mockCTX, mockTable, bson.M{"_id": "orders"}, bson.M{"seq": int64(1)}, nil, result))
	q.Equal(int64(1), result.Seq)
	q.Require().NoError(q.im.Increment(mockCTX, mockTable, bson.M{"_id": "orders"}, result, "seq", int64(1)))
	q.Equal(int64(2), result.Seq)
}

func (q *querySuite) TestRunWithTransaction() {
	run := func(c ctx.Ctx) error {
		q.Require().NoError(q.im.Insert(c, mockTable, dummy{Dummy: "a"}))
		q.Require().NoError(q.im.Insert(c, mockTable, dummy{Dummy: "b"}))
		return errors.New("error")
	}

	// test fail
	q.Require().Error(q.im.RunWithTransaction(mockCTX, run))

	result := &dummy{}
	q.Equal(ErrNotFound, q.im.FindOne(mockCTX, mockTable, bson.M{"dummy": "a"}, result))
	q.Equal(ErrNotFound, q.im.FindOne(mockCTX, mockTable, bson.M{"dummy": "b"}, result))

	run = func(c ctx.Ctx) error {
		q.Require().NoError(q.im.Insert(c, mockTable, dummy{Dummy: "a"}))
		q.Require().NoError(q.im.Insert(c, mockTable, dummy{Dummy: "b"}))
		return nil
	}

	// test success
	q.Require().NoError(q.im.RunWithTransaction(mockCTX, run))
	q.Require().NoError(q.im.FindOne(mockCTX, mockTable, bson.M{"dummy": "a"}, result))
	q.Require().NoError(q.im.FindOne(mockCTX, mockTable, bson.M{"dummy": "b"}, result))
}

func TestQuerySuite(t *testing.T) {
	suite.Run(t, new(querySuite))
}

func TestGetSortOption(t *testing.T) {
	im := &impl{}
	got := im.getSortOption(mockCTX, "-deadline", "", "id")
	if len(got) != 2 || got[0].Key != "deadline" || got[0].Value != -1 || got[1].Key != "id" || got[1].Value != 1 {
		t.Fatalf("unexpected sort option %v", got)
	}
}
