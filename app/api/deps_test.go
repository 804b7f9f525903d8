package main

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/domain"
	"github.com/x-xyz/escrow/domain/marketplace"
	"github.com/x-xyz/escrow/service/query"
	"github.com/x-xyz/escrow/service/vault"
	native_repository "github.com/x-xyz/escrow/stores/native/repository"
)

var (
	operator = domain.Address("0x1111111111111111111111111111111111111111")
	owner    = domain.Address("0x76be3b62873462d2142405439777e971754e8e77")
	asset    = domain.Address("0x71c4658acc7b53ee814a29ce31100ff85ca23ca7")
)

type depsSuite struct {
	suite.Suite
	ctx  ctx.Ctx
	seed vaultSeed
}

func TestDepsSuite(t *testing.T) {
	suite.Run(t, new(depsSuite))
}

func (s *depsSuite) SetupTest() {
	s.ctx = ctx.Background()
	s.seed = vaultSeed{
		Assets: []seedAsset{{Contract: asset.ToLowerStr(), Owner: owner.ToLowerStr(), Id: "1", Amount: "100", Approved: true}},
		Tokens: []seedBalance{{Token: marketplace.DefaultDaiAddress.ToLowerStr(), Owner: owner.ToLowerStr(), Amount: "50", Allowance: "20"}},
		Native: []seedBalance{{Owner: owner.ToLowerStr(), Amount: "1000"}},
	}
}

func (s *depsSuite) TestNativeBankFromSeededVault() {
	v := vault.New(operator)
	bank, err := newNativeBank(nil, v, s.seed)
	s.Require().NoError(err)
	s.Require().NoError(seedVault(v, s.seed))

	balance, err := bank.BalanceOf(s.ctx, owner)
	s.Require().NoError(err)
	s.Equal("1000", balance.String())

	assets, err := v.Assets().BalanceOf(s.ctx, asset, owner, "1")
	s.Require().NoError(err)
	s.Equal(big.NewInt(100), assets)
	approved, err := v.Assets().IsApprovedForAll(s.ctx, asset, owner, operator)
	s.Require().NoError(err)
	s.True(approved)

	allowance, err := v.Currencies().Allowance(s.ctx, marketplace.DefaultDaiAddress, owner, operator)
	s.Require().NoError(err)
	s.Equal("20", allowance.String())
}

func (s *depsSuite) TestChainModeKeepsNativeSeed() {
	// chain mode seeds a vault that only serves native balances
	v := vault.New(operator)
	seed := vaultSeed{Native: s.seed.Native}
	bank, err := newNativeBank(nil, v, seed)
	s.Require().NoError(err)
	s.Require().NoError(seedVault(v, seed))

	s.Require().NoError(bank.Transfer(s.ctx, owner, operator, big.NewInt(400)))
	balance, err := bank.BalanceOf(s.ctx, operator)
	s.Require().NoError(err)
	s.Equal("400", balance.String())
}

func (s *depsSuite) TestMongoRejectsNativeSeed() {
	q := query.New(nil, false)

	_, err := newNativeBank(q, vault.New(operator), s.seed)
	s.ErrorIs(err, errNativeSeedWithMongo)

	bank, err := newNativeBank(q, vault.New(operator), vaultSeed{Assets: s.seed.Assets})
	s.Require().NoError(err)
	s.IsType(&native_repository.Bank{}, bank)
}

func (s *depsSuite) TestMalformedSeed() {
	seed := vaultSeed{Native: []seedBalance{{Owner: owner.ToLowerStr(), Amount: "ten"}}}
	s.Error(seedVault(vault.New(operator), seed))
}
