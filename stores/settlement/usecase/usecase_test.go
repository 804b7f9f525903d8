package usecase

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/domain"
	"github.com/x-xyz/escrow/domain/marketplace"
	"github.com/x-xyz/escrow/domain/order"
	"github.com/x-xyz/escrow/domain/settlement"
	"github.com/x-xyz/escrow/domain/token"
	mToken "github.com/x-xyz/escrow/domain/token/mocks"
	"github.com/x-xyz/escrow/service/cache"
	"github.com/x-xyz/escrow/service/cache/provider/primitive"
	"github.com/x-xyz/escrow/service/lock"
	"github.com/x-xyz/escrow/service/vault"
	marketplaceRepo "github.com/x-xyz/escrow/stores/marketplace/repository"
	marketplaceUsecase "github.com/x-xyz/escrow/stores/marketplace/usecase"
	orderRepo "github.com/x-xyz/escrow/stores/order/repository"
	orderUsecase "github.com/x-xyz/escrow/stores/order/usecase"
)

var (
	market   = domain.Address("0x1111111111111111111111111111111111111111")
	deployer = domain.Address("0x2222222222222222222222222222222222222222")
	seller   = domain.Address("0x94ead797046c7b654cab82c1c27ad223b6501f1f")
	buyer    = domain.Address("0x76be3b62873462d2142405439777e971754e8e77")
	asset    = domain.Address("0x71c4658acc7b53ee814a29ce31100ff85ca23ca7")
	dai      = marketplace.DefaultDaiAddress
	link     = marketplace.DefaultLinkAddress

	ether = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
)

// common20 is a distinct valid address per i
func common20(i int) string {
	return fmt.Sprintf("0x%040x", i+0x1000)
}

func eth(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), ether)
}

// fraction returns n/d ether
func fraction(n, d int64) *big.Int {
	v := eth(n)
	return v.Quo(v, big.NewInt(d))
}

type recordingNotifier struct {
	mu       sync.Mutex
	receipts []settlement.Receipt
}

func (r *recordingNotifier) NotifySale(c ctx.Ctx, receipt settlement.Receipt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receipts = append(r.receipts, receipt)
}

type settlementSuite struct {
	suite.Suite

	ctx         ctx.Ctx
	now         time.Time
	orders      order.Repo
	marketplace marketplace.UseCase
	vault       *vault.Vault
	bank        token.NativeBank
	views       cache.Service
	notifier    *recordingNotifier
	marketRepo  marketplace.Repo
	im          settlement.UseCase
}

func TestSettlementSuite(t *testing.T) {
	suite.Run(t, new(settlementSuite))
}

func (s *settlementSuite) SetupTest() {
	s.ctx = ctx.Background()
	s.now = time.Unix(1700000000, 0)
	s.orders = orderRepo.NewMemoryRepo()
	mRepo := marketplaceRepo.NewMemory()
	s.marketplace = marketplaceUsecase.New(&marketplaceUsecase.Cfg{Repo: mRepo})
	_, err := s.marketplace.Initialize(s.ctx, marketplace.InitializeParams{Deployer: deployer})
	s.Require().NoError(err)

	s.vault = vault.New(market)
	s.bank = s.vault.Native()
	s.views = orderUsecase.NewViewCache(primitive.NewPrimitive("orderView", 1), time.Minute)
	s.notifier = &recordingNotifier{}
	s.im = s.newUseCase(mRepo, s.vault.Assets(), s.vault.Currencies())
}

func (s *settlementSuite) newUseCase(repo marketplace.Repo, assets token.AssetContract, currencies token.CurrencyContract) settlement.UseCase {
	s.marketRepo = repo
	return New(&Cfg{
		Orders:      s.orders,
		Marketplace: repo,
		Assets:      assets,
		Currencies: []settlement.Currency{
			NewNative(s.bank, market),
			NewDai(currencies, market),
			NewLink(currencies, market),
		},
		Custody:          market,
		Locker:           lock.NewLocal(),
		Notifier:         s.notifier,
		OrderViews:       s.views,
		PayoutRetryStart: time.Millisecond,
		PayoutRetryLimit: 2 * time.Millisecond,
		PayoutAttempts:   3,
		TimeNow:          func() time.Time { return s.now },
	})
}

// list mints amount of asset id 1 to the seller, approves the marketplace
// and opens an order for all of it
func (s *settlementSuite) list(amount int64, price *big.Int) *order.Order {
	s.vault.MintAsset(asset, seller, "1", big.NewInt(amount))
	s.vault.SetApprovalForAll(asset, seller, market, true)
	o, err := s.orders.Create(s.ctx, &order.Order{
		Seller:        seller,
		AssetContract: asset,
		AssetId:       "1",
		Amount:        domain.NewAmount(big.NewInt(amount)),
		Price:         domain.NewAmount(price),
		Deadline:      s.now.Unix() + 3600,
		State:         order.StateOpen,
		CreatedAt:     s.now,
		UpdatedAt:     s.now,
	})
	s.Require().NoError(err)
	return o
}

func (s *settlementSuite) native(owner domain.Address) *big.Int {
	v, err := s.vault.Native().BalanceOf(s.ctx, owner)
	s.Require().NoError(err)
	return v
}

func (s *settlementSuite) token(tokenAddr, owner domain.Address) *big.Int {
	v, err := s.vault.Currencies().BalanceOf(s.ctx, tokenAddr, owner)
	s.Require().NoError(err)
	return v
}

func (s *settlementSuite) assetBalance(owner domain.Address) int64 {
	v, err := s.vault.Assets().BalanceOf(s.ctx, asset, owner, "1")
	s.Require().NoError(err)
	return v.Int64()
}

func (s *settlementSuite) state(id int64) *order.Order {
	o, err := s.orders.FindOne(s.ctx, id)
	s.Require().NoError(err)
	return o
}

func (s *settlementSuite) TestBuyWithNative() {
	o := s.list(100, eth(10))
	s.vault.Deposit(buyer, eth(20))

	receipt, err := s.im.BuyWithNative(s.ctx, buyer, o.Id, eth(10))
	s.Require().NoError(err)

	s.Equal(o.Id, receipt.OrderId)
	s.Equal(settlement.CurrencyNative, receipt.Currency)
	s.NotEmpty(receipt.Id)
	s.Equal(int64(1), receipt.FeePercent)
	s.Equal(domain.NewAmount(fraction(1, 10)), receipt.FeeAmount)
	s.Equal(domain.NewAmount(fraction(99, 10)), receipt.Proceeds)
	s.Equal(deployer, receipt.FeeRecipient)

	s.Equal(int64(0), s.assetBalance(seller))
	s.Equal(int64(100), s.assetBalance(buyer))
	s.Equal(eth(10).String(), s.native(buyer).String())
	s.Equal(fraction(99, 10).String(), s.native(seller).String())
	s.Equal(fraction(1, 10).String(), s.native(deployer).String())
	s.Equal("0", s.native(market).String())

	sold := s.state(o.Id)
	s.Equal(order.StateSold, sold.State)
	s.Equal(buyer, sold.Buyer)
	s.Equal("native", sold.Currency)
	s.Equal(domain.NewAmount(fraction(1, 10)), sold.FeeAmount)

	s.Require().Len(s.notifier.receipts, 1)
	s.Equal(*receipt, s.notifier.receipts[0])
}

func (s *settlementSuite) TestNativeExcessStaysInCustody() {
	o := s.list(1, big.NewInt(1000))
	s.vault.Deposit(buyer, big.NewInt(1500))

	receipt, err := s.im.BuyWithNative(s.ctx, buyer, o.Id, big.NewInt(1200))
	s.Require().NoError(err)
	s.Equal(domain.Amount("1200"), receipt.Paid)

	s.Equal("300", s.native(buyer).String())
	s.Equal("990", s.native(seller).String())
	s.Equal("10", s.native(deployer).String())
	s.Equal("200", s.native(market).String())
}

func (s *settlementSuite) TestNativeInsufficientPayment() {
	o := s.list(100, eth(10))
	s.vault.Deposit(buyer, eth(20))

	_, err := s.im.BuyWithNative(s.ctx, buyer, o.Id, eth(9))
	s.ErrorIs(err, domain.ErrInsufficientPayment)
	_, err = s.im.BuyWithNative(s.ctx, buyer, o.Id, nil)
	s.ErrorIs(err, domain.ErrInsufficientPayment)

	s.Equal(eth(20).String(), s.native(buyer).String())
	s.Equal(int64(100), s.assetBalance(seller))
	s.Equal(order.StateOpen, s.state(o.Id).State)
	s.Empty(s.notifier.receipts)
}

func (s *settlementSuite) TestNativeInsufficientBalance() {
	o := s.list(100, eth(10))
	s.vault.Deposit(buyer, eth(5))

	_, err := s.im.BuyWithNative(s.ctx, buyer, o.Id, eth(10))
	s.ErrorIs(err, domain.ErrInsufficientBalance)
	s.Equal(eth(5).String(), s.native(buyer).String())
	s.Equal(order.StateOpen, s.state(o.Id).State)
}

func (s *settlementSuite) TestSellerRevokedApproval() {
	o := s.list(100, eth(10))
	s.vault.SetApprovalForAll(asset, seller, market, false)
	s.vault.Deposit(buyer, eth(10))

	_, err := s.im.BuyWithNative(s.ctx, buyer, o.Id, eth(10))
	s.ErrorIs(err, domain.ErrSellerAccessRevoked)
	s.Equal(eth(10).String(), s.native(buyer).String())
	s.Equal(order.StateOpen, s.state(o.Id).State)
}

func (s *settlementSuite) TestSellerMovedAssets() {
	o := s.list(100, eth(10))
	s.Require().NoError(s.vault.Assets().SafeTransferFrom(s.ctx, asset, seller, deployer, "1", big.NewInt(1)))
	s.vault.Deposit(buyer, eth(10))

	_, err := s.im.BuyWithNative(s.ctx, buyer, o.Id, eth(10))
	s.ErrorIs(err, domain.ErrSellerInsufficientBalance)
	s.Equal(eth(10).String(), s.native(buyer).String())
}

func (s *settlementSuite) TestExpired() {
	o := s.list(100, eth(10))
	s.vault.Deposit(buyer, eth(10))

	// the deadline itself is still purchasable
	s.now = time.Unix(o.Deadline+1, 0)
	_, err := s.im.BuyWithNative(s.ctx, buyer, o.Id, eth(10))
	s.ErrorIs(err, domain.ErrOrderExpired)

	s.now = time.Unix(o.Deadline, 0)
	_, err = s.im.BuyWithNative(s.ctx, buyer, o.Id, eth(10))
	s.NoError(err)
}

func (s *settlementSuite) TestNotAvailable() {
	o := s.list(100, eth(10))
	s.vault.Deposit(buyer, eth(30))

	_, err := s.im.BuyWithNative(s.ctx, buyer, o.Id+1, eth(10))
	s.ErrorIs(err, domain.ErrOrderNotFound)

	_, err = s.im.BuyWithNative(s.ctx, buyer, o.Id, eth(10))
	s.Require().NoError(err)
	_, err = s.im.BuyWithNative(s.ctx, buyer, o.Id, eth(10))
	s.ErrorIs(err, domain.ErrOrderNotAvailable)
	s.Equal(eth(20).String(), s.native(buyer).String())

	cancelled := order.StateCancelled
	other := s.list(1, eth(1))
	s.Require().NoError(s.orders.Transition(s.ctx, other.Id, order.StateOpen, order.OrderPatchable{State: &cancelled}))
	_, err = s.im.BuyWithNative(s.ctx, buyer, other.Id, eth(1))
	s.ErrorIs(err, domain.ErrOrderNotAvailable)
}

func (s *settlementSuite) TestInvalidInput() {
	o := s.list(100, eth(10))
	_, err := s.im.BuyWithNative(s.ctx, "0x123", o.Id, eth(10))
	s.ErrorIs(err, domain.ErrInvalidAddress)
}

func (s *settlementSuite) TestNotInitialized() {
	im := s.newUseCase(marketplaceRepo.NewMemory(), s.vault.Assets(), s.vault.Currencies())
	o := s.list(100, eth(10))
	s.vault.Deposit(buyer, eth(10))

	_, err := im.BuyWithNative(s.ctx, buyer, o.Id, eth(10))
	s.ErrorIs(err, domain.ErrNotInitialized)
}

func (s *settlementSuite) TestBuyWithDai() {
	o := s.list(100, eth(10))
	s.vault.MintCurrency(dai, buyer, eth(50))
	s.vault.Approve(dai, buyer, market, eth(9))

	_, err := s.im.BuyWithDai(s.ctx, buyer, o.Id)
	s.ErrorIs(err, domain.ErrBuyerAllowanceInsufficient)
	s.Equal(eth(50).String(), s.token(dai, buyer).String())

	s.vault.Approve(dai, buyer, market, eth(100))
	receipt, err := s.im.BuyWithDai(s.ctx, buyer, o.Id)
	s.Require().NoError(err)
	s.Equal(settlement.CurrencyDai, receipt.Currency)
	s.Equal(domain.NewAmount(eth(10)), receipt.Paid)

	// exactly the price is pulled
	s.Equal(eth(40).String(), s.token(dai, buyer).String())
	s.Equal(fraction(99, 10).String(), s.token(dai, seller).String())
	s.Equal(fraction(1, 10).String(), s.token(dai, deployer).String())
	s.Equal("0", s.token(dai, market).String())
	s.Equal("0", s.token(link, seller).String())
	s.Equal(int64(100), s.assetBalance(buyer))

	allowance, err := s.vault.Currencies().Allowance(s.ctx, dai, buyer, market)
	s.Require().NoError(err)
	s.Equal(eth(90).String(), allowance.String())
}

func (s *settlementSuite) TestBuyWithLinkInsufficientBalance() {
	o := s.list(100, eth(10))
	s.vault.MintCurrency(link, buyer, eth(5))
	s.vault.Approve(link, buyer, market, eth(100))

	_, err := s.im.BuyWithLink(s.ctx, buyer, o.Id)
	s.ErrorIs(err, domain.ErrInsufficientBalance)

	s.vault.MintCurrency(link, buyer, eth(5))
	receipt, err := s.im.BuyWithLink(s.ctx, buyer, o.Id)
	s.Require().NoError(err)
	s.Equal(settlement.CurrencyLink, receipt.Currency)
	s.Equal("0", s.token(link, buyer).String())
	s.Equal(fraction(99, 10).String(), s.token(link, seller).String())
}

func (s *settlementSuite) TestFeeChangesApplyToLaterSales() {
	first := s.list(1, big.NewInt(1000))
	s.vault.Deposit(buyer, big.NewInt(2000))
	_, err := s.im.BuyWithNative(s.ctx, buyer, first.Id, big.NewInt(1000))
	s.Require().NoError(err)

	s.Require().NoError(s.marketplace.SetAdminFee(s.ctx, deployer, 0))
	second := s.list(1, big.NewInt(1000))
	receipt, err := s.im.BuyWithNative(s.ctx, buyer, second.Id, big.NewInt(1000))
	s.Require().NoError(err)
	s.Equal(domain.Amount("0"), receipt.FeeAmount)

	s.Equal("10", s.native(deployer).String())
	s.Equal("1990", s.native(seller).String())
}

func (s *settlementSuite) TestConcurrentBuyers() {
	o := s.list(100, eth(10))
	buyers := []domain.Address{}
	for i := 0; i < 10; i++ {
		b := domain.Address(common20(i))
		buyers = append(buyers, b)
		s.vault.Deposit(b, eth(10))
	}

	var wg sync.WaitGroup
	errs := make([]error, len(buyers))
	for i, b := range buyers {
		wg.Add(1)
		go func(i int, b domain.Address) {
			defer wg.Done()
			_, errs[i] = s.im.BuyWithNative(s.ctx, b, o.Id, eth(10))
		}(i, b)
	}
	wg.Wait()

	winners := 0
	for i, err := range errs {
		if err == nil {
			winners++
			s.Equal("0", s.native(buyers[i]).String())
			continue
		}
		s.ErrorIs(err, domain.ErrOrderNotAvailable)
		s.Equal(eth(10).String(), s.native(buyers[i]).String())
	}
	s.Equal(1, winners)
	s.Len(s.notifier.receipts, 1)
	s.Equal(fraction(99, 10).String(), s.native(seller).String())
}

func (s *settlementSuite) TestRollbackWhenAssetTransferFails() {
	o := s.list(100, eth(10))
	s.vault.Deposit(buyer, eth(10))

	assets := mToken.NewAssetContract(s.T())
	assets.On("IsApprovedForAll", mock.Anything, asset, seller, market).Return(true, nil)
	assets.On("BalanceOf", mock.Anything, asset, seller, domain.TokenId("1")).Return(big.NewInt(100), nil)
	assets.On("SafeTransferFrom", mock.Anything, asset, seller, buyer, domain.TokenId("1"), big.NewInt(100)).
		Return(errors.New("reverted")).Once()
	im := s.newUseCase(s.marketRepo, assets, s.vault.Currencies())

	// a stale sold view must not outlive the rollback
	stale := *o
	stale.State = order.StateSold
	s.Require().NoError(s.views.Set(s.ctx, orderUsecase.ViewKey(o.Id), &stale))

	_, err := im.BuyWithNative(s.ctx, buyer, o.Id, eth(10))
	s.EqualError(err, "reverted")

	reopened := s.state(o.Id)
	s.Equal(order.StateOpen, reopened.State)
	s.Empty(reopened.Buyer)
	s.Empty(reopened.Currency)
	s.Empty(reopened.FeeAmount)

	s.Equal(eth(10).String(), s.native(buyer).String())
	s.Equal("0", s.native(market).String())
	s.Equal("0", s.native(seller).String())
	s.Empty(s.notifier.receipts)

	err = s.views.Get(s.ctx, orderUsecase.ViewKey(o.Id), &order.Order{})
	s.ErrorIs(err, cache.ErrNotFound)

	// the order can still be bought afterwards
	_, err = s.im.BuyWithNative(s.ctx, buyer, o.Id, eth(10))
	s.NoError(err)
}

func (s *settlementSuite) TestPayoutFailureRevertsSale() {
	o := s.list(100, big.NewInt(1000))
	// the asset can only be handed back through the buyer's approval
	s.vault.SetApprovalForAll(asset, buyer, market, true)

	currencies := mToken.NewCurrencyContract(s.T())
	currencies.On("Allowance", mock.Anything, dai, buyer, market).Return(big.NewInt(1000), nil)
	currencies.On("BalanceOf", mock.Anything, dai, buyer).Return(big.NewInt(1000), nil)
	currencies.On("TransferFrom", mock.Anything, dai, buyer, market, big.NewInt(1000)).Return(nil).Once()
	currencies.On("Transfer", mock.Anything, dai, seller, big.NewInt(990)).Return(nil).Once()
	currencies.On("Transfer", mock.Anything, dai, deployer, big.NewInt(10)).Return(errors.New("rpc down"))
	currencies.On("TransferFrom", mock.Anything, dai, seller, market, big.NewInt(990)).Return(nil).Once()
	currencies.On("Transfer", mock.Anything, dai, buyer, big.NewInt(1000)).Return(nil).Once()
	im := s.newUseCase(s.marketRepo, s.vault.Assets(), currencies)

	receipt, err := im.BuyWithDai(s.ctx, buyer, o.Id)
	s.EqualError(err, "rpc down")
	s.Nil(receipt)

	reopened := s.state(o.Id)
	s.Equal(order.StateOpen, reopened.State)
	s.Empty(reopened.Buyer)
	s.Equal(int64(100), s.assetBalance(seller))
	s.Equal(int64(0), s.assetBalance(buyer))
	s.Empty(s.notifier.receipts)

	// the fee payout is retried before the sale is given up
	currencies.AssertNumberOfCalls(s.T(), "Transfer", 1+3+1)
	currencies.AssertNumberOfCalls(s.T(), "TransferFrom", 2)
}

func (s *settlementSuite) TestFailedRefundKeepsOrderClosed() {
	o := s.list(100, big.NewInt(1000))

	bank := mToken.NewNativeBank(s.T())
	bank.On("BalanceOf", mock.Anything, buyer).Return(big.NewInt(1000), nil)
	bank.On("Transfer", mock.Anything, buyer, market, big.NewInt(1000)).Return(nil).Once()
	bank.On("Transfer", mock.Anything, market, buyer, big.NewInt(1000)).Return(errors.New("ledger down"))
	s.bank = bank

	assets := mToken.NewAssetContract(s.T())
	assets.On("IsApprovedForAll", mock.Anything, asset, seller, market).Return(true, nil)
	assets.On("BalanceOf", mock.Anything, asset, seller, domain.TokenId("1")).Return(big.NewInt(100), nil)
	assets.On("SafeTransferFrom", mock.Anything, asset, seller, buyer, domain.TokenId("1"), big.NewInt(100)).
		Return(errors.New("reverted")).Once()
	im := s.newUseCase(s.marketRepo, assets, s.vault.Currencies())

	receipt, err := im.BuyWithNative(s.ctx, buyer, o.Id, big.NewInt(1000))
	s.ErrorIs(err, domain.ErrSettlementIncomplete)
	s.Equal("SettlementIncomplete", domain.ErrorCode(err))
	s.Nil(receipt)

	// the buyer's payment is still held so the order must not be sold again
	held := s.state(o.Id)
	s.Equal(order.StateSold, held.State)
	s.Equal(buyer, held.Buyer)
	s.Empty(s.notifier.receipts)

	_, err = im.BuyWithNative(s.ctx, buyer, o.Id, big.NewInt(1000))
	s.ErrorIs(err, domain.ErrOrderNotAvailable)
	bank.AssertNumberOfCalls(s.T(), "Transfer", 1+3)
}

func (s *settlementSuite) TestFailedCollectReopens() {
	o := s.list(100, big.NewInt(1000))

	currencies := mToken.NewCurrencyContract(s.T())
	currencies.On("Allowance", mock.Anything, link, buyer, market).Return(big.NewInt(1000), nil)
	currencies.On("BalanceOf", mock.Anything, link, buyer).Return(big.NewInt(1000), nil)
	currencies.On("TransferFrom", mock.Anything, link, buyer, market, big.NewInt(1000)).Return(errors.New("reverted")).Once()
	im := s.newUseCase(s.marketRepo, s.vault.Assets(), currencies)

	_, err := im.BuyWithLink(s.ctx, buyer, o.Id)
	s.EqualError(err, "reverted")
	s.Equal(order.StateOpen, s.state(o.Id).State)
	s.Equal(int64(100), s.assetBalance(seller))
	currencies.AssertNotCalled(s.T(), "Transfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
