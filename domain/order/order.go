package order

import (
	"math/big"
	"time"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/domain"
)

type State int8

const (
	StateOpen      State = 0
	StateSold      State = 1
	StateCancelled State = 2
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateSold:
		return "sold"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// ParseState accepts the names String returns
func ParseState(s string) (State, error) {
	for _, st := range []State{StateOpen, StateSold, StateCancelled} {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, domain.ErrBadParamInput
}

// IsTerminal reports whether no further transition is allowed from s
func (s State) IsTerminal() bool {
	return s == StateSold || s == StateCancelled
}

type Order struct {
	Id            int64          `json:"id" bson:"id"`
	Seller        domain.Address `json:"seller" bson:"seller"`
	AssetContract domain.Address `json:"assetContract" bson:"assetContract"`
	AssetId       domain.TokenId `json:"assetId" bson:"assetId"`
	Amount        domain.Amount  `json:"amount" bson:"amount"`
	Price         domain.Amount  `json:"price" bson:"price"`
	// unix seconds, inclusive
	Deadline  int64     `json:"deadline" bson:"deadline"`
	State     State     `json:"state" bson:"state"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`

	// filled when sold
	Buyer     domain.Address `json:"buyer,omitempty" bson:"buyer,omitempty"`
	Currency  string         `json:"currency,omitempty" bson:"currency,omitempty"`
	FeeAmount domain.Amount  `json:"feeAmount,omitempty" bson:"feeAmount,omitempty"`
}

// IsExpired is true once now is strictly past the deadline
func (o *Order) IsExpired(now time.Time) bool {
	return now.Unix() > o.Deadline
}

func (o *Order) LowerCase() {
	o.Seller = o.Seller.ToLower()
	o.AssetContract = o.AssetContract.ToLower()
	o.Buyer = o.Buyer.ToLower()
}

type OrderPatchable struct {
	State     *State          `bson:"state,omitempty"`
	UpdatedAt *time.Time      `bson:"updatedAt,omitempty"`
	Buyer     *domain.Address `bson:"buyer,omitempty"`
	Currency  *string         `bson:"currency,omitempty"`
	FeeAmount *domain.Amount  `bson:"feeAmount,omitempty"`
	// ClearSale drops buyer, currency and feeAmount, used when a sale is rolled back
	ClearSale bool `bson:"-"`
}

// CreateParams are the seller supplied fields of a new listing
type CreateParams struct {
	AssetContract domain.Address
	AssetId       domain.TokenId
	Amount        *big.Int
	// seconds
	Duration int64
	Price    *big.Int
}

func (p CreateParams) Validate() error {
	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return domain.ErrInvalidOrderParams
	}
	if p.Price == nil || p.Price.Sign() <= 0 {
		return domain.ErrInvalidOrderParams
	}
	if p.Duration <= 0 {
		return domain.ErrInvalidOrderParams
	}
	if !p.AssetContract.IsValid() {
		return domain.ErrInvalidAddress
	}
	if _, err := p.AssetId.Big(); err != nil {
		return err
	}
	return nil
}

// Listing is an open order annotated with its live purchasability
type Listing struct {
	*Order
	Expired     bool   `json:"expired"`
	Purchasable bool   `json:"purchasable"`
	Reason      string `json:"reason,omitempty"`
}

type FindAllOptions struct {
	Seller        *domain.Address
	AssetContract *domain.Address
	AssetId       *domain.TokenId
	State         *State
	DeadlineGT    *int64
	Offset        *int32
	Limit         *int32
	Sort          *string
}

type FindAllOptionsFunc func(*FindAllOptions) error

func GetFindAllOptions(opts ...FindAllOptionsFunc) (FindAllOptions, error) {
	res := FindAllOptions{}

	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}

	return res, nil
}

func WithSeller(seller domain.Address) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Seller = seller.ToLowerPtr()
		return nil
	}
}

func WithAssetContract(address domain.Address) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.AssetContract = address.ToLowerPtr()
		return nil
	}
}

func WithAssetId(id domain.TokenId) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.AssetId = &id
		return nil
	}
}

func WithState(state State) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.State = &state
		return nil
	}
}

// WithNotExpiredAt keeps orders whose deadline has not passed at t
func WithNotExpiredAt(t time.Time) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		// deadline >= now  <=>  deadline > now-1
		v := t.Unix() - 1
		options.DeadlineGT = &v
		return nil
	}
}

func WithPagination(offset int32, limit int32) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Offset = &offset
		options.Limit = &limit
		return nil
	}
}

func WithSort(sort string) FindAllOptionsFunc {
	return func(options *FindAllOptions) error {
		options.Sort = &sort
		return nil
	}
}

type Repo interface {
	// Create assigns the next id to o and stores it
	Create(c ctx.Ctx, o *Order) (*Order, error)
	FindOne(c ctx.Ctx, id int64) (*Order, error)
	FindAll(c ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Order, error)
	Count(c ctx.Ctx, opts ...FindAllOptionsFunc) (int, error)
	// OrderCount is the highest id assigned so far
	OrderCount(c ctx.Ctx) (int64, error)
	// Transition applies patchable only when the order is still in state
	// from, otherwise it returns domain.ErrStateConflict
	Transition(c ctx.Ctx, id int64, from State, patchable OrderPatchable) error
}

type UseCase interface {
	Create(c ctx.Ctx, seller domain.Address, params CreateParams) (*Order, error)
	Cancel(c ctx.Ctx, caller domain.Address, id int64) error
	Get(c ctx.Ctx, id int64) (*Order, error)
	OrderCount(c ctx.Ctx) (int64, error)
	FindAll(c ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Order, error)
	Count(c ctx.Ctx, opts ...FindAllOptionsFunc) (int, error)
	FindPurchasable(c ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Listing, error)
}
