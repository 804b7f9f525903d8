package marketplace

import (
	"time"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/domain"
)

const (
	// StateId is the id of the single marketplace state document
	StateId = "marketplace"

	DefaultAdminFee int64 = 1
	MaxAdminFee     int64 = 100

	DefaultDaiAddress  = domain.Address("0x6b175474e89094c44da98b954eedeac495271d0f")
	DefaultLinkAddress = domain.Address("0x514910771af9ca656af840dff83e8264ecf986ca")

	// StateVersion grows when fields are appended to State
	StateVersion = 1
)

// State is the marketplace-wide configuration. Fields are only ever
// appended so that documents written by older versions stay readable.
type State struct {
	Id           string           `json:"-" bson:"_id"`
	Initialized  bool             `json:"initialized" bson:"initialized"`
	Admins       []domain.Address `json:"admins" bson:"admins"`
	AdminFee     int64            `json:"adminFee" bson:"adminFee"`
	FeeRecipient domain.Address   `json:"feeRecipient" bson:"feeRecipient"`
	DaiAddress   domain.Address   `json:"daiAddress" bson:"daiAddress"`
	LinkAddress  domain.Address   `json:"linkAddress" bson:"linkAddress"`
	Version      int              `json:"version" bson:"version"`
	CreatedAt    time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt" bson:"updatedAt"`
}

func (s *State) IsAdmin(address domain.Address) bool {
	for _, a := range s.Admins {
		if a.Equals(address) {
			return true
		}
	}
	return false
}

type InitializeParams struct {
	Deployer    domain.Address
	DaiAddress  domain.Address
	LinkAddress domain.Address
}

type Repo interface {
	// Create stores the state, domain.ErrConflict if one already exists
	Create(c ctx.Ctx, state State) error
	Get(c ctx.Ctx) (*State, error)
	SetAdminFee(c ctx.Ctx, percent int64) error
	IsAdmin(c ctx.Ctx, address domain.Address) (bool, error)
}

type UseCase interface {
	Initialize(c ctx.Ctx, params InitializeParams) (*State, error)
	Get(c ctx.Ctx) (*State, error)
	IsAdmin(c ctx.Ctx, address domain.Address) (bool, error)
	GetAdminFee(c ctx.Ctx) (int64, error)
	SetAdminFee(c ctx.Ctx, caller domain.Address, percent int64) error
}
