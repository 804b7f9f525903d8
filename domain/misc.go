package domain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	Big0   = big.NewInt(0)
	Big100 = big.NewInt(100)
)

type SortDir int8

const (
	SortDirAsc  = 1
	SortDirDesc = -1
)

type Address string

const EmptyAddress = Address("0x0000000000000000000000000000000000000000")

func (a Address) ToLower() Address {
	return Address(strings.ToLower(string(a)))
}

func (a Address) ToLowerPtr() *Address {
	res := a.ToLower()
	return &res
}

func (a Address) ToLowerStr() string {
	return strings.ToLower(string(a))
}

func (a Address) IsEmpty() bool {
	return len(a) == 0
}

func (a Address) Equals(b Address) bool {
	return a.ToLowerStr() == b.ToLowerStr()
}

// ToCommon converts to go-ethereum's address type
func (a Address) ToCommon() common.Address {
	return common.HexToAddress(string(a))
}

// IsValid reports whether a is a well-formed hex address
func (a Address) IsValid() bool {
	return common.IsHexAddress(string(a))
}

type TokenId string

func (i TokenId) String() string {
	return string(i)
}

// Big parses the decimal token id
func (i TokenId) Big() (*big.Int, error) {
	id, ok := new(big.Int).SetString(i.String(), 10)
	if !ok || id.Sign() < 0 {
		return nil, ErrInvalidNumberFormat
	}
	return id, nil
}

// Amount is a non-negative integer quantity in decimal string form, the way
// it is persisted and exchanged over http.
type Amount string

func NewAmount(v *big.Int) Amount {
	if v == nil {
		return Amount("0")
	}
	return Amount(v.String())
}

func (a Amount) String() string {
	return string(a)
}

// Big parses the amount, rejecting malformed or negative values
func (a Amount) Big() (*big.Int, error) {
	v, ok := new(big.Int).SetString(string(a), 10)
	if !ok || v.Sign() < 0 {
		return nil, ErrInvalidNumberFormat
	}
	return v, nil
}

// MustBig is Big for amounts written by this service
func (a Amount) MustBig() *big.Int {
	v, err := a.Big()
	if err != nil {
		return new(big.Int)
	}
	return v
}

type ChainId int32

type TxHash string
