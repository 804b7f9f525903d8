package usecase

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/golang-jwt/jwt"
	"golang.org/x/xerrors"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/base/ethereum"
	"github.com/x-xyz/escrow/domain"
)

const tokenTtl = 24 * time.Hour

// ContractSignatureVerifier checks signatures of contract wallets (erc1271)
type ContractSignatureVerifier interface {
	IsValidSignature(ctx ctx.Ctx, wallet domain.Address, hash common.Hash, signature []byte) (bool, error)
}

type impl struct {
	jwtSecret []byte
	template  string
	contracts ContractSignatureVerifier
}

type Option func(*impl)

// WithContractWallets lets addresses that are contracts sign in through
// verifier when the signature does not recover to the address
func WithContractWallets(verifier ContractSignatureVerifier) Option {
	return func(im *impl) {
		im.contracts = verifier
	}
}

// New issues tokens signed with jwtSecret. template is the signing message
// with a single %s for the address.
func New(jwtSecret, template string, opts ...Option) domain.AuthUsecase {
	im := &impl{
		jwtSecret: []byte(jwtSecret),
		template:  template,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

func (im *impl) SigningMessage(address domain.Address) string {
	return fmt.Sprintf(im.template, address.ToLower())
}

func (im *impl) SignIn(ctx ctx.Ctx, address domain.Address, signature string) (string, error) {
	if !address.IsValid() {
		return "", domain.ErrInvalidAddress
	}
	msg := []byte(im.SigningMessage(address))
	ok, err := ethereum.ValidateMsgSignature(msg, signature, string(address))
	if !ok && im.contracts != nil {
		if sig, decodeErr := hexutil.Decode(signature); decodeErr == nil {
			ok, err = im.contracts.IsValidSignature(ctx, address, common.BytesToHash(accounts.TextHash(msg)), sig)
		}
	}
	if err != nil {
		ctx.WithField("err", err).Warn("ethereum.ValidateMsgSignature failed")
		return "", xerrors.Errorf("%s: %w", err.Error(), domain.ErrInvalidSignature)
	}
	if !ok {
		return "", domain.ErrInvalidSignature
	}
	return im.SignToken(ctx, address.ToLower())
}

func (im *impl) SignToken(ctx ctx.Ctx, address domain.Address) (string, error) {
	claims := domain.JwtCustomClaims{
		Address: string(address),
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(tokenTtl).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	if ss, err := token.SignedString(im.jwtSecret); err != nil {
		ctx.WithField("err", err).Error("token.SignedString failed")
		return "", err
	} else {
		return ss, nil
	}
}

func (im *impl) ParseToken(ctx ctx.Ctx, str string) (string, error) {
	token, err := jwt.ParseWithClaims(str, &domain.JwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("Unexpected signing method: %v", token.Header["alg"])
		}
		return im.jwtSecret, nil
	})
	if err != nil {
		return "", xerrors.Errorf("%s: %w", err.Error(), domain.ErrInvalidSignature)
	}

	if claims, ok := token.Claims.(*domain.JwtCustomClaims); ok && token.Valid {
		return claims.Address, nil
	}

	return "", domain.ErrInvalidSignature
}
