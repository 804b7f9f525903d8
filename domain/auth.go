package domain

import (
	"github.com/golang-jwt/jwt"
	"github.com/x-xyz/escrow/base/ctx"
)

type JwtCustomClaims struct {
	Address string `json:"data"`
	jwt.StandardClaims
}

type AuthUsecase interface {
	// SignIn verifies a personal-sign signature over the signing message of
	// address and issues an access token for it
	SignIn(ctx ctx.Ctx, address Address, signature string) (string, error)
	SignToken(ctx ctx.Ctx, address Address) (string, error)
	ParseToken(ctx ctx.Ctx, token string) (address string, err error)
	SigningMessage(address Address) string
}
