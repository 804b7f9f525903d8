package http

import (
	"math/big"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/base/delivery"
	"github.com/x-xyz/escrow/domain"
	"github.com/x-xyz/escrow/domain/settlement"
	authMiddleware "github.com/x-xyz/escrow/stores/auth/delivery/http/middleware"
	orderHttp "github.com/x-xyz/escrow/stores/order/delivery/http"
)

type handler struct {
	settlement settlement.UseCase
}

func New(e *echo.Echo, settlement settlement.UseCase, authMiddleware *authMiddleware.AuthMiddleware) {
	h := &handler{
		settlement: settlement,
	}
	g := e.Group("/orders/:id/buy", authMiddleware.Auth())
	g.POST("/native", h.buyWithNative)
	g.POST("/dai", h.buyWithDai)
	g.POST("/link", h.buyWithLink)
}

func (h *handler) buyWithNative(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	buyer := c.Get("address").(domain.Address)

	id, err := orderHttp.ParseId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	type params struct {
		// wei attached to the purchase
		Value string `json:"value" validate:"required,uint"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		ctx.WithField("err", err).Warn("bind failed")
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrBadParamInput)
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	value, _ := new(big.Int).SetString(p.Value, 10)

	receipt, err := h.settlement.BuyWithNative(ctx, buyer, id, value)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, receipt)
}

func (h *handler) buyWithDai(c echo.Context) error {
	return h.buyWithToken(c, h.settlement.BuyWithDai)
}

func (h *handler) buyWithLink(c echo.Context) error {
	return h.buyWithToken(c, h.settlement.BuyWithLink)
}

func (h *handler) buyWithToken(c echo.Context, buy func(ctx.Ctx, domain.Address, int64) (*settlement.Receipt, error)) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	buyer := c.Get("address").(domain.Address)

	id, err := orderHttp.ParseId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	receipt, err := buy(ctx, buyer, id)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, receipt)
}
