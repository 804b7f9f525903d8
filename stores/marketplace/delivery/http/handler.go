package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/base/delivery"
	"github.com/x-xyz/escrow/domain"
	"github.com/x-xyz/escrow/domain/marketplace"
	"github.com/x-xyz/escrow/domain/order"
	"github.com/x-xyz/escrow/middleware"
	authMiddleware "github.com/x-xyz/escrow/stores/auth/delivery/http/middleware"
)

type handler struct {
	marketplace marketplace.UseCase
	order       order.UseCase
}

func New(e *echo.Echo, marketplace marketplace.UseCase, order order.UseCase, authMiddleware *authMiddleware.AuthMiddleware) {
	h := &handler{
		marketplace: marketplace,
		order:       order,
	}
	g := e.Group("/marketplace")
	g.GET("", h.get)
	g.GET("/fee", h.getAdminFee)
	g.PUT("/fee", h.setAdminFee, authMiddleware.Auth())
	g.GET("/admins/:address", h.isAdmin, middleware.IsValidAddress("address"))
}

type stateResp struct {
	*marketplace.State
	OrderCount int64 `json:"orderCount"`
}

func (h *handler) get(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	state, err := h.marketplace.Get(ctx)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	cnt, err := h.order.OrderCount(ctx)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, stateResp{state, cnt})
}

func (h *handler) getAdminFee(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	fee, err := h.marketplace.GetAdminFee(ctx)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, map[string]int64{"adminFee": fee})
}

func (h *handler) setAdminFee(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	type params struct {
		Percent *int64 `json:"percent" validate:"required"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		ctx.WithField("err", err).Warn("bind failed")
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrBadParamInput)
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	if err := h.marketplace.SetAdminFee(ctx, caller, *p.Percent); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, map[string]int64{"adminFee": *p.Percent})
}

func (h *handler) isAdmin(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	res, err := h.marketplace.IsAdmin(ctx, domain.Address(c.Param("address")))
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, map[string]bool{"isAdmin": res})
}
