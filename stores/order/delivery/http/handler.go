package http

import (
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/base/delivery"
	"github.com/x-xyz/escrow/domain"
	"github.com/x-xyz/escrow/domain/order"
	"github.com/x-xyz/escrow/middleware"
	authMiddleware "github.com/x-xyz/escrow/stores/auth/delivery/http/middleware"
)

const (
	defaultLimit = 50
	maxLimit     = 200
	listCacheTtl = 3 * time.Second
)

type handler struct {
	order order.UseCase
}

// New registers the order routes. httpCache is optional.
func New(e *echo.Echo, order order.UseCase, authMiddleware *authMiddleware.AuthMiddleware, httpCache *middleware.HttpCache) {
	h := &handler{
		order: order,
	}
	g := e.Group("/orders")
	if httpCache != nil {
		g.GET("", h.findAll, httpCache.CacheHttp(listCacheTtl))
	} else {
		g.GET("", h.findAll)
	}
	g.GET("/purchasable", h.findPurchasable)
	g.GET("/count", h.orderCount)
	g.GET("/:id", h.get)
	g.POST("", h.create, authMiddleware.Auth())
	g.POST("/:id/cancel", h.cancel, authMiddleware.Auth())
}

// ParseId reads the :id path param
func ParseId(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, domain.ErrBadParamInput
	}
	return id, nil
}

type findParams struct {
	Seller        *domain.Address `query:"seller"`
	AssetContract *domain.Address `query:"assetContract"`
	AssetId       *domain.TokenId `query:"assetId"`
	State         *string         `query:"state"`
	Offset        int32           `query:"offset"`
	Limit         int32           `query:"limit"`
	Sort          *string         `query:"sort"`
}

func (p *findParams) toOptions() ([]order.FindAllOptionsFunc, error) {
	opts := []order.FindAllOptionsFunc{}
	if p.Seller != nil {
		if !p.Seller.IsValid() {
			return nil, domain.ErrInvalidAddress
		}
		opts = append(opts, order.WithSeller(*p.Seller))
	}
	if p.AssetContract != nil {
		if !p.AssetContract.IsValid() {
			return nil, domain.ErrInvalidAddress
		}
		opts = append(opts, order.WithAssetContract(*p.AssetContract))
	}
	if p.AssetId != nil {
		opts = append(opts, order.WithAssetId(*p.AssetId))
	}
	if p.State != nil {
		st, err := order.ParseState(*p.State)
		if err != nil {
			return nil, err
		}
		opts = append(opts, order.WithState(st))
	}
	if p.Sort != nil {
		switch *p.Sort {
		case "id", "-id", "deadline", "-deadline", "createdAt", "-createdAt":
			opts = append(opts, order.WithSort(*p.Sort))
		default:
			return nil, domain.ErrBadParamInput
		}
	}
	return opts, nil
}

func (p *findParams) pagination() order.FindAllOptionsFunc {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultLimit
	} else if limit > maxLimit {
		limit = maxLimit
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return order.WithPagination(offset, limit)
}

func (h *handler) bindFind(c echo.Context) (*findParams, []order.FindAllOptionsFunc, error) {
	p := &findParams{}
	if err := c.Bind(p); err != nil {
		return nil, nil, domain.ErrBadParamInput
	}
	opts, err := p.toOptions()
	if err != nil {
		return nil, nil, err
	}
	return p, opts, nil
}

func (h *handler) findAll(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	p, opts, err := h.bindFind(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	items, err := h.order.FindAll(ctx, append(opts, p.pagination())...)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	cnt, err := h.order.Count(ctx, opts...)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}

	return delivery.MakeJsonResp(c, http.StatusOK, struct {
		Items []*order.Order `json:"items"`
		Count int            `json:"count"`
	}{items, cnt})
}

func (h *handler) findPurchasable(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	p, opts, err := h.bindFind(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	items, err := h.order.FindPurchasable(ctx, append(opts, p.pagination())...)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, items)
}

func (h *handler) orderCount(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	cnt, err := h.order.OrderCount(ctx)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, map[string]int64{"orderCount": cnt})
}

func (h *handler) get(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)

	id, err := ParseId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	o, err := h.order.Get(ctx, id)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, o)
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	type params struct {
		AssetContract domain.Address `json:"assetContract" validate:"required,address"`
		AssetId       domain.TokenId `json:"assetId" validate:"required,uint"`
		Amount        string         `json:"amount" validate:"required,uint"`
		// seconds
		Duration int64  `json:"duration"`
		Price    string `json:"price" validate:"required,uint"`
	}
	p := &params{}
	if err := c.Bind(p); err != nil {
		ctx.WithField("err", err).Warn("bind failed")
		return delivery.MakeJsonResp(c, http.StatusBadRequest, domain.ErrBadParamInput)
	}
	if err := c.Validate(p); err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}

	amount, _ := new(big.Int).SetString(p.Amount, 10)
	price, _ := new(big.Int).SetString(p.Price, 10)
	o, err := h.order.Create(ctx, caller, order.CreateParams{
		AssetContract: p.AssetContract,
		AssetId:       p.AssetId,
		Amount:        amount,
		Duration:      p.Duration,
		Price:         price,
	})
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusCreated, o)
}

func (h *handler) cancel(c echo.Context) error {
	ctx := c.Get("ctx").(ctx.Ctx)
	caller := c.Get("address").(domain.Address)

	id, err := ParseId(c)
	if err != nil {
		return delivery.MakeJsonResp(c, http.StatusBadRequest, err)
	}
	if err := h.order.Cancel(ctx, caller, id); err != nil {
		return delivery.MakeJsonResp(c, http.StatusInternalServerError, err)
	}
	return delivery.MakeJsonResp(c, http.StatusOK, map[string]int64{"id": id})
}
