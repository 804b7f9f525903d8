package main

import (
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/viper"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/base/goroutine"
	"github.com/x-xyz/escrow/base/log"
	bValidator "github.com/x-xyz/escrow/base/validator"
	"github.com/x-xyz/escrow/domain"
	dMarketplace "github.com/x-xyz/escrow/domain/marketplace"
	dSettlement "github.com/x-xyz/escrow/domain/settlement"
	mmiddleware "github.com/x-xyz/escrow/middleware"
	auth_delivery "github.com/x-xyz/escrow/stores/auth/delivery/http"
	auth_middleware "github.com/x-xyz/escrow/stores/auth/delivery/http/middleware"
	auth_usecase "github.com/x-xyz/escrow/stores/auth/usecase"
	hc_delivery "github.com/x-xyz/escrow/stores/healthcheck/delivery/http"
	hc_repo "github.com/x-xyz/escrow/stores/healthcheck/repository"
	hc_usecase "github.com/x-xyz/escrow/stores/healthcheck/usecase"
	marketplace_delivery "github.com/x-xyz/escrow/stores/marketplace/delivery/http"
	marketplace_usecase "github.com/x-xyz/escrow/stores/marketplace/usecase"
	order_delivery "github.com/x-xyz/escrow/stores/order/delivery/http"
	order_usecase "github.com/x-xyz/escrow/stores/order/usecase"
	settlement_delivery "github.com/x-xyz/escrow/stores/settlement/delivery/http"
	settlement_usecase "github.com/x-xyz/escrow/stores/settlement/usecase"
)

func mustLoadConfig() {
	// .env is optional, real environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		panic(err)
	}

	viper.SetConfigType("yaml")
	viper.SetConfigFile(`infra/configs/config.yaml`)
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}
	// e.g. MONGO_URI overrides mongo.uri
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := log.Configure(viper.GetBool(`debug`)); err != nil {
		panic(err)
	}
	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

func main() {
	mustLoadConfig()
	defer log.Sync()

	// init echo
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{}))
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.ResponseLogger())
	e.Use(middL.AddContext())
	e.Use(middleware.CORS())
	e.Validator = bValidator.NewCustomValidator(validator.New())

	context := ctx.Background()

	deps := mustBuildDeps(context)

	// construct usecase and delivery
	marketplace := marketplace_usecase.New(&marketplace_usecase.Cfg{
		Repo: deps.marketplaceRepo,
	})
	order := order_usecase.New(&order_usecase.OrderUseCaseCfg{
		Repo:        deps.orderRepo,
		Assets:      deps.assets,
		Marketplace: deps.custody,
		MarketState: deps.marketplaceRepo,
		Locker:      deps.locker,
		ViewCache:   deps.orderViews,
	})
	settlement := settlement_usecase.New(&settlement_usecase.Cfg{
		Orders:      deps.orderRepo,
		Marketplace: deps.marketplaceRepo,
		Assets:      deps.assets,
		Currencies: []dSettlement.Currency{
			settlement_usecase.NewNative(deps.nativeBank, deps.custody),
			settlement_usecase.NewDai(deps.currencies, deps.custody),
			settlement_usecase.NewLink(deps.currencies, deps.custody),
		},
		Custody:          deps.custody,
		Locker:           deps.locker,
		Notifier:         deps.notifier,
		OrderViews:       deps.orderViews,
		PayoutRetryStart: viper.GetDuration("settlement.payoutRetryStart"),
		PayoutRetryLimit: viper.GetDuration("settlement.payoutRetryLimit"),
		PayoutAttempts:   viper.GetInt("settlement.payoutAttempts"),
	})
	// memory deployments have no separate deploy step
	if deployer := viper.GetString("marketplace.deployer"); deployer != "" {
		_, err := marketplace.Initialize(context, dMarketplace.InitializeParams{
			Deployer:    domain.Address(deployer),
			DaiAddress:  domain.Address(viper.GetString("marketplace.daiAddress")),
			LinkAddress: domain.Address(viper.GetString("marketplace.linkAddress")),
		})
		if err != nil && err != domain.ErrAlreadyInitialized {
			context.WithField("err", err).Panic("marketplace.Initialize failed")
		}
	}
	authOpts := []auth_usecase.Option{}
	if deps.contractWallets != nil {
		authOpts = append(authOpts, auth_usecase.WithContractWallets(deps.contractWallets))
	}
	auth := auth_usecase.New(viper.GetString("auth.jwtSecret"), viper.GetString("auth.signatureMsg"), authOpts...)
	hc := hc_usecase.New(hc_repo.New(deps.mongo, deps.redis))

	authMiddleware := auth_middleware.New(auth, marketplace)

	hc_delivery.New(e, hc)
	auth_delivery.New(e, auth)
	marketplace_delivery.New(e, marketplace, order, authMiddleware)
	order_delivery.New(e, order, authMiddleware, deps.httpCache)
	settlement_delivery.New(e, settlement, authMiddleware)

	serverDone := goroutine.RecoverableGo(func() {
		if err := e.Start(viper.GetString("server.address")); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("shutting down the server")
		}
	}, goroutine.WithName("echo"))

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	select {
	case sig := <-quit:
		log.Log().WithField("signal", sig).Info("received signal")
	case <-serverDone:
		log.Log().Warn("server stopped")
	}
	ctx, cancel := ctx.WithTimeout(context, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Log().WithField("err", err).Error("shutting down the server")
	} else {
		log.Log().Info("shutdown server successfully")
	}
}
