package main

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/base/database/mongoclient"
	"github.com/x-xyz/escrow/base/log"
	"github.com/x-xyz/escrow/domain"
	"github.com/x-xyz/escrow/domain/marketplace"
	"github.com/x-xyz/escrow/service/query"
	marketplace_repository "github.com/x-xyz/escrow/stores/marketplace/repository"
	marketplace_usecase "github.com/x-xyz/escrow/stores/marketplace/usecase"
	native_repository "github.com/x-xyz/escrow/stores/native/repository"
	order_repository "github.com/x-xyz/escrow/stores/order/repository"
)

var (
	configFile    = pflag.String("config", "infra/configs/config.yaml", "config file")
	deployer      = pflag.String("deployer", "", "sole admin and fee recipient")
	daiAddress    = pflag.String("dai", "", "DAI token address, mainnet DAI when empty")
	linkAddress   = pflag.String("link", "", "LINK token address, mainnet LINK when empty")
	depositTo     = pflag.String("deposit-to", "", "credit native currency to this address")
	depositAmount = pflag.String("deposit-amount", "", "wei credited to --deposit-to")
)

func main() {
	pflag.Parse()
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		exit(err)
	}
	viper.SetConfigType("yaml")
	viper.SetConfigFile(*configFile)
	if err := viper.ReadInConfig(); err != nil {
		exit(err)
	}
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	defer log.Sync()

	c := ctx.Background()
	mongoClient, err := mongoclient.ConnectMongoClient(mongoclient.Cfg{
		URI:        viper.GetString("mongo.uri"),
		AuthDBName: viper.GetString("mongo.authDBName"),
		DBName:     viper.GetString("mongo.dbName"),
		SSL:        viper.GetBool("mongo.enableSSL"),
		SetSafe:    true,
	})
	if err != nil {
		exit(err)
	}
	q := query.New(mongoClient, false)

	if *deployer != "" {
		if err := order_repository.EnsureIndexes(c, q); err != nil {
			exit(err)
		}
		uc := marketplace_usecase.New(&marketplace_usecase.Cfg{
			Repo: marketplace_repository.New(q),
		})
		state, err := uc.Initialize(c, marketplace.InitializeParams{
			Deployer:    domain.Address(*deployer),
			DaiAddress:  domain.Address(*daiAddress),
			LinkAddress: domain.Address(*linkAddress),
		})
		if err != nil {
			exit(err)
		}
		fmt.Printf("initialized: admin=%s fee=%d%% dai=%s link=%s\n", state.FeeRecipient, state.AdminFee, state.DaiAddress, state.LinkAddress)
	}

	if *depositTo != "" {
		to := domain.Address(*depositTo)
		if !to.IsValid() {
			exit(domain.ErrInvalidAddress)
		}
		amount, ok := new(big.Int).SetString(*depositAmount, 10)
		if !ok {
			exit(domain.ErrInvalidNumberFormat)
		}
		if err := native_repository.NewBank(q).Deposit(c, to, amount); err != nil {
			exit(err)
		}
		fmt.Printf("deposited %s to %s\n", amount, to.ToLower())
	}
}

func exit(err error) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", domain.ErrorCode(err), err)
	os.Exit(1)
}
