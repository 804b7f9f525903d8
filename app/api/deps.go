package main

import (
	"errors"
	"math/big"

	"github.com/spf13/viper"
	"golang.org/x/xerrors"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/base/database/mongoclient"
	"github.com/x-xyz/escrow/base/database/redisclient"
	"github.com/x-xyz/escrow/base/log"
	"github.com/x-xyz/escrow/base/metrics"
	"github.com/x-xyz/escrow/domain"
	"github.com/x-xyz/escrow/domain/marketplace"
	"github.com/x-xyz/escrow/domain/order"
	"github.com/x-xyz/escrow/domain/settlement"
	"github.com/x-xyz/escrow/domain/token"
	mmiddleware "github.com/x-xyz/escrow/middleware"
	"github.com/x-xyz/escrow/service/cache"
	"github.com/x-xyz/escrow/service/cache/provider"
	"github.com/x-xyz/escrow/service/cache/provider/compound"
	"github.com/x-xyz/escrow/service/cache/provider/primitive"
	cacheRedis "github.com/x-xyz/escrow/service/cache/provider/redis"
	"github.com/x-xyz/escrow/service/chain"
	"github.com/x-xyz/escrow/service/chain/contract"
	"github.com/x-xyz/escrow/service/lock"
	"github.com/x-xyz/escrow/service/notifier"
	"github.com/x-xyz/escrow/service/query"
	"github.com/x-xyz/escrow/service/redis"
	"github.com/x-xyz/escrow/service/vault"
	marketplace_repository "github.com/x-xyz/escrow/stores/marketplace/repository"
	native_repository "github.com/x-xyz/escrow/stores/native/repository"
	order_repository "github.com/x-xyz/escrow/stores/order/repository"
	order_usecase "github.com/x-xyz/escrow/stores/order/usecase"
)

var errNativeSeedWithMongo = errors.New("vault.seed.native is not applied to mongo balances, fund them with app/deploy --deposit-to")

const (
	storageMemory = "memory"
	storageMongo  = "mongo"

	// megabytes
	localCacheSize = 32
)

type deps struct {
	// nil unless configured
	mongo query.Mongo
	redis redis.Service

	marketplaceRepo marketplace.Repo
	orderRepo       order.Repo

	assets     token.AssetContract
	currencies token.CurrencyContract
	nativeBank token.NativeBank
	// custody is the operator sellers approve and buyers pay into
	custody domain.Address

	// contract wallet sign in, chain mode only
	contractWallets *contract.Erc1271

	locker     lock.Locker
	orderViews cache.Service
	httpCache  *mmiddleware.HttpCache
	notifier   settlement.Notifier
}

func mustBuildDeps(c ctx.Ctx) *deps {
	d := &deps{}

	if uri := viper.GetString("redis.uri"); uri != "" {
		c.Info("init redis")
		name := viper.GetString("redis.name")
		pool := redisclient.MustConnectRedis(uri, viper.GetString("redis.password"), redisclient.RedisParam{
			PoolMultiplier: viper.GetFloat64("redis.poolMultiplier"),
			Retry:          true,
		})
		d.redis = redis.New(name, metrics.New(name), &redis.Pools{
			Src: pool,
		})
	}

	mode := viper.GetString("storage.mode")
	switch mode {
	case storageMongo:
		c.Info("init mongo")
		mongoClient := mongoclient.MustConnectMongoClient(mongoclient.Cfg{
			URI:                viper.GetString("mongo.uri"),
			AuthDBName:         viper.GetString("mongo.authDBName"),
			DBName:             viper.GetString("mongo.dbName"),
			SSL:                viper.GetBool("mongo.enableSSL"),
			SetSafe:            true,
			PoolSizeMultiplier: 2,
		})
		d.mongo = query.New(mongoClient, viper.GetBool("mongo.checkIndex"))
		if err := order_repository.EnsureIndexes(c, d.mongo); err != nil {
			c.WithField("err", err).Panic("EnsureIndexes failed")
		}
		d.marketplaceRepo = marketplace_repository.New(d.mongo)
		d.orderRepo = order_repository.NewOrderRepo(d.mongo)
	case storageMemory:
		d.marketplaceRepo = marketplace_repository.NewMemory()
		d.orderRepo = order_repository.NewMemoryRepo()
	default:
		c.WithField("mode", mode).Panic("unknown storage mode")
	}

	seed, err := readVaultSeed()
	if err != nil {
		c.WithField("err", err).Panic("readVaultSeed failed")
	}
	var v *vault.Vault
	if viper.GetBool("chain.enabled") {
		c.Info("init chain service")
		chainId := viper.GetInt32("chain.chainId")
		chainService, err := chain.NewClient(c, &chain.ClientCfg{
			RpcUrls:        map[int32]string{chainId: viper.GetString("chain.rpcUrl")},
			MaxConcurrency: viper.GetInt("chain.maxConcurrency"),
			OperatorKey:    viper.GetString("chain.operatorKey"),
		})
		if err != nil {
			c.WithField("err", err).Panic("chain.NewClient failed")
		}
		d.custody = domain.Address(chainService.Operator().Hex()).ToLower()
		d.assets = contract.NewErc1155(chainService, chainId)
		d.currencies = contract.NewErc20(chainService, chainId)
		d.contractWallets = contract.NewErc1271(chainService, chainId)
		// assets and tokens live on chain, only native balances are seeded
		v = vault.New(d.custody)
		seed = vaultSeed{Native: seed.Native}
	} else {
		v = vault.New(domain.Address(viper.GetString("vault.operator")))
		d.custody = v.Operator()
		d.assets = v.Assets()
		d.currencies = v.Currencies()
	}
	if d.nativeBank, err = newNativeBank(d.mongo, v, seed); err != nil {
		c.WithField("err", err).Panic("newNativeBank failed")
	}
	if err := seedVault(v, seed); err != nil {
		c.WithField("err", err).Panic("seedVault failed")
	}
	c.WithFields(log.Fields{
		"assets": len(seed.Assets),
		"tokens": len(seed.Tokens),
		"native": len(seed.Native),
	}).Info("vault seeded")

	var cacheProvider provider.Provider = primitive.NewPrimitive("local", localCacheSize)
	if d.redis != nil {
		d.locker = lock.NewRedis(&lock.RedisCfg{
			Redis: d.redis,
			Ttl:   viper.GetDuration("lock.ttl"),
		})
		cacheProvider = compound.NewCompound([]provider.Provider{
			cacheProvider,
			cacheRedis.NewRedis(d.redis),
		})
	} else {
		d.locker = lock.NewLocal()
	}
	d.orderViews = order_usecase.NewViewCache(cacheProvider, viper.GetDuration("cache.orderViewTtl"))
	d.httpCache = mmiddleware.NewHttpCache(cacheProvider)

	d.notifier = notifier.NewNop()
	if botKey := viper.GetString("discord.botKey"); botKey != "" {
		n, err := notifier.NewDiscord(notifier.DiscordCfg{
			BotKey:    botKey,
			ChannelId: viper.GetString("discord.channelId"),
			Timeout:   viper.GetDuration("discord.timeout"),
		})
		if err != nil {
			c.WithField("err", err).Warn("discord notifier disabled")
		} else {
			d.notifier = n
		}
	}

	return d
}

type seedAsset struct {
	Contract string `mapstructure:"contract"`
	Owner    string `mapstructure:"owner"`
	Id       string `mapstructure:"id"`
	Amount   string `mapstructure:"amount"`
	Approved bool   `mapstructure:"approved"`
}

type seedBalance struct {
	Token  string `mapstructure:"token"`
	Owner  string `mapstructure:"owner"`
	Amount string `mapstructure:"amount"`
	// Allowance for the vault operator, token balances only
	Allowance string `mapstructure:"allowance"`
}

type vaultSeed struct {
	Assets []seedAsset   `mapstructure:"assets"`
	Tokens []seedBalance `mapstructure:"tokens"`
	Native []seedBalance `mapstructure:"native"`
}

func readVaultSeed() (vaultSeed, error) {
	seed := vaultSeed{}
	if err := viper.UnmarshalKey("vault.seed", &seed); err != nil {
		return seed, xerrors.Errorf("vault.seed malformed: %w", err)
	}
	return seed, nil
}

// newNativeBank picks the custody ledger of native value. With mongo it is
// kept next to the orders and funded through app/deploy, otherwise the
// seeded vault holds it.
func newNativeBank(mongo query.Mongo, v *vault.Vault, seed vaultSeed) (token.NativeBank, error) {
	if mongo == nil {
		return v.Native(), nil
	}
	if len(seed.Native) > 0 {
		return nil, errNativeSeedWithMongo
	}
	return native_repository.NewBank(mongo), nil
}

// seedVault funds the in-memory vault from vault.seed so that a memory
// deployment can be exercised end to end
func seedVault(v *vault.Vault, seed vaultSeed) error {
	amount := func(s string) (*big.Int, error) {
		if s == "" {
			return new(big.Int), nil
		}
		a, err := domain.Amount(s).Big()
		if err != nil {
			return nil, xerrors.Errorf("vault.seed amount %q: %w", s, err)
		}
		return a, nil
	}

	for _, a := range seed.Assets {
		n, err := amount(a.Amount)
		if err != nil {
			return err
		}
		contract, owner := domain.Address(a.Contract), domain.Address(a.Owner)
		v.MintAsset(contract, owner, domain.TokenId(a.Id), n)
		if a.Approved {
			v.SetApprovalForAll(contract, owner, v.Operator(), true)
		}
	}
	for _, t := range seed.Tokens {
		n, err := amount(t.Amount)
		if err != nil {
			return err
		}
		allowance, err := amount(t.Allowance)
		if err != nil {
			return err
		}
		tokenAddr, owner := domain.Address(t.Token), domain.Address(t.Owner)
		v.MintCurrency(tokenAddr, owner, n)
		v.Approve(tokenAddr, owner, v.Operator(), allowance)
	}
	for _, b := range seed.Native {
		n, err := amount(b.Amount)
		if err != nil {
			return err
		}
		v.Deposit(domain.Address(b.Owner), n)
	}
	return nil
}
