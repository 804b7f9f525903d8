package notifier

import (
	"fmt"
	"math/big"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
	"github.com/viney-shih/goroutines"

	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/base/log"
	"github.com/x-xyz/escrow/base/metrics"
	"github.com/x-xyz/escrow/domain/settlement"
)

var met = metrics.New("notifier")

// Display is how amounts of a currency are printed
type Display struct {
	Symbol   string
	Decimals int32
}

var DefaultDisplays = map[settlement.CurrencyType]Display{
	settlement.CurrencyNative: {Symbol: "ETH", Decimals: 18},
	settlement.CurrencyDai:    {Symbol: "DAI", Decimals: 18},
	settlement.CurrencyLink:   {Symbol: "LINK", Decimals: 18},
}

type DiscordCfg struct {
	BotKey    string
	ChannelId string
	Displays  map[settlement.CurrencyType]Display
	// Timeout bounds how long a sale waits for a free worker
	Timeout time.Duration
}

type sender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed) (*discordgo.Message, error)
}

type discordNotifier struct {
	channelId string
	displays  map[settlement.CurrencyType]Display
	timeout   time.Duration
	sender    sender
	pool      *goroutines.Pool
}

func NewDiscord(cfg DiscordCfg) (settlement.Notifier, error) {
	session, err := discordgo.New(fmt.Sprintf("Bot %s", cfg.BotKey))
	if err != nil {
		return nil, err
	}
	return newDiscord(cfg, session), nil
}

func newDiscord(cfg DiscordCfg, s sender) *discordNotifier {
	displays := cfg.Displays
	if displays == nil {
		displays = DefaultDisplays
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &discordNotifier{
		channelId: cfg.ChannelId,
		displays:  displays,
		timeout:   timeout,
		sender:    s,
		pool:      goroutines.NewPool(4, goroutines.WithTaskQueueLength(256), goroutines.WithPreAllocWorkers(1)),
	}
}

func (n *discordNotifier) NotifySale(c ctx.Ctx, receipt settlement.Receipt) {
	c = ctx.Detach(c)
	err := n.pool.ScheduleWithTimeout(n.timeout, func() {
		if _, err := n.sender.ChannelMessageSendEmbed(n.channelId, n.embed(receipt)); err != nil {
			met.BumpSum("discord.err", 1)
			c.WithFields(log.Fields{
				"err":     err,
				"orderId": receipt.OrderId,
			}).Warn("ChannelMessageSendEmbed failed")
			return
		}
		met.BumpSum("discord.sent", 1)
	})
	if err != nil {
		met.BumpSum("discord.dropped", 1)
		c.WithFields(log.Fields{
			"err":     err,
			"orderId": receipt.OrderId,
		}).Warn("failed to ScheduleWithTimeout")
	}
}

func (n *discordNotifier) embed(r settlement.Receipt) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Item sold!",
		Description: fmt.Sprintf("order #%d: %s x %s of %s", r.OrderId, r.Amount, r.AssetId, r.AssetContract),
		Timestamp:   r.SettledAt.Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Seller", Value: string(r.Seller)},
			{Name: "Buyer", Value: string(r.Buyer)},
			{Name: "Price", Value: n.format(r.Currency, r.Price.MustBig())},
			{Name: "Fee", Value: fmt.Sprintf("%s (%d%%)", n.format(r.Currency, r.FeeAmount.MustBig()), r.FeePercent)},
		},
	}
}

func (n *discordNotifier) format(currency settlement.CurrencyType, amount *big.Int) string {
	d, ok := n.displays[currency]
	if !ok {
		return fmt.Sprintf("%s %s", amount.String(), currency)
	}
	return fmt.Sprintf("%s %s", decimal.NewFromBigInt(amount, -d.Decimals).String(), d.Symbol)
}
