package notifier

import (
	"github.com/x-xyz/escrow/base/ctx"
	"github.com/x-xyz/escrow/domain/settlement"
)

type nop struct{}

// NewNop only logs sales, used when no discord channel is configured
func NewNop() settlement.Notifier {
	return nop{}
}

func (nop) NotifySale(c ctx.Ctx, receipt settlement.Receipt) {
	c.WithField("orderId", receipt.OrderId).Debug("sale settled")
}
