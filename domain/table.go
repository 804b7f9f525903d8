package domain

type Table string

const (
	TableOrders         Table = "orders"
	TableCounters       Table = "counters"
	TableMarketplace    Table = "marketplace"
	TableNativeBalances Table = "native_balances"
)
