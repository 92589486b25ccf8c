package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// MarketDataClient 行情数据源
type MarketDataClient interface {
	// ListMarkets 获取全部市场元数据
	ListMarkets(ctx context.Context) ([]*Market, error)
	// FetchLatestPrice 最新成交价
	FetchLatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	// FetchOrderBook 盘口，depth 为每侧档数
	FetchOrderBook(ctx context.Context, symbol string, depth int) (OrderBook, error)
}

// AccountClient 账户数据源
type AccountClient interface {
	// FetchOpenOrders 账户全部挂单，由调用方按市场过滤
	FetchOpenOrders(ctx context.Context, account string) ([]OpenOrder, error)
	// FetchBalance 单个币种余额
	FetchBalance(ctx context.Context, account, contract, code string) (decimal.Decimal, error)
}

// TokenBalance 账户某币种余额
type TokenBalance struct {
	Currency string          `json:"currency"`
	Contract string          `json:"contract"`
	Amount   decimal.Decimal `json:"amount"`
	Decimals int32           `json:"decimals"`
}

// AccountReportClient 账户概览数据源
type AccountReportClient interface {
	FetchBalances(ctx context.Context, account string) ([]TokenBalance, error)
	FetchOpenOrders(ctx context.Context, account string) ([]OpenOrder, error)
	// FetchOrderHistory 最近 limit 条历史委托
	FetchOrderHistory(ctx context.Context, account string, limit int) ([]OpenOrder, error)
}

// Receipt 提交回执
type Receipt struct {
	TransactionID string `json:"transaction_id"`
}

// TransactionSubmitter 链上交易提交方，每次调用对应一个原子批次。
// 超时与重试由实现方负责。
type TransactionSubmitter interface {
	SubmitActions(ctx context.Context, actions []Action) (*Receipt, error)
}
