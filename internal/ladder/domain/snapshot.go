package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PriceLevel 盘口档位
type PriceLevel struct {
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// OrderBook 盘口，Bids 从高到低，Asks 从低到高
type OrderBook struct {
	Bids []PriceLevel `json:"bids"`
	Asks []PriceLevel `json:"asks"`
}

// MarketSnapshot 单次 tick 内某市场的行情快照
type MarketSnapshot struct {
	Market     *Market
	HighestBid decimal.Decimal
	LowestAsk  decimal.Decimal
	LastPrice  decimal.Decimal
	TakenAt    time.Time
}

// NewMarketSnapshot 组装快照，盘口某一侧为空时以最新成交价代替
func NewMarketSnapshot(m *Market, last decimal.Decimal, book OrderBook, at time.Time) MarketSnapshot {
	s := MarketSnapshot{
		Market:     m,
		HighestBid: last,
		LowestAsk:  last,
		LastPrice:  last,
		TakenAt:    at,
	}
	if len(book.Bids) > 0 {
		s.HighestBid = book.Bids[0].Price
	}
	if len(book.Asks) > 0 {
		s.LowestAsk = book.Asks[0].Price
	}
	return s
}

// Reference 按配置选择参考价
func (s MarketSnapshot) Reference(base ReferenceBase) (decimal.Decimal, error) {
	var ref decimal.Decimal
	switch base {
	case ReferenceBid:
		ref = s.HighestBid
	case ReferenceAsk:
		ref = s.LowestAsk
	case ReferenceLast:
		ref = s.LastPrice
	case ReferenceAverage:
		ref = s.HighestBid.Add(s.LowestAsk).Div(decimal.NewFromInt(2))
	default:
		return decimal.Zero, fmt.Errorf("%w: unknown reference base %q", ErrConfiguration, base)
	}
	if !ref.IsPositive() {
		return decimal.Zero, &ArithmeticError{Op: "reference", Value: ref.String()}
	}
	return ref, nil
}
