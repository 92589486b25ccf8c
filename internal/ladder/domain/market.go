package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Market 交易所市场元数据，启动时获取后不再变化
// BidToken 为基础币，AskToken 为计价币；价格以计价币精度表示，数量以基础币精度表示。
type Market struct {
	ID       int64  `json:"market_id"`
	Symbol   string `json:"symbol"`
	BidToken Token  `json:"bid_token"`
	AskToken Token  `json:"ask_token"`
	// 最小下单额，计价币整数单位
	OrderMin int64 `json:"order_min"`
}

// MinNotional 以计价币十进制数表示的最小下单额
func (m *Market) MinNotional() decimal.Decimal {
	return m.AskToken.FromUnits(m.OrderMin)
}

// MarketRegistry 按 ID 与符号索引的市场表，构建后只读
type MarketRegistry struct {
	byID     map[int64]*Market
	bySymbol map[string]*Market
	markets  []*Market
}

// NewMarketRegistry 构建市场表，后出现的同名市场覆盖先前的
func NewMarketRegistry(markets []*Market) *MarketRegistry {
	r := &MarketRegistry{
		byID:     make(map[int64]*Market, len(markets)),
		bySymbol: make(map[string]*Market, len(markets)),
		markets:  make([]*Market, 0, len(markets)),
	}
	for _, m := range markets {
		if m == nil {
			continue
		}
		r.byID[m.ID] = m
		r.bySymbol[m.Symbol] = m
		r.markets = append(r.markets, m)
	}
	return r
}

// BySymbol 按符号查找市场
func (r *MarketRegistry) BySymbol(symbol string) (*Market, error) {
	if m, ok := r.bySymbol[symbol]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrMarketNotFound, symbol)
}

// ByID 按 ID 查找市场
func (r *MarketRegistry) ByID(id int64) (*Market, error) {
	if m, ok := r.byID[id]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("%w: id %d", ErrMarketNotFound, id)
}

// Markets 返回全部市场
func (r *MarketRegistry) Markets() []*Market {
	out := make([]*Market, len(r.markets))
	copy(out, r.markets)
	return out
}

// Len 市场数量
func (r *MarketRegistry) Len() int {
	return len(r.markets)
}
