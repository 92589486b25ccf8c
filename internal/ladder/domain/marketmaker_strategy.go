package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MarketMakerStrategy 做市策略
// 以参考价为中心，第 i 档买价 ref*(1-interval*(i+1)) 向下舍入，卖价 ref*(1+interval*(i+1)) 向上舍入。
// 每轮按盘口上现存的买卖单数量补足到 GridLevels 档。
type MarketMakerStrategy struct {
	cfg MarketMakerPairConfig
}

// NewMarketMakerStrategy 创建做市策略
func NewMarketMakerStrategy(cfg MarketMakerPairConfig) *MarketMakerStrategy {
	return &MarketMakerStrategy{cfg: cfg}
}

// Symbol 实现 Strategy
func (s *MarketMakerStrategy) Symbol() string { return s.cfg.Symbol }

// Config 返回策略参数
func (s *MarketMakerStrategy) Config() MarketMakerPairConfig { return s.cfg }

// Seed 实现 Strategy
func (s *MarketMakerStrategy) Seed(snap MarketSnapshot) ([]DesiredOrder, error) {
	return s.topUp(snap, 0, 0)
}

// Reconcile 实现 Strategy
func (s *MarketMakerStrategy) Reconcile(snap MarketSnapshot, rungs []DesiredOrder, open []OpenOrder) (Reconciliation, error) {
	var rec Reconciliation
	for _, r := range rungs {
		if resting(r, open) {
			rec.Carried = append(rec.Carried, r)
		} else {
			rec.Filled = append(rec.Filled, r)
		}
	}

	var buys, sells int
	for _, o := range open {
		if o.Side == SideBuy {
			buys++
		} else {
			sells++
		}
	}
	placed, err := s.topUp(snap, buys, sells)
	if err != nil {
		return Reconciliation{}, err
	}
	rec.Placed = placed
	return rec, nil
}

// topUp 从第 0 档起补足缺少的买卖单
func (s *MarketMakerStrategy) topUp(snap MarketSnapshot, buys, sells int) ([]DesiredOrder, error) {
	levels := s.cfg.GridLevels
	if buys >= levels && sells >= levels {
		return nil, nil
	}
	m := snap.Market
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrMarketNotFound, s.cfg.Symbol)
	}
	ref, err := snap.Reference(s.cfg.Base)
	if err != nil {
		return nil, err
	}

	orders := make([]DesiredOrder, 0, 2*levels)
	for i := 0; i < levels; i++ {
		if buys < levels && s.cfg.OrderSide.Allows(SideBuy) {
			rung, ok, err := s.level(m, ref, SideBuy, i)
			if err != nil {
				return nil, err
			}
			if ok {
				orders = append(orders, rung)
			}
			buys++
		}
		if sells < levels && s.cfg.OrderSide.Allows(SideSell) {
			rung, ok, err := s.level(m, ref, SideSell, i)
			if err != nil {
				return nil, err
			}
			if ok {
				orders = append(orders, rung)
			}
			sells++
		}
	}
	return orders, nil
}

func (s *MarketMakerStrategy) level(m *Market, ref decimal.Decimal, side Side, i int) (DesiredOrder, bool, error) {
	spread := s.cfg.GridInterval.Mul(decimal.NewFromInt(int64(i + 1)))
	var raw decimal.Decimal
	if side == SideBuy {
		raw = ref.Mul(decimal.NewFromInt(1).Sub(spread))
	} else {
		raw = ref.Mul(decimal.NewFromInt(1).Add(spread))
	}
	if !raw.IsPositive() {
		return DesiredOrder{}, false, nil
	}
	price, err := roundPrice(m, side, raw)
	if err != nil || !price.IsPositive() {
		return DesiredOrder{}, false, err
	}
	return sizeRung(m, side, price, s.cfg.BidAmountPerLevel)
}
