package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// GridStrategy 网格策略
// 把 [LowerLimit, UpperLimit] 等分为 GridLevels 格，在每个格线价格上挂单，
// 高于最新成交价挂卖单，低于则挂买单；某格成交后在反方向补一张单。
type GridStrategy struct {
	cfg GridPairConfig
}

// NewGridStrategy 创建网格策略
func NewGridStrategy(cfg GridPairConfig) *GridStrategy {
	return &GridStrategy{cfg: cfg}
}

// Symbol 实现 Strategy
func (g *GridStrategy) Symbol() string { return g.cfg.Symbol }

// Config 返回策略参数
func (g *GridStrategy) Config() GridPairConfig { return g.cfg }

// Steps 返回格距：raw 为精确值，用于计算格线；tick 为舍入到计价币精度后的值，用于补单
func (g *GridStrategy) Steps(m *Market) (raw, tick decimal.Decimal, err error) {
	raw = g.cfg.UpperLimit.Sub(g.cfg.LowerLimit).Div(decimal.NewFromInt(int64(g.cfg.GridLevels)))
	tick = raw.Round(m.AskToken.Precision)
	if !tick.IsPositive() {
		return decimal.Zero, decimal.Zero, &ArithmeticError{Op: "grid step", Value: raw.String()}
	}
	return raw, tick, nil
}

// Seed 实现 Strategy
func (g *GridStrategy) Seed(snap MarketSnapshot) ([]DesiredOrder, error) {
	m := snap.Market
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrMarketNotFound, g.cfg.Symbol)
	}
	last := snap.LastPrice
	if !last.IsPositive() {
		return nil, &ArithmeticError{Op: "last price", Value: last.String()}
	}
	raw, tick, err := g.Steps(m)
	if err != nil {
		return nil, err
	}
	half := tick.Div(two)

	// 成交价落在边界或越界时跳过该边界格
	first, final := 0, g.cfg.GridLevels
	if last.LessThanOrEqual(g.cfg.LowerLimit) {
		final--
	}
	if last.GreaterThanOrEqual(g.cfg.UpperLimit) {
		first = 1
	}

	orders := make([]DesiredOrder, 0, g.cfg.GridLevels+1)
	for i := first; i <= final; i++ {
		boundary := g.cfg.UpperLimit.Sub(raw.Mul(decimal.NewFromInt(int64(i))))
		if boundary.Sub(last).Abs().LessThan(half) {
			continue
		}
		side := SideBuy
		if boundary.GreaterThan(last) {
			side = SideSell
		}
		price, err := roundPrice(m, side, boundary)
		if err != nil {
			return nil, err
		}
		if !price.IsPositive() {
			continue
		}
		rung, ok, err := sizeRung(m, side, price, g.cfg.BidAmountPerLevel)
		if err != nil {
			return nil, err
		}
		if ok {
			orders = append(orders, rung)
		}
	}
	return orders, nil
}

// Reconcile 实现 Strategy
// 挂单快照为空时沿用上轮梯级，不补单。
func (g *GridStrategy) Reconcile(snap MarketSnapshot, rungs []DesiredOrder, open []OpenOrder) (Reconciliation, error) {
	if len(open) == 0 {
		return Reconciliation{Carried: cloneOrders(rungs)}, nil
	}
	m := snap.Market
	if m == nil {
		return Reconciliation{}, fmt.Errorf("%w: %s", ErrMarketNotFound, g.cfg.Symbol)
	}
	_, tick, err := g.Steps(m)
	if err != nil {
		return Reconciliation{}, err
	}

	book := newRestingBook(open)
	var rec Reconciliation
	for _, r := range rungs {
		if resting(r, open) {
			rec.Carried = append(rec.Carried, r)
			continue
		}
		rec.Filled = append(rec.Filled, r)

		counter, ok, err := g.counter(m, r, tick, book)
		if err != nil {
			return Reconciliation{}, err
		}
		if !ok {
			continue
		}
		rec.Placed = append(rec.Placed, counter)
		book.add(counter.Side, counter.Price)
	}
	return rec, nil
}

// counter 成交买单补卖单：最低卖价减一格，无卖单时成交价加一格；成交卖单反之
func (g *GridStrategy) counter(m *Market, filled DesiredOrder, tick decimal.Decimal, book *restingBook) (DesiredOrder, bool, error) {
	side := filled.Side.Opposite()
	var raw decimal.Decimal
	if side == SideSell {
		if ask, ok := book.lowestAsk(); ok {
			raw = ask.Sub(tick)
		} else {
			raw = filled.Price.Add(tick)
		}
	} else {
		if bid, ok := book.highestBid(); ok {
			raw = bid.Add(tick)
		} else {
			raw = filled.Price.Sub(tick)
		}
	}
	if !raw.IsPositive() {
		return DesiredOrder{}, false, nil
	}
	price, err := roundPrice(m, side, raw)
	if err != nil || !price.IsPositive() {
		return DesiredOrder{}, false, err
	}
	return sizeRung(m, side, price, g.cfg.BidAmountPerLevel)
}

func resting(rung DesiredOrder, open []OpenOrder) bool {
	for _, o := range open {
		if rung.Matches(o) {
			return true
		}
	}
	return false
}

// restingBook 本轮已知的挂单：挂单快照加上本轮已生成的补单
type restingBook struct {
	bids []decimal.Decimal
	asks []decimal.Decimal
}

func newRestingBook(open []OpenOrder) *restingBook {
	b := &restingBook{}
	for _, o := range open {
		b.add(o.Side, o.Price)
	}
	return b
}

func (b *restingBook) add(side Side, price decimal.Decimal) {
	if side == SideBuy {
		b.bids = append(b.bids, price)
	} else {
		b.asks = append(b.asks, price)
	}
}

func (b *restingBook) highestBid() (decimal.Decimal, bool) {
	if len(b.bids) == 0 {
		return decimal.Zero, false
	}
	return decimal.Max(b.bids[0], b.bids[1:]...), true
}

func (b *restingBook) lowestAsk() (decimal.Decimal, bool) {
	if len(b.asks) == 0 {
		return decimal.Zero, false
	}
	return decimal.Min(b.asks[0], b.asks[1:]...), true
}
