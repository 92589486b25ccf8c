package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Side 买卖方向
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite 返回相反方向
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// ParseSide 解析方向，接受交易所的 1/2 编码
func ParseSide(v string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "BUY", "1":
		return SideBuy, nil
	case "SELL", "2":
		return SideSell, nil
	}
	return "", fmt.Errorf("unknown order side %q", v)
}

// DesiredOrder 梯级挂单。Price 为计价币精度，Quantity 为基础币精度。
type DesiredOrder struct {
	Symbol   string          `json:"symbol"`
	Side     Side            `json:"side"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Notional 挂单的计价币金额，向上舍入到计价币精度
func (o DesiredOrder) Notional(m *Market) (decimal.Decimal, error) {
	return m.AskToken.Round(o.Price.Mul(o.Quantity), RoundUp)
}

// MeetsMinimum 判断挂单金额是否达到市场最小下单额
func (o DesiredOrder) MeetsMinimum(m *Market) (bool, error) {
	notional, err := o.Notional(m)
	if err != nil {
		return false, err
	}
	units, err := m.AskToken.ToUnits(notional)
	if err != nil {
		return false, err
	}
	return units >= m.OrderMin, nil
}

// Matches 判断挂单是否仍以同方向同价格挂在盘口
func (o DesiredOrder) Matches(open OpenOrder) bool {
	return o.Side == open.Side && o.Price.Equal(open.Price)
}

// OpenOrder 交易所报告的挂单，仅观察不修改
type OpenOrder struct {
	ID       string          `json:"order_id"`
	MarketID int64           `json:"market_id"`
	Side     Side            `json:"side"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

// FilterByMarket 筛出指定市场的挂单
func FilterByMarket(orders []OpenOrder, marketID int64) []OpenOrder {
	out := make([]OpenOrder, 0, len(orders))
	for _, o := range orders {
		if o.MarketID == marketID {
			out = append(out, o)
		}
	}
	return out
}

// roundPrice 买单向下、卖单向上舍入到计价币精度，保证不穿越参考价
func roundPrice(m *Market, side Side, raw decimal.Decimal) (decimal.Decimal, error) {
	if side == SideBuy {
		return m.AskToken.Round(raw, RoundDown)
	}
	return m.AskToken.Round(raw, RoundUp)
}

// sizeRung 按计价币名义金额生成梯级，数量向上舍入到基础币精度。
// 低于最小下单额时 ok 为 false。
func sizeRung(m *Market, side Side, price, amount decimal.Decimal) (rung DesiredOrder, ok bool, err error) {
	if !price.IsPositive() {
		return DesiredOrder{}, false, &ArithmeticError{Op: "size", Value: price.String()}
	}
	qty, err := DivideRoundUp(amount, price, m.BidToken.Precision)
	if err != nil {
		return DesiredOrder{}, false, err
	}
	rung = DesiredOrder{Symbol: m.Symbol, Side: side, Price: price, Quantity: qty}
	ok, err = rung.MeetsMinimum(m)
	if err != nil {
		return DesiredOrder{}, false, err
	}
	return rung, ok, nil
}

func cloneOrders(orders []DesiredOrder) []DesiredOrder {
	if orders == nil {
		return nil
	}
	out := make([]DesiredOrder, len(orders))
	copy(out, orders)
	return out
}
