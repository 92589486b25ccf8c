package domain

import "github.com/shopspring/decimal"

// Balances 某交易对两侧币种的可用余额
type Balances struct {
	Base  decimal.Decimal `json:"base"`
	Quote decimal.Decimal `json:"quote"`
}

// Exposure 一批挂单所需的资金
type Exposure struct {
	BuyNotional  decimal.Decimal `json:"buy_notional"`
	SellQuantity decimal.Decimal `json:"sell_quantity"`
}

// ComputeExposure 汇总买单计价币金额与卖单基础币数量
func ComputeExposure(m *Market, orders []DesiredOrder) (Exposure, error) {
	exp := Exposure{BuyNotional: decimal.Zero, SellQuantity: decimal.Zero}
	for _, o := range orders {
		if o.Side == SideBuy {
			notional, err := o.Notional(m)
			if err != nil {
				return Exposure{}, err
			}
			exp.BuyNotional = exp.BuyNotional.Add(notional)
		} else {
			exp.SellQuantity = exp.SellQuantity.Add(o.Quantity)
		}
	}
	return exp, nil
}

// Admit 准入检查：任一侧超出余额则整批拒绝
func Admit(m *Market, orders []DesiredOrder, bal Balances) (Exposure, error) {
	exp, err := ComputeExposure(m, orders)
	if err != nil {
		return Exposure{}, err
	}
	if exp.BuyNotional.GreaterThan(bal.Quote) {
		return exp, &InsufficientBalanceError{
			Symbol:    m.Symbol,
			Token:     m.AskToken.Code,
			Required:  exp.BuyNotional,
			Available: bal.Quote,
		}
	}
	if exp.SellQuantity.GreaterThan(bal.Base) {
		return exp, &InsufficientBalanceError{
			Symbol:    m.Symbol,
			Token:     m.BidToken.Code,
			Required:  exp.SellQuantity,
			Available: bal.Base,
		}
	}
	return exp, nil
}
