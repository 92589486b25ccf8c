package domain

import "fmt"

// Strategy 由参数与快照推导目标挂单，不产生副作用
type Strategy interface {
	// Symbol 交易对符号
	Symbol() string
	// Seed 首次挂单时生成完整梯级
	Seed(snap MarketSnapshot) ([]DesiredOrder, error)
	// Reconcile 用本轮一次性获取的挂单快照对比上轮梯级，生成补单
	Reconcile(snap MarketSnapshot, rungs []DesiredOrder, open []OpenOrder) (Reconciliation, error)
}

// Reconciliation 一次对账的结果
type Reconciliation struct {
	// 仍在盘口的梯级
	Carried []DesiredOrder
	// 判定为成交的梯级
	Filled []DesiredOrder
	// 需要提交的新挂单
	Placed []DesiredOrder
}

// Next 对账提交成功后的梯级状态
func (r Reconciliation) Next() []DesiredOrder {
	out := make([]DesiredOrder, 0, len(r.Carried)+len(r.Placed))
	out = append(out, r.Carried...)
	return append(out, r.Placed...)
}

// NewStrategy 按参数类型创建策略
func NewStrategy(cfg PairConfig) (Strategy, error) {
	switch c := cfg.(type) {
	case GridPairConfig:
		return NewGridStrategy(c), nil
	case MarketMakerPairConfig:
		return NewMarketMakerStrategy(c), nil
	}
	return nil, fmt.Errorf("%w: unsupported pair config %T", ErrConfiguration, cfg)
}
