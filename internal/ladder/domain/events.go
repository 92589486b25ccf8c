package domain

import "time"

// 事件主题
const (
	TopicLadderSeeded  = "ladder.seeded"
	TopicFillDetected  = "ladder.fill.detected"
	TopicCounterPlaced = "ladder.counter.placed"
	TopicPairRejected  = "ladder.pair.rejected"
	TopicCancelled     = "ladder.cancelled"
	TopicAccountStatus = "ladder.account.status"
)

// RungEvent 事件中的梯级
type RungEvent struct {
	Side     Side   `json:"side"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

// LadderSeededEvent 首次挂单成功
type LadderSeededEvent struct {
	TickID        string      `json:"tick_id"`
	Symbol        string      `json:"symbol"`
	Rungs         []RungEvent `json:"rungs"`
	TransactionID string      `json:"transaction_id"`
	Timestamp     time.Time   `json:"timestamp"`
}

// FillDetectedEvent 梯级从盘口消失，判定为成交
type FillDetectedEvent struct {
	TickID    string    `json:"tick_id"`
	Symbol    string    `json:"symbol"`
	Rung      RungEvent `json:"rung"`
	Timestamp time.Time `json:"timestamp"`
}

// CounterPlacedEvent 补单提交成功
type CounterPlacedEvent struct {
	TickID        string      `json:"tick_id"`
	Symbol        string      `json:"symbol"`
	Rungs         []RungEvent `json:"rungs"`
	TransactionID string      `json:"transaction_id"`
	Timestamp     time.Time   `json:"timestamp"`
}

// PairRejectedEvent 本轮跳过该交易对
type PairRejectedEvent struct {
	TickID    string    `json:"tick_id"`
	Symbol    string    `json:"symbol"`
	Kind      string    `json:"kind"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// LadderCancelledEvent 退出时撤单
type LadderCancelledEvent struct {
	Account   string    `json:"account"`
	Orders    int       `json:"orders"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// AccountStatusEvent 账户余额与委托概览，定期发布
type AccountStatusEvent struct {
	Account      string         `json:"account"`
	Balances     []TokenBalance `json:"balances"`
	OpenOrders   []OpenOrder    `json:"open_orders"`
	RecentOrders []OpenOrder    `json:"recent_orders"`
	Timestamp    time.Time      `json:"timestamp"`
}

// ToRungEvents 转换为事件格式，价格与数量按币种精度输出
func ToRungEvents(m *Market, rungs []DesiredOrder) []RungEvent {
	out := make([]RungEvent, 0, len(rungs))
	for _, r := range rungs {
		out = append(out, RungEvent{
			Side:     r.Side,
			Price:    m.AskToken.Format(r.Price),
			Quantity: m.BidToken.Format(r.Quantity),
		})
	}
	return out
}
