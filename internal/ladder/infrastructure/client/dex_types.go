package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/dexladder/internal/ladder/domain"
)

// number 兼容 JSON 数字与数字字符串，拒绝负数
type number struct {
	decimal.Decimal
}

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		n.Decimal = decimal.Zero
		return nil
	}
	d, err := domain.ParseAmount("decode", string(bytes.Trim(b, `"`)))
	if err != nil {
		return fmt.Errorf("invalid number %s: %w", b, err)
	}
	n.Decimal = d
	return nil
}

type envelope[T any] struct {
	Data T `json:"data"`
}

type tokenDTO struct {
	Code       string `json:"code"`
	Precision  int32  `json:"precision"`
	Contract   string `json:"contract"`
	Multiplier number `json:"multiplier"`
}

func (t tokenDTO) toDomain() domain.Token {
	tok := domain.NewToken(t.Code, t.Contract, t.Precision)
	if t.Multiplier.IsPositive() {
		tok.Multiplier = t.Multiplier.IntPart()
	}
	return tok
}

type marketDTO struct {
	MarketID   int64    `json:"market_id"`
	Symbol     string   `json:"symbol"`
	StatusCode int      `json:"status_code"`
	OrderMin   number   `json:"order_min"`
	BidToken   tokenDTO `json:"bid_token"`
	AskToken   tokenDTO `json:"ask_token"`
}

func (m marketDTO) toDomain() *domain.Market {
	return &domain.Market{
		ID:       m.MarketID,
		Symbol:   m.Symbol,
		BidToken: m.BidToken.toDomain(),
		AskToken: m.AskToken.toDomain(),
		OrderMin: m.OrderMin.IntPart(),
	}
}

type depthDTO struct {
	Level number `json:"level"`
	Bid   number `json:"bid"`
	Ask   number `json:"ask"`
	Count int    `json:"count"`
}

type bookDTO struct {
	Bids []depthDTO `json:"bids"`
	Asks []depthDTO `json:"asks"`
}

func (b bookDTO) toDomain() domain.OrderBook {
	book := domain.OrderBook{
		Bids: make([]domain.PriceLevel, 0, len(b.Bids)),
		Asks: make([]domain.PriceLevel, 0, len(b.Asks)),
	}
	for _, d := range b.Bids {
		book.Bids = append(book.Bids, domain.PriceLevel{Price: d.Level.Decimal, Quantity: d.Bid.Decimal})
	}
	for _, d := range b.Asks {
		book.Asks = append(book.Asks, domain.PriceLevel{Price: d.Level.Decimal, Quantity: d.Ask.Decimal})
	}
	return book
}

type tradeDTO struct {
	TradeID string `json:"trade_id"`
	Price   number `json:"price"`
}

// orderID 兼容数字与字符串形式的订单 ID
type orderID string

func (o *orderID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*o = orderID(s)
		return nil
	}
	if _, err := strconv.ParseUint(string(b), 10, 64); err != nil {
		return fmt.Errorf("invalid order id %s", b)
	}
	*o = orderID(b)
	return nil
}

type orderDTO struct {
	OrderID      orderID `json:"order_id"`
	MarketID     int64   `json:"market_id"`
	OrderSide    int     `json:"order_side"`
	Price        number  `json:"price"`
	QuantityCurr number  `json:"quantity_curr"`
	Status       string  `json:"status"`
}

func (o orderDTO) toDomain() (domain.OpenOrder, error) {
	side, err := domain.ParseSide(strconv.Itoa(o.OrderSide))
	if err != nil {
		return domain.OpenOrder{}, err
	}
	return domain.OpenOrder{
		ID:       string(o.OrderID),
		MarketID: o.MarketID,
		Side:     side,
		Price:    o.Price.Decimal,
		Quantity: o.QuantityCurr.Decimal,
	}, nil
}

type balanceDTO struct {
	Currency string `json:"currency"`
	Amount   number `json:"amount"`
	Contract string `json:"contract"`
	Decimals number `json:"decimals"`
}
