package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

// testMarket XPR/XMD：基础币 4 位，计价币 6 位，最小下单额 1 XMD
func testMarket() *Market {
	return &Market{
		ID:       1,
		Symbol:   "XPR_XMD",
		BidToken: NewToken("XPR", "eosio.token", 4),
		AskToken: NewToken("XMD", "xmd.token", 6),
		OrderMin: 1_000_000,
	}
}

func snapshotAt(m *Market, last, bid, ask string) MarketSnapshot {
	s := MarketSnapshot{
		Market:     m,
		LastPrice:  decimal.RequireFromString(last),
		HighestBid: decimal.RequireFromString(bid),
		LowestAsk:  decimal.RequireFromString(ask),
		TakenAt:    time.Unix(1700000000, 0),
	}
	return s
}

func order(side Side, price, qty string) DesiredOrder {
	return DesiredOrder{
		Symbol:   "XPR_XMD",
		Side:     side,
		Price:    decimal.RequireFromString(price),
		Quantity: decimal.RequireFromString(qty),
	}
}

func openOrder(id string, side Side, price string) OpenOrder {
	return OpenOrder{ID: id, MarketID: 1, Side: side, Price: decimal.RequireFromString(price), Quantity: decimal.NewFromInt(1)}
}

type rungWant struct {
	side  Side
	price string
}

func assertRungs(t *testing.T, got []DesiredOrder, want []rungWant) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d rungs %v, want %d", len(got), got, len(want))
	}
	for i, w := range want {
		if got[i].Side != w.side || !got[i].Price.Equal(decimal.RequireFromString(w.price)) {
			t.Errorf("rung %d = %s %s, want %s %s", i, got[i].Side, got[i].Price, w.side, w.price)
		}
	}
}
