package domain

import (
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
)

// randPrice 返回 [lo, hi) 内六位小数的价格
func randPrice(r *rand.Rand, lo, hi int64) decimal.Decimal {
	return decimal.New(lo+r.Int64N(hi-lo), -6)
}

func assertNoCross(t *testing.T, orders []DesiredOrder) {
	t.Helper()
	var maxBuy, minSell decimal.Decimal
	hasBuy, hasSell := false, false
	for _, o := range orders {
		if o.Side == SideBuy {
			if !hasBuy || o.Price.GreaterThan(maxBuy) {
				maxBuy = o.Price
			}
			hasBuy = true
		} else {
			if !hasSell || o.Price.LessThan(minSell) {
				minSell = o.Price
			}
			hasSell = true
		}
	}
	if hasBuy && hasSell && !maxBuy.LessThan(minSell) {
		t.Fatalf("ladder crosses: highest buy %s, lowest sell %s (%v)", maxBuy, minSell, orders)
	}
}

func TestGridSeedNeverCrosses(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	m := testMarket()
	for n := 0; n < 3000; n++ {
		levels := 1 + r.IntN(20)
		lower := randPrice(r, 10_000, 1_000_000)
		// 格距至少 0.001，避免舍入后为零
		upper := lower.Add(decimal.New(int64(levels)*(1_000+r.Int64N(100_000)), -6))
		last := randPrice(r, lower.Shift(6).IntPart()/2+1, upper.Shift(6).IntPart()*3/2)
		g := NewGridStrategy(GridPairConfig{
			Symbol:            "XPR_XMD",
			UpperLimit:        upper,
			LowerLimit:        lower,
			GridLevels:        levels,
			BidAmountPerLevel: decimal.NewFromInt(10),
		})
		orders, err := g.Seed(MarketSnapshot{Market: m, LastPrice: last, HighestBid: last, LowestAsk: last})
		if err != nil {
			t.Fatalf("case %d: Seed() error = %v", n, err)
		}
		assertNoCross(t, orders)
		for _, o := range orders {
			if o.Side == SideBuy && !o.Price.LessThan(last) || o.Side == SideSell && !o.Price.GreaterThan(last) {
				t.Fatalf("case %d: %s at %s on wrong side of last %s", n, o.Side, o.Price, last)
			}
		}
	}
}

func TestMarketMakerSeedNeverCrosses(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	m := testMarket()
	bases := []ReferenceBase{ReferenceBid, ReferenceAsk, ReferenceLast, ReferenceAverage}
	for n := 0; n < 3000; n++ {
		levels := 1 + r.IntN(10)
		interval := decimal.New(1+r.Int64N(90), -3)
		if interval.Mul(decimal.NewFromInt(int64(levels))).GreaterThanOrEqual(decimal.NewFromInt(1)) {
			interval = decimal.New(1, -3)
		}
		bid := randPrice(r, 10_000, 5_000_000)
		ask := bid.Add(randPrice(r, 1, 50_000))
		last := bid.Add(ask.Sub(bid).Div(decimal.NewFromInt(2)).Round(6))
		s := NewMarketMakerStrategy(MarketMakerPairConfig{
			Symbol:            "XPR_XMD",
			GridLevels:        levels,
			GridInterval:      interval,
			Base:              bases[r.IntN(len(bases))],
			OrderSide:         SidePolicyBoth,
			BidAmountPerLevel: decimal.NewFromInt(10),
		})
		orders, err := s.Seed(MarketSnapshot{Market: m, LastPrice: last, HighestBid: bid, LowestAsk: ask})
		if err != nil {
			t.Fatalf("case %d: Seed() error = %v", n, err)
		}
		assertNoCross(t, orders)
	}
}
