package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestLadderBookLifecycle(t *testing.T) {
	book := NewLadderBook([]string{"B", "A", "B"})
	if got := book.Symbols(); len(got) != 2 || got[0] != "B" || got[1] != "A" {
		t.Fatalf("Symbols() = %v", got)
	}
	st, ok := book.State("A")
	if !ok || st.Phase != PhaseUnseeded {
		t.Fatalf("initial state = %+v", st)
	}

	now := time.Unix(1700000000, 0)
	rungs := []DesiredOrder{order(SideBuy, "0.1", "100"), order(SideSell, "0.2", "50"), order(SideSell, "0.3", "40")}
	st.Seed(rungs, now)
	rungs[0].Side = SideSell
	if st.Rungs[0].Side != SideBuy {
		t.Fatal("Seed keeps a reference to the caller's slice")
	}
	if b, s := st.Count(); b != 1 || s != 2 {
		t.Errorf("Count() = %d, %d", b, s)
	}

	clone := st.Clone()
	clone.Rungs[0].Side = SideSell
	if st.Rungs[0].Side != SideBuy {
		t.Fatal("Clone shares rungs")
	}

	book.CancelAll(now)
	for _, sym := range book.Symbols() {
		s, _ := book.State(sym)
		if s.Phase != PhaseCancelled || len(s.Rungs) != 0 {
			t.Errorf("%s after cancel = %+v", sym, s)
		}
	}
}

func TestMarketRegistry(t *testing.T) {
	m := testMarket()
	r := NewMarketRegistry([]*Market{m, nil})
	if r.Len() != 1 {
		t.Fatalf("Len() = %d", r.Len())
	}
	if got, err := r.BySymbol("XPR_XMD"); err != nil || got != m {
		t.Errorf("BySymbol() = %v, %v", got, err)
	}
	if got, err := r.ByID(1); err != nil || got != m {
		t.Errorf("ByID() = %v, %v", got, err)
	}
	if _, err := r.BySymbol("DOGE_XMD"); !errors.Is(err, ErrMarketNotFound) {
		t.Errorf("unknown symbol err = %v", err)
	}
	if !m.MinNotional().Equal(dec(t, "1")) {
		t.Errorf("MinNotional() = %s", m.MinNotional())
	}
}

func TestSnapshotFallsBackToLastPrice(t *testing.T) {
	m := testMarket()
	snap := NewMarketSnapshot(m, dec(t, "0.15"), OrderBook{Bids: []PriceLevel{{Price: dec(t, "0.14")}}}, time.Now())
	if !snap.HighestBid.Equal(dec(t, "0.14")) || !snap.LowestAsk.Equal(dec(t, "0.15")) {
		t.Errorf("snapshot = %+v", snap)
	}
	if _, err := snap.Reference(ReferenceBase("MID")); !errors.Is(err, ErrConfiguration) {
		t.Errorf("unknown base err = %v", err)
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&FieldError{Field: "symbol", Reason: "is missing"}, "ConfigurationError"},
		{fmt.Errorf("wrap: %w", ErrMarketNotFound), "MarketNotFound"},
		{&ArithmeticError{Op: "round", Value: "-1"}, "ArithmeticError"},
		{&InsufficientBalanceError{Symbol: "X"}, "InsufficientBalance"},
		{&SubmissionError{Symbol: "X", Err: errors.New("timeout")}, "SubmissionFailure"},
		{errors.New("connection refused"), "FetchFailure"},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}

	cause := errors.New("rpc down")
	if !errors.Is(&SubmissionError{Err: cause}, cause) {
		t.Error("SubmissionError does not unwrap to its cause")
	}
}
