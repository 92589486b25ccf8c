package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/dexladder/internal/ladder/domain"
)

func sellOrders(n int) []domain.DesiredOrder {
	out := make([]domain.DesiredOrder, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.DesiredOrder{
			Symbol:   "XPR_XMD",
			Side:     domain.SideSell,
			Price:    decimal.RequireFromString("0.2").Add(decimal.New(int64(i), -3)),
			Quantity: decimal.NewFromInt(50),
		})
	}
	return out
}

func newTestSubmitter(tx domain.TransactionSubmitter, size int) (*BatchSubmitter, *[]time.Duration) {
	s := NewBatchSubmitter(tx, domain.NewActionBuilder("trader1", 0), BatchConfig{Size: size, Pacing: time.Second}, discardLogger())
	var waits []time.Duration
	s.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return s, &waits
}

func TestBatchSubmitterSplitsAndPaces(t *testing.T) {
	tx := &fakeTx{}
	s, waits := newTestSubmitter(tx, 3)

	res, err := s.Submit(context.Background(), testMarket(), sellOrders(7))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(tx.batches) != 3 {
		t.Fatalf("batches = %d, want 3", len(tx.batches))
	}
	wantSizes := []int{3*2 + 1, 3*2 + 1, 1*2 + 1}
	for i, want := range wantSizes {
		if got := len(tx.batches[i]); got != want {
			t.Errorf("batch %d has %d actions, want %d", i, got, want)
		}
		names := tx.actionNames(i)
		if names[len(names)-1] != "process" {
			t.Errorf("batch %d does not end with process: %v", i, names)
		}
	}
	if len(*waits) != 2 || (*waits)[0] != time.Second {
		t.Errorf("pacing waits = %v, want two waits of 1s", *waits)
	}
	if len(res.Submitted) != 7 {
		t.Errorf("submitted = %d", len(res.Submitted))
	}
	if ids := res.TransactionIDs(); len(ids) != 3 || ids[2] != "tx-3" {
		t.Errorf("transaction ids = %v", ids)
	}
}

func TestBatchSubmitterStopsOnFailure(t *testing.T) {
	cause := errors.New("relay unavailable")
	tx := &fakeTx{failAt: 2, err: cause}
	s, _ := newTestSubmitter(tx, 2)

	res, err := s.Submit(context.Background(), testMarket(), sellOrders(5))
	var se *domain.SubmissionError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want SubmissionError", err)
	}
	if se.Batch != 1 || se.Symbol != "XPR_XMD" || !errors.Is(err, cause) {
		t.Errorf("unexpected error detail %+v", se)
	}
	if domain.ErrorKind(err) != "SubmissionFailure" {
		t.Errorf("ErrorKind = %s", domain.ErrorKind(err))
	}
	if len(res.Submitted) != 2 || tx.calls != 2 {
		t.Errorf("submitted %d with %d calls, want 2 and 2", len(res.Submitted), tx.calls)
	}
}

func TestBatchSubmitterCancel(t *testing.T) {
	tx := &fakeTx{}
	s, _ := newTestSubmitter(tx, 2)

	n, err := s.Cancel(context.Background(), []string{"1", "2", "3"})
	if err != nil || n != 3 {
		t.Fatalf("Cancel() = %d, %v", n, err)
	}
	if len(tx.batches) != 2 || len(tx.batches[0]) != 2 || len(tx.batches[1]) != 1 {
		t.Fatalf("cancel batches = %v", tx.batches)
	}
	if tx.batches[0][0].Name != "cancelorder" {
		t.Errorf("action = %s", tx.batches[0][0].Name)
	}
}

func TestBatchSubmitterDefaults(t *testing.T) {
	s := NewBatchSubmitter(&fakeTx{}, domain.NewActionBuilder("trader1", 0), BatchConfig{}, discardLogger())
	if s.size != 30 || s.pacing != 2*time.Second {
		t.Errorf("defaults = %d, %s", s.size, s.pacing)
	}
}

func TestSleepContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}
