package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wyfcoding/dexladder/internal/ladder/domain"
)

func newTestSigner(t *testing.T, handler http.HandlerFunc) *SignerClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewSignerClient(SignerConfig{
		Endpoint:        srv.URL,
		Account:         "ladderbot",
		MaxRetries:      3,
		RetryDelay:      time.Millisecond,
		BreakerFailures: 10,
	}, discardLogger())
	if err != nil {
		t.Fatalf("NewSignerClient() error = %v", err)
	}
	return c
}

func testActions() []domain.Action {
	return []domain.Action{
		{Account: "dex", Name: "cancelorder", Data: map[string]any{"account": "ladderbot", "order_id": "7"}},
		{Account: "dex", Name: "process", Data: map[string]any{"q_size": 50}},
	}
}

func TestSubmitActionsSetsAuthorization(t *testing.T) {
	var got transactRequest
	c := newTestSigner(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != transactPath || r.Method != http.MethodPost {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		fmt.Fprint(w, `{"transaction_id":"abc123"}`)
	})

	actions := testActions()
	receipt, err := c.SubmitActions(context.Background(), actions)
	if err != nil {
		t.Fatalf("SubmitActions() error = %v", err)
	}
	if receipt.TransactionID != "abc123" {
		t.Errorf("transaction id = %q", receipt.TransactionID)
	}
	if len(got.Actions) != 2 {
		t.Fatalf("relay received %d actions", len(got.Actions))
	}
	for _, a := range got.Actions {
		if len(a.Authorization) != 1 || a.Authorization[0] != (domain.Authorization{Actor: "ladderbot", Permission: "active"}) {
			t.Errorf("authorization = %+v", a.Authorization)
		}
	}
	if actions[0].Authorization != nil {
		t.Error("caller actions were modified")
	}
}

func TestSubmitActionsRetries(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		body      string
		wantCalls int32
		wantErr   bool
	}{
		{"recovers after 5xx", []int{http.StatusServiceUnavailable, http.StatusOK}, `{"transaction_id":"t1"}`, 2, false},
		{"gives up after max retries", []int{500, 500, 500, 500}, `{}`, 3, true},
		{"4xx is not retried", []int{http.StatusBadRequest}, `{"error":"assertion failure"}`, 1, true},
		{"missing transaction id", []int{http.StatusOK}, `{}`, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c := newTestSigner(t, func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				status := tt.statuses[min(int(n), len(tt.statuses))-1]
				w.WriteHeader(status)
				fmt.Fprint(w, tt.body)
			})
			_, err := c.SubmitActions(context.Background(), testActions())
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls.Load(), tt.wantCalls)
			}
		})
	}
}

func TestSubmitActionsClientErrorMessage(t *testing.T) {
	c := newTestSigner(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"overdrawn balance"}`)
	})
	_, err := c.SubmitActions(context.Background(), testActions())
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("error = %v, want ErrUnexpectedStatus", err)
	}
	if got := err.Error(); !strings.Contains(got, "overdrawn balance") {
		t.Errorf("error %q does not carry relay message", got)
	}
}

func TestSubmitActionsEmptyBatch(t *testing.T) {
	c := newTestSigner(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("relay must not be called")
	})
	if _, err := c.SubmitActions(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty batch")
	}
}

func TestNewSignerClientValidation(t *testing.T) {
	if _, err := NewSignerClient(SignerConfig{Account: "a"}, discardLogger()); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("missing endpoint: error = %v", err)
	}
	if _, err := NewSignerClient(SignerConfig{Endpoint: "http://x"}, discardLogger()); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("missing account: error = %v", err)
	}
}
