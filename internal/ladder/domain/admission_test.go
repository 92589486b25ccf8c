package domain

import (
	"errors"
	"testing"
)

func TestAdmit(t *testing.T) {
	m := testMarket()
	orders := []DesiredOrder{
		order(SideBuy, "0.1", "100"),
		order(SideBuy, "0.125", "80"),
		order(SideSell, "0.2", "50"),
	}

	tests := []struct {
		name      string
		base      string
		quote     string
		wantToken string
	}{
		{name: "exact balances", base: "50", quote: "20"},
		{name: "quote short", base: "50", quote: "19.999999", wantToken: "XMD"},
		{name: "base short", base: "49.9999", quote: "20", wantToken: "XPR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := Admit(m, orders, Balances{Base: dec(t, tt.base), Quote: dec(t, tt.quote)})
			if !exp.BuyNotional.Equal(dec(t, "20")) || !exp.SellQuantity.Equal(dec(t, "50")) {
				t.Errorf("exposure = %+v", exp)
			}
			if tt.wantToken == "" {
				if err != nil {
					t.Fatalf("Admit() error = %v", err)
				}
				return
			}
			var ibe *InsufficientBalanceError
			if !errors.As(err, &ibe) {
				t.Fatalf("err = %v, want InsufficientBalanceError", err)
			}
			if ibe.Token != tt.wantToken || ibe.Symbol != "XPR_XMD" {
				t.Errorf("unexpected error detail %+v", ibe)
			}
			if ErrorKind(err) != "InsufficientBalance" {
				t.Errorf("ErrorKind = %s", ErrorKind(err))
			}
		})
	}
}

func TestComputeExposureEmpty(t *testing.T) {
	exp, err := ComputeExposure(testMarket(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !exp.BuyNotional.IsZero() || !exp.SellQuantity.IsZero() {
		t.Errorf("exposure = %+v, want zero", exp)
	}
}
