package types

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestMoneyDisplay(t *testing.T) {
	tests := []struct {
		name    string
		money   Money
		display string
	}{
		{"pesos", ARS(250000), "$2500.00"},
		{"centavos", ARS(5), "$0.05"},
		{"negative", ARS(-1050), "$-10.50"},
		{"dollars", USD(4900), "$49.00"},
		{"zero decimals", New(1500, "CLP"), "$1500"},
		{"unknown currency", New(100, "xyz"), "XYZ 1.00"},
		{"default currency", New(100, ""), "$1.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.money.String(); got != tt.display {
				t.Errorf("String() = %q, want %q", got, tt.display)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a, b := ARS(1000), ARS(250)

	if got := a.Add(b); !got.Equal(ARS(1250)) {
		t.Errorf("Add = %v", got)
	}
	if got := a.Subtract(b); !got.Equal(ARS(750)) {
		t.Errorf("Subtract = %v", got)
	}
	if got := a.Multiply(3); !got.Equal(ARS(3000)) {
		t.Errorf("Multiply = %v", got)
	}
	if !Zero("ars").IsZero() || !ARS(-1).IsNegative() {
		t.Error("predicates wrong")
	}
}

func TestMoneyCurrencyMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	_ = ARS(1).Add(USD(1))
}

func TestSum(t *testing.T) {
	if got := Sum("ars"); !got.Equal(ARS(0)) {
		t.Errorf("empty Sum = %v", got)
	}
	if got := Sum("ars", ARS(100), ARS(200), ARS(300)); !got.Equal(ARS(600)) {
		t.Errorf("Sum = %v", got)
	}
}

func TestMoneyJSON(t *testing.T) {
	raw, err := json.Marshal(ARS(2000))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"amount":2000,"currency":"ars","display":"$20.00"}`
	if string(raw) != want {
		t.Errorf("marshal = %s, want %s", raw, want)
	}

	var back Money
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Equal(ARS(2000)) {
		t.Errorf("unmarshal = %v", back)
	}

	var upper Money
	if err := json.Unmarshal([]byte(`{"amount":5,"currency":"USD"}`), &upper); err != nil {
		t.Fatal(err)
	}
	if upper.Currency != "usd" {
		t.Errorf("currency = %q, want lowercase", upper.Currency)
	}
}

func TestCheckedArithmetic(t *testing.T) {
	tests := []struct {
		name    string
		fn      func() (Money, error)
		want    Money
		wantErr bool
	}{
		{"add", func() (Money, error) { return ARS(1000).CheckedAdd(ARS(250)) }, ARS(1250), false},
		{"add overflow", func() (Money, error) { return ARS(math.MaxInt64).CheckedAdd(ARS(1)) }, Money{}, true},
		{"add underflow", func() (Money, error) { return ARS(math.MinInt64).CheckedAdd(ARS(-1)) }, Money{}, true},
		{"multiply", func() (Money, error) { return ARS(1000).CheckedMultiply(3) }, ARS(3000), false},
		{"multiply by zero", func() (Money, error) { return ARS(math.MaxInt64).CheckedMultiply(0) }, ARS(0), false},
		{"multiply overflow", func() (Money, error) { return ARS(1000).CheckedMultiply(math.MaxInt64 / 100) }, Money{}, true},
		{"multiply min by -1", func() (Money, error) { return ARS(math.MinInt64).CheckedMultiply(-1) }, Money{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn()
			if tt.wantErr {
				if !errors.Is(err, ErrOverflow) {
					t.Fatalf("err = %v, want ErrOverflow", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAddInt64(t *testing.T) {
	if _, err := AddInt64(math.MaxInt64, math.MaxInt64); !errors.Is(err, ErrOverflow) {
		t.Errorf("MaxInt64+MaxInt64 err = %v", err)
	}
	if got, err := AddInt64(10, -12); err != nil || got != -2 {
		t.Errorf("10-12 = %d, %v", got, err)
	}
}
