package product_test

import (
	"testing"

	"github.com/gastroflow/ledger/product"
)

func TestStockState(t *testing.T) {
	tests := []struct {
		name     string
		enabled  bool
		qty, min int64
		want     product.StockState
	}{
		{"untracked ignores quantity", false, 0, 5, product.StockUntracked},
		{"out at zero", true, 0, 5, product.StockOut},
		{"out below zero", true, -1, 5, product.StockOut},
		{"low at minimum", true, 5, 5, product.StockLow},
		{"low under minimum", true, 1, 5, product.StockLow},
		{"ok above minimum", true, 6, 5, product.StockOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &product.Product{StockEnabled: tt.enabled, StockQuantity: tt.qty, StockMin: tt.min}
			if got := p.StockState(); got != tt.want {
				t.Errorf("StockState() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListOptsSearch(t *testing.T) {
	p := &product.Product{Name: "Milanesa Napolitana", SKU: "MIL-01", IsActive: true}

	tests := []struct {
		search string
		want   bool
	}{
		{"", true},
		{"napo", true},
		{"mil-01", true},
		{"  MILANESA ", true},
		{"pizza", false},
	}
	for _, tt := range tests {
		if got := (product.ListOpts{Search: tt.search}).Match(p); got != tt.want {
			t.Errorf("Search %q: got %v, want %v", tt.search, got, tt.want)
		}
	}
}

func TestListOptsStockState(t *testing.T) {
	low := &product.Product{StockEnabled: true, StockQuantity: 2, StockMin: 5, IsActive: true}
	opts := product.ListOpts{StockState: []product.StockState{product.StockLow, product.StockOut}}
	if !opts.Match(low) {
		t.Error("low product should match alert filter")
	}
	low.StockQuantity = 20
	if opts.Match(low) {
		t.Error("healthy product should not match alert filter")
	}
}
