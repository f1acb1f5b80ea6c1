package telesales

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLineSubTotal(t *testing.T) {
	cases := []struct {
		qty      int
		price    string
		discount string
		want     string
	}{
		{3, "10.00", "0", "30"},
		{2, "9.99", "10", "17.98"},
		{1, "100.00", "25", "75"},
		{5, "0.10", "0", "0.5"},
		{1, "19.99", "100", "0"},
	}
	for _, c := range cases {
		got := LineSubTotal(c.qty, decimal.RequireFromString(c.price), decimal.RequireFromString(c.discount))
		if !got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("LineSubTotal(%d, %s, %s%%) = %s, want %s", c.qty, c.price, c.discount, got, c.want)
		}
	}
}

func TestNewOrderNumber(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n := NewOrderNumber()
		if !strings.HasPrefix(n, "SO-") {
			t.Fatalf("missing prefix: %s", n)
		}
		if len(n) != len("SO-")+10 {
			t.Fatalf("unexpected length: %s", n)
		}
		if n != strings.ToUpper(n) {
			t.Fatalf("not upper-cased: %s", n)
		}
		if seen[n] {
			t.Fatalf("duplicate number generated: %s", n)
		}
		seen[n] = true
	}
}
