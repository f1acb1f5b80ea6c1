package httpx

import (
	"net/http/httptest"
	"testing"
)

func TestPageParams(t *testing.T) {
	cases := []struct {
		url        string
		wantLimit  int
		wantOffset int
	}{
		{"/api/products", 20, 0},
		{"/api/products?page=3", 20, 40},
		{"/api/products?page=2&page_size=50", 50, 50},
		{"/api/products?page_size=1000", 100, 0},
		{"/api/products?page=0&page_size=-5", 20, 0},
		{"/api/products?page=abc", 20, 0},
	}
	for _, c := range cases {
		r := httptest.NewRequest("GET", c.url, nil)
		limit, offset := pageParams(r)
		if limit != c.wantLimit || offset != c.wantOffset {
			t.Errorf("%s: got limit=%d offset=%d, want %d/%d", c.url, limit, offset, c.wantLimit, c.wantOffset)
		}
	}
}
