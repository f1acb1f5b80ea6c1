package httpx

import (
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// pageParams reads ?page and ?page_size (1-based page, clamped size) and
// returns the SQL limit/offset pair.
func pageParams(r *http.Request) (limit, offset int) {
	page := 1
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	size := defaultPageSize
	if v, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && v > 0 {
		size = v
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return size, (page - 1) * size
}

type listResponse struct {
	Count   int `json:"count"`
	Results any `json:"results"`
}
