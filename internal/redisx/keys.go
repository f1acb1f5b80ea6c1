package redisx

import "time"

const (
	// Cache of a sales order's status: so_status:{number} -> {"status": "..."}
	KeyOrderStatus = "so_status:%s"
)

var TTLStatusCache = 5 * time.Minute
