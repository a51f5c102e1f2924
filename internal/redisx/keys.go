package redisx

import "time"

const (
	// Cached catalog listing: cache:productos -> JSON array of products
	KeyCatalogCache = "cache:productos"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLCatalogCache = 5 * time.Minute
	TTLDedup        = 48 * time.Hour
)
