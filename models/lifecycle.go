package models

import "time"

// RequestRecord is the bookkeeping entry kept for every in-flight request.
type RequestRecord struct {
	// ID is a random token followed by "-" and the request path.
	ID string `json:"id"`

	Method string `json:"method"`
	Path   string `json:"path"`

	// OpenedAt is the moment the request entered the pipeline.
	OpenedAt time.Time `json:"opened_at"`
}

// ConnectionRecord is the bookkeeping entry kept for every live transport
// connection.
type ConnectionRecord struct {
	ID         string    `json:"id"`
	RemoteAddr string    `json:"remote_addr"`
	OpenedAt   time.Time `json:"opened_at"`
}
