package pkgconfig

import "time"

// Config is the read-only view of service settings. Missing keys read as the
// zero value.
type Config interface {
	GetInt(key string) int64
	GetBool(key string) bool
	GetString(key string) string
	GetDuration(key string) time.Duration
	Close() error
}
