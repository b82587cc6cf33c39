package config

// Scan defaults.
const (
	DefaultScanWorkers     = 0
	DefaultScanMaxFileSize = "1MB"
)

// Javadoc defaults.
const (
	DefaultWrapWidth      = 0
	DefaultConflictPolicy = "error"
)

// Output defaults.
const (
	DefaultOutputFormat = "text"
)

// Cache defaults.
const (
	DefaultCacheEnabled    = true
	DefaultCacheMemorySize = "16MB"
)

// Server defaults.
const (
	DefaultServerHost            = "127.0.0.1"
	DefaultServerPort            = 8080
	DefaultServerReadTimeout     = "30s"
	DefaultServerWriteTimeout    = "30s"
	DefaultServerIdleTimeout     = "60s"
	DefaultServerShutdownTimeout = "10s"
	DefaultServerMaxBodySize     = "4MB"
)

// Logging defaults.
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = false
)
