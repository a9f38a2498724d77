package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// cacheSweepInterval is how often the batch cache evicts expired entries.
	cacheSweepInterval = time.Minute
)
