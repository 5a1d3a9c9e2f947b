package config

import "time"

// Database and Performance Constants
const (
	// Timeouts
	DefaultQueryTimeout = 30 * time.Second
	SearchTimeout       = 10 * time.Second
	StatsQueryTimeout   = 10 * time.Second
	NetworkDialTimeout  = 5 * time.Second

	// Cache settings
	SearchCacheSize = 1024

	// Batch processing
	MaxBatchSize = 1000
)

// Search and Pagination Constants
const (
	DefaultPageSize = 50
	MaxPageSize     = 100

	MaxSuggestions = 20
)
