// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Search constants
const (
	// DefaultSearchLimit is the default number of similar products returned
	DefaultSearchLimit = 10

	// MaxSearchLimit is the largest limit a caller may request
	MaxSearchLimit = 100

	// NoDistanceFilter disables the max distance filter
	NoDistanceFilter = -1
)

// Seeding constants
const (
	// SeedRequestsPerSecond paces image downloads during seeding
	SeedRequestsPerSecond = 2

	// SeedDownloadTimeout bounds a single image download in seconds
	SeedDownloadTimeout = 10

	// DefaultSeedConcurrency is the default number of parallel seed workers
	DefaultSeedConcurrency = 4

	// UnsplashRateLimitPause is how long bulk seeding waits after the image
	// search API answers 403, in seconds
	UnsplashRateLimitPause = 3601

	// UnsplashRetries bounds lookups that fail for other reasons
	UnsplashRetries = 3

	// UnsplashRetryDelay is the pause between those retries in seconds
	UnsplashRetryDelay = 2
)
