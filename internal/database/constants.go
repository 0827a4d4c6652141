package database

// Product column limits, matching the VARCHAR sizes of the products table.
const (
	// MaxNameLength is the maximum product name length in characters
	MaxNameLength = 255

	// MaxCategoryLength is the maximum category length in characters
	MaxCategoryLength = 100
)
