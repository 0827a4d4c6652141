package constants

// File upload constants
const (
	// DefaultMaxUploadMB is the default maximum image upload size in MiB
	DefaultMaxUploadMB = 10

	// MultipartMemory is the part of a multipart form kept in memory
	MultipartMemory = 32 << 20

	// ImageFormField is the multipart field carrying the image
	ImageFormField = "image"

	// MaxImagePixels caps width*height of a decoded image
	MaxImagePixels = 40_000_000
)

// Server timeouts in seconds
const (
	// ReadTimeout bounds reading a request including the upload body
	ReadTimeout = 30

	// WriteTimeout bounds writing a response
	WriteTimeout = 60

	// RequestTimeout is the per-request handler timeout
	RequestTimeout = 60
)
