// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Enrollment constants
const (
	// MaxImageSize is the maximum dimension (width or height) sent to the embedding server
	MaxImageSize = 1920

	// MaxDecodePixels bounds width*height of an uploaded photo before it is decoded
	MaxDecodePixels = 1 << 30
)

// Sync constants
const (
	// DefaultFetchTimeoutSeconds bounds the remote identity list request
	// when no timeout is configured
	DefaultFetchTimeoutSeconds = 15
)

// HTTP constants
const (
	// MaxEnrollBodySize bounds the JSON body of an enrollment request (three base64 photos)
	MaxEnrollBodySize = 60 << 20

	// MaxListResponseSize bounds the remote identity list payload
	MaxListResponseSize = 256 << 20
)
