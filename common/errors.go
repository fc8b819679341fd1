package common

import (
	"errors"
)

var ErrUnsupportedContent = errors.New("unsupported URL content type")
var ErrContentTooLarge = errors.New("exceed max content length")
var ErrNetworkFailure = errors.New("network failure")
var ErrDecodeFailure = errors.New("failed to decode content")
var ErrCancelled = errors.New("preview cancelled")
var ErrAlreadyLoading = errors.New("preview already in progress")
var ErrServiceStopped = errors.New("previewer service stopped")
var ErrInvalidHost = errors.New("invalid host")
var ErrHostNotFound = errors.New("host not found")
var ErrHostNotAllowed = errors.New("host not allowed")
var ErrHostUnavailable = errors.New("host temporarily unavailable")
var ErrMediaDimensionsTooLarge = errors.New("media is too large dimensionally")
var ErrNotPreviewed = errors.New("no image has been previewed")
var ErrInstanceEvicted = errors.New("preview instance was evicted from the cache")

// Describe returns the inline text shown for a failed preview.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedContent):
		return "Unsupported URL content type"
	case errors.Is(err, ErrContentTooLarge):
		return "Exceed max content length"
	default:
		return err.Error()
	}
}

// Reason maps an error onto the taxonomy used for metrics labels.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, ErrUnsupportedContent):
		return "unsupported_content"
	case errors.Is(err, ErrContentTooLarge):
		return "content_too_large"
	case errors.Is(err, ErrDecodeFailure):
		return "decode_failure"
	default:
		return "network_failure"
	}
}
