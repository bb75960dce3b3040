package vu

import "codeberg.org/mutker/vupdated/internal/errors"

// Package-specific error codes
const (
	ErrBuildRequest     = errors.ErrorCode("vu_build_request_failed")
	ErrInvalidValue     = errors.ErrorCode("vu_invalid_value")
	ErrInvalidBacklight = errors.ErrorCode("vu_invalid_backlight")
	ErrInvalidEasing    = errors.ErrorCode("vu_invalid_easing")
	ErrTransport        = errors.ErrorCode("vu_transport_failed")
	ErrHTTPStatus       = errors.ErrorCode("vu_http_status")
	ErrServerFailure    = errors.ErrorCode("vu_server_failure")
	ErrDecodeResponse   = errors.ErrorCode("vu_decode_response_failed")
)

// IsPermanent reports whether err can never succeed on retry. Malformed
// requests and out-of-range values are permanent; everything the network or
// the server reports is transient.
func IsPermanent(err error) bool {
	return errors.HasCode(err, ErrBuildRequest, ErrInvalidValue, ErrInvalidBacklight, ErrInvalidEasing)
}
