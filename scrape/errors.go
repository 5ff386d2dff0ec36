package scrape

import "errors"

// ErrCaptureTimeout is returned when the capture deadline elapses before
// both the channel-list response and a schedule request have been observed.
// Fatal for the run: no fetch can be attempted without credentials.
var ErrCaptureTimeout = errors.New("scrape: capture timed out before both API responses were observed")
