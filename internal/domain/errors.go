package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUpstreamTimeout   = errors.New("upstream timeout")
	ErrUpstreamNetwork   = errors.New("upstream network error")
	ErrUpstreamMalformed = errors.New("upstream malformed payload")
)

// UpstreamHTTPError is returned when a provider answers with a non-2xx status.
type UpstreamHTTPError struct {
	Source     string
	StatusCode int
}

func (e *UpstreamHTTPError) Error() string {
	return fmt.Sprintf("%s API error: %d", e.Source, e.StatusCode)
}
