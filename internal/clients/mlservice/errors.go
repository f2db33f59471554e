package mlservice

import (
	"errors"
	"fmt"
)

// ErrResponseTooLarge is returned for a successful reply whose body exceeds
// MaxResponseBytes.
var ErrResponseTooLarge = errors.New("ml service response exceeds size limit")

// HTTPError is a non-2xx reply from the prediction service.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "ml service http error"
	}
	if e.Body == "" {
		return fmt.Sprintf("ml service http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("ml service http error: status=%d body=%s", e.StatusCode, e.Body)
}

func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrResponseTooLarge) {
		return false
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode >= 500
	}
	return true
}
