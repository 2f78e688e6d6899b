package lightspeed

import "fmt"

// HTTPError represents a non-200 HTTP response from the shop API.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("shop API HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("shop API HTTP %d: %s", e.StatusCode, e.Status)
}
