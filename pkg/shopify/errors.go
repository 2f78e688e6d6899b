package shopify

import (
	"fmt"
	"strings"
)

// HTTPError is a non-2xx transport response from the Admin API. The
// run aborts on the first one; there is no retry.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("admin API HTTP %d: %s", e.StatusCode, e.Status)
	}
	return fmt.Sprintf("admin API HTTP %d: %s", e.StatusCode, body)
}

// GraphQLError is an HTTP 200 response whose errors array is non-empty.
// The API answered, but the query itself failed.
type GraphQLError struct {
	Operation string
	Errors    []ResponseError
}

// Error implements the error interface.
func (e *GraphQLError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, re := range e.Errors {
		if re.Extensions.Code != "" {
			msgs = append(msgs, fmt.Sprintf("%s (%s)", re.Message, re.Extensions.Code))
			continue
		}
		msgs = append(msgs, re.Message)
	}
	return fmt.Sprintf("%s query failed: %s", e.Operation, strings.Join(msgs, "; "))
}
