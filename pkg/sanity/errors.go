package sanity

import "fmt"

// HTTPError represents a non-200 HTTP response from the query API.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("query API HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("query API HTTP %d: %s", e.StatusCode, e.Status)
}

// QueryError represents a GROQ failure reported by the API, such as a
// parse error in the query text.
type QueryError struct {
	Description string
	Type        string
}

func (e *QueryError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("GROQ query failed: %s (%s)", e.Description, e.Type)
	}
	return fmt.Sprintf("GROQ query failed: %s", e.Description)
}
