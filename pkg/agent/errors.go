package agent

import "fmt"

// HTTPError represents a non-200 HTTP response from the generation
// service.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("generation service HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("generation service HTTP %d: %s", e.StatusCode, e.Status)
}

// ResultError represents a generation call that the service completed
// but did not finish successfully, for example by running out of
// turns.
type ResultError struct {
	Subtype string
	Message string
}

func (e *ResultError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("generation failed: %s", e.Subtype)
	}
	return fmt.Sprintf("generation failed: %s: %s", e.Subtype, e.Message)
}
