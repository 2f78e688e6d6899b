package descriptions

import "fmt"

// InputError marks a malformed line on the input stream.
type InputError struct {
	Line int
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input line %d: %v", e.Line, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// CountError reports a generation result whose length does not match
// the batch that produced it. The schema forbids this; a service that
// returns it anyway must not be trusted for ordering either.
type CountError struct {
	Want int
	Got  int
}

func (e *CountError) Error() string {
	return fmt.Sprintf("generation returned %d results for a batch of %d", e.Got, e.Want)
}
