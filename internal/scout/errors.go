package scout

import (
	"errors"
	"fmt"
)

// ErrNotReady is returned when a component is used outside its required
// lifecycle scope, e.g. searching on a client that was never opened.
var ErrNotReady = errors.New("client session not open")

// FetchExhaustedError reports that the retry budget for a single page
// was spent. It is fatal to the whole fetch and carries the last
// observed failure.
type FetchExhaustedError struct {
	Attempts int
	Err      error
}

func (e *FetchExhaustedError) Error() string {
	return fmt.Sprintf("fetch failed after %d attempts, cause: %v", e.Attempts, e.Err)
}

func (e *FetchExhaustedError) Unwrap() error {
	return e.Err
}
