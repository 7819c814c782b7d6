package domain

import "fmt"

// RetrievalError reports a failed upstream page request: transport failure,
// non-200 status, or an undecodable body. It is fatal to a harvest run.
type RetrievalError struct {
	Page       int
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *RetrievalError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("retrieve page %d: status %d: %v", e.Page, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("retrieve page %d: %v", e.Page, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}
