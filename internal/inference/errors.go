package inference

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFileSelected is returned when a submission has no file. No
	// request is sent.
	ErrNoFileSelected = errors.New("no file selected")
	// ErrSubmissionInFlight is returned while a previous submission has not
	// resolved yet.
	ErrSubmissionInFlight = errors.New("inference request already in flight")
	// ErrPredictorPanic marks a submission whose predictor panicked.
	ErrPredictorPanic = errors.New("predictor panicked")
)

// NetworkError wraps a transport failure talking to the detection endpoint.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("inference endpoint unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// BadResponseError reports a non-2xx status or a body that does not match
// the expected result shape. Status is 0 when the status itself was fine.
type BadResponseError struct {
	Status int
	Err    error
}

func (e *BadResponseError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("inference endpoint returned status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("inference endpoint returned a malformed response: %v", e.Err)
}

func (e *BadResponseError) Unwrap() error {
	return e.Err
}
