package logic

import (
	"errors"
	"fmt"
)

// ErrorKind classifies prediction failures.
type ErrorKind string

const (
	// KindDataUnavailable is recovered locally and only surfaces as a warning.
	KindDataUnavailable ErrorKind = "data_unavailable"
	// KindModelFailure is recovered by dropping the model from the ensemble.
	KindModelFailure ErrorKind = "model_failure"
	// KindUpstreamUnavailable means the match store could not be reached.
	KindUpstreamUnavailable ErrorKind = "upstream_unavailable"
	// KindValidation rejects malformed input before any fetch.
	KindValidation ErrorKind = "validation_error"
)

// PredictionError is the typed error returned by the prediction engine.
type PredictionError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *PredictionError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}

func newPredictionError(kind ErrorKind, op string, err error) *PredictionError {
	return &PredictionError{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of a PredictionError anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var pe *PredictionError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

func IsUpstreamUnavailable(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindUpstreamUnavailable
}

func IsValidation(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindValidation
}

func IsModelFailure(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindModelFailure
}
