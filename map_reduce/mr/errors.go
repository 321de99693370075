package mr

import (
	"errors"
	"fmt"
)

// Configuration errors, returned before any chunk is scheduled.
var (
	ErrNoSource   = errors.New("document source not provided")
	ErrNoMap      = errors.New("map function not provided")
	ErrNoFinished = errors.New("finished callback not provided")
	ErrChunkSize  = errors.New("chunk size must be positive")
)

// ConfigError reports an invalid Options value.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return "mr: invalid options: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

//
// ComputeError is a fatal failure inside a computation: the map or reduce
// function failed (or panicked), or a document could not be fetched.
// ID is the document id for the map phase, empty for reduce.
//
type ComputeError struct {
	Phase Phase
	ID    string
	Key   string
	Err   error
}

func (e *ComputeError) Error() string {
	switch {
	case e.ID != "":
		return fmt.Sprintf("mr: %s phase, document %q: %v", e.Phase, e.ID, e.Err)
	case e.Key != "":
		return fmt.Sprintf("mr: %s phase, key %s: %v", e.Phase, e.Key, e.Err)
	}
	return fmt.Sprintf("mr: %s phase: %v", e.Phase, e.Err)
}

func (e *ComputeError) Unwrap() error {
	return e.Err
}

// call runs fn, turning a panic into an error.
func call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("panic: %w", e)
			} else {
				err = fmt.Errorf("panic: %v", r)
			}
		}
	}()
	return fn()
}
