package ingest

import (
	"errors"
	"fmt"
)

// ErrImportFailure matches every *ImportError with errors.Is
var ErrImportFailure = errors.New("import failed")

// Step names the stage of an import that failed
type Step string

const (
	StepFetch   Step = "fetch"
	StepEmpty   Step = "empty"
	StepColumns Step = "columns"
	StepSchema  Step = "schema"
	StepRecords Step = "records"
)

// ImportError reports which import step rejected the data
type ImportError struct {
	Step Step
	Err  error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import failed at %s: %v", e.Step, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrImportFailure) true for any ImportError
func (e *ImportError) Is(target error) bool {
	return target == ErrImportFailure
}

// Fail wraps err as an ImportError for step
func Fail(step Step, err error) error {
	return &ImportError{Step: step, Err: err}
}

// StepOf returns the failed step of an import error, or "" if err is not one
func StepOf(err error) Step {
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie.Step
	}
	return ""
}
