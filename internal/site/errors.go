package site

import (
	"errors"
	"fmt"
)

// Sentinel domain errors used to classify pipeline failures.
// They are always wrapped with contextual information at the call site.
var (
	ErrDiscover  = errors.New("sitebuilder: discovery error")
	ErrTransform = errors.New("sitebuilder: transform error")
	ErrRender    = errors.New("sitebuilder: render error")
	ErrWrite     = errors.New("sitebuilder: write error")
)

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying the failing stage and cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newCanceledStageError(stage StageName, cause error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: cause}
}

func newFatalStageError(stage StageName, cause error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: cause}
}
