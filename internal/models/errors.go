package models

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per failure kind. Stages wrap them with %w so callers
// can match with errors.Is.
var (
	ErrUnsupportedDimensionality = errors.New("unsupported dimensionality")
	ErrInvalidChannelIndex       = errors.New("invalid channel index")
	ErrInvalidThreshold          = errors.New("invalid threshold")
	ErrDtypeMismatch             = errors.New("dtype mismatch")
	ErrDegenerateLabel           = errors.New("degenerate label")
	ErrSourceDecode              = errors.New("source decode failure")
	ErrInvalidKernelSize         = errors.New("invalid kernel size")
	ErrInvalidInput              = errors.New("invalid input")
)

// ErrorKind classifies a pipeline failure.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnsupportedDimensionality
	KindInvalidChannelIndex
	KindInvalidThreshold
	KindDtypeMismatch
	KindDegenerateLabel
	KindSourceDecodeFailure
	KindInvalidKernelSize
	KindInvalidInput
)

var kindSentinels = []struct {
	kind ErrorKind
	err  error
}{
	{KindUnsupportedDimensionality, ErrUnsupportedDimensionality},
	{KindInvalidChannelIndex, ErrInvalidChannelIndex},
	{KindInvalidThreshold, ErrInvalidThreshold},
	{KindDtypeMismatch, ErrDtypeMismatch},
	{KindDegenerateLabel, ErrDegenerateLabel},
	{KindSourceDecodeFailure, ErrSourceDecode},
	{KindInvalidKernelSize, ErrInvalidKernelSize},
	{KindInvalidInput, ErrInvalidInput},
}

func (k ErrorKind) String() string {
	switch k {
	case KindUnsupportedDimensionality:
		return "UnsupportedDimensionality"
	case KindInvalidChannelIndex:
		return "InvalidChannelIndex"
	case KindInvalidThreshold:
		return "InvalidThreshold"
	case KindDtypeMismatch:
		return "DtypeMismatch"
	case KindDegenerateLabel:
		return "DegenerateLabel"
	case KindSourceDecodeFailure:
		return "SourceDecodeFailure"
	case KindInvalidKernelSize:
		return "InvalidKernelSize"
	case KindInvalidInput:
		return "InvalidInput"
	default:
		return "Unknown"
	}
}

// KindOf maps an error chain to its kind.
func KindOf(err error) ErrorKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	for _, ks := range kindSentinels {
		if errors.Is(err, ks.err) {
			return ks.kind
		}
	}
	return KindUnknown
}

// StageError reports which pipeline stage failed and why.
type StageError struct {
	Stage Stage
	Kind  ErrorKind
	Err   error
}

// NewStageError tags err with the stage it came from.
func NewStageError(stage Stage, err error) *StageError {
	return &StageError{
		Stage: stage,
		Kind:  KindOf(err),
		Err:   err,
	}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed [%s]: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
