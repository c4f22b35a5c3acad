package session

import (
	"errors"

	"github.com/onnwee/vod-moments/backend/analysis"
	"github.com/onnwee/vod-moments/backend/binning"
	"github.com/onnwee/vod-moments/backend/chat"
	"github.com/onnwee/vod-moments/backend/sentiment"
)

var (
	// ErrNoTranscript is returned by analyses run before any transcript is loaded.
	ErrNoTranscript = errors.New("no transcript loaded")
	// ErrNoResult is returned by exports run before a matching analysis.
	ErrNoResult = errors.New("no analysis result available")
	// ErrInvalidParameter wraps caller input that fails validation.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrLoad wraps every transcript load failure.
	ErrLoad = errors.New("load transcript")
)

// ErrorClass groups session errors by who has to act on them.
type ErrorClass int

const (
	// ErrorClassInternal covers I/O and other unexpected failures.
	ErrorClassInternal ErrorClass = iota
	// ErrorClassValidation means the caller passed a bad parameter.
	ErrorClassValidation
	// ErrorClassPrecondition means a required earlier step (load, analyze) has not happened.
	ErrorClassPrecondition
	// ErrorClassLoad means the transcript source could not be read or parsed.
	ErrorClassLoad
	// ErrorClassUnknown is reported for a nil error.
	ErrorClassUnknown
)

// String returns a human-readable name for the error class.
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorClassInternal:
		return "internal"
	case ErrorClassValidation:
		return "validation"
	case ErrorClassPrecondition:
		return "precondition"
	case ErrorClassLoad:
		return "load"
	default:
		return "unknown"
	}
}

// Classify maps an error returned by this package (or the analysis packages
// it drives) to its class.
//
// Validation: ErrInvalidParameter, bad intervals, empty keywords, lexicon weights.
// Precondition: ErrNoTranscript, ErrNoResult.
// Load: ErrLoad, missing transcript columns.
// Everything else is internal.
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorClassUnknown
	}
	switch {
	case errors.Is(err, ErrInvalidParameter),
		errors.Is(err, binning.ErrInvalidInterval),
		errors.Is(err, analysis.ErrEmptyKeyword),
		errors.Is(err, sentiment.ErrWeightOutOfRange):
		return ErrorClassValidation
	case errors.Is(err, ErrNoTranscript), errors.Is(err, ErrNoResult):
		return ErrorClassPrecondition
	case errors.Is(err, ErrLoad), errors.Is(err, chat.ErrMissingColumn):
		return ErrorClassLoad
	default:
		return ErrorClassInternal
	}
}

// IsPrecondition reports whether err means a prerequisite step is missing.
func IsPrecondition(err error) bool {
	return Classify(err) == ErrorClassPrecondition
}
