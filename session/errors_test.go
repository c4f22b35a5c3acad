package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/onnwee/vod-moments/backend/analysis"
	"github.com/onnwee/vod-moments/backend/binning"
	"github.com/onnwee/vod-moments/backend/chat"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, ErrorClassUnknown},
		{"invalid parameter", fmt.Errorf("%w: interval", ErrInvalidParameter), ErrorClassValidation},
		{"invalid interval", fmt.Errorf("wrap: %w", binning.ErrInvalidInterval), ErrorClassValidation},
		{"empty keyword", analysis.ErrEmptyKeyword, ErrorClassValidation},
		{"no transcript", ErrNoTranscript, ErrorClassPrecondition},
		{"no result", fmt.Errorf("export: %w", ErrNoResult), ErrorClassPrecondition},
		{"load", fmt.Errorf("%w x.csv: boom", ErrLoad), ErrorClassLoad},
		{"missing column", chat.ErrMissingColumn, ErrorClassLoad},
		{"other", errors.New("disk full"), ErrorClassInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorClassString(t *testing.T) {
	tests := []struct {
		class ErrorClass
		want  string
	}{
		{ErrorClassInternal, "internal"},
		{ErrorClassValidation, "validation"},
		{ErrorClassPrecondition, "precondition"},
		{ErrorClassLoad, "load"},
		{ErrorClassUnknown, "unknown"},
		{ErrorClass(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.class.String(); got != tt.want {
			t.Errorf("ErrorClass(%d).String() = %q, want %q", tt.class, got, tt.want)
		}
	}
}

func TestIsPrecondition(t *testing.T) {
	if !IsPrecondition(ErrNoResult) {
		t.Error("ErrNoResult should be a precondition error")
	}
	if IsPrecondition(ErrInvalidParameter) {
		t.Error("ErrInvalidParameter is not a precondition error")
	}
}
