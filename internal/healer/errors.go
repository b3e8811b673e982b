package healer

import (
	"errors"
	"fmt"

	"github.com/Vansh-04/buildfirst/internal/artifact"
)

// Kind is a known stage failure condition.
type Kind string

const (
	NoUsableFeatures     Kind = "NoUsableFeatures"
	MissingModelArtifact Kind = "MissingModelArtifact"
	TargetColumnMissing  Kind = "TargetColumnMissing"
	DatasetIncompatible  Kind = "DatasetIncompatible"
	MissingDataset       Kind = "MissingDataset"
	MalformedArtifact    Kind = "MalformedArtifact"
	InputMissing         Kind = "InputMissing"
	Unknown              Kind = "Unknown"
)

// StageError is the structured failure a stage reports.
type StageError struct {
	Kind  Kind
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Fail builds a StageError with a formatted message.
func Fail(kind Kind, format string, args ...any) error {
	return &StageError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the structured kind from err, if any.
func KindOf(err error) (Kind, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	var me *artifact.MalformedError
	if errors.As(err, &me) {
		return MalformedArtifact, true
	}
	return "", false
}
