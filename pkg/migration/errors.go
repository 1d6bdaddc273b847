package migration

import (
	"errors"
	"fmt"
)

// Kind classifies a migration error and drives its propagation policy:
// configuration and integrity errors abort the run, transient errors are
// retried by the batch executor, unmappable data is logged and skipped.
type Kind string

const (
	KindConfig     Kind = "configuration"
	KindTransient  Kind = "transient"
	KindUnmappable Kind = "unmappable"
	KindIntegrity  Kind = "integrity"
	KindStructural Kind = "structural"
)

var (
	// ErrStepFailed is returned when a step reports a fatal top-level failure.
	ErrStepFailed = errors.New("step failed")

	// ErrMissingDefaultLanguage is returned when the target language table has
	// no row for the configured default language.
	ErrMissingDefaultLanguage = errors.New("default language not present in target")

	// ErrMissingCurrency is returned when a currency referenced by source data
	// is not present in the target.
	ErrMissingCurrency = errors.New("currency not present in target")
)

// MigrationError carries the error kind and the entity/stage context it
// occurred in.
type MigrationError struct {
	Kind    Kind
	Stage   string
	Entity  string
	Message string
	cause   error
}

func NewMigrationErrorf(kind Kind, format string, args ...any) *MigrationError {
	err := &MigrationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
	for _, arg := range args {
		if cause, ok := arg.(error); ok {
			err.cause = cause
		}
	}
	return err
}

func (e *MigrationError) Error() string {
	prefix := string(e.Kind)
	if e.Stage != "" {
		prefix += " [" + e.Stage + "]"
	}
	if e.Entity != "" {
		prefix += " " + e.Entity
	}
	return prefix + ": " + e.Message
}

func (e *MigrationError) Unwrap() error {
	return e.cause
}

func (e *MigrationError) AddStage(stage string) *MigrationError {
	e.Stage = stage
	return e
}

func (e *MigrationError) AddEntity(entity string) *MigrationError {
	e.Entity = entity
	return e
}

// KindOf extracts the kind of err; unknown errors default to transient so
// the batch executor retries them.
func KindOf(err error) Kind {
	var me *MigrationError
	if errors.As(err, &me) {
		return me.Kind
	}
	return KindTransient
}
