// Package failure defines the fatal error kinds a generation run can stop with.
package failure

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig matches every ConfigError through errors.Is.
	ErrConfig = errors.New("configuration error")
	// ErrIO matches every IOError through errors.Is.
	ErrIO = errors.New("io error")
)

// ConfigKind names the reason a project configuration was rejected.
type ConfigKind string

const (
	UnknownModule   ConfigKind = "unknown module"
	DuplicateModule ConfigKind = "duplicate module"
	NoOutputKind    ConfigKind = "no output kind"
	ManyOutputKinds ConfigKind = "multiple output kinds"
	ImportCycle     ConfigKind = "import cycle"
	UnknownSource   ConfigKind = "unknown source"
	InvalidField    ConfigKind = "invalid field"
)

// ConfigError reports a project description that cannot produce a build plan.
// Subject is the offending identifier, module name, path or key.
type ConfigError struct {
	Kind    ConfigKind
	Subject string
	Detail  string
}

func (e *ConfigError) Error() string {
	msg := string(e.Kind)
	if e.Subject != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Subject)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// Config builds a ConfigError.
func Config(kind ConfigKind, subject string) *ConfigError {
	return &ConfigError{Kind: kind, Subject: subject}
}

// Configf builds a ConfigError with a formatted detail message.
func Configf(kind ConfigKind, subject, format string, args ...any) *ConfigError {
	return &ConfigError{Kind: kind, Subject: subject, Detail: fmt.Sprintf(format, args...)}
}

// IOError reports a file that could not be read or written.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// IO wraps err as an IOError for path.
func IO(path string, err error) *IOError {
	return &IOError{Path: path, Err: err}
}
