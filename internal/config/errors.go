package config

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned for a config file whose extension is
	// neither .toml nor .yaml.
	ErrUnsupportedFormat = errors.New("unsupported config format")

	// ErrValidationFailed matches every *ValidationError.
	ErrValidationFailed = errors.New("validation failed")
)

// ParseError wraps a decoder failure with the file it came from. Line and
// Column are 1-based and zero when the decoder did not report a position.
type ParseError struct {
	Path   string
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	loc := e.Path
	switch {
	case e.Line > 0 && e.Column > 0:
		loc = fmt.Sprintf("%s:%d:%d", e.Path, e.Line, e.Column)
	case e.Line > 0:
		loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	return fmt.Sprintf("parsing %s: %v", loc, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports one rejected setting, named by its dotted key.
type ValidationError struct {
	Path    string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s = %v: %s", e.Path, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }
