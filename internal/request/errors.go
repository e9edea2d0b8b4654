package request

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotADirectory            = errors.New("not an existing directory")
	ErrFileNotFound             = errors.New("not an existing file")
	ErrUnsupportedFormat        = errors.New("unsupported output format")
	ErrConflictingStemSelection = errors.New("conflicting stem selection")
)

// PathError reports a missing file or directory, or one of the wrong type
type PathError struct {
	Flag string // Flag name without dashes, e.g. "output-dir"
	Path string
	Err  error // ErrNotADirectory or ErrFileNotFound
}

func (e *PathError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("'--%s' argument is required", e.Flag)
	}
	return fmt.Sprintf("'--%s' argument [%s] is %v", e.Flag, e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// ConfigurationError reports a flag value, or combination of flags, that cannot be used
type ConfigurationError struct {
	Flag      string
	Value     string
	Supported []string // Set only for ErrUnsupportedFormat
	Err       error
}

func (e *ConfigurationError) Error() string {
	if errors.Is(e.Err, ErrConflictingStemSelection) {
		return fmt.Sprintf("'--%s' cannot be combined with '--%s'", e.Flag, e.Value)
	}
	return fmt.Sprintf("'--%s' argument [%s] is not supported (supported: %s)",
		e.Flag, e.Value, strings.Join(e.Supported, ", "))
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Messages splits an error returned by Validate into one line per violation
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var lines []string
		for _, e := range joined.Unwrap() {
			lines = append(lines, Messages(e)...)
		}
		return lines
	}
	return []string{err.Error()}
}
