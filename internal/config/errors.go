package config

import (
	"errors"
	"strings"
)

// Errors returned by configuration operations.
var (
	// ErrSettingNotFound indicates the setting path doesn't exist.
	ErrSettingNotFound = errors.New("setting not found")
)

// DecodeError reports a merged value that does not fit its typed setting.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "decoding settings: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ValidationError lists every out-of-range setting.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid settings: " + strings.Join(e.Problems, "; ")
}
