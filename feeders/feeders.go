// Package feeders provides configuration feeders for reading a single
// section of a YAML, TOML or JSON file, and struct fields from prefixed
// environment variables.
package feeders

import (
	"errors"
	"fmt"
)

var (
	// ErrEnvInvalidStructure indicates the target is not a pointer to a struct.
	ErrEnvInvalidStructure = errors.New("env: invalid structure")

	// ErrEnvEmptyPrefixAndSuffix indicates that both prefix and suffix are empty.
	ErrEnvEmptyPrefixAndSuffix = errors.New("env: prefix or suffix cannot be empty")

	// ErrEnvFieldNotSettable indicates an env tag on an unexported field.
	ErrEnvFieldNotSettable = errors.New("env: field cannot be set")
)

// Feeder reads a whole source into target.
type Feeder interface {
	Feed(target any) error
}

// feedKey reads the whole source as a map and decodes the value under key
// into target by marshalling it back with the source's own codec. A missing
// key leaves target untouched.
func feedKey(
	feeder Feeder,
	key string,
	target any,
	marshalFunc func(any) ([]byte, error),
	unmarshalFunc func([]byte, any) error,
	fileType string,
) error {
	var allData map[string]any

	if err := feeder.Feed(&allData); err != nil {
		return fmt.Errorf("failed to read %s: %w", fileType, err)
	}

	value, exists := allData[key]
	if !exists {
		return nil
	}

	valueBytes, err := marshalFunc(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s data: %w", fileType, err)
	}

	if err = unmarshalFunc(valueBytes, target); err != nil {
		return fmt.Errorf("failed to unmarshal %s data: %w", fileType, err)
	}

	return nil
}
