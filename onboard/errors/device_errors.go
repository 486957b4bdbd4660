package errors

import "fmt"

// ConfigurationError is returned when the shooter cannot be built from the supplied config.
// It is fatal; nothing in the control loop tries to recover from it.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (err ConfigurationError) Error() string {
	if len(err.Field) == 0 {
		err.Field = "UNKNOWN"
	}

	return fmt.Sprintf("invalid shooter config; %s %s", err.Field, err.Reason)
}

type UnsupportedVersionError struct {
	Version int
}

func (err UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unable to work with config version %d", err.Version)
}

type UnknownTransportError struct {
	Kind string
}

func (err UnknownTransportError) Error() string {
	if len(err.Kind) == 0 {
		err.Kind = "UNKNOWN"
	}

	return fmt.Sprintf("no such motor transport %s", err.Kind)
}
