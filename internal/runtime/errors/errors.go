package errors

import (
	sterrors "errors"
	"fmt"
)

var (
	ErrConfigRequired        = sterrors.New("surfaceflow: configuration is required")
	ErrLoggerRequired        = sterrors.New("surfaceflow: logger is required")
	ErrStoreRequired         = sterrors.New("surfaceflow: surface store is required")
	ErrRegistryRequired      = sterrors.New("surfaceflow: renderer registry is required")
	ErrRendererRequired      = sterrors.New("surfaceflow: renderer is required")
	ErrComponentTypeRequired = sterrors.New("surfaceflow: component type is required")
	ErrSurfaceNotFound       = sterrors.New("surfaceflow: Surface not found")
	ErrPublisherRequired     = sterrors.New("surfaceflow: publisher is required")
	ErrTopicRequired         = sterrors.New("surfaceflow: topic is required")
	ErrActionTypeRequired    = sterrors.New("surfaceflow: action type is required")
)

// SurfaceNotFound returns an error naming the missing surface that matches
// ErrSurfaceNotFound under errors.Is.
func SurfaceNotFound(surfaceID string) error {
	return fmt.Errorf("%w: %s", ErrSurfaceNotFound, surfaceID)
}

// ConfigValidationError wraps the joined result of Config.Validate.
type ConfigValidationError struct {
	Err error
}

func (e ConfigValidationError) Error() string {
	return "surfaceflow: invalid configuration: " + e.Err.Error()
}

func (e ConfigValidationError) Unwrap() error {
	return e.Err
}

// NewConfigValidationError wraps err, returning nil when err is nil.
func NewConfigValidationError(err error) error {
	if err == nil {
		return nil
	}
	return ConfigValidationError{Err: err}
}
