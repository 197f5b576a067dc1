package chunk

import "errors"

var (
	// ErrInvalidConfig indicates an unusable token range.
	ErrInvalidConfig = errors.New("invalid chunking config")

	// ErrNilEstimator is returned when a nil token estimator is provided.
	ErrNilEstimator = errors.New("token estimator required")
)
