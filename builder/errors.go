package builder

import "errors"

var (
	// ErrNoInput is returned when a job's input folder is missing or holds
	// no table files. The job is skipped.
	ErrNoInput = errors.New("builder: no input")

	// ErrConfig is returned for an invalid merge job configuration.
	ErrConfig = errors.New("builder: invalid config")
)
