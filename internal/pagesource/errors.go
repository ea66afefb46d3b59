package pagesource

import "errors"

var (
	// ErrGeneratorNotFound indicates the generator executable could not be located.
	ErrGeneratorNotFound = errors.New("reference page generator not found")
	// ErrGeneratorNotExecutable indicates the generator path exists but cannot be executed.
	ErrGeneratorNotExecutable = errors.New("reference page generator not executable")
	// ErrGeneratorFailed indicates the generator returned a non-zero exit status.
	ErrGeneratorFailed = errors.New("reference page generator failed")
)
