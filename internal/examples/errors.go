package examples

import (
	"errors"
	"fmt"
)

var (
	ErrDirectoryNotFound   = errors.New("examples directory not found")
	ErrDuplicateTargetName = errors.New("duplicate target name")
)

// DirectoryNotFoundError is returned when the examples directory is missing,
// unreadable or not a directory
type DirectoryNotFoundError struct {
	Path string
	Err  error
}

func (e *DirectoryNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", ErrDirectoryNotFound, e.Path, e.Err)
	}
	return fmt.Sprintf("%v: %s", ErrDirectoryNotFound, e.Path)
}

func (e *DirectoryNotFoundError) Is(target error) bool { return target == ErrDirectoryNotFound }
func (e *DirectoryNotFoundError) Unwrap() error        { return e.Err }

// DuplicateTargetNameError is returned when two sources derive the same target name
type DuplicateTargetNameError struct {
	Name   string
	First  string
	Second string
}

func (e *DuplicateTargetNameError) Error() string {
	return fmt.Sprintf("%v %q: derived from both %s and %s", ErrDuplicateTargetName, e.Name, e.First, e.Second)
}

func (e *DuplicateTargetNameError) Is(target error) bool { return target == ErrDuplicateTargetName }
