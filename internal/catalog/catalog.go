// Package catalog holds what the local and remote catalog builders share.
//
// Building a catalog never fails because of a single bad entry. An archive
// without a readable descriptor, or a remote page without the required
// fields, is reported as an EntryError and left out of the catalog.
package catalog

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrDescriptorMissing = errors.New("catalog: info.json not found")
	ErrInvalidArchive    = errors.New("catalog: invalid archive")
	ErrFieldMissing      = errors.New("catalog: required field missing")
	ErrInvalidID         = errors.New("catalog: invalid resource id")
	ErrDuplicate         = errors.New("catalog: duplicate resource")
)

// EntryError reports a single entry that was left out of a catalog.
type EntryError struct {
	// Source is the archive path or the remote resource id.
	Source string
	Err    error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}
