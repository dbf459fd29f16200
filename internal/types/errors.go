package types

import (
	"fmt"

	"github.com/simonhull/chipmeta/internal/binary"
)

// OutOfBoundsError is returned when a read or seek leaves the file.
//
// errors.Is(err, binary.ErrTruncatedRead) holds when the read started inside
// the file but ran past its end; errors.Is(err, binary.ErrOutOfRange) holds
// when the offset itself lies outside the file.
type OutOfBoundsError = binary.OutOfBoundsError

// Sentinels matched by OutOfBoundsError.
var (
	ErrTruncatedRead = binary.ErrTruncatedRead
	ErrOutOfRange    = binary.ErrOutOfRange
)

// UnsupportedFormatError is returned when the file format is not recognized.
type UnsupportedFormatError struct {
	Path   string
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: unsupported format: %s", e.Path, e.Reason)
}

// CorruptedFileError is returned when file structure is invalid.
type CorruptedFileError struct {
	Path   string
	Reason string
	Offset int64
}

func (e *CorruptedFileError) Error() string {
	return fmt.Sprintf("%s: corrupted file at offset %d: %s", e.Path, e.Offset, e.Reason)
}

// Warning represents a non-fatal issue encountered during parsing.
//
// Warnings indicate problems that don't prevent metadata extraction but
// may indicate damaged or unusual data. Examples include:
//   - An extended tag block that ends inside a chunk
//   - A song message pointing outside the file
//   - An instrument list cut short
//
// Warnings are collected in File.Warnings during parsing.
type Warning struct {
	// Stage where the warning occurred
	Stage string // "header", "chunks", "tags", "instruments"

	// Warning message
	Message string

	// File offset where the issue occurred (0 if not applicable)
	Offset int64
}

// String returns a human-readable warning message.
func (w Warning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("%s (at offset %d): %s", w.Stage, w.Offset, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}
