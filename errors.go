package chipmeta

import (
	"github.com/simonhull/chipmeta/internal/types"
)

// OutOfBoundsError is an alias to types.OutOfBoundsError.
type OutOfBoundsError = types.OutOfBoundsError

// UnsupportedFormatError is an alias to types.UnsupportedFormatError.
type UnsupportedFormatError = types.UnsupportedFormatError

// CorruptedFileError is an alias to types.CorruptedFileError.
type CorruptedFileError = types.CorruptedFileError

// Warning is an alias to types.Warning.
type Warning = types.Warning

// Sentinels matched by OutOfBoundsError through errors.Is.
var (
	// ErrTruncatedRead: a read started inside the file but ran past its end.
	ErrTruncatedRead = types.ErrTruncatedRead

	// ErrOutOfRange: an offset lies outside the file.
	ErrOutOfRange = types.ErrOutOfRange
)
