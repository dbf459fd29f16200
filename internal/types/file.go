// Package types provides core data structures for music file metadata.
//
// This package defines the File, Tags, AudioInfo and Format types that
// represent parsed file information across all supported formats, plus the
// options every format parser receives.
package types

import (
	"log/slog"

	"golang.org/x/text/encoding"
)

// File represents a parsed music file.
//
// File provides access to format-agnostic metadata (Tags), declared
// playback properties (AudioInfo) and the complete format-specific record.
//
// The source is read once and released before Open returns; a File holds
// no open handle and never changes afterwards.
//
//	file, err := chipmeta.Open("castlevania.nsf")
//	if err != nil {
//		return err
//	}
//	nsf := file.Record.(*chipmeta.NSF)
type File struct {
	// Record is the format-specific value: *spc.File, *nsf.File, ...
	// The root package exposes aliases for every record type.
	Record   any
	Path     string
	Warnings []Warning
	Tags     Tags
	Audio    AudioInfo
	Format   Format
	Size     int64
}

// Warn records a non-fatal issue.
func (f *File) Warn(stage string, offset int64, message string) {
	f.Warnings = append(f.Warnings, Warning{Stage: stage, Message: message, Offset: offset})
}

// ParseOptions carries the caller's choices into a format parser.
type ParseOptions struct {
	// Encoding overrides the format's default text decoder when non-nil.
	Encoding encoding.Encoding

	// Logger receives debug records for skipped chunks and clamped values.
	// Never nil when passed to a parser.
	Logger *slog.Logger
}

// TextEncoding returns the override encoding, or def when none was set.
func (o ParseOptions) TextEncoding(def encoding.Encoding) encoding.Encoding {
	if o.Encoding != nil {
		return o.Encoding
	}
	return def
}

// Log returns the logger, falling back to a discarding one.
func (o ParseOptions) Log() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}
