package chipmeta

import (
	"log/slog"

	"golang.org/x/text/encoding"

	"github.com/simonhull/chipmeta/internal/types"
)

// Option configures behavior when opening files.
//
// Example:
//
//	file, err := chipmeta.Open("song.it",
//	    chipmeta.WithStrictParsing(),
//	    chipmeta.WithLogger(slog.Default()),
//	)
type Option func(*openOptions)

// openOptions holds configuration for opening files.
type openOptions struct {
	strictParsing  bool              // Fail on any warning
	ignoreWarnings bool              // Suppress all warnings
	logger         *slog.Logger      // Debug records from the parsers
	encoding       encoding.Encoding // Overrides the per-format text decoder
	format         Format            // Skips detection when set
}

// defaultOptions returns the default configuration.
func defaultOptions() *openOptions {
	return &openOptions{
		logger: slog.New(slog.DiscardHandler),
		format: FormatUnknown,
	}
}

func (o *openOptions) parseOptions() types.ParseOptions {
	return types.ParseOptions{Encoding: o.encoding, Logger: o.logger}
}

// WithStrictParsing treats any warning as a fatal error.
//
// By default, chipmeta keeps going when an optional region (an XID6 block,
// a PSF tag block, an MT2 chunk list) ends early, returning warnings
// alongside the parsed data.
//
// Example:
//
//	file, err := chipmeta.Open("song.spc", chipmeta.WithStrictParsing())
//	// err != nil if ANY issue is encountered
func WithStrictParsing() Option {
	return func(o *openOptions) {
		o.strictParsing = true
	}
}

// WithIgnoreWarnings suppresses all warnings.
//
// Example:
//
//	file, err := chipmeta.Open("song.xm", chipmeta.WithIgnoreWarnings())
//	// file.Warnings will always be empty
func WithIgnoreWarnings() Option {
	return func(o *openOptions) {
		o.ignoreWarnings = true
	}
}

// WithLogger attaches a structured logger. Parsers log skipped chunks,
// clamped values and missing optional regions at Debug level.
//
// chipmeta logs nothing by default.
func WithLogger(l *slog.Logger) Option {
	return func(o *openOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTextEncoding overrides the text decoder of every format.
//
// By default PC tracker text is decoded as code page 437, game-rip headers
// as Windows-1252 and Amiga module names as ISO 8859-1.
//
// Example:
//
//	file, err := chipmeta.Open("song.s3m",
//	    chipmeta.WithTextEncoding(charmap.CodePage850),
//	)
func WithTextEncoding(enc encoding.Encoding) Option {
	return func(o *openOptions) {
		o.encoding = enc
	}
}

// WithFormat skips detection and parses the file as f.
func WithFormat(f Format) Option {
	return func(o *openOptions) {
		o.format = f
	}
}
