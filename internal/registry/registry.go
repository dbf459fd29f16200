// Package registry manages format-specific parsers for music file types.
package registry

import (
	"io"
	"sync"

	"github.com/simonhull/chipmeta/internal/types"
)

// FormatParser is the interface all format parsers implement.
type FormatParser interface {
	// Parse extracts metadata from a music file.
	// Returns a File with Record, Tags, Audio and Warnings populated;
	// Path, Format and Size are set by the caller.
	Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.File, error)
}

// ParserFunc adapts a plain function to FormatParser.
type ParserFunc func(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.File, error)

// Parse calls f.
func (f ParserFunc) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.File, error) {
	return f(r, size, path, opts)
}

var (
	mu      sync.RWMutex
	parsers = make(map[types.Format]FormatParser)
)

// Register registers a parser for a format.
// This is called by format packages during initialization (init functions).
func Register(format types.Format, parser FormatParser) {
	mu.Lock()
	defer mu.Unlock()
	parsers[format] = parser
}

// Get returns the parser for a given format.
// Returns nil if no parser is registered for the format.
func Get(format types.Format) FormatParser {
	mu.RLock()
	defer mu.RUnlock()
	return parsers[format]
}

// Formats returns the formats that have a registered parser.
func Formats() []types.Format {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]types.Format, 0, len(parsers))
	for _, f := range types.AllFormats() {
		if _, ok := parsers[f]; ok {
			out = append(out, f)
		}
	}
	return out
}
