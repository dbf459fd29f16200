package chipmeta

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/simonhull/chipmeta/internal/registry"
	"github.com/simonhull/chipmeta/internal/types"
)

// File is an alias to types.File: a parsed music file.
//
// Tags and Audio are the format-agnostic view; Record holds the complete
// format-specific record (*NSF, *IT, ...). A File owns no resources.
type File = types.File

// Open opens a music file and reads its metadata.
//
// The file handle is closed before Open returns, whether parsing succeeded
// or not.
//
// Options can be provided to customize parsing behavior:
//
//	file, err := chipmeta.Open("song.spc",
//	    chipmeta.WithStrictParsing(),
//	)
//
// Example:
//
//	file, err := chipmeta.Open("song.sid")
//	if err != nil {
//		return err
//	}
//	fmt.Printf("%s - %s\n", file.Tags.Artist, file.Tags.Title)
func Open(path string, opts ...Option) (*File, error) {
	options := applyOptions(opts)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	return openReader(f, stat.Size(), path, options)
}

// OpenReader reads metadata from r, which holds size bytes. path is used
// for error messages and for formats recognised by extension.
func OpenReader(r io.ReaderAt, size int64, path string, opts ...Option) (*File, error) {
	return openReader(r, size, path, applyOptions(opts))
}

// OpenBytes reads metadata from an in-memory file.
func OpenBytes(data []byte, path string, opts ...Option) (*File, error) {
	return openReader(bytes.NewReader(data), int64(len(data)), path, applyOptions(opts))
}

func applyOptions(opts []Option) *openOptions {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return options
}

func openReader(r io.ReaderAt, size int64, path string, options *openOptions) (*File, error) {
	format := options.format
	if format == FormatUnknown {
		var err error
		if format, err = DetectFormat(r, size, path); err != nil {
			return nil, err
		}
	}

	parser := registry.Get(format)
	if parser == nil {
		return nil, &UnsupportedFormatError{
			Path:   path,
			Reason: fmt.Sprintf("no parser available for format %s", format),
		}
	}

	log := options.logger.With("path", path, "format", format.String())
	popts := options.parseOptions()
	popts.Logger = log

	file, err := parser.Parse(r, size, path, popts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", format, err)
	}

	file.Path = path
	file.Format = format
	file.Size = size

	for _, w := range file.Warnings {
		log.Debug("parse warning", "stage", w.Stage, "offset", w.Offset, "message", w.Message)
	}
	if options.strictParsing && len(file.Warnings) > 0 {
		return nil, fmt.Errorf("strict parsing failed: %s", file.Warnings[0])
	}
	if options.ignoreWarnings {
		file.Warnings = nil
	}
	return file, nil
}

// OpenContext opens a file with context support for cancellation.
//
// The context is checked before the file is opened; a single parse is
// short and not interrupted once started.
func OpenContext(ctx context.Context, path string, opts ...Option) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Open(path, opts...)
}

// OpenMany opens multiple files concurrently.
//
// Files are parsed in parallel using up to runtime.NumCPU() goroutines.
// Results are returned in the same order as the input paths. The first
// failure cancels the remaining parses and is returned alone.
//
// Example:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//
//	files, err := chipmeta.OpenMany(ctx, paths...)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, f := range files {
//		fmt.Printf("%s: %s\n", f.Format, f.Tags.Title)
//	}
func OpenMany(ctx context.Context, paths ...string) ([]*File, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	results := make([]*File, len(paths))
	for i, path := range paths {
		g.Go(func() error {
			file, err := OpenContext(ctx, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = file
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
