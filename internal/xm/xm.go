// Package xm reads FastTracker 2 extended modules.
package xm

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding/charmap"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/layout"
	"github.com/simonhull/chipmeta/internal/registry"
	"github.com/simonhull/chipmeta/internal/types"
)

// Magic is the 17-byte ID text every XM file starts with.
const Magic = "Extended Module: "

// headerSizeBase is the offset the header size field counts from.
const headerSizeBase = 0x3C

// FrequencyTable selects the pitch model of a module.
type FrequencyTable int

const (
	Amiga FrequencyTable = iota
	Linear
)

func (t FrequencyTable) String() string {
	if t == Linear {
		return "Linear"
	}
	return "Amiga"
}

// File is a decoded XM module header plus the names found by walking the
// pattern and instrument headers.
type File struct {
	HeaderID          string
	ModuleName        string
	ModuleTracker     string
	Version           uint16 // 0x0104 for FastTracker 2.04 files
	HeaderSize        uint32
	SongLength        uint16
	RestartPosition   uint16
	TotalChannels     uint16
	TotalPatterns     uint16
	TotalInstruments  uint16
	Flags             uint16
	FreqTableType     FrequencyTable
	DefaultTempo      uint16
	DefaultBPM        uint16
	PatternOrderTable []byte

	Patterns    []PatternHeader
	Instruments []Instrument
}

var header = []layout.Field[File]{
	layout.Raw("id text", 0x00, 17, func(f *File, v []byte) { f.HeaderID = string(v) }),
	layout.Text("module name", 0x11, 20, func(f *File, v string) { f.ModuleName = v }),
	layout.Text("tracker name", 0x26, 20, func(f *File, v string) { f.ModuleTracker = v }),
	layout.U16("version", 0x3A, func(f *File, v uint16) { f.Version = v }),
	layout.U32("header size", 0x3C, func(f *File, v uint32) { f.HeaderSize = v }),
	layout.U16("song length", 0x40, func(f *File, v uint16) { f.SongLength = v }),
	layout.U16("restart position", 0x42, func(f *File, v uint16) { f.RestartPosition = v }),
	layout.U16("channel count", 0x44, func(f *File, v uint16) { f.TotalChannels = v }),
	layout.U16("pattern count", 0x46, func(f *File, v uint16) { f.TotalPatterns = v }),
	layout.U16("instrument count", 0x48, func(f *File, v uint16) { f.TotalInstruments = v }),
	layout.U16("flags", 0x4A, func(f *File, v uint16) {
		f.Flags = v
		f.FreqTableType = Amiga
		if layout.Bit(v, 0x01) {
			f.FreqTableType = Linear
		}
	}),
	layout.U16("default tempo", 0x4C, func(f *File, v uint16) { f.DefaultTempo = v }),
	layout.U16("default bpm", 0x4E, func(f *File, v uint16) { f.DefaultBPM = v }),
	layout.Raw("pattern order table", 0x50, 256, func(f *File, v []byte) { f.PatternOrderTable = v }),
}

// Orders returns the played part of the order table.
func (f *File) Orders() []byte {
	return f.PatternOrderTable[:min(int(f.SongLength), len(f.PatternOrderTable))]
}

// parser implements the registry.FormatParser interface for XM files
type parser struct{}

// Parse parses an XM file and extracts metadata
func (p *parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.File, error) {
	c := binary.NewCursor(binary.NewSafeReader(r, size, path), binary.LittleEndian)
	file := &types.File{}

	rec, err := Decode(c, file, opts)
	if err != nil {
		return nil, err
	}

	file.Record = rec
	file.Tags.Title = file.Tags.SetPresent("TITLE", rec.ModuleName)
	file.Tags.SetPresent("TRACKER", rec.ModuleTracker)
	file.Audio = types.AudioInfo{
		Container: "XM",
		Tracker:   rec.ModuleTracker,
		Channels:  int(rec.TotalChannels),
		Songs:     1,
		StartSong: 1,
	}
	return file, nil
}

// Decode reads an XM header from c, then walks the pattern and instrument
// headers. A walk that runs off the file stops with a warning on file.
func Decode(c *binary.Cursor, file *types.File, opts types.ParseOptions) (*File, error) {
	enc := opts.TextEncoding(charmap.CodePage437)

	rec := &File{}
	if err := layout.Decode(c, rec, header, enc); err != nil {
		return nil, fmt.Errorf("read XM header: %w", err)
	}
	if rec.HeaderID != Magic {
		return nil, &types.CorruptedFileError{
			Path:   c.Path(),
			Offset: 0,
			Reason: "invalid XM magic bytes",
		}
	}

	w := &walker{c: c, file: file, rec: rec, enc: enc, log: opts.Log()}
	w.walk(headerSizeBase + int64(rec.HeaderSize))
	return rec, nil
}

func init() {
	registry.Register(types.FormatXM, &parser{})
}
