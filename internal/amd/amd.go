// Package amd reads AMusic AdLib modules. The format has no signature;
// files are recognised by extension.
package amd

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding/charmap"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/layout"
	"github.com/simonhull/chipmeta/internal/registry"
	"github.com/simonhull/chipmeta/internal/types"
)

const (
	instrumentTable  = 0x30
	instrumentStride = 34
	instrumentCount  = 26
	adlibChannels    = 9
)

// File is a decoded AMD header.
type File struct {
	SongName      string
	Artist        string
	Instruments   []Instrument
	SongLength    uint8
	TotalPatterns uint8
	Version       uint8 // 0x10 for packed modules
}

// Instrument is an AdLib instrument: a name and eleven OPL2 register
// values.
type Instrument struct {
	Name      string
	Registers []byte
}

var header = []layout.Field[File]{
	layout.Text("song name", 0x00, 24, func(f *File, v string) { f.SongName = v }),
	layout.Text("artist", 0x18, 24, func(f *File, v string) { f.Artist = v }),
	layout.U8("song length", 0x3A4, func(f *File, v uint8) { f.SongLength = v }),
	layout.U8("pattern count", 0x3A5, func(f *File, v uint8) { f.TotalPatterns = v }),
	layout.U8("version", 0x42F, func(f *File, v uint8) { f.Version = v }),
}

var instrumentFields = []layout.Field[Instrument]{
	layout.Text("instrument name", 0x00, 23, func(i *Instrument, v string) { i.Name = v }),
	layout.Raw("instrument registers", 0x17, 11, func(i *Instrument, v []byte) { i.Registers = v }),
}

// IsPacked reports whether pattern data is stored packed.
func (f *File) IsPacked() bool {
	return f.Version == 0x10
}

// parser implements the registry.FormatParser interface for AMD files
type parser struct{}

// Parse parses an AMD file and extracts metadata
func (p *parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.File, error) {
	c := binary.NewCursor(binary.NewSafeReader(r, size, path), binary.LittleEndian)

	rec, err := Decode(c, opts)
	if err != nil {
		return nil, err
	}

	file := &types.File{Record: rec}
	file.Tags.Title = file.Tags.SetPresent("TITLE", rec.SongName)
	file.Tags.Artist = file.Tags.SetPresent("ARTIST", rec.Artist)
	file.Audio = types.AudioInfo{
		Container: "AMD",
		Chip:      "OPL2",
		Channels:  adlibChannels,
		Songs:     1,
		StartSong: 1,
	}
	return file, nil
}

// Decode reads an AMD header and its instrument table from c.
func Decode(c *binary.Cursor, opts types.ParseOptions) (*File, error) {
	enc := opts.TextEncoding(charmap.CodePage437)

	rec := &File{}
	if err := layout.Decode(c, rec, header, enc); err != nil {
		return nil, fmt.Errorf("read AMD header: %w", err)
	}
	instruments, err := layout.RepeatFields(c, instrumentTable, instrumentStride, instrumentCount, instrumentFields, enc)
	if err != nil {
		return nil, fmt.Errorf("read AMD instruments: %w", err)
	}
	rec.Instruments = instruments
	return rec, nil
}

func init() {
	registry.Register(types.FormatAMD, &parser{})
}
