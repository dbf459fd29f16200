// Package stm reads Scream Tracker 2 modules.
//
// STM has no strict signature: the tracker name at 0x14 is free text
// ("!Scream!", "BMOD2STM", ...). Files are recognised by extension.
package stm

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding/charmap"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/layout"
	"github.com/simonhull/chipmeta/internal/registry"
	"github.com/simonhull/chipmeta/internal/types"
)

// File types at 0x1D.
const (
	TypeSong   = 1
	TypeModule = 2
)

const (
	sampleCount  = 31
	sampleTable  = 0x30
	sampleStride = 32
	orderTable   = 0x410
	orderCount   = 128
	orderEnd     = 99
	channels     = 4
)

// File is a decoded STM header.
type File struct {
	SongName      string
	TrackerName   string
	FileType      uint8
	VersionMajor  uint8
	VersionMinor  uint8
	Tempo         uint8 // high nibble: ticks per row
	TotalPatterns uint8
	GlobalVolume  uint8
	Samples       []Sample
	Orders        []uint8 // nil when the file ends before the order table
}

// Sample is one 32-byte instrument header.
type Sample struct {
	Filename  string
	Length    uint16
	LoopStart uint16
	LoopEnd   uint16
	Volume    uint8
	C3Speed   uint16
}

// HasLoop reports whether the sample loops. 0xFFFF marks no loop end.
func (s Sample) HasLoop() bool {
	return s.LoopEnd != 0xFFFF && s.LoopEnd > s.LoopStart
}

var header = []layout.Field[File]{
	layout.Text("song name", 0x00, 20, func(f *File, v string) { f.SongName = v }),
	layout.Text("tracker name", 0x14, 8, func(f *File, v string) { f.TrackerName = v }),
	layout.U8("file type", 0x1D, func(f *File, v uint8) { f.FileType = v }),
	layout.U8("version major", 0x1E, func(f *File, v uint8) { f.VersionMajor = v }),
	layout.U8("version minor", 0x1F, func(f *File, v uint8) { f.VersionMinor = v }),
	layout.U8("tempo", 0x20, func(f *File, v uint8) { f.Tempo = v }),
	layout.U8("pattern count", 0x21, func(f *File, v uint8) { f.TotalPatterns = v }),
	layout.U8("global volume", 0x22, func(f *File, v uint8) { f.GlobalVolume = v }),
}

var sampleFields = []layout.Field[Sample]{
	layout.Text("sample filename", 0x00, 12, func(s *Sample, v string) { s.Filename = v }),
	layout.U16("sample length", 0x10, func(s *Sample, v uint16) { s.Length = v }),
	layout.U16("loop start", 0x12, func(s *Sample, v uint16) { s.LoopStart = v }),
	layout.U16("loop end", 0x14, func(s *Sample, v uint16) { s.LoopEnd = v }),
	layout.U8("sample volume", 0x16, func(s *Sample, v uint8) { s.Volume = v }),
	layout.U16("c3 speed", 0x18, func(s *Sample, v uint16) { s.C3Speed = v }),
}

// Speed returns the ticks per row held in the tempo byte.
func (f *File) Speed() int {
	return int(f.Tempo >> 4)
}

// Version formats the tracker version as "major.minor".
func (f *File) Version() string {
	return fmt.Sprintf("%d.%02d", f.VersionMajor, f.VersionMinor)
}

// SongOrders returns the order list up to its end marker.
func (f *File) SongOrders() []uint8 {
	for i, o := range f.Orders {
		if o >= orderEnd {
			return f.Orders[:i]
		}
	}
	return f.Orders
}

// parser implements the registry.FormatParser interface for STM files
type parser struct{}

// Parse parses an STM file and extracts metadata
func (p *parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.File, error) {
	c := binary.NewCursor(binary.NewSafeReader(r, size, path), binary.LittleEndian)

	rec, err := Decode(c, opts)
	if err != nil {
		return nil, err
	}

	file := &types.File{Record: rec}
	file.Tags.Title = file.Tags.SetPresent("TITLE", rec.SongName)
	file.Tags.SetPresent("TRACKER", rec.TrackerName)
	file.Audio = types.AudioInfo{
		Container: "STM",
		Tracker:   "Scream Tracker " + rec.Version(),
		Channels:  channels,
		Songs:     1,
		StartSong: 1,
	}
	return file, nil
}

// Decode reads an STM header, its sample table and, when present, the
// order list.
func Decode(c *binary.Cursor, opts types.ParseOptions) (*File, error) {
	enc := opts.TextEncoding(charmap.CodePage437)

	rec := &File{}
	if err := layout.Decode(c, rec, header, enc); err != nil {
		return nil, fmt.Errorf("read STM header: %w", err)
	}

	samples, err := layout.RepeatFields(c, sampleTable, sampleStride, sampleCount, sampleFields, enc)
	if err != nil {
		return nil, fmt.Errorf("read STM samples: %w", err)
	}
	rec.Samples = samples

	if c.Size() < orderTable+orderCount {
		opts.Log().Debug("STM order table missing", "size", c.Size())
		return rec, nil
	}
	if err := c.Seek(orderTable); err != nil {
		return nil, err
	}
	if rec.Orders, err = c.Bytes(orderCount, "order table"); err != nil {
		return nil, fmt.Errorf("read STM orders: %w", err)
	}
	return rec, nil
}

func init() {
	registry.Register(types.FormatSTM, &parser{})
}
