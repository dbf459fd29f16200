// Package ptm reads PolyTracker modules.
package ptm

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding/charmap"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/layout"
	"github.com/simonhull/chipmeta/internal/registry"
	"github.com/simonhull/chipmeta/internal/types"
)

// Magic is the signature at 0x2C.
const Magic = "PTMF"

const (
	maxChannels  = 32
	sampleTable  = 0x260
	sampleStride = 0x50
)

// File is a decoded PTM header and sample table.
type File struct {
	SongName         string
	Version          uint16 // BCD, 0x0203 for PolyTracker 2.03
	TotalOrders      uint16
	TotalInstruments uint16
	TotalPatterns    uint16
	Channels         uint16
	Flags            uint16
	Signature        string
	Panning          uint8 // first channel
	ChannelPanning   []uint8
	Orders           []uint8
	Samples          []Sample
}

// Sample is one PTMS sample header.
type Sample struct {
	Type      uint8 // bits 0-1: 0 none, 1 sample, 2 OPL, 3 MIDI; bit 2 loop; bit 4 16-bit
	Filename  string
	Volume    uint8
	C4Speed   uint16
	Offset    uint32
	Length    uint32
	LoopBegin uint32
	LoopEnd   uint32
	Name      string
}

var header = []layout.Field[File]{
	layout.Text("song name", 0x00, 28, func(f *File, v string) { f.SongName = v }),
	layout.U16("version", 0x1D, func(f *File, v uint16) { f.Version = v }),
	layout.U16("order count", 0x20, func(f *File, v uint16) { f.TotalOrders = v }),
	layout.U16("instrument count", 0x22, func(f *File, v uint16) { f.TotalInstruments = v }),
	layout.U16("pattern count", 0x24, func(f *File, v uint16) { f.TotalPatterns = v }),
	layout.U16("channel count", 0x26, func(f *File, v uint16) { f.Channels = v }),
	layout.U16("flags", 0x28, func(f *File, v uint16) { f.Flags = v }),
	layout.Raw("signature", 0x2C, 4, func(f *File, v []byte) { f.Signature = string(v) }),
	layout.Raw("channel panning", 0x40, maxChannels, func(f *File, v []byte) {
		f.Panning = v[0]
		f.ChannelPanning = v
	}),
	layout.Raw("orders", 0x60, 256, func(f *File, v []byte) { f.Orders = v }),
}

var sampleFields = []layout.Field[Sample]{
	layout.U8("sample type", 0x00, func(s *Sample, v uint8) { s.Type = v }),
	layout.Text("sample filename", 0x01, 12, func(s *Sample, v string) { s.Filename = v }),
	layout.U8("sample volume", 0x0D, func(s *Sample, v uint8) { s.Volume = v }),
	layout.U16("c4 speed", 0x0E, func(s *Sample, v uint16) { s.C4Speed = v }),
	layout.U32("sample offset", 0x12, func(s *Sample, v uint32) { s.Offset = v }),
	layout.U32("sample length", 0x16, func(s *Sample, v uint32) { s.Length = v }),
	layout.U32("loop begin", 0x1A, func(s *Sample, v uint32) { s.LoopBegin = v }),
	layout.U32("loop end", 0x1E, func(s *Sample, v uint32) { s.LoopEnd = v }),
	layout.Text("sample name", 0x30, 28, func(s *Sample, v string) { s.Name = v }),
}

// Tracker formats the BCD version as "PolyTracker x.yy".
func (f *File) Tracker() string {
	return fmt.Sprintf("PolyTracker %X.%02X", f.Version>>8, f.Version&0xFF)
}

// parser implements the registry.FormatParser interface for PTM files
type parser struct{}

// Parse parses a PTM file and extracts metadata
func (p *parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.File, error) {
	c := binary.NewCursor(binary.NewSafeReader(r, size, path), binary.LittleEndian)

	rec, err := Decode(c, opts)
	if err != nil {
		return nil, err
	}

	file := &types.File{Record: rec}
	file.Tags.Title = file.Tags.SetPresent("TITLE", rec.SongName)
	file.Audio = types.AudioInfo{
		Container: "PTM",
		Tracker:   rec.Tracker(),
		Channels:  int(rec.Channels),
		Songs:     1,
		StartSong: 1,
	}
	return file, nil
}

// Decode reads a PTM header and its sample headers from c.
func Decode(c *binary.Cursor, opts types.ParseOptions) (*File, error) {
	enc := opts.TextEncoding(charmap.CodePage437)

	rec := &File{}
	if err := layout.Decode(c, rec, header, enc); err != nil {
		return nil, fmt.Errorf("read PTM header: %w", err)
	}
	if rec.Signature != Magic {
		return nil, &types.CorruptedFileError{
			Path:   c.Path(),
			Offset: 0x2C,
			Reason: "invalid PTM magic bytes",
		}
	}
	rec.ChannelPanning = rec.ChannelPanning[:min(int(rec.Channels), maxChannels)]
	rec.Orders = rec.Orders[:min(int(rec.TotalOrders), len(rec.Orders))]

	samples, err := layout.RepeatFields(c, sampleTable, sampleStride, int(rec.TotalInstruments), sampleFields, enc)
	if err != nil {
		return nil, fmt.Errorf("read PTM samples: %w", err)
	}
	rec.Samples = samples
	return rec, nil
}

func init() {
	registry.Register(types.FormatPTM, &parser{})
}
