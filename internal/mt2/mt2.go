// Package mt2 reads MadTracker 2 modules.
//
// The fixed header is followed by an optional drum block (skipped by its
// declared length) and an "additional data" region holding a little-endian
// chunk list: TRKS, MSG and SUM are decoded, the rest is skipped.
package mt2

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/layout"
	"github.com/simonhull/chipmeta/internal/registry"
	"github.com/simonhull/chipmeta/internal/types"
)

// Magic is the 4-byte MT2 signature.
const Magic = "MT20"

// Header flag bits at 0x76.
const (
	FlagPackedPatterns   = 0x01
	FlagAutomation       = 0x02
	FlagDrumAutomation   = 0x08
	FlagMasterAutomation = 0x10
)

const (
	orderCount       = 256
	drumLengthOffset = 0x17E
	drumDataOffset   = 0x180
	drumSampleCount  = 8
)

// File is a decoded MT2 module.
type File struct {
	HeaderID         string
	Version          int16
	TrackerName      string
	Title            string
	TotalPositions   uint16
	RestartPosition  uint16
	TotalPatterns    uint16
	TotalTracks      uint16
	SamplesPerTick   uint16
	TicksPerLine     uint8
	LinesPerBeat     uint8
	Flags            uint32
	TotalInstruments uint16
	TotalSamples     uint16
	PatternOrders    []uint8

	HasPackedPatterns   bool
	HasAutomation       bool
	HasDrumAutomation   bool
	HasMasterAutomation bool

	Drums DrumData

	// Chunks holds the additional-data chunk list; HasChunks is false when
	// the file ends before it.
	HasChunks bool
	Chunks    Chunks
}

// DrumData is the optional drum block.
type DrumData struct {
	Length        uint16 // declared length; 0 means no drum data
	TotalPatterns uint16
	Samples       []int16
	PatternOrders []uint8
}

// IsEmpty reports whether the file declares no drum data.
func (d DrumData) IsEmpty() bool {
	return d.Length == 0
}

var header = []layout.Field[File]{
	layout.Raw("header id", 0x00, 4, func(f *File, v []byte) { f.HeaderID = string(v) }),
	layout.I16("version", 0x08, func(f *File, v int16) { f.Version = v }),
	layout.Text("tracker name", 0x0A, 32, func(f *File, v string) { f.TrackerName = v }),
	layout.Text("title", 0x2A, 64, func(f *File, v string) { f.Title = v }),
	layout.U16("position count", 0x6A, func(f *File, v uint16) { f.TotalPositions = v }),
	layout.U16("restart position", 0x6C, func(f *File, v uint16) { f.RestartPosition = v }),
	layout.U16("pattern count", 0x6E, func(f *File, v uint16) { f.TotalPatterns = v }),
	layout.U16("track count", 0x70, func(f *File, v uint16) { f.TotalTracks = v }),
	layout.U16("samples per tick", 0x72, func(f *File, v uint16) { f.SamplesPerTick = v }),
	layout.U8("ticks per line", 0x74, func(f *File, v uint8) { f.TicksPerLine = v }),
	layout.U8("lines per beat", 0x75, func(f *File, v uint8) { f.LinesPerBeat = v }),
	layout.U32("flags", 0x76, func(f *File, v uint32) {
		f.Flags = v
		f.HasPackedPatterns = layout.Bit(v, FlagPackedPatterns)
		f.HasAutomation = layout.Bit(v, FlagAutomation)
		f.HasDrumAutomation = layout.Bit(v, FlagDrumAutomation)
		f.HasMasterAutomation = layout.Bit(v, FlagMasterAutomation)
	}),
	layout.U16("instrument count", 0x7A, func(f *File, v uint16) { f.TotalInstruments = v }),
	layout.U16("sample count", 0x7C, func(f *File, v uint16) { f.TotalSamples = v }),
	layout.Raw("pattern orders", 0x7E, orderCount, func(f *File, v []byte) { f.PatternOrders = v }),
	layout.U16("drum data length", drumLengthOffset, func(f *File, v uint16) { f.Drums.Length = v }),
}

// readDrums decodes the drum block at 0x180. Reads stay inside the declared
// length, so a block declared shorter than its fields fails instead of
// reading the additional-data length word; the caller skips by the length.
func readDrums(c *binary.Cursor, d *DrumData) error {
	if err := c.Seek(drumDataOffset); err != nil {
		return err
	}
	ch := binary.NewChain(c.Limit(int64(d.Length)))
	d.TotalPatterns = ch.U16("drum pattern count")
	d.Samples = make([]int16, drumSampleCount)
	for i := range d.Samples {
		d.Samples[i] = ch.I16("drum sample")
	}
	d.PatternOrders = ch.Bytes(orderCount, "drum orders")
	return ch.Err()
}

// Orders returns the pattern orders that are played.
func (f *File) Orders() []uint8 {
	return f.PatternOrders[:min(int(f.TotalPositions), len(f.PatternOrders))]
}

// parser implements the registry.FormatParser interface for MT2 files
type parser struct{}

// Parse parses an MT2 file and extracts metadata
func (p *parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.File, error) {
	c := binary.NewCursor(binary.NewSafeReader(r, size, path), binary.LittleEndian)
	file := &types.File{}

	rec, err := Decode(c, file, opts)
	if err != nil {
		return nil, err
	}

	file.Record = rec
	file.Tags.Title = file.Tags.SetPresent("TITLE", rec.Title)
	file.Tags.SetPresent("TRACKER", rec.TrackerName)
	file.Tags.Comment = file.Tags.SetPresent("COMMENT", rec.Chunks.Comment())
	if rec.Chunks.Summary != nil {
		file.Tags.SetPresent("SUMMARY", rec.Chunks.Summary.Content)
	}

	tracker := rec.TrackerName
	if tracker == "" {
		tracker = "MadTracker 2"
	}
	file.Audio = types.AudioInfo{
		Container: "MT2",
		Tracker:   tracker,
		Channels:  int(rec.TotalTracks),
		Songs:     1,
		StartSong: 1,
	}
	return file, nil
}

// Decode reads the MT2 header, the drum block and the additional-data
// chunk list from c.
func Decode(c *binary.Cursor, file *types.File, opts types.ParseOptions) (*File, error) {
	enc := opts.TextEncoding(charmap.ISO8859_1)

	rec := &File{}
	if err := layout.Decode(c, rec, header, enc); err != nil {
		return nil, fmt.Errorf("read MT2 header: %w", err)
	}
	if rec.HeaderID != Magic {
		return nil, &types.CorruptedFileError{
			Path:   c.Path(),
			Offset: 0,
			Reason: "invalid MT2 magic bytes",
		}
	}

	if !rec.Drums.IsEmpty() {
		if err := readDrums(c, &rec.Drums); err != nil {
			return nil, fmt.Errorf("read MT2 drum data: %w", err)
		}
	}

	if err := rec.readChunks(c, file, enc, opts.Log()); err != nil {
		return nil, err
	}
	return rec, nil
}

// comment joins MSG texts, normalising line endings.
func comment(parts []string) string {
	s := strings.Join(parts, "\n")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func init() {
	registry.Register(types.FormatMT2, &parser{})
}
