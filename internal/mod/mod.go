// Package mod reads ProTracker-style Amiga modules.
//
// All multi-byte values are big-endian. Lengths in the sample table are
// stored in 16-bit words; the record keeps both the word and byte values.
package mod

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
	sampleCount     = 31
	sampleTable     = 0x14
	sampleStride    = 30
	orderCount      = 128
	signatureOffset = 0x438
	patternOffset   = 0x43C
	rowsPerPattern  = 64
	cellSize        = 4
)

// File is a decoded MOD module.
type File struct {
	SongTitle    string
	Samples      []Sample
	SongLength   uint8 // orders played
	RestartPos   uint8
	Orders       []uint8
	ModuleID     string // signature at 0x438, e.g. "M.K."
	Channels     int
	PatternCount int
	Patterns     []Pattern
}

// Sample is one entry of the 31-entry sample table.
type Sample struct {
	Name                string
	LengthInWords       uint16
	LengthInBytes       int
	FineTune            int8 // -8..7
	Volume              uint8
	RepeatPointInWords  uint16
	RepeatPointInBytes  int
	RepeatLengthInWords uint16
	RepeatLengthInBytes int
}

var header = []layout.Field[File]{
	layout.Text("song title", 0x00, 20, func(f *File, v string) { f.SongTitle = v }),
	layout.U8("song length", 0x3B6, func(f *File, v uint8) { f.SongLength = v }),
	layout.U8("restart position", 0x3B7, func(f *File, v uint8) { f.RestartPos = v }),
	layout.Raw("order table", 0x3B8, orderCount, func(f *File, v []byte) { f.Orders = v }),
	layout.Raw("signature", signatureOffset, 4, func(f *File, v []byte) { f.ModuleID = string(v) }),
}

var sampleFields = []layout.Field[Sample]{
	layout.Text("sample name", 0x00, 22, func(s *Sample, v string) { s.Name = v }),
	layout.U16("sample length", 0x16, func(s *Sample, v uint16) {
		s.LengthInWords = v
		s.LengthInBytes = int(v) * 2
	}),
	layout.U8("finetune", 0x18, func(s *Sample, v uint8) { s.FineTune = fineTune(v) }),
	layout.U8("volume", 0x19, func(s *Sample, v uint8) { s.Volume = v }),
	layout.U16("repeat point", 0x1A, func(s *Sample, v uint16) {
		s.RepeatPointInWords = v
		s.RepeatPointInBytes = int(v) * 2
	}),
	layout.U16("repeat length", 0x1C, func(s *Sample, v uint16) {
		s.RepeatLengthInWords = v
		s.RepeatLengthInBytes = int(v) * 2
	}),
}

// fineTune sign-extends the low nibble.
func fineTune(v uint8) int8 {
	n := int8(v & 0x0F)
	if n > 7 {
		n -= 16
	}
	return n
}

// parser implements the registry.FormatParser interface for MOD files
type parser struct{}

// Parse parses a MOD file and extracts metadata
func (p *parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.File, error) {
	c := binary.NewCursor(binary.NewSafeReader(r, size, path), binary.BigEndian)

	rec, err := Decode(c, opts)
	if err != nil {
		return nil, err
	}

	file := &types.File{Record: rec}
	file.Tags.Title = file.Tags.SetPresent("TITLE", rec.SongTitle)
	file.Audio = types.AudioInfo{
		Container: "MOD",
		Tracker:   rec.ModuleID,
		Channels:  rec.Channels,
		Songs:     1,
		StartSong: 1,
	}
	return file, nil
}

// Decode reads a MOD header, its sample table and its patterns from c.
// A module without a recognised signature is read as a 4-channel module.
func Decode(c *binary.Cursor, opts types.ParseOptions) (*File, error) {
	enc := opts.TextEncoding(charmap.ISO8859_1)

	rec := &File{}
	if err := layout.Decode(c, rec, header, enc); err != nil {
		return nil, fmt.Errorf("read MOD header: %w", err)
	}

	samples, err := layout.RepeatFields(c, sampleTable, sampleStride, sampleCount, sampleFields, enc)
	if err != nil {
		return nil, fmt.Errorf("read MOD samples: %w", err)
	}
	rec.Samples = samples

	channels, ok := types.MODChannels(rec.ModuleID)
	if !ok {
		opts.Log().Debug("unrecognised MOD signature", "signature", rec.ModuleID)
		channels = 4
	}
	rec.Channels = channels
	rec.PatternCount = patternCount(rec.Orders)

	stride := int64(rowsPerPattern * channels * cellSize)
	rec.Patterns, err = layout.Repeat(c, patternOffset, stride, rec.PatternCount, func(c *binary.Cursor, _ int) (Pattern, error) {
		return readPattern(c, channels)
	})
	if err != nil {
		return nil, fmt.Errorf("read MOD patterns: %w", err)
	}
	return rec, nil
}

// patternCount returns the highest pattern index in the order table plus
// one. Every order entry counts, played or not.
func patternCount(orders []uint8) int {
	highest := -1
	for _, o := range orders {
		highest = max(highest, int(o))
	}
	return highest + 1
}

func init() {
	registry.Register(types.FormatMOD, &parser{})
}
