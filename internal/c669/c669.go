// Package c669 reads Composer 669 and UNIS 669 modules.
package c669

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

// Signatures at offset 0.
const (
	MagicComposer = "if"
	MagicUNIS     = "JN"
)

const (
	commentLines   = 3
	commentWidth   = 36
	sampleTable    = 0x1F1
	sampleStride   = 25
	channels       = 8
	sequenceLength = 128
)

// File is a decoded 669 header.
type File struct {
	HeaderID      string
	Comment       string   // the three comment lines joined with "\n"
	CommentLines  []string // each line trimmed
	TotalSamples  uint8
	TotalPatterns uint8
	LoopOrder     uint8
	Orders        []uint8 // 0xFF ends the song
	Tempos        []uint8 // per pattern
	Breaks        []uint8 // per pattern: last row played
	Samples       []Sample
}

// Sample is one 25-byte sample header.
type Sample struct {
	Name      string
	Length    uint32
	LoopStart uint32
	LoopEnd   uint32
}

// HasLoop reports whether the sample loops.
func (s Sample) HasLoop() bool {
	return s.LoopEnd > s.LoopStart && s.LoopEnd <= s.Length
}

var header = []layout.Field[File]{
	layout.Raw("header id", 0x00, 2, func(f *File, v []byte) { f.HeaderID = string(v) }),
	layout.U8("sample count", 0x6E, func(f *File, v uint8) { f.TotalSamples = v }),
	layout.U8("pattern count", 0x6F, func(f *File, v uint8) { f.TotalPatterns = v }),
	layout.U8("loop order", 0x70, func(f *File, v uint8) { f.LoopOrder = v }),
	layout.Raw("orders", 0x71, sequenceLength, func(f *File, v []byte) { f.Orders = v }),
	layout.Raw("tempos", 0xF1, sequenceLength, func(f *File, v []byte) { f.Tempos = v }),
	layout.Raw("breaks", 0x171, sequenceLength, func(f *File, v []byte) { f.Breaks = v }),
}

// commentFields reads the three fixed-width comment lines.
func commentFields() []layout.Field[File] {
	fields := make([]layout.Field[File], commentLines)
	for i := range fields {
		fields[i] = layout.Text(fmt.Sprintf("comment line %d", i+1), int64(0x02+i*commentWidth), commentWidth,
			func(f *File, v string) { f.CommentLines = append(f.CommentLines, v) })
	}
	return fields
}

var sampleFields = []layout.Field[Sample]{
	layout.Text("sample name", 0x00, 13, func(s *Sample, v string) { s.Name = v }),
	layout.U32("sample length", 0x0D, func(s *Sample, v uint32) { s.Length = v }),
	layout.U32("loop start", 0x11, func(s *Sample, v uint32) { s.LoopStart = v }),
	layout.U32("loop end", 0x15, func(s *Sample, v uint32) { s.LoopEnd = v }),
}

// Tracker names the program that wrote the file.
func (f *File) Tracker() string {
	if f.HeaderID == MagicUNIS {
		return "UNIS 669"
	}
	return "Composer 669"
}

// parser implements the registry.FormatParser interface for 669 files
type parser struct{}

// Parse parses a 669 file and extracts metadata
func (p *parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.File, error) {
	c := binary.NewCursor(binary.NewSafeReader(r, size, path), binary.LittleEndian)

	rec, err := Decode(c, opts)
	if err != nil {
		return nil, err
	}

	file := &types.File{Record: rec}
	file.Tags.Comment = file.Tags.SetPresent("COMMENT", rec.Comment)
	// The first comment line is where composers put the song title.
	file.Tags.Title = file.Tags.SetPresent("TITLE", rec.CommentLines[0])
	file.Audio = types.AudioInfo{
		Container: "669",
		Tracker:   rec.Tracker(),
		Channels:  channels,
		Songs:     1,
		StartSong: 1,
	}
	return file, nil
}

// Decode reads a 669 header and its sample table from c.
func Decode(c *binary.Cursor, opts types.ParseOptions) (*File, error) {
	enc := opts.TextEncoding(charmap.CodePage437)

	rec := &File{}
	if err := layout.Decode(c, rec, header, enc); err != nil {
		return nil, fmt.Errorf("read 669 header: %w", err)
	}
	if rec.HeaderID != MagicComposer && rec.HeaderID != MagicUNIS {
		return nil, &types.CorruptedFileError{
			Path:   c.Path(),
			Offset: 0,
			Reason: "invalid 669 magic bytes",
		}
	}
	if err := layout.Decode(c, rec, commentFields(), enc); err != nil {
		return nil, fmt.Errorf("read 669 comment: %w", err)
	}
	rec.Comment = strings.TrimRight(strings.Join(rec.CommentLines, "\n"), "\n")

	samples, err := layout.RepeatFields(c, sampleTable, sampleStride, int(rec.TotalSamples), sampleFields, enc)
	if err != nil {
		return nil, fmt.Errorf("read 669 samples: %w", err)
	}
	rec.Samples = samples
	return rec, nil
}

// SongOrders returns the order list up to its 0xFF terminator.
func (f *File) SongOrders() []uint8 {
	for i, o := range f.Orders {
		if o == 0xFF {
			return f.Orders[:i]
		}
	}
	return f.Orders
}

func init() {
	registry.Register(types.Format669, &parser{})
}
