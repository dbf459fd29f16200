package xm

import (
	"fmt"
	"log/slog"

	"golang.org/x/text/encoding"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/layout"
	"github.com/simonhull/chipmeta/internal/types"
)

// PatternHeader is the fixed part of a pattern; the packed note data that
// follows it is skipped.
type PatternHeader struct {
	Offset       int64
	HeaderLength uint32
	PackingType  uint8
	Rows         uint16
	PackedSize   uint16
}

// Instrument is an instrument header and its sample headers.
type Instrument struct {
	Offset           int64
	HeaderSize       uint32
	Name             string
	Type             uint8
	SampleCount      uint16
	SampleHeaderSize uint32
	Samples          []Sample
}

// Sample is one sample header.
type Sample struct {
	Length       uint32 // bytes
	LoopStart    uint32
	LoopLength   uint32
	Volume       uint8
	FineTune     int8
	Type         uint8 // bits 0-1 loop type, bit 4 16-bit data
	Panning      uint8
	RelativeNote int8
	Name         string
}

// Is16Bit reports whether the sample data is 16-bit.
func (s Sample) Is16Bit() bool {
	return layout.Bit(s.Type, 0x10)
}

// LoopType returns 0 (none), 1 (forward) or 2 (ping-pong).
func (s Sample) LoopType() uint8 {
	return s.Type & 0x03
}

var patternFields = []layout.Field[PatternHeader]{
	layout.U32("pattern header length", 0x00, func(p *PatternHeader, v uint32) { p.HeaderLength = v }),
	layout.U8("packing type", 0x04, func(p *PatternHeader, v uint8) { p.PackingType = v }),
	layout.U16("row count", 0x05, func(p *PatternHeader, v uint16) { p.Rows = v }),
	layout.U16("packed data size", 0x07, func(p *PatternHeader, v uint16) { p.PackedSize = v }),
}

// instrumentSizeField is read alone first: the rest of the header is only
// present when the declared size covers it.
var instrumentSizeField = []layout.Field[Instrument]{
	layout.U32("instrument header size", 0x00, func(i *Instrument, v uint32) { i.HeaderSize = v }),
}

var instrumentFields = []layout.Field[Instrument]{
	layout.Text("instrument name", 0x04, 22, func(i *Instrument, v string) { i.Name = v }),
	layout.U8("instrument type", 0x1A, func(i *Instrument, v uint8) { i.Type = v }),
	layout.U16("sample count", 0x1B, func(i *Instrument, v uint16) { i.SampleCount = v }),
}

var sampleHeaderSizeField = []layout.Field[Instrument]{
	layout.U32("sample header size", 0x1D, func(i *Instrument, v uint32) { i.SampleHeaderSize = v }),
}

var sampleFields = []layout.Field[Sample]{
	layout.U32("sample length", 0x00, func(s *Sample, v uint32) { s.Length = v }),
	layout.U32("loop start", 0x04, func(s *Sample, v uint32) { s.LoopStart = v }),
	layout.U32("loop length", 0x08, func(s *Sample, v uint32) { s.LoopLength = v }),
	layout.U8("volume", 0x0C, func(s *Sample, v uint8) { s.Volume = v }),
	layout.I8("finetune", 0x0D, func(s *Sample, v int8) { s.FineTune = v }),
	layout.U8("sample type", 0x0E, func(s *Sample, v uint8) { s.Type = v }),
	layout.U8("panning", 0x0F, func(s *Sample, v uint8) { s.Panning = v }),
	layout.I8("relative note", 0x10, func(s *Sample, v int8) { s.RelativeNote = v }),
	layout.Text("sample name", 0x12, 22, func(s *Sample, v string) { s.Name = v }),
}

const (
	instrumentNameEnd = 0x1D // header bytes needed for name, type and sample count
	instrumentFullEnd = 0x21 // plus the sample header size
	minPatternHeader  = 9
)

// walker follows the variable-length records after the module header.
type walker struct {
	c    *binary.Cursor
	file *types.File
	rec  *File
	enc  encoding.Encoding
	log  *slog.Logger
}

// walk reads pattern headers then instrument headers starting at off.
// Files before version 1.04 store the instruments first.
func (w *walker) walk(off int64) {
	steps := []func(int64) (int64, error){w.patterns, w.instruments}
	if w.rec.Version < 0x0104 {
		steps[0], steps[1] = steps[1], steps[0]
	}

	w.rec.Patterns = []PatternHeader{}
	w.rec.Instruments = []Instrument{}
	for _, step := range steps {
		next, err := step(off)
		if err != nil {
			w.file.Warn("instruments", off, err.Error())
			w.log.Debug("xm walk stopped", "offset", off, "error", err)
			return
		}
		off = next
	}
}

func (w *walker) patterns(off int64) (int64, error) {
	for i := 0; i < int(w.rec.TotalPatterns); i++ {
		p := PatternHeader{Offset: off}
		if err := layout.DecodeAt(w.c, off, &p, patternFields, w.enc); err != nil {
			return off, fmt.Errorf("pattern %d: %w", i, err)
		}
		w.rec.Patterns = append(w.rec.Patterns, p)
		off += int64(max(p.HeaderLength, minPatternHeader)) + int64(p.PackedSize)
	}
	return off, nil
}

func (w *walker) instruments(off int64) (int64, error) {
	for i := 0; i < int(w.rec.TotalInstruments); i++ {
		next, err := w.instrument(off)
		if err != nil {
			return off, fmt.Errorf("instrument %d: %w", i+1, err)
		}
		off = next
	}
	return off, nil
}

// instrument reads one instrument and returns the offset after its sample
// data.
func (w *walker) instrument(off int64) (int64, error) {
	ins := Instrument{Offset: off, Samples: []Sample{}}
	if err := layout.DecodeAt(w.c, off, &ins, instrumentSizeField, w.enc); err != nil {
		return off, err
	}
	if ins.HeaderSize < 4 {
		return off, fmt.Errorf("header size %d at offset %d", ins.HeaderSize, off)
	}
	if ins.HeaderSize >= instrumentNameEnd {
		if err := layout.DecodeAt(w.c, off, &ins, instrumentFields, w.enc); err != nil {
			return off, err
		}
	}
	next := off + int64(ins.HeaderSize)
	if ins.SampleCount == 0 || ins.HeaderSize < instrumentFullEnd {
		ins.SampleCount = 0
		w.rec.Instruments = append(w.rec.Instruments, ins)
		return next, nil
	}

	if err := layout.DecodeAt(w.c, off, &ins, sampleHeaderSizeField, w.enc); err != nil {
		return off, err
	}
	samples, err := layout.RepeatFields(w.c, next, int64(ins.SampleHeaderSize), int(ins.SampleCount), sampleFields, w.enc)
	if err != nil {
		return off, err
	}
	ins.Samples = samples
	w.rec.Instruments = append(w.rec.Instruments, ins)

	next += int64(ins.SampleCount) * int64(ins.SampleHeaderSize)
	for _, s := range samples {
		next += int64(s.Length)
	}
	return next, nil
}
