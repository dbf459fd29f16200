package it

import (
	"golang.org/x/text/encoding"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/layout"
)

const sampleStride = 0x50

// Sample flag bits.
const (
	SampleAssociated      = 0x01
	Sample16Bit           = 0x02
	SampleStereo          = 0x04
	SampleCompressed      = 0x08
	SampleLoop            = 0x10
	SampleSustainLoop     = 0x20
	SamplePingPong        = 0x40
	SampleSustainPingPong = 0x80
)

// Sample is one IMPS record.
type Sample struct {
	SampleID            string
	DOSFilename         string
	GlobalVolume        uint8
	Flags               uint8
	DefaultVolume       uint8
	SampleName          string
	Convert             uint8
	DefaultPan          uint8
	Length              uint32 // in samples
	LoopBegin           uint32
	LoopEnd             uint32
	C5Speed             uint32
	SustainLoopBegin    uint32
	SustainLoopEnd      uint32
	SamplePointer       uint32
	VibratoSpeed        uint8
	VibratoDepth        uint8
	VibratoRate         uint8
	VibratoType         uint8
	HasSampleData       bool
	Is16Bit             bool
	IsStereo            bool
	IsCompressed        bool
	IsLooped            bool
	UsesSustainLoop     bool
	UsesPingPongLoop    bool
	UsesSustainPingPong bool
	IsSigned            bool // convert bit 0
}

var sampleFields = []layout.Field[Sample]{
	layout.Raw("sample id", 0x00, 4, func(s *Sample, v []byte) { s.SampleID = string(v) }),
	layout.Text("sample filename", 0x04, 13, func(s *Sample, v string) { s.DOSFilename = v }),
	layout.U8("sample global volume", 0x11, func(s *Sample, v uint8) { s.GlobalVolume = v }),
	layout.U8("sample flags", 0x12, func(s *Sample, v uint8) {
		s.Flags = v
		s.HasSampleData = layout.Bit(v, SampleAssociated)
		s.Is16Bit = layout.Bit(v, Sample16Bit)
		s.IsStereo = layout.Bit(v, SampleStereo)
		s.IsCompressed = layout.Bit(v, SampleCompressed)
		s.IsLooped = layout.Bit(v, SampleLoop)
		s.UsesSustainLoop = layout.Bit(v, SampleSustainLoop)
		s.UsesPingPongLoop = layout.Bit(v, SamplePingPong)
		s.UsesSustainPingPong = layout.Bit(v, SampleSustainPingPong)
	}),
	layout.U8("default volume", 0x13, func(s *Sample, v uint8) { s.DefaultVolume = v }),
	layout.Text("sample name", 0x14, 26, func(s *Sample, v string) { s.SampleName = v }),
	layout.U8("convert", 0x2E, func(s *Sample, v uint8) {
		s.Convert = v
		s.IsSigned = layout.Bit(v, 0x01)
	}),
	layout.U8("default pan", 0x2F, func(s *Sample, v uint8) { s.DefaultPan = v }),
	layout.U32("length", 0x30, func(s *Sample, v uint32) { s.Length = v }),
	layout.U32("loop begin", 0x34, func(s *Sample, v uint32) { s.LoopBegin = v }),
	layout.U32("loop end", 0x38, func(s *Sample, v uint32) { s.LoopEnd = v }),
	layout.U32("c5 speed", 0x3C, func(s *Sample, v uint32) { s.C5Speed = v }),
	layout.U32("sustain loop begin", 0x40, func(s *Sample, v uint32) { s.SustainLoopBegin = v }),
	layout.U32("sustain loop end", 0x44, func(s *Sample, v uint32) { s.SustainLoopEnd = v }),
	layout.U32("sample pointer", 0x48, func(s *Sample, v uint32) { s.SamplePointer = v }),
	layout.U8("vibrato speed", 0x4C, func(s *Sample, v uint8) { s.VibratoSpeed = v }),
	layout.U8("vibrato depth", 0x4D, func(s *Sample, v uint8) { s.VibratoDepth = v }),
	layout.U8("vibrato rate", 0x4E, func(s *Sample, v uint8) { s.VibratoRate = v }),
	layout.U8("vibrato type", 0x4F, func(s *Sample, v uint8) { s.VibratoType = v }),
}

// readSamples reads count samples laid out back to back from the first
// entry of the pointer table at ptrs.
func readSamples(c *binary.Cursor, ptrs int64, count int, enc encoding.Encoding) ([]Sample, error) {
	if count == 0 {
		return []Sample{}, nil
	}
	base, err := firstPointer(c, ptrs, "sample pointer")
	if err != nil {
		return nil, err
	}
	return layout.RepeatFields(c, base, sampleStride, count, sampleFields, enc)
}
