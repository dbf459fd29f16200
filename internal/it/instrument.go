package it

import (
	"golang.org/x/text/encoding"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/layout"
)

const (
	instrumentStride = 0x22A
	keyboardOffset   = 0x40
	keyboardEntries  = 120
	envelopeOffset   = 0x130
	envelopeStride   = 0x52
	envelopeCount    = 3
	nodeOffset       = 0x06
	nodeStride       = 3
	nodeCount        = 25
)

// Envelope flag bits.
const (
	envEnabled = 0x01
	envLoop    = 0x02
	envSustain = 0x04
	envFilter  = 0x80 // pitch envelope only
)

// Envelope indexes.
const (
	VolumeEnvelope = iota
	PanningEnvelope
	PitchEnvelope
)

// Instrument is one IMPI record.
type Instrument struct {
	InstrumentID           string
	DOSFilename            string
	NewNoteAction          uint8
	DuplicateCheckType     uint8
	DuplicateCheckAction   uint8
	FadeOut                uint16
	PitchPanSeparation     int8 // -32..32
	PitchPanCenter         uint8
	GlobalVolume           uint8
	DefaultPan             uint8
	RandomVolumeVariation  uint8
	RandomPanningVariation uint8
	TrackerVersion         uint16
	NumAssociatedSamples   uint8
	InstrumentName         string
	InitialFilterCutoff    uint8
	InitialFilterResonance uint8
	MIDIChannel            uint8
	MIDIProgram            uint8
	MIDIBank               uint16
	KeyboardTable          []KeyboardEntry
	Envelopes              []Envelope // volume, panning, pitch
}

// KeyboardEntry maps one note to the note and sample actually played.
type KeyboardEntry struct {
	Note   uint8
	Sample uint8
}

// Envelope is one of an instrument's three envelopes.
type Envelope struct {
	Flags                uint8
	Enabled              bool
	Looping              bool
	SustainLoop          bool
	UseAsFilter          bool
	NumNodePoints        uint8
	LoopBeginning        uint8
	LoopEnd              uint8
	SustainLoopBeginning uint8
	SustainLoopEnd       uint8
	NodePoints           []NodePoint
}

// NodePoint is one envelope node.
type NodePoint struct {
	Y    int8
	Tick uint16
}

// ActiveNodes returns the node points the envelope uses.
func (e Envelope) ActiveNodes() []NodePoint {
	return e.NodePoints[:min(int(e.NumNodePoints), len(e.NodePoints))]
}

var instrumentFields = []layout.Field[Instrument]{
	layout.Raw("instrument id", 0x00, 4, func(i *Instrument, v []byte) { i.InstrumentID = string(v) }),
	layout.Text("instrument filename", 0x04, 13, func(i *Instrument, v string) { i.DOSFilename = v }),
	layout.U8("new note action", 0x11, func(i *Instrument, v uint8) { i.NewNoteAction = v }),
	layout.U8("duplicate check type", 0x12, func(i *Instrument, v uint8) { i.DuplicateCheckType = v }),
	layout.U8("duplicate check action", 0x13, func(i *Instrument, v uint8) { i.DuplicateCheckAction = v }),
	layout.U16("fadeout", 0x14, func(i *Instrument, v uint16) { i.FadeOut = v }),
	layout.I8("pitch pan separation", 0x16, func(i *Instrument, v int8) { i.PitchPanSeparation = v }),
	layout.U8("pitch pan center", 0x17, func(i *Instrument, v uint8) { i.PitchPanCenter = v }),
	layout.U8("instrument global volume", 0x18, func(i *Instrument, v uint8) { i.GlobalVolume = v }),
	layout.U8("default pan", 0x19, func(i *Instrument, v uint8) { i.DefaultPan = v }),
	layout.U8("random volume", 0x1A, func(i *Instrument, v uint8) { i.RandomVolumeVariation = v }),
	layout.U8("random panning", 0x1B, func(i *Instrument, v uint8) { i.RandomPanningVariation = v }),
	layout.U16("tracker version", 0x1C, func(i *Instrument, v uint16) { i.TrackerVersion = v }),
	layout.U8("sample count", 0x1E, func(i *Instrument, v uint8) { i.NumAssociatedSamples = v }),
	layout.Text("instrument name", 0x20, 26, func(i *Instrument, v string) { i.InstrumentName = v }),
	layout.U8("filter cutoff", 0x3A, func(i *Instrument, v uint8) { i.InitialFilterCutoff = v }),
	layout.U8("filter resonance", 0x3B, func(i *Instrument, v uint8) { i.InitialFilterResonance = v }),
	layout.U8("midi channel", 0x3C, func(i *Instrument, v uint8) { i.MIDIChannel = v }),
	layout.U8("midi program", 0x3D, func(i *Instrument, v uint8) { i.MIDIProgram = v }),
	layout.U16("midi bank", 0x3E, func(i *Instrument, v uint16) { i.MIDIBank = v }),
}

var keyboardFields = []layout.Field[KeyboardEntry]{
	layout.U8("keyboard note", 0, func(k *KeyboardEntry, v uint8) { k.Note = v }),
	layout.U8("keyboard sample", 1, func(k *KeyboardEntry, v uint8) { k.Sample = v }),
}

var envelopeFields = []layout.Field[Envelope]{
	layout.U8("envelope flags", 0x00, func(e *Envelope, v uint8) {
		e.Flags = v
		e.Enabled = layout.Bit(v, envEnabled)
		e.Looping = layout.Bit(v, envLoop)
		e.SustainLoop = layout.Bit(v, envSustain)
	}),
	layout.U8("node count", 0x01, func(e *Envelope, v uint8) { e.NumNodePoints = v }),
	layout.U8("loop begin", 0x02, func(e *Envelope, v uint8) { e.LoopBeginning = v }),
	layout.U8("loop end", 0x03, func(e *Envelope, v uint8) { e.LoopEnd = v }),
	layout.U8("sustain loop begin", 0x04, func(e *Envelope, v uint8) { e.SustainLoopBeginning = v }),
	layout.U8("sustain loop end", 0x05, func(e *Envelope, v uint8) { e.SustainLoopEnd = v }),
}

var nodeFields = []layout.Field[NodePoint]{
	layout.I8("node y", 0, func(n *NodePoint, v int8) { n.Y = v }),
	layout.U16("node tick", 1, func(n *NodePoint, v uint16) { n.Tick = v }),
}

// readInstruments reads count instruments laid out back to back from the
// first entry of the pointer table at ptrs.
func readInstruments(c *binary.Cursor, ptrs int64, count int, enc encoding.Encoding) ([]Instrument, error) {
	if count == 0 {
		return []Instrument{}, nil
	}
	base, err := firstPointer(c, ptrs, "instrument pointer")
	if err != nil {
		return nil, err
	}

	return layout.Repeat(c, base, instrumentStride, count, func(c *binary.Cursor, _ int) (Instrument, error) {
		at := c.Position()
		var ins Instrument
		err := layout.DecodeAt(c, at, &ins, instrumentFields, enc)
		if err != nil {
			return ins, err
		}
		if ins.KeyboardTable, err = layout.RepeatFields(c, at+keyboardOffset, 2, keyboardEntries, keyboardFields, enc); err != nil {
			return ins, err
		}
		ins.Envelopes, err = layout.Repeat(c, at+envelopeOffset, envelopeStride, envelopeCount, func(c *binary.Cursor, j int) (Envelope, error) {
			return readEnvelope(c, j, enc)
		})
		return ins, err
	})
}

func readEnvelope(c *binary.Cursor, index int, enc encoding.Encoding) (Envelope, error) {
	at := c.Position()
	var env Envelope
	if err := layout.DecodeAt(c, at, &env, envelopeFields, enc); err != nil {
		return env, err
	}
	if index == PitchEnvelope {
		env.UseAsFilter = layout.Bit(env.Flags, envFilter)
	}

	nodes, err := layout.RepeatFields(c, at+nodeOffset, nodeStride, nodeCount, nodeFields, enc)
	if err != nil {
		return env, err
	}
	env.NodePoints = nodes
	return env, nil
}

func firstPointer(c *binary.Cursor, at int64, what string) (int64, error) {
	if err := c.Seek(at); err != nil {
		return 0, err
	}
	v, err := c.U32(what)
	return int64(v), err
}
