// Package s3m reads Scream Tracker 3 modules.
package s3m

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
	// Magic is the signature at 0x2C.
	Magic = "SCRM"

	channelCount = 32
	orderTable   = 0x60

	defaultSpeed = 6
	defaultTempo = 125
	minTempo     = 33
)

// File is a decoded S3M header.
type File struct {
	SongTitle        string
	Type             uint8
	TotalOrders      uint16
	TotalInstruments uint16
	TotalPatterns    uint16
	Flags            uint16
	TrackerVersion   uint16 // Cwt/v, e.g. 0x1320 for Scream Tracker 3.20
	SampleFormat     uint16 // 1 = signed, 2 = unsigned
	Signature        string
	GlobalVolume     uint8
	InitialSpeed     uint8
	InitialTempo     uint8
	MasterVolume     uint8 // bit 7 is the stereo flag
	IsStereo         bool
	ChannelSettings  []byte
	Orders           []uint8
	Instruments      []Instrument
}

// Instrument is the named part of an instrument header.
type Instrument struct {
	Type     uint8 // 0 empty, 1 sample, 2..7 AdLib
	Filename string
	Volume   uint8
	C2Speed  uint32
	Name     string
}

var header = []layout.Field[File]{
	layout.Text("song title", 0x00, 28, func(f *File, v string) { f.SongTitle = v }),
	layout.U8("type", 0x1D, func(f *File, v uint8) { f.Type = v }),
	layout.U16("order count", 0x20, func(f *File, v uint16) { f.TotalOrders = v }),
	layout.U16("instrument count", 0x22, func(f *File, v uint16) { f.TotalInstruments = v }),
	layout.U16("pattern count", 0x24, func(f *File, v uint16) { f.TotalPatterns = v }),
	layout.U16("flags", 0x26, func(f *File, v uint16) { f.Flags = v }),
	layout.U16("tracker version", 0x28, func(f *File, v uint16) { f.TrackerVersion = v }),
	layout.U16("sample format", 0x2A, func(f *File, v uint16) { f.SampleFormat = v }),
	layout.Raw("signature", 0x2C, 4, func(f *File, v []byte) { f.Signature = string(v) }),
	layout.U8("global volume", 0x30, func(f *File, v uint8) { f.GlobalVolume = v }),
	layout.U8("initial speed", 0x31, func(f *File, v uint8) {
		if v == 0 {
			v = defaultSpeed
		}
		f.InitialSpeed = v
	}),
	layout.U8("initial tempo", 0x32, func(f *File, v uint8) {
		if v < minTempo {
			v = defaultTempo
		}
		f.InitialTempo = v
	}),
	layout.U8("master volume", 0x33, func(f *File, v uint8) {
		f.MasterVolume = v
		f.IsStereo = layout.Bit(v, 0x80)
	}),
	layout.Raw("channel settings", 0x40, channelCount, func(f *File, v []byte) { f.ChannelSettings = v }),
}

var instrumentFields = []layout.Field[Instrument]{
	layout.U8("instrument type", 0x00, func(i *Instrument, v uint8) { i.Type = v }),
	layout.Text("instrument filename", 0x01, 12, func(i *Instrument, v string) { i.Filename = v }),
	layout.U8("instrument volume", 0x1C, func(i *Instrument, v uint8) { i.Volume = v }),
	layout.U32("c2 speed", 0x20, func(i *Instrument, v uint32) { i.C2Speed = v }),
	layout.Text("instrument name", 0x30, 28, func(i *Instrument, v string) { i.Name = v }),
}

// EnabledChannels counts channel settings below 16. Values 16 and up are
// AdLib or unused channels.
func (f *File) EnabledChannels() int {
	n := 0
	for _, v := range f.ChannelSettings {
		if v < 16 {
			n++
		}
	}
	return n
}

// Tracker names the authoring tool encoded in the Cwt/v field.
func (f *File) Tracker() string {
	major, minor := (f.TrackerVersion>>8)&0x0F, f.TrackerVersion&0xFF
	switch f.TrackerVersion >> 12 {
	case 1:
		return fmt.Sprintf("Scream Tracker %d.%02X", major, minor)
	case 2:
		return fmt.Sprintf("Imago Orpheus %d.%02X", major, minor)
	case 3:
		return fmt.Sprintf("Impulse Tracker %d.%02X", major, minor)
	case 4:
		return "Schism Tracker"
	case 5:
		return "OpenMPT"
	default:
		return fmt.Sprintf("Unknown (0x%04X)", f.TrackerVersion)
	}
}

// parser implements the registry.FormatParser interface for S3M files
type parser struct{}

// Parse parses an S3M file and extracts metadata
func (p *parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.File, error) {
	c := binary.NewCursor(binary.NewSafeReader(r, size, path), binary.LittleEndian)

	rec, err := Decode(c, opts)
	if err != nil {
		return nil, err
	}

	file := &types.File{Record: rec}
	file.Tags.Title = file.Tags.SetPresent("TITLE", rec.SongTitle)
	file.Audio = types.AudioInfo{
		Container: "S3M",
		Tracker:   rec.Tracker(),
		Channels:  rec.EnabledChannels(),
		Songs:     1,
		StartSong: 1,
	}
	return file, nil
}

// Decode reads an S3M header, its order list and its instrument headers.
func Decode(c *binary.Cursor, opts types.ParseOptions) (*File, error) {
	enc := opts.TextEncoding(charmap.CodePage437)

	rec := &File{}
	if err := layout.Decode(c, rec, header, enc); err != nil {
		return nil, fmt.Errorf("read S3M header: %w", err)
	}
	if rec.Signature != Magic {
		return nil, &types.CorruptedFileError{
			Path:   c.Path(),
			Offset: 0x2C,
			Reason: "invalid S3M magic bytes",
		}
	}

	if err := c.Seek(orderTable); err != nil {
		return nil, fmt.Errorf("read S3M orders: %w", err)
	}
	orders, err := c.Bytes(int(rec.TotalOrders), "order list")
	if err != nil {
		return nil, fmt.Errorf("read S3M orders: %w", err)
	}
	rec.Orders = orders

	// Instrument parapointers follow the orders; each is an offset in
	// 16-byte paragraphs.
	pointers, err := layout.Repeat(c, orderTable+int64(rec.TotalOrders), 2, int(rec.TotalInstruments),
		func(c *binary.Cursor, _ int) (uint16, error) { return c.U16("instrument parapointer") })
	if err != nil {
		return nil, fmt.Errorf("read S3M instrument pointers: %w", err)
	}

	rec.Instruments = make([]Instrument, 0, len(pointers))
	for i, p := range pointers {
		var ins Instrument
		if err := layout.DecodeAt(c, int64(p)*16, &ins, instrumentFields, enc); err != nil {
			return nil, fmt.Errorf("read S3M instrument %d: %w", i, err)
		}
		rec.Instruments = append(rec.Instruments, ins)
	}
	return rec, nil
}

func init() {
	registry.Register(types.FormatS3M, &parser{})
}
