// Package it reads Impulse Tracker modules: the song header, the song
// message, and the instrument and sample tables.
package it

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/layout"
	"github.com/simonhull/chipmeta/internal/registry"
	"github.com/simonhull/chipmeta/internal/types"
)

// Magic is the song header signature.
const Magic = "IMPM"

const (
	maxChannels = 64
	orderTable  = 0xC0
)

// Song flag bits at 0x2C.
const (
	FlagStereo        = 0x0001
	FlagVol0MixOpt    = 0x0002
	FlagInstruments   = 0x0004
	FlagLinearSlides  = 0x0008
	FlagOldEffects    = 0x0010
	FlagLinkGMemory   = 0x0020
	FlagMIDIPitchCtrl = 0x0040

	specialMessage = 0x0001
)

// SlideType is the pitch slide model.
type SlideType int

const (
	Amiga SlideType = iota
	Linear
)

func (s SlideType) String() string {
	if s == Linear {
		return "Linear"
	}
	return "Amiga"
}

// File is a decoded IT module.
type File struct {
	HeaderID              string
	SongName              string
	PatternHighlightInfo  uint16 // rows per beat (low byte), rows per measure (high byte)
	TotalOrders           uint16
	TotalInstruments      uint16
	TotalSamples          uint16
	TotalPatterns         uint16
	CreatedWithTracker    uint16 // Cwt
	CompatibleWithTracker uint16 // Cmwt
	Flags                 uint16
	Special               uint16

	IsStereo                bool
	HasVol0MixOptimizations bool
	UsesInstruments         bool
	SlideType               SlideType
	UsesOldEffects          bool
	LinkEffectMemory        bool
	UsesMIDIPitchController bool
	HasSongMessage          bool

	GlobalVolume      uint8
	MixVolume         uint8
	InitialSpeed      uint8
	InitialTempo      uint8
	PanningSeparation uint8
	PitchWheelDepth   uint8
	MessageLength     uint16
	MessageOffset     uint32

	// SongMessage has CR line breaks converted to LF; NotPresent when the
	// module has none.
	SongMessage string

	TotalUsedChannels int
	ChannelPanning    []uint8
	ChannelVolumes    []uint8
	Orders            []uint8

	Instruments []Instrument
	Samples     []Sample

	rawPanning []byte
	rawVolumes []byte
}

var header = []layout.Field[File]{
	layout.Raw("header id", 0x00, 4, func(f *File, v []byte) { f.HeaderID = string(v) }),
	layout.Text("song name", 0x04, 26, func(f *File, v string) { f.SongName = v }),
	layout.U16("pattern highlight", 0x1E, func(f *File, v uint16) { f.PatternHighlightInfo = v }),
	layout.U16("order count", 0x20, func(f *File, v uint16) { f.TotalOrders = v }),
	layout.U16("instrument count", 0x22, func(f *File, v uint16) { f.TotalInstruments = v }),
	layout.U16("sample count", 0x24, func(f *File, v uint16) { f.TotalSamples = v }),
	layout.U16("pattern count", 0x26, func(f *File, v uint16) { f.TotalPatterns = v }),
	layout.U16("created with", 0x28, func(f *File, v uint16) { f.CreatedWithTracker = v }),
	layout.U16("compatible with", 0x2A, func(f *File, v uint16) { f.CompatibleWithTracker = v }),
	layout.U16("flags", 0x2C, func(f *File, v uint16) {
		f.Flags = v
		f.IsStereo = layout.Bit(v, FlagStereo)
		f.HasVol0MixOptimizations = layout.Bit(v, FlagVol0MixOpt)
		f.UsesInstruments = layout.Bit(v, FlagInstruments)
		f.SlideType = Amiga
		if layout.Bit(v, FlagLinearSlides) {
			f.SlideType = Linear
		}
		f.UsesOldEffects = layout.Bit(v, FlagOldEffects)
		f.LinkEffectMemory = layout.Bit(v, FlagLinkGMemory)
		f.UsesMIDIPitchController = layout.Bit(v, FlagMIDIPitchCtrl)
	}),
	layout.U16("special", 0x2E, func(f *File, v uint16) {
		f.Special = v
		f.HasSongMessage = layout.Bit(v, specialMessage)
	}),
	layout.U8("global volume", 0x30, func(f *File, v uint8) { f.GlobalVolume = v }),
	layout.U8("mix volume", 0x31, func(f *File, v uint8) { f.MixVolume = v }),
	layout.U8("initial speed", 0x32, func(f *File, v uint8) { f.InitialSpeed = v }),
	layout.U8("initial tempo", 0x33, func(f *File, v uint8) { f.InitialTempo = v }),
	layout.U8("panning separation", 0x34, func(f *File, v uint8) { f.PanningSeparation = v }),
	layout.U8("pitch wheel depth", 0x35, func(f *File, v uint8) { f.PitchWheelDepth = v }),
	layout.U16("message length", 0x36, func(f *File, v uint16) { f.MessageLength = v }),
	layout.U32("message offset", 0x38, func(f *File, v uint32) { f.MessageOffset = v }),
	layout.Raw("channel panning", 0x40, maxChannels, func(f *File, v []byte) { f.rawPanning = v }),
	layout.Raw("channel volume", 0x80, maxChannels, func(f *File, v []byte) { f.rawVolumes = v }),
}

// Tracker names the tool that wrote the module, from Cwt.
func (f *File) Tracker() string {
	v := f.CreatedWithTracker
	switch {
	case v>>12 == 0x1:
		return "Schism Tracker"
	case v>>12 == 0x5:
		return "OpenMPT"
	case v>>8 == 0x08:
		return "BeRoTracker"
	case v < 0x0100:
		return fmt.Sprintf("Unknown (0x%04X)", v)
	default:
		return fmt.Sprintf("Impulse Tracker %d.%02X", v>>8, v&0xFF)
	}
}

// parser implements the registry.FormatParser interface for IT files
type parser struct{}

// Parse parses an IT file and extracts metadata
func (p *parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.File, error) {
	c := binary.NewCursor(binary.NewSafeReader(r, size, path), binary.LittleEndian)

	rec, err := Decode(c, opts)
	if err != nil {
		return nil, err
	}

	file := &types.File{Record: rec}
	file.Tags.Title = file.Tags.SetPresent("TITLE", rec.SongName)
	file.Tags.Comment = file.Tags.SetPresent("MESSAGE", rec.SongMessage)
	file.Audio = types.AudioInfo{
		Container: "IT",
		Tracker:   rec.Tracker(),
		Channels:  rec.TotalUsedChannels,
		Songs:     1,
		StartSong: 1,
	}
	return file, nil
}

// Decode reads an IT module from c. The instrument and sample tables are
// mandatory: a truncated table fails the parse.
func Decode(c *binary.Cursor, opts types.ParseOptions) (*File, error) {
	enc := opts.TextEncoding(charmap.CodePage437)

	rec := &File{}
	if err := layout.Decode(c, rec, header, enc); err != nil {
		return nil, fmt.Errorf("read IT header: %w", err)
	}
	if rec.HeaderID != Magic {
		return nil, &types.CorruptedFileError{
			Path:   c.Path(),
			Offset: 0,
			Reason: "invalid IT magic bytes",
		}
	}

	if err := c.Seek(orderTable); err != nil {
		return nil, fmt.Errorf("read IT orders: %w", err)
	}
	orders, err := c.Bytes(int(rec.TotalOrders), "orders")
	if err != nil {
		return nil, fmt.Errorf("read IT orders: %w", err)
	}
	rec.Orders = orders

	rec.TotalUsedChannels = usedChannels(rec.rawPanning)
	rec.ChannelPanning = rec.rawPanning[:rec.TotalUsedChannels]
	rec.ChannelVolumes = rec.rawVolumes[:rec.TotalUsedChannels]
	rec.SongMessage = readMessage(c, rec, enc)

	pointers := orderTable + int64(rec.TotalOrders)
	if rec.Instruments, err = readInstruments(c, pointers, int(rec.TotalInstruments), enc); err != nil {
		return nil, fmt.Errorf("read IT instruments: %w", err)
	}
	pointers += int64(rec.TotalInstruments) * 4
	if rec.Samples, err = readSamples(c, pointers, int(rec.TotalSamples), enc); err != nil {
		return nil, fmt.Errorf("read IT samples: %w", err)
	}
	return rec, nil
}

// usedChannels counts panning entries before the first 0xFF.
func usedChannels(pan []byte) int {
	if i := bytes.IndexByte(pan, 0xFF); i >= 0 {
		return i
	}
	return len(pan)
}

// readMessage returns the song message, or NotPresent when the special
// flag is clear or the message lies outside the file. A message running
// past the end is cut there.
func readMessage(c *binary.Cursor, rec *File, enc encoding.Encoding) string {
	if !rec.HasSongMessage || int64(rec.MessageOffset) >= c.Size() {
		return types.NotPresent
	}
	if err := c.Seek(int64(rec.MessageOffset)); err != nil {
		return types.NotPresent
	}
	n := min(int64(rec.MessageLength), c.Remaining())
	b, err := c.Bytes(int(n), "song message")
	if err != nil {
		return types.NotPresent
	}
	text := binary.DecodeText(binary.TrimText(b), enc)
	return strings.ReplaceAll(text, "\r", "\n")
}

func init() {
	registry.Register(types.FormatIT, &parser{})
}
