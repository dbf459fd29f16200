// Package sid reads Commodore 64 PSID and RSID headers.
//
// Multi-byte header fields are big-endian. The one exception is the C64
// load address stored in front of the program data, which is read
// little-endian as the C64 itself stores it.
package sid

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding/charmap"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/layout"
	"github.com/simonhull/chipmeta/internal/registry"
	"github.com/simonhull/chipmeta/internal/types"
)

// Flag bits at 0x76 (version 2 and later).
const (
	FlagMUS   = 0x0001
	FlagBASIC = 0x0002 // RSID: BASIC program; PSID: PlaySID specific
	flagPAL   = 0x0004
	flagNTSC  = 0x0008
	flag6581  = 0x0010
	flag8580  = 0x0020
)

// Unknown is reported for video standards and chip models the flags leave
// unspecified.
const Unknown = "Unknown"

// File is a decoded PSID/RSID header.
type File struct {
	HeaderID    string // "PSID" or "RSID"
	Version     uint16
	DataOffset  uint16
	LoadAddress uint16
	InitAddress uint16
	PlayAddress uint16
	Songs       uint16
	StartSong   uint16
	Speed       uint32 // bit n set: song n+1 uses the CIA timer
	SongTitle   string
	Artist      string
	Copyright   string // the "released" field

	// Version 2+ fields; zero for version 1.
	Flags          uint16
	StartPage      uint8
	PageLength     uint8
	SecondSIDAddr  uint8 // version 3+
	ThirdSIDAddr   uint8 // version 4+
	VideoStandard  string
	ChipModel      string
	IsBasicFlagSet bool
	HasC64LoadAddr bool // load address was taken from the program data
	rawInitAddress uint16
}

var header = []layout.Field[File]{
	layout.Raw("header id", 0x00, 4, func(f *File, v []byte) { f.HeaderID = string(v) }),
	layout.U16("version", 0x04, func(f *File, v uint16) { f.Version = v }),
	layout.U16("data offset", 0x06, func(f *File, v uint16) { f.DataOffset = v }),
	layout.U16("load address", 0x08, func(f *File, v uint16) { f.LoadAddress = v }),
	layout.U16("init address", 0x0A, func(f *File, v uint16) { f.rawInitAddress = v }),
	layout.U16("play address", 0x0C, func(f *File, v uint16) { f.PlayAddress = v }),
	layout.U16("songs", 0x0E, func(f *File, v uint16) { f.Songs = v }),
	layout.U16("start song", 0x10, func(f *File, v uint16) { f.StartSong = v }),
	layout.U32("speed", 0x12, func(f *File, v uint32) { f.Speed = v }),
	layout.Text("song title", 0x16, 32, func(f *File, v string) { f.SongTitle = v }),
	layout.Text("artist", 0x36, 32, func(f *File, v string) { f.Artist = v }),
	layout.Text("copyright", 0x56, 32, func(f *File, v string) { f.Copyright = v }),
}

var v2Header = []layout.Field[File]{
	layout.U16("flags", 0x76, func(f *File, v uint16) { f.Flags = v }),
	layout.U8("start page", 0x78, func(f *File, v uint8) { f.StartPage = v }),
	layout.U8("page length", 0x79, func(f *File, v uint8) { f.PageLength = v }),
}

var v3Header = []layout.Field[File]{
	layout.U8("second sid address", 0x7A, func(f *File, v uint8) { f.SecondSIDAddr = v }),
}

var v4Header = []layout.Field[File]{
	layout.U8("third sid address", 0x7B, func(f *File, v uint8) { f.ThirdSIDAddr = v }),
}

// c64Load reads the address stored in the first two bytes of the program
// data. Its offset depends on DataOffset, decoded earlier.
var c64Load = []layout.Field[File]{
	layout.U16("c64 load address", 0, func(f *File, v uint16) { f.LoadAddress = v }).
		Computed(func(f *File) int64 { return int64(f.DataOffset) }).
		Endian(binary.LittleEndian),
}

// parser implements the registry.FormatParser interface for SID files
type parser struct{}

// Parse parses a SID file and extracts metadata
func (p *parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.File, error) {
	c := binary.NewCursor(binary.NewSafeReader(r, size, path), binary.BigEndian)

	rec, err := Decode(c, opts)
	if err != nil {
		return nil, err
	}

	file := &types.File{Record: rec}
	file.Tags.Title = file.Tags.SetPresent("TITLE", rec.SongTitle)
	file.Tags.Artist = file.Tags.SetPresent("AUTHOR", rec.Artist)
	file.Tags.Copyright = file.Tags.SetPresent("RELEASED", rec.Copyright)

	file.Audio = types.AudioInfo{
		Container: rec.HeaderID,
		Songs:     int(rec.Songs),
		StartSong: int(rec.StartSong),
		Channels:  3 * rec.SIDCount(),
	}
	if rec.ChipModel != Unknown {
		file.Audio.Chip = rec.ChipModel
	}
	if rec.VideoStandard != Unknown {
		file.Audio.VideoStandard = rec.VideoStandard
	}
	return file, nil
}

// Decode reads a PSID/RSID header from c, resolving the load and init
// addresses.
func Decode(c *binary.Cursor, opts types.ParseOptions) (*File, error) {
	enc := opts.TextEncoding(charmap.Windows1252)
	rec := &File{VideoStandard: Unknown, ChipModel: Unknown}

	if err := layout.Decode(c, rec, header, enc); err != nil {
		return nil, fmt.Errorf("read SID header: %w", err)
	}
	if rec.HeaderID != "PSID" && rec.HeaderID != "RSID" {
		return nil, &types.CorruptedFileError{
			Path:   c.Path(),
			Offset: 0,
			Reason: "invalid SID magic bytes",
		}
	}

	for _, ext := range []struct {
		version uint16
		fields  []layout.Field[File]
	}{
		{2, v2Header},
		{3, v3Header},
		{4, v4Header},
	} {
		if rec.Version < ext.version {
			break
		}
		if err := layout.Decode(c, rec, ext.fields, enc); err != nil {
			return nil, fmt.Errorf("read SID v%d header: %w", ext.version, err)
		}
	}
	if rec.Version >= 2 {
		rec.VideoStandard = videoStandard(rec.Flags)
		rec.ChipModel = chipModel(rec.Flags)
		rec.IsBasicFlagSet = layout.Bit(rec.Flags, FlagBASIC)
	}

	if rec.LoadAddress == 0 {
		if err := layout.Decode(c, rec, c64Load, enc); err != nil {
			return nil, fmt.Errorf("read C64 load address: %w", err)
		}
		rec.HasC64LoadAddr = true
	}

	switch {
	case rec.HeaderID == "RSID" && rec.IsBasicFlagSet:
		rec.InitAddress = 0
	case rec.rawInitAddress == 0:
		rec.InitAddress = rec.LoadAddress
	default:
		rec.InitAddress = rec.rawInitAddress
	}
	return rec, nil
}

// SIDCount returns how many SID chips the tune drives.
func (f *File) SIDCount() int {
	n := 1
	if f.SecondSIDAddr != 0 {
		n++
	}
	if f.ThirdSIDAddr != 0 {
		n++
	}
	return n
}

func videoStandard(flags uint16) string {
	switch pal, ntsc := layout.Bit(flags, flagPAL), layout.Bit(flags, flagNTSC); {
	case pal && ntsc:
		return "PAL and NTSC"
	case pal:
		return "PAL"
	case ntsc:
		return "NTSC"
	default:
		return Unknown
	}
}

func chipModel(flags uint16) string {
	switch old, newer := layout.Bit(flags, flag6581), layout.Bit(flags, flag8580); {
	case old && newer:
		return "MOS6581 and MOS8580"
	case old:
		return "MOS6581"
	case newer:
		return "MOS8580"
	default:
		return Unknown
	}
}

func init() {
	registry.Register(types.FormatSID, &parser{})
}
