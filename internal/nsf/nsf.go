// Package nsf reads NES Sound Format headers.
package nsf

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

// Magic is the 5-byte NSF signature.
const Magic = "NESM\x1a"

// Region flag bits at 0x7A.
const (
	regionPAL  = 0x01
	regionDual = 0x02
)

// Expansion sound chip bits at 0x7B.
const (
	ChipVRC6    = 0x01
	ChipVRC7    = 0x02
	ChipFDS     = 0x04
	ChipMMC5    = 0x08
	ChipNamco   = 0x10
	ChipSunsoft = 0x20
)

// File is a decoded NSF header.
type File struct {
	Header       string
	Version      uint8
	TotalSongs   uint8
	StartingSong uint8
	LoadAddress  uint16
	InitAddress  uint16
	PlayAddress  uint16
	SongName     string
	Artist       string
	Copyright    string
	NTSCSpeed    uint16 // play period in microseconds
	Bankswitch   []byte
	PALSpeed     uint16
	Region       uint8
	Chips        uint8

	IsNTSC bool
	IsDual bool

	// SpeedTicks is the play period for the file's primary region.
	SpeedTicks uint16
}

var header = []layout.Field[File]{
	layout.Raw("header", 0x00, 5, func(f *File, v []byte) { f.Header = string(v) }),
	layout.U8("version", 0x05, func(f *File, v uint8) { f.Version = v }),
	layout.U8("total songs", 0x06, func(f *File, v uint8) { f.TotalSongs = v }),
	layout.U8("starting song", 0x07, func(f *File, v uint8) { f.StartingSong = v }),
	layout.U16("load address", 0x08, func(f *File, v uint16) { f.LoadAddress = v }),
	layout.U16("init address", 0x0A, func(f *File, v uint16) { f.InitAddress = v }),
	layout.U16("play address", 0x0C, func(f *File, v uint16) { f.PlayAddress = v }),
	layout.Text("song name", 0x0E, 32, func(f *File, v string) { f.SongName = v }),
	layout.Text("artist", 0x2E, 32, func(f *File, v string) { f.Artist = v }),
	layout.Text("copyright", 0x4E, 32, func(f *File, v string) { f.Copyright = v }),
	layout.U16("ntsc speed", 0x6E, func(f *File, v uint16) { f.NTSCSpeed = v }),
	layout.Raw("bankswitch init", 0x70, 8, func(f *File, v []byte) { f.Bankswitch = v }),
	layout.U16("pal speed", 0x78, func(f *File, v uint16) { f.PALSpeed = v }),
	layout.U8("region flags", 0x7A, func(f *File, v uint8) {
		f.Region = v
		f.IsNTSC = !layout.Bit(v, regionPAL)
		f.IsDual = layout.Bit(v, regionDual)
	}),
	layout.U8("sound chips", 0x7B, func(f *File, v uint8) { f.Chips = v }),
}

// HasChip reports whether an expansion chip bit is set.
func (f *File) HasChip(mask uint8) bool {
	return layout.Bit(f.Chips, mask)
}

// UsesExpansionChips reports whether any expansion sound chip is declared.
func (f *File) UsesExpansionChips() bool {
	return f.Chips&0x3F != 0
}

// ChipNames lists the declared sound hardware, 2A03 first.
func (f *File) ChipNames() []string {
	names := []string{"2A03"}
	for _, c := range []struct {
		mask uint8
		name string
	}{
		{ChipVRC6, "VRC6"},
		{ChipVRC7, "VRC7"},
		{ChipFDS, "FDS"},
		{ChipMMC5, "MMC5"},
		{ChipNamco, "Namco163"},
		{ChipSunsoft, "Sunsoft5B"},
	} {
		if f.HasChip(c.mask) {
			names = append(names, c.name)
		}
	}
	return names
}

// VideoStandard names the declared region.
func (f *File) VideoStandard() string {
	switch {
	case f.IsDual:
		return "PAL and NTSC"
	case f.IsNTSC:
		return "NTSC"
	default:
		return "PAL"
	}
}

// parser implements the registry.FormatParser interface for NSF files
type parser struct{}

// Parse parses an NSF file and extracts metadata
func (p *parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.File, error) {
	c := binary.NewCursor(binary.NewSafeReader(r, size, path), binary.LittleEndian)

	rec, err := Decode(c, opts)
	if err != nil {
		return nil, err
	}

	file := &types.File{Record: rec}
	file.Tags.Title = file.Tags.SetPresent("NAME", rec.SongName)
	file.Tags.Artist = file.Tags.SetPresent("ARTIST", rec.Artist)
	file.Tags.Copyright = file.Tags.SetPresent("COPYRIGHT", rec.Copyright)

	file.Audio = types.AudioInfo{
		Container:     "NSF",
		Chip:          strings.Join(rec.ChipNames(), "+"),
		VideoStandard: rec.VideoStandard(),
		Songs:         int(rec.TotalSongs),
		StartSong:     int(rec.StartingSong),
	}
	return file, nil
}

// Decode reads an NSF header from c.
func Decode(c *binary.Cursor, opts types.ParseOptions) (*File, error) {
	rec := &File{}
	if err := layout.Decode(c, rec, header, opts.TextEncoding(charmap.Windows1252)); err != nil {
		return nil, fmt.Errorf("read NSF header: %w", err)
	}
	if rec.Header != Magic {
		return nil, &types.CorruptedFileError{
			Path:   c.Path(),
			Offset: 0,
			Reason: "invalid NSF magic bytes",
		}
	}

	rec.SpeedTicks = rec.PALSpeed
	if rec.IsNTSC {
		rec.SpeedTicks = rec.NTSCSpeed
	}
	return rec, nil
}

func init() {
	registry.Register(types.FormatNSF, &parser{})
}
