// Package spc reads SNES SPC700 sound files: the fixed ID666 tag block and
// the chunked XID6 extended tags appended after the 64 KiB RAM image.
package spc

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/chunk"
	"github.com/simonhull/chipmeta/internal/layout"
	"github.com/simonhull/chipmeta/internal/registry"
	"github.com/simonhull/chipmeta/internal/types"
)

// Magic is the start of every SPC header.
const Magic = "SNES-SPC700 Sound File Data"

// id666Present is the tag-flag value announcing an ID666 block.
const id666Present = 26

// Registers holds the SPC700 CPU state at dump time.
type Registers struct {
	PC  uint16
	A   uint8
	X   uint8
	Y   uint8
	PSW uint8
	SP  uint8
}

// File is a decoded SPC file. Text fields hold types.NotPresent when the
// file carries no value for them.
type File struct {
	Header    string
	HasID666  bool
	Version   uint8
	Registers Registers

	// ID666
	Song              string
	Game              string
	Dumper            string
	Comments          string
	DumpDate          string
	SecondsBeforeFade string
	FadeLength        string // milliseconds, as text
	Artist            string
	ChannelDisables   uint8
	Emulator          uint8

	// HasXID6 reports whether an extended tag block was found.
	HasXID6 bool
	XID6    Extended
}

var header = []layout.Field[File]{
	layout.Text("header", 0x00, 33, func(f *File, v string) { f.Header = v }),
	layout.U8("tag flag", 0x23, func(f *File, v uint8) { f.HasID666 = v == id666Present }),
	layout.U8("version", 0x24, func(f *File, v uint8) { f.Version = v }),
	layout.U16("pc register", 0x25, func(f *File, v uint16) { f.Registers.PC = v }),
	layout.U8("a register", 0x27, func(f *File, v uint8) { f.Registers.A = v }),
	layout.U8("x register", 0x28, func(f *File, v uint8) { f.Registers.X = v }),
	layout.U8("y register", 0x29, func(f *File, v uint8) { f.Registers.Y = v }),
	layout.U8("psw register", 0x2A, func(f *File, v uint8) { f.Registers.PSW = v }),
	layout.U8("sp register", 0x2B, func(f *File, v uint8) { f.Registers.SP = v }),
}

var id666 = []layout.Field[File]{
	layout.Text("song title", 0x2E, 32, func(f *File, v string) { f.Song = v }),
	layout.Text("game title", 0x4E, 32, func(f *File, v string) { f.Game = v }),
	layout.Text("dumper name", 0x6E, 16, func(f *File, v string) { f.Dumper = v }),
	layout.Text("comments", 0x7E, 32, func(f *File, v string) { f.Comments = v }),
	layout.Text("dump date", 0x9E, 11, func(f *File, v string) { f.DumpDate = v }),
	layout.Text("seconds before fade", 0xA9, 3, func(f *File, v string) { f.SecondsBeforeFade = v }),
	layout.Text("fade length", 0xAC, 5, func(f *File, v string) { f.FadeLength = v }),
	layout.Text("artist", 0xB1, 32, func(f *File, v string) { f.Artist = v }),
	layout.U8("channel disables", 0xD1, func(f *File, v uint8) { f.ChannelDisables = v }),
	layout.U8("emulator", 0xD2, func(f *File, v uint8) { f.Emulator = v }),
}

// parser implements the registry.FormatParser interface for SPC files
type parser struct{}

// Parse parses an SPC file and extracts metadata
func (p *parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.File, error) {
	c := binary.NewCursor(binary.NewSafeReader(r, size, path), binary.LittleEndian)
	file := &types.File{}

	rec, err := Decode(c, file, opts)
	if err != nil {
		return nil, err
	}

	file.Record = rec
	rec.fillTags(&file.Tags)
	file.Audio = rec.audioInfo()
	return file, nil
}

// Decode reads an SPC record from c. Recoverable problems in the extended
// tags are reported through file.Warn.
func Decode(c *binary.Cursor, file *types.File, opts types.ParseOptions) (*File, error) {
	enc := opts.TextEncoding(charmap.Windows1252)
	rec := &File{}

	if err := layout.Decode(c, rec, header, enc); err != nil {
		return nil, fmt.Errorf("read SPC header: %w", err)
	}
	if !strings.HasPrefix(rec.Header, Magic) {
		return nil, &types.CorruptedFileError{
			Path:   c.Path(),
			Offset: 0,
			Reason: "invalid SPC magic bytes",
		}
	}

	if rec.HasID666 {
		if err := layout.Decode(c, rec, id666, enc); err != nil {
			return nil, fmt.Errorf("read ID666 tags: %w", err)
		}
	} else {
		rec.setID666Absent()
	}

	rec.XID6 = newExtended()
	if err := rec.readXID6(c, file, opts, enc); err != nil {
		return nil, err
	}
	return rec, nil
}

func (f *File) setID666Absent() {
	for _, s := range []*string{
		&f.Song, &f.Game, &f.Dumper, &f.Comments,
		&f.DumpDate, &f.SecondsBeforeFade, &f.FadeLength, &f.Artist,
	} {
		*s = types.NotPresent
	}
}

func (f *File) fillTags(t *types.Tags) {
	t.SetPresent("ID666:SONG", f.Song)
	t.SetPresent("ID666:GAME", f.Game)
	t.SetPresent("ID666:DUMPER", f.Dumper)
	t.SetPresent("ID666:COMMENTS", f.Comments)
	t.SetPresent("ID666:DATE", f.DumpDate)
	t.SetPresent("ID666:ARTIST", f.Artist)

	x := &f.XID6
	if f.HasXID6 {
		x.fillTags(t)
	}

	// Extended values hold the untruncated text; ID666 is the fallback.
	t.Title = t.GetBest("XID6:SONG", "ID666:SONG")
	t.Game = t.GetBest("XID6:GAME", "ID666:GAME")
	t.Artist = t.GetBest("XID6:ARTIST", "ID666:ARTIST")
	t.Dumper = t.GetBest("XID6:DUMPER", "ID666:DUMPER")
	t.Comment = t.GetBest("XID6:COMMENT", "ID666:COMMENTS")
	t.Publisher = t.GetFirst("XID6:PUBLISHER")
	t.Date = t.GetBest("XID6:DATE", "ID666:DATE")
	t.TrackNumber = int(x.Track)
	t.DiscNumber = int(x.Disc)
	if x.Copyright != 0 {
		t.Year = int(x.Copyright)
		t.Copyright = strconv.Itoa(int(x.Copyright))
	}
}

func (f *File) audioInfo() types.AudioInfo {
	info := types.AudioInfo{
		Container: "SPC",
		Chip:      "SPC700",
		Channels:  8,
		Songs:     1,
		StartSong: 1,
	}

	x := &f.XID6
	if f.HasXID6 && (x.IntroTicks != 0 || x.LoopTicks != 0 || x.EndTicks != 0) {
		loops := max(x.Loops, 1)
		ticks := uint64(x.IntroTicks) + uint64(x.LoopTicks)*uint64(loops) + uint64(x.EndTicks)
		info.Duration = ticksToDuration(ticks)
		info.Fade = ticksToDuration(uint64(x.FadeTicks))
		return info
	}

	if s, err := strconv.Atoi(strings.TrimSpace(f.SecondsBeforeFade)); err == nil && s > 0 {
		info.Duration = time.Duration(s) * time.Second
	}
	if ms, err := strconv.Atoi(strings.TrimSpace(f.FadeLength)); err == nil && ms > 0 {
		info.Fade = time.Duration(ms) * time.Millisecond
	}
	return info
}

func ticksToDuration(ticks uint64) time.Duration {
	return time.Duration(ticks) * time.Second / chunk.TicksPerSecond
}

func init() {
	registry.Register(types.FormatSPC, &parser{})
}
