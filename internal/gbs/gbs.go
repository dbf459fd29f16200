// Package gbs reads Game Boy Sound System headers.
package gbs

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding/charmap"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/layout"
	"github.com/simonhull/chipmeta/internal/registry"
	"github.com/simonhull/chipmeta/internal/types"
)

// Magic is the 3-byte GBS signature.
const Magic = "GBS"

// Timer control bits.
const (
	timerEnabled = 0x04
	doubleSpeed  = 0x80
)

// File is a decoded GBS header.
type File struct {
	HeaderID     string
	Version      uint8
	TotalSongs   uint8
	StartingSong uint8
	LoadAddress  uint16
	InitAddress  uint16
	PlayAddress  uint16
	StackPointer uint16
	TimerModulo  uint8
	TimerControl uint8
	SongTitle    string
	Artist       string
	Copyright    string
}

var header = []layout.Field[File]{
	layout.Raw("header id", 0x00, 3, func(f *File, v []byte) { f.HeaderID = string(v) }),
	layout.U8("version", 0x03, func(f *File, v uint8) { f.Version = v }),
	layout.U8("total songs", 0x04, func(f *File, v uint8) { f.TotalSongs = v }),
	layout.U8("starting song", 0x05, func(f *File, v uint8) { f.StartingSong = v }),
	layout.U16("load address", 0x06, func(f *File, v uint16) { f.LoadAddress = v }),
	layout.U16("init address", 0x08, func(f *File, v uint16) { f.InitAddress = v }),
	layout.U16("play address", 0x0A, func(f *File, v uint16) { f.PlayAddress = v }),
	layout.U16("stack pointer", 0x0C, func(f *File, v uint16) { f.StackPointer = v }),
	layout.U8("timer modulo", 0x0E, func(f *File, v uint8) { f.TimerModulo = v }),
	layout.U8("timer control", 0x0F, func(f *File, v uint8) { f.TimerControl = v }),
	layout.Text("title", 0x10, 32, func(f *File, v string) { f.SongTitle = v }),
	layout.Text("author", 0x30, 32, func(f *File, v string) { f.Artist = v }),
	layout.Text("copyright", 0x50, 32, func(f *File, v string) { f.Copyright = v }),
}

// UsesTimer reports whether the play routine is driven by the timer
// interrupt rather than v-blank.
func (f *File) UsesTimer() bool {
	return layout.Bit(f.TimerControl, timerEnabled)
}

// DoubleSpeed reports whether the tune runs the CGB CPU at double speed.
func (f *File) DoubleSpeed() bool {
	return layout.Bit(f.TimerControl, doubleSpeed)
}

// parser implements the registry.FormatParser interface for GBS files
type parser struct{}

// Parse parses a GBS file and extracts metadata
func (p *parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.File, error) {
	c := binary.NewCursor(binary.NewSafeReader(r, size, path), binary.LittleEndian)

	rec := &File{}
	if err := layout.Decode(c, rec, header, opts.TextEncoding(charmap.Windows1252)); err != nil {
		return nil, fmt.Errorf("read GBS header: %w", err)
	}
	if rec.HeaderID != Magic {
		return nil, &types.CorruptedFileError{
			Path:   path,
			Offset: 0,
			Reason: "invalid GBS magic bytes",
		}
	}

	file := &types.File{Record: rec}
	file.Tags.Title = file.Tags.SetPresent("TITLE", rec.SongTitle)
	file.Tags.Artist = file.Tags.SetPresent("AUTHOR", rec.Artist)
	file.Tags.Copyright = file.Tags.SetPresent("COPYRIGHT", rec.Copyright)
	file.Audio = types.AudioInfo{
		Container: "GBS",
		Chip:      "LR35902",
		Channels:  4,
		Songs:     int(rec.TotalSongs),
		StartSong: int(rec.StartingSong),
	}
	return file, nil
}

func init() {
	registry.Register(types.FormatGBS, &parser{})
}
