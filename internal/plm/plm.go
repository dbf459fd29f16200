// Package plm reads the header of Disorder Tracker 2 modules.
package plm

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding/charmap"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/layout"
	"github.com/simonhull/chipmeta/internal/registry"
	"github.com/simonhull/chipmeta/internal/types"
)

// Magic is the 4-byte signature.
const Magic = "PLM\x1a"

// File is a decoded PLM header.
type File struct {
	HeaderID                  string
	HeaderSize                uint8
	SongName                  string
	TotalChannels             uint8
	MaxSlideVolume            uint8
	SoundblasterAmplification uint8
	InitialBPM                uint8
	InitialSpeed              uint8
	TotalSamples              uint8
	TotalPatterns             uint8
	TotalOrders               uint8
}

var header = []layout.Field[File]{
	layout.Raw("header id", 0x00, 4, func(f *File, v []byte) { f.HeaderID = string(v) }),
	layout.U8("header size", 0x04, func(f *File, v uint8) { f.HeaderSize = v }),
	layout.Text("song name", 0x05, 48, func(f *File, v string) { f.SongName = v }),
	layout.U8("channel count", 0x35, func(f *File, v uint8) { f.TotalChannels = v }),
	layout.U8("max slide volume", 0x38, func(f *File, v uint8) { f.MaxSlideVolume = v }),
	layout.U8("amplification", 0x39, func(f *File, v uint8) { f.SoundblasterAmplification = v }),
	layout.U8("initial bpm", 0x3A, func(f *File, v uint8) { f.InitialBPM = v }),
	layout.U8("initial speed", 0x3B, func(f *File, v uint8) { f.InitialSpeed = v }),
	layout.U8("sample count", 0x3C, func(f *File, v uint8) { f.TotalSamples = v }),
	layout.U8("pattern count", 0x3D, func(f *File, v uint8) { f.TotalPatterns = v }),
	layout.U8("order count", 0x3E, func(f *File, v uint8) { f.TotalOrders = v }),
}

// parser implements the registry.FormatParser interface for PLM files
type parser struct{}

// Parse parses a PLM file and extracts metadata
func (p *parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.File, error) {
	c := binary.NewCursor(binary.NewSafeReader(r, size, path), binary.LittleEndian)

	rec, err := Decode(c, opts)
	if err != nil {
		return nil, err
	}

	file := &types.File{Record: rec}
	file.Tags.Title = file.Tags.SetPresent("TITLE", rec.SongName)
	file.Audio = types.AudioInfo{
		Container: "PLM",
		Tracker:   "Disorder Tracker 2",
		Channels:  int(rec.TotalChannels),
		Songs:     1,
		StartSong: 1,
	}
	return file, nil
}

// Decode reads a PLM header from c.
func Decode(c *binary.Cursor, opts types.ParseOptions) (*File, error) {
	rec := &File{}
	if err := layout.Decode(c, rec, header, opts.TextEncoding(charmap.CodePage437)); err != nil {
		return nil, fmt.Errorf("read PLM header: %w", err)
	}
	if rec.HeaderID != Magic {
		return nil, &types.CorruptedFileError{
			Path:   c.Path(),
			Offset: 0,
			Reason: "invalid PLM magic bytes",
		}
	}
	return rec, nil
}

func init() {
	registry.Register(types.FormatPLM, &parser{})
}
