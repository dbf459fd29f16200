// Package ams reads the header of Extreme's Tracker modules.
package ams

import (
	"fmt"
	"io"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/layout"
	"github.com/simonhull/chipmeta/internal/registry"
	"github.com/simonhull/chipmeta/internal/types"
)

// Magic is the 7-byte signature.
const Magic = "Extreme"

// File is a decoded AMS header.
type File struct {
	HeaderID                 string
	Version                  uint16 // major in the high byte
	ChannelConfig            uint8
	TotalSamples             uint8
	TotalPatterns            uint16
	TotalPositions           uint16
	TotalVirtualMIDIChannels uint8
	ExtraSize                uint16
}

var header = []layout.Field[File]{
	layout.Raw("header id", 0x00, 7, func(f *File, v []byte) { f.HeaderID = string(v) }),
	layout.U16("version", 0x07, func(f *File, v uint16) { f.Version = v }),
	layout.U8("channel config", 0x09, func(f *File, v uint8) { f.ChannelConfig = v }),
	layout.U8("sample count", 0x0A, func(f *File, v uint8) { f.TotalSamples = v }),
	layout.U16("pattern count", 0x0B, func(f *File, v uint16) { f.TotalPatterns = v }),
	layout.U16("position count", 0x0D, func(f *File, v uint16) { f.TotalPositions = v }),
	layout.U8("virtual midi channels", 0x0F, func(f *File, v uint8) { f.TotalVirtualMIDIChannels = v }),
	layout.U16("extra size", 0x10, func(f *File, v uint16) { f.ExtraSize = v }),
}

// Channels returns the channel count encoded in the low five bits of the
// channel configuration.
func (f *File) Channels() int {
	return int(f.ChannelConfig&0x1F) + 1
}

// parser implements the registry.FormatParser interface for AMS files
type parser struct{}

// Parse parses an AMS file and extracts metadata
func (p *parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.File, error) {
	c := binary.NewCursor(binary.NewSafeReader(r, size, path), binary.LittleEndian)

	rec, err := Decode(c, opts)
	if err != nil {
		return nil, err
	}

	file := &types.File{Record: rec}
	file.Audio = types.AudioInfo{
		Container: "AMS",
		Tracker:   fmt.Sprintf("Extreme's Tracker %d.%02X", rec.Version>>8, rec.Version&0xFF),
		Channels:  rec.Channels(),
		Songs:     1,
		StartSong: 1,
	}
	return file, nil
}

// Decode reads an AMS header from c.
func Decode(c *binary.Cursor, opts types.ParseOptions) (*File, error) {
	rec := &File{}
	if err := layout.Decode(c, rec, header, nil); err != nil {
		return nil, fmt.Errorf("read AMS header: %w", err)
	}
	if rec.HeaderID != Magic {
		return nil, &types.CorruptedFileError{
			Path:   c.Path(),
			Offset: 0,
			Reason: "invalid AMS magic bytes",
		}
	}
	return rec, nil
}

func init() {
	registry.Register(types.FormatAMS, &parser{})
}
