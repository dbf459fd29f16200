// Package dbm reads DigiBooster Pro modules.
//
// A DBM file is an 8-byte header followed by big-endian IFF-style chunks
// (four-character tag, 32-bit length, payload) that run to the end of the
// file. NAME, INFO, SONG and INST are decoded; every other chunk (PATT,
// SMPL, VENV, ...) is skipped by its declared length.
package dbm

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/chunk"
	"github.com/simonhull/chipmeta/internal/layout"
	"github.com/simonhull/chipmeta/internal/registry"
	"github.com/simonhull/chipmeta/internal/types"
)

// Magic is the 4-byte DBM signature.
const Magic = "DBM0"

const (
	chunkStart     = 8
	nameWidth      = 44
	instrumentSize = 50
)

// Chunk identifiers.
var (
	ChunkName = chunk.ID("NAME")
	ChunkInfo = chunk.ID("INFO")
	ChunkSong = chunk.ID("SONG")
	ChunkInst = chunk.ID("INST")
)

// Instrument loop flags.
const (
	LoopForward  = 0x0001
	LoopPingPong = 0x0002
)

// File is a decoded DBM module.
type File struct {
	HeaderID       string
	TrackerVersion uint16 // major in the high byte, minor in the low byte
	ModuleName     string // types.NotPresent without a NAME chunk

	// INFO counts; zero without an INFO chunk.
	NumInstruments uint16
	NumSamples     uint16
	NumSongs       uint16
	NumPatterns    uint16
	NumChannels    uint16

	Songs       []Song
	Instruments []Instrument

	// ChunkTags lists every chunk tag in file order.
	ChunkTags []string
	Stats     chunk.Stats
}

// Song is one entry of the SONG chunk.
type Song struct {
	Name   string
	Orders []uint16
}

// Instrument is one 50-byte INST record.
type Instrument struct {
	Name       string
	Sample     uint16
	Volume     uint16
	SampleRate uint32 // C-3 playback rate; doubles as finetune
	LoopStart  uint32
	LoopLength uint32
	Panning    int16
	Flags      uint16
}

// Loops reports whether the instrument has a forward or ping-pong loop.
func (i Instrument) Loops() bool {
	return layout.Bit(i.Flags, LoopForward|LoopPingPong) && i.LoopLength > 0
}

var header = []layout.Field[File]{
	layout.Raw("header id", 0x00, 4, func(f *File, v []byte) { f.HeaderID = string(v) }),
	layout.U16("tracker version", 0x04, func(f *File, v uint16) { f.TrackerVersion = v }),
}

var info = []layout.Field[File]{
	layout.U16("instrument count", 0x00, func(f *File, v uint16) { f.NumInstruments = v }),
	layout.U16("sample count", 0x02, func(f *File, v uint16) { f.NumSamples = v }),
	layout.U16("song count", 0x04, func(f *File, v uint16) { f.NumSongs = v }),
	layout.U16("pattern count", 0x06, func(f *File, v uint16) { f.NumPatterns = v }),
	layout.U16("channel count", 0x08, func(f *File, v uint16) { f.NumChannels = v }),
}

var instrumentFields = []layout.Field[Instrument]{
	layout.Text("instrument name", 0x00, 30, func(i *Instrument, v string) { i.Name = v }),
	layout.U16("sample number", 0x1E, func(i *Instrument, v uint16) { i.Sample = v }),
	layout.U16("volume", 0x20, func(i *Instrument, v uint16) { i.Volume = v }),
	layout.U32("sample rate", 0x22, func(i *Instrument, v uint32) { i.SampleRate = v }),
	layout.U32("loop start", 0x26, func(i *Instrument, v uint32) { i.LoopStart = v }),
	layout.U32("loop length", 0x2A, func(i *Instrument, v uint32) { i.LoopLength = v }),
	layout.I16("panning", 0x2E, func(i *Instrument, v int16) { i.Panning = v }),
	layout.U16("flags", 0x30, func(i *Instrument, v uint16) { i.Flags = v }),
}

// Version formats the tracker version, e.g. "2.15".
func (f *File) Version() string {
	return fmt.Sprintf("%X.%02X", f.TrackerVersion>>8, f.TrackerVersion&0xFF)
}

// parser implements the registry.FormatParser interface for DBM files
type parser struct{}

// Parse parses a DBM file and extracts metadata
func (p *parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.File, error) {
	c := binary.NewCursor(binary.NewSafeReader(r, size, path), binary.BigEndian)
	file := &types.File{}

	rec, err := Decode(c, file, opts)
	if err != nil {
		return nil, err
	}

	file.Record = rec
	file.Tags.Title = file.Tags.SetPresent("TITLE", rec.ModuleName)
	var names []string
	for _, s := range rec.Songs {
		if s.Name != "" {
			names = append(names, s.Name)
		}
	}
	if len(names) > 0 {
		file.Tags.Set("SONGNAME", names...)
	}

	songs := max(int(rec.NumSongs), 1)
	file.Audio = types.AudioInfo{
		Container: "DBM",
		Tracker:   "DigiBooster Pro " + rec.Version(),
		Channels:  int(rec.NumChannels),
		Songs:     songs,
		StartSong: 1,
	}
	return file, nil
}

// Decode reads the DBM header and walks its chunks.
func Decode(c *binary.Cursor, file *types.File, opts types.ParseOptions) (*File, error) {
	enc := opts.TextEncoding(charmap.ISO8859_1)

	rec := &File{ModuleName: types.NotPresent}
	if err := layout.Decode(c, rec, header, enc); err != nil {
		return nil, fmt.Errorf("read DBM header: %w", err)
	}
	if rec.HeaderID != Magic {
		return nil, &types.CorruptedFileError{
			Path:   c.Path(),
			Offset: 0,
			Reason: "invalid DBM magic bytes",
		}
	}

	if err := c.Seek(chunkStart); err != nil {
		return nil, fmt.Errorf("read DBM chunks: %w", err)
	}
	log := opts.Log()
	it := chunk.Iterator{
		Header:     chunk.FourCC(binary.BigEndian),
		HeaderSize: chunk.FourCCHeaderSize,
		Handlers:   rec.handlers(enc),
		Budget:     -1,
		OnChunk:    func(h chunk.Header) { rec.ChunkTags = append(rec.ChunkTags, h.Tag) },
		Logger:     log,
	}
	st, err := it.Run(c)
	if err != nil {
		return nil, fmt.Errorf("read DBM chunks: %w", err)
	}
	rec.Stats = st
	if st.Truncated {
		file.Warn("chunks", st.End, "chunk stream ends inside a chunk")
	}
	if st.Malformed > 0 {
		file.Warn("chunks", chunkStart, fmt.Sprintf("%d chunks are shorter than their contents", st.Malformed))
	}
	return rec, nil
}

func (f *File) handlers(enc encoding.Encoding) map[uint32]chunk.Handler {
	return map[uint32]chunk.Handler{
		ChunkName: func(h chunk.Header, p *binary.Cursor) error {
			n := min(int(h.Length), nameWidth)
			b, err := p.Bytes(n, "module name")
			if err != nil {
				return err
			}
			if name := binary.DecodeText(binary.TrimText(b), enc); name != "" {
				f.ModuleName = name
			}
			return nil
		},
		ChunkInfo: func(h chunk.Header, p *binary.Cursor) error {
			return layout.DecodeAt(p, h.PayloadOffset(), f, info, enc)
		},
		ChunkSong: func(h chunk.Header, p *binary.Cursor) error {
			return f.readSongs(p, enc)
		},
		ChunkInst: func(h chunk.Header, p *binary.Cursor) error {
			count := int(h.Length / instrumentSize)
			if f.NumInstruments > 0 {
				count = min(count, int(f.NumInstruments))
			}
			inst, err := layout.RepeatFields(p, h.PayloadOffset(), instrumentSize, count, instrumentFields, enc)
			if err != nil {
				return err
			}
			f.Instruments = inst
			return nil
		},
	}
}

// readSongs reads song entries until the payload or the INFO song count
// runs out.
func (f *File) readSongs(p *binary.Cursor, enc encoding.Encoding) error {
	for p.Remaining() > 0 {
		if f.NumSongs > 0 && len(f.Songs) == int(f.NumSongs) {
			break
		}
		ch := binary.NewChain(p)
		name := ch.Bytes(nameWidth, "song name")
		n := ch.U16("order count")
		if err := ch.Err(); err != nil {
			return err
		}

		song := Song{Name: binary.DecodeText(binary.TrimText(name), enc), Orders: make([]uint16, n)}
		for i := range song.Orders {
			song.Orders[i] = ch.U16("order")
		}
		if err := ch.Err(); err != nil {
			return err
		}
		f.Songs = append(f.Songs, song)
	}
	return nil
}

func init() {
	registry.Register(types.FormatDBM, &parser{})
}
