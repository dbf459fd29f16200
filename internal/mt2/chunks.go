package mt2

import (
	"fmt"
	"log/slog"

	"golang.org/x/text/encoding"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/chunk"
	"github.com/simonhull/chipmeta/internal/layout"
	"github.com/simonhull/chipmeta/internal/types"
)

// Chunk identifiers in the additional-data region.
var (
	ChunkTracks  = chunk.ID("TRKS")
	ChunkMessage = chunk.ID("MSG\x00")
	ChunkSummary = chunk.ID("SUM\x00")
)

const (
	trackRecordSize = 24
	trackParams     = 8
	summaryMaskSize = 6
)

// Chunks is the decoded additional-data region.
type Chunks struct {
	// Length is the declared size of the region.
	Length uint32

	MasterVolume uint16
	Tracks       []Track
	Messages     []Message
	Summary      *Summary

	Tags  []string
	Stats chunk.Stats
}

// Comment returns the text of every MSG chunk.
func (c *Chunks) Comment() string {
	parts := make([]string, 0, len(c.Messages))
	for _, m := range c.Messages {
		parts = append(parts, m.Text)
	}
	return comment(parts)
}

// Track is one per-track record of the TRKS chunk.
type Track struct {
	Volume       uint16
	EffectBuffer bool
	OutputTrack  bool // false routes to the track itself
	EffectID     uint16
	Params       [trackParams]int16
}

// Message is a MSG chunk.
type Message struct {
	Show bool
	Text string
}

// Summary is a SUM chunk.
type Summary struct {
	Mask    []byte
	Content string
}

// ChunksOffset returns where the first additional-data chunk starts.
func (f *File) ChunksOffset() int64 {
	return drumDataOffset + int64(f.Drums.Length) + 4
}

func (f *File) readChunks(c *binary.Cursor, file *types.File, enc encoding.Encoding, log *slog.Logger) error {
	lengthAt := int64(drumDataOffset) + int64(f.Drums.Length)
	if lengthAt+4 > c.Size() {
		log.Debug("MT2 additional data missing", "offset", lengthAt, "size", c.Size())
		return nil
	}
	if err := c.Seek(lengthAt); err != nil {
		return err
	}
	n, err := c.U32("additional data length")
	if err != nil {
		return fmt.Errorf("read MT2 chunks: %w", err)
	}
	f.HasChunks = true
	f.Chunks.Length = n

	it := chunk.Iterator{
		Header:     chunk.FourCC(binary.LittleEndian),
		HeaderSize: chunk.FourCCHeaderSize,
		Handlers:   f.handlers(enc),
		Budget:     int64(n),
		OnChunk:    func(h chunk.Header) { f.Chunks.Tags = append(f.Chunks.Tags, h.Tag) },
		Logger:     log,
	}
	st, err := it.Run(c)
	if err != nil {
		return fmt.Errorf("read MT2 chunks: %w", err)
	}
	f.Chunks.Stats = st
	if st.Truncated {
		file.Warn("chunks", st.End, "additional data ends inside a chunk")
	}
	if st.Malformed > 0 {
		file.Warn("chunks", lengthAt, fmt.Sprintf("%d chunks are shorter than their contents", st.Malformed))
	}
	return nil
}

func (f *File) handlers(enc encoding.Encoding) map[uint32]chunk.Handler {
	return map[uint32]chunk.Handler{
		ChunkTracks: func(h chunk.Header, p *binary.Cursor) error {
			v, err := p.U16("master volume")
			if err != nil {
				return err
			}
			f.Chunks.MasterVolume = v

			count := int((h.Length - 2) / trackRecordSize)
			if f.TotalTracks > 0 {
				count = min(count, int(f.TotalTracks))
			}
			tracks, err := layout.Repeat(p, h.PayloadOffset()+2, trackRecordSize, count, readTrack)
			if err != nil {
				return err
			}
			f.Chunks.Tracks = tracks
			return nil
		},
		ChunkMessage: func(h chunk.Header, p *binary.Cursor) error {
			ch := binary.NewChain(p)
			show := ch.U8("show message")
			text := ch.Bytes(int(p.Remaining()), "message text")
			if err := ch.Err(); err != nil {
				return err
			}
			f.Chunks.Messages = append(f.Chunks.Messages, Message{
				Show: show != 0,
				Text: binary.DecodeText(binary.TrimText(text), enc),
			})
			return nil
		},
		ChunkSummary: func(h chunk.Header, p *binary.Cursor) error {
			ch := binary.NewChain(p)
			mask := ch.Bytes(summaryMaskSize, "summary mask")
			text := ch.Bytes(int(p.Remaining()), "summary text")
			if err := ch.Err(); err != nil {
				return err
			}
			f.Chunks.Summary = &Summary{
				Mask:    mask,
				Content: comment([]string{binary.DecodeText(binary.TrimText(text), enc)}),
			}
			return nil
		},
	}
}

func readTrack(c *binary.Cursor, _ int) (Track, error) {
	var t Track
	ch := binary.NewChain(c)
	t.Volume = ch.U16("track volume")
	t.EffectBuffer = ch.U8("effect buffer") != 0
	t.OutputTrack = ch.U8("output track") != 0
	t.EffectID = ch.U16("effect id")
	for i := range t.Params {
		t.Params[i] = ch.I16("effect parameter")
	}
	return t, ch.Err()
}
