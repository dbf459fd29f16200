package spc

import (
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/text/encoding"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/chunk"
	"github.com/simonhull/chipmeta/internal/types"
)

// XID6 block location and sub-chunk IDs.
const (
	xid6Offset = 0x10200
	xid6Magic  = "xid6"

	xid6Song        = 0x01
	xid6Game        = 0x02
	xid6Artist      = 0x03
	xid6Dumper      = 0x04
	xid6Date        = 0x05
	xid6Emulator    = 0x06
	xid6Comment     = 0x07
	xid6OST         = 0x10
	xid6Disc        = 0x11
	xid6Track       = 0x12
	xid6Publisher   = 0x13
	xid6Copyright   = 0x14
	xid6IntroLength = 0x30
	xid6LoopLength  = 0x31
	xid6EndLength   = 0x32
	xid6FadeLength  = 0x33
	xid6MutedVoices = 0x34
	xid6LoopCount   = 0x35
	xid6MixingLevel = 0x36

	maxDumperLength = 17
)

// Extended holds the XID6 tags. Text fields default to types.NotPresent and
// numeric fields to 0 until a valid sub-chunk sets them.
type Extended struct {
	Song      string
	Game      string
	Artist    string
	Dumper    string
	Comment   string
	OSTTitle  string
	Publisher string

	DumpDate    uint32 // yyyymmdd
	Emulator    uint8
	Disc        uint8
	Track       uint8
	TrackSuffix byte
	Copyright   uint16 // year

	// Lengths in 1/64000 s ticks.
	IntroTicks uint32
	LoopTicks  uint32
	EndTicks   uint32
	FadeTicks  uint32

	MutedVoices uint8 // bit n set = voice n muted
	Loops       uint8
	MixingLevel uint32

	// Stats describes the walk over the sub-chunks.
	Stats chunk.Stats
}

func newExtended() Extended {
	np := types.NotPresent
	return Extended{
		Song: np, Game: np, Artist: np, Dumper: np,
		Comment: np, OSTTitle: np, Publisher: np,
	}
}

// readXID6 walks the extended tag block. A block that is missing or does
// not start with the xid6 marker leaves every extended field at its default.
func (f *File) readXID6(c *binary.Cursor, file *types.File, opts types.ParseOptions, enc encoding.Encoding) error {
	if c.Size() < xid6Offset+8 {
		return nil
	}
	if err := c.Seek(xid6Offset); err != nil {
		return nil
	}

	ch := binary.NewChain(c)
	magic := ch.Bytes(4, "xid6 magic")
	size := ch.U32("xid6 size")
	if ch.Err() != nil || string(magic) != xid6Magic {
		return nil
	}
	f.HasXID6 = true

	log := opts.Log()
	it := chunk.Iterator{
		Header:     chunk.XID6Header,
		HeaderSize: chunk.XID6HeaderSize,
		Handlers:   f.XID6.handlers(enc, log),
		Budget:     chunk.Align(int64(size), 4),
		Align:      4,
		Logger:     log,
	}
	st, err := it.Run(c)
	if err != nil {
		return fmt.Errorf("read XID6 tags: %w", err)
	}
	f.XID6.Stats = st
	if st.Truncated {
		file.Warn("chunks", st.End, "XID6 block ends inside a sub-chunk")
	}
	if st.Malformed > 0 {
		file.Warn("chunks", xid6Offset, fmt.Sprintf("%d XID6 values overran their sub-chunk", st.Malformed))
	}
	return nil
}

func (x *Extended) handlers(enc encoding.Encoding, log *slog.Logger) map[uint32]chunk.Handler {
	text := func(dst *string, limit int64) chunk.Handler {
		return func(h chunk.Header, p *binary.Cursor) error {
			if h.Type != chunk.XID6String || !chunk.ValidStringLength(h.Length, limit) {
				log.Debug("rejecting xid6 string",
					slog.Int("id", int(h.ID)),
					slog.Int("type", int(h.Type)),
					slog.Int64("length", h.Length))
				return nil
			}
			b, err := p.Bytes(int(h.Length), "xid6 string")
			if err != nil {
				return err
			}
			if s := binary.DecodeText(binary.TrimText(b), enc); s != "" {
				*dst = s
			}
			return nil
		}
	}

	// integer reads the 4-byte payload, or the data word when the tag was
	// stored inline.
	integer := func(set func(uint32)) chunk.Handler {
		return func(h chunk.Header, p *binary.Cursor) error {
			if h.Type == chunk.XID6Inline {
				set(uint32(h.Data))
				return nil
			}
			v, err := p.U32("xid6 integer")
			if err != nil {
				return err
			}
			set(v)
			return nil
		}
	}

	inline := func(set func(uint16)) chunk.Handler {
		return func(h chunk.Header, _ *binary.Cursor) error {
			set(h.Data)
			return nil
		}
	}

	clamped := func(name string, raw, v uint32) uint32 {
		if raw != v {
			log.Debug("clamped xid6 value",
				slog.String("tag", name),
				slog.Any("raw", raw),
				slog.Any("value", v))
		}
		return v
	}

	return map[uint32]chunk.Handler{
		xid6Song:      text(&x.Song, chunk.MaxTextLength),
		xid6Game:      text(&x.Game, chunk.MaxTextLength),
		xid6Artist:    text(&x.Artist, chunk.MaxTextLength),
		xid6Dumper:    text(&x.Dumper, maxDumperLength),
		xid6Comment:   text(&x.Comment, chunk.MaxTextLength),
		xid6OST:       text(&x.OSTTitle, chunk.MaxTextLength),
		xid6Publisher: text(&x.Publisher, chunk.MaxTextLength),

		xid6Date:     integer(func(v uint32) { x.DumpDate = v }),
		xid6Emulator: inline(func(v uint16) { x.Emulator = uint8(v) }),
		xid6Disc: inline(func(v uint16) {
			x.Disc = uint8(clamped("disc", uint32(v), uint32(chunk.ClampDisc(v))))
		}),
		xid6Track: inline(func(v uint16) {
			x.Track, x.TrackSuffix = chunk.TrackNumber(v)
		}),
		xid6Copyright: inline(func(v uint16) { x.Copyright = v }),

		xid6IntroLength: integer(func(v uint32) { x.IntroTicks = clamped("intro", v, chunk.ClampTicks(v)) }),
		xid6LoopLength:  integer(func(v uint32) { x.LoopTicks = clamped("loop", v, chunk.ClampTicks(v)) }),
		xid6EndLength:   integer(func(v uint32) { x.EndTicks = clamped("end", v, chunk.ClampTicks(v)) }),
		xid6FadeLength:  integer(func(v uint32) { x.FadeTicks = clamped("fade", v, chunk.ClampFade(v)) }),

		xid6MutedVoices: inline(func(v uint16) { x.MutedVoices = uint8(v) }),
		xid6LoopCount: inline(func(v uint16) {
			x.Loops = uint8(clamped("loops", uint32(uint8(v)), uint32(chunk.ClampLoops(uint8(v)))))
		}),
		xid6MixingLevel: integer(func(v uint32) { x.MixingLevel = clamped("mixing level", v, chunk.ClampMixLevel(v)) }),
	}
}

func (x *Extended) fillTags(t *types.Tags) {
	t.SetPresent("XID6:SONG", x.Song)
	t.SetPresent("XID6:GAME", x.Game)
	t.SetPresent("XID6:ARTIST", x.Artist)
	t.SetPresent("XID6:DUMPER", x.Dumper)
	t.SetPresent("XID6:COMMENT", x.Comment)
	t.SetPresent("XID6:OST", x.OSTTitle)
	t.SetPresent("XID6:PUBLISHER", x.Publisher)

	if x.DumpDate != 0 {
		y, m, d := x.DumpDate/10000, x.DumpDate/100%100, x.DumpDate%100
		t.Set("XID6:DATE", fmt.Sprintf("%04d-%02d-%02d", y, m, d))
	}
	if x.Emulator != 0 {
		t.Set("XID6:EMULATOR", EmulatorName(x.Emulator))
	}
	if x.Track != 0 {
		track := strconv.Itoa(int(x.Track))
		if x.TrackSuffix >= 'a' && x.TrackSuffix <= 'z' || x.TrackSuffix >= 'A' && x.TrackSuffix <= 'Z' {
			track += string(rune(x.TrackSuffix))
		}
		t.Set("XID6:TRACK", track)
	}
	if x.Disc != 0 {
		t.Set("XID6:DISC", strconv.Itoa(int(x.Disc)))
	}
	if x.Copyright != 0 {
		t.Set("XID6:COPYRIGHT", strconv.Itoa(int(x.Copyright)))
	}
}

var emulators = [...]string{
	0: "Unknown",
	1: "ZSNES",
	2: "Snes9x",
	3: "ZST2SPC",
	4: "ETC",
	5: "SNEShout",
	6: "ZSNESW",
	7: "Snes9xpp",
	8: "SNESGT",
}

// EmulatorName returns the dumping emulator named by an emulator code.
func EmulatorName(code uint8) string {
	if int(code) < len(emulators) {
		return emulators[code]
	}
	return "Other"
}
