package xm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/types"
)

func buildHeader(version uint16, patterns, instruments uint16, flags uint16) []byte {
	data := make([]byte, 0x150)
	copy(data, Magic)
	copy(data[0x11:], "Deadlock")
	data[0x25] = 0x1A
	copy(data[0x26:], "FastTracker v2.00   ")
	binary.PutLE16(data, 0x3A, version)
	binary.PutLE32(data, 0x3C, 0x114)
	binary.PutLE16(data, 0x40, 3)
	binary.PutLE16(data, 0x42, 1)
	binary.PutLE16(data, 0x44, 12)
	binary.PutLE16(data, 0x46, patterns)
	binary.PutLE16(data, 0x48, instruments)
	binary.PutLE16(data, 0x4A, flags)
	binary.PutLE16(data, 0x4C, 6)
	binary.PutLE16(data, 0x4E, 125)
	copy(data[0x50:], []byte{0, 2, 1, 7})
	return data
}

func patternHeader(rows uint16, packed []byte) []byte {
	h := make([]byte, 9)
	binary.PutLE32(h, 0, 9)
	binary.PutLE16(h, 5, rows)
	binary.PutLE16(h, 7, uint16(len(packed)))
	return append(h, packed...)
}

func instrument(name string, samples ...[]byte) []byte {
	size := 29
	if len(samples) > 0 {
		size = 263
	}
	h := make([]byte, size)
	binary.PutLE32(h, 0, uint32(size))
	copy(h[4:], name)
	binary.PutLE16(h, 0x1B, uint16(len(samples)))
	if len(samples) > 0 {
		binary.PutLE32(h, 0x1D, 40)
	}
	var data []byte
	for _, s := range samples {
		h = append(h, s[:40]...)
		data = append(data, s[40:]...)
	}
	return append(h, data...)
}

func sample(name string, length int, typ uint8) []byte {
	s := make([]byte, 40+length)
	binary.PutLE32(s, 0x00, uint32(length))
	binary.PutLE32(s, 0x04, 2)
	binary.PutLE32(s, 0x08, 4)
	s[0x0C] = 64
	s[0x0D] = 0xF0
	s[0x0E] = typ
	s[0x0F] = 0x80
	s[0x10] = 0xF4
	copy(s[0x12:], name)
	return s
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func parse(t *testing.T, data []byte) (*types.File, *File) {
	t.Helper()
	file, err := (&parser{}).Parse(bytes.NewReader(data), int64(len(data)), "test.xm", types.ParseOptions{})
	require.NoError(t, err)
	return file, file.Record.(*File)
}

func TestParse_Header(t *testing.T) {
	file, rec := parse(t, buildHeader(0x0104, 0, 0, 1))

	require.Equal(t, Magic, rec.HeaderID)
	require.Equal(t, "Deadlock", rec.ModuleName)
	require.Equal(t, "FastTracker v2.00", rec.ModuleTracker)
	require.Equal(t, uint16(0x0104), rec.Version)
	require.Equal(t, uint32(0x114), rec.HeaderSize)
	require.Equal(t, uint16(3), rec.SongLength)
	require.Equal(t, uint16(1), rec.RestartPosition)
	require.Equal(t, uint16(12), rec.TotalChannels)
	require.Equal(t, Linear, rec.FreqTableType)
	require.Equal(t, uint16(6), rec.DefaultTempo)
	require.Equal(t, uint16(125), rec.DefaultBPM)
	require.Len(t, rec.PatternOrderTable, 256)
	require.Equal(t, []byte{0, 2, 1}, rec.Orders())
	require.Empty(t, rec.Patterns)
	require.Empty(t, rec.Instruments)
	require.Empty(t, file.Warnings)

	require.Equal(t, "Deadlock", file.Tags.Title)
	require.Equal(t, "FastTracker v2.00", file.Tags.GetFirst("TRACKER"))
	require.Equal(t, "XM FastTracker v2.00 12ch", file.Audio.String())
}

func TestParse_FrequencyTable(t *testing.T) {
	for flags, want := range map[uint16]FrequencyTable{0: Amiga, 1: Linear, 2: Amiga, 0xFF01: Linear} {
		_, rec := parse(t, buildHeader(0x0104, 0, 0, flags))
		require.Equal(t, want, rec.FreqTableType, "flags %#x", flags)
	}
	require.Equal(t, "Amiga", Amiga.String())
	require.Equal(t, "Linear", Linear.String())
}

func TestParse_Walk(t *testing.T) {
	data := cat(
		buildHeader(0x0104, 2, 3, 1),
		patternHeader(64, []byte{0x80, 0x80, 0x80}),
		patternHeader(32, nil),
		instrument("Bass", sample("bass loop", 16, 0x11)),
		instrument("Empty"),
		instrument("Pads", sample("pad a", 4, 0), sample("pad b", 8, 0x02)),
	)
	file, rec := parse(t, data)
	require.Empty(t, file.Warnings)

	require.Len(t, rec.Patterns, 2)
	require.Equal(t, uint16(64), rec.Patterns[0].Rows)
	require.Equal(t, uint16(3), rec.Patterns[0].PackedSize)
	require.Equal(t, int64(0x3C+0x114+9+3), rec.Patterns[1].Offset)

	require.Len(t, rec.Instruments, 3)
	require.Equal(t, "Bass", rec.Instruments[0].Name)
	require.Len(t, rec.Instruments[0].Samples, 1)

	bass := rec.Instruments[0].Samples[0]
	require.Equal(t, "bass loop", bass.Name)
	require.Equal(t, uint32(16), bass.Length)
	require.Equal(t, uint8(64), bass.Volume)
	require.Equal(t, int8(-16), bass.FineTune)
	require.Equal(t, int8(-12), bass.RelativeNote)
	require.True(t, bass.Is16Bit())
	require.Equal(t, uint8(1), bass.LoopType())

	require.Equal(t, "Empty", rec.Instruments[1].Name)
	require.Empty(t, rec.Instruments[1].Samples)

	pads := rec.Instruments[2].Samples
	require.Len(t, pads, 2)
	require.Equal(t, "pad a", pads[0].Name)
	require.Equal(t, "pad b", pads[1].Name)
	require.Equal(t, uint8(2), pads[1].LoopType())
	require.False(t, pads[1].Is16Bit())
}

func TestParse_OldVersionStoresInstrumentsFirst(t *testing.T) {
	data := cat(
		buildHeader(0x0103, 1, 1, 0),
		instrument("Lead", sample("saw", 2, 0)),
		patternHeader(16, []byte{0x80}),
	)
	file, rec := parse(t, data)
	require.Empty(t, file.Warnings)
	require.Equal(t, "Lead", rec.Instruments[0].Name)
	require.Equal(t, uint16(16), rec.Patterns[0].Rows)
}

func TestParse_TruncatedWalk(t *testing.T) {
	data := cat(
		buildHeader(0x0104, 1, 2, 1),
		patternHeader(64, nil),
		instrument("Kept"),
		instrument("Lost", sample("cut", 32, 0)),
	)
	data = data[:len(data)-60]

	file, rec := parse(t, data)
	require.Len(t, file.Warnings, 1)
	require.Equal(t, "instruments", file.Warnings[0].Stage)
	require.Len(t, rec.Instruments, 1)
	require.Equal(t, "Kept", rec.Instruments[0].Name)
}

func TestParse_Errors(t *testing.T) {
	bad := buildHeader(0x0104, 0, 0, 0)
	copy(bad, "Extended Modulo: ")
	_, err := (&parser{}).Parse(bytes.NewReader(bad), int64(len(bad)), "bad.xm", types.ParseOptions{})
	var corrupt *types.CorruptedFileError
	require.ErrorAs(t, err, &corrupt)

	short := buildHeader(0x0104, 0, 0, 0)[:0x100]
	_, err = (&parser{}).Parse(bytes.NewReader(short), int64(len(short)), "short.xm", types.ParseOptions{})
	require.ErrorIs(t, err, types.ErrTruncatedRead)
}
