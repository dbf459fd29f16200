package ptm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/types"
)

func buildPTM(samples int) []byte {
	data := make([]byte, sampleTable+samples*sampleStride)
	copy(data, "Soundscape")
	data[0x1C] = 0x1A
	binary.PutLE16(data, 0x1D, 0x0203)
	binary.PutLE16(data, 0x20, 3)
	binary.PutLE16(data, 0x22, uint16(samples))
	binary.PutLE16(data, 0x24, 4)
	binary.PutLE16(data, 0x26, 6)
	copy(data[0x2C:], Magic)
	copy(data[0x40:], []byte{3, 12, 3, 12, 7, 8, 9})
	copy(data[0x60:], []byte{0, 2, 1, 0xFF})
	for i := 0; i < samples; i++ {
		s := data[sampleTable+i*sampleStride:]
		s[0] = 0x05
		copy(s[0x01:], "BASS.SMP")
		s[0x0D] = 64
		binary.PutLE16(s, 0x0E, 8448)
		binary.PutLE32(s, 0x16, 1000)
		binary.PutLE32(s, 0x1A, 10)
		binary.PutLE32(s, 0x1E, 999)
		copy(s[0x30:], "slap bass")
		copy(s[0x4C:], "PTMS")
	}
	return data
}

func parse(t *testing.T, data []byte) (*types.File, *File) {
	t.Helper()
	file, err := (&parser{}).Parse(bytes.NewReader(data), int64(len(data)), "test.ptm", types.ParseOptions{})
	require.NoError(t, err)
	return file, file.Record.(*File)
}

func TestParse_Header(t *testing.T) {
	file, rec := parse(t, buildPTM(2))

	require.Equal(t, "Soundscape", rec.SongName)
	require.Equal(t, uint16(0x0203), rec.Version)
	require.Equal(t, uint16(3), rec.TotalOrders)
	require.Equal(t, uint16(2), rec.TotalInstruments)
	require.Equal(t, uint16(4), rec.TotalPatterns)
	require.Equal(t, uint16(6), rec.Channels)
	require.Equal(t, uint8(3), rec.Panning)
	require.Equal(t, []uint8{3, 12, 3, 12, 7, 8}, rec.ChannelPanning)
	require.Equal(t, []uint8{0, 2, 1}, rec.Orders)
	require.Equal(t, "PolyTracker 2.03", rec.Tracker())

	require.Len(t, rec.Samples, 2)
	require.Equal(t, Sample{
		Type:      0x05,
		Filename:  "BASS.SMP",
		Volume:    64,
		C4Speed:   8448,
		Length:    1000,
		LoopBegin: 10,
		LoopEnd:   999,
		Name:      "slap bass",
	}, rec.Samples[1])

	require.Equal(t, "Soundscape", file.Tags.Title)
	require.Equal(t, "PTM PolyTracker 2.03 6ch", file.Audio.String())
}

func TestParse_NoSamples(t *testing.T) {
	_, rec := parse(t, buildPTM(0))
	require.Empty(t, rec.Samples)
}

func TestParse_Errors(t *testing.T) {
	bad := buildPTM(0)
	copy(bad[0x2C:], "PTMX")
	_, err := (&parser{}).Parse(bytes.NewReader(bad), int64(len(bad)), "bad.ptm", types.ParseOptions{})
	var corrupt *types.CorruptedFileError
	require.ErrorAs(t, err, &corrupt)

	short := buildPTM(2)[:sampleTable+sampleStride+0x20]
	_, err = (&parser{}).Parse(bytes.NewReader(short), int64(len(short)), "short.ptm", types.ParseOptions{})
	require.ErrorIs(t, err, types.ErrTruncatedRead)
}
