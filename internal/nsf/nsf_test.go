package nsf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/types"
)

func buildNSF(region, chips uint8) []byte {
	data := make([]byte, 0x80)
	copy(data, Magic)
	data[0x05] = 1
	data[0x06] = 24
	data[0x07] = 2
	binary.PutLE16(data, 0x08, 0x8000)
	binary.PutLE16(data, 0x0A, 0x8003)
	binary.PutLE16(data, 0x0C, 0x8006)
	copy(data[0x0E:], "Mega Man 2")
	copy(data[0x2E:], "Takashi Tateishi")
	copy(data[0x4E:], "1988 Capcom")
	binary.PutLE16(data, 0x6E, 16639)
	data[0x70] = 1
	binary.PutLE16(data, 0x78, 19997)
	data[0x7A] = region
	data[0x7B] = chips
	return data
}

func parse(t *testing.T, data []byte) (*types.File, *File) {
	t.Helper()
	file, err := (&parser{}).Parse(bytes.NewReader(data), int64(len(data)), "test.nsf", types.ParseOptions{})
	require.NoError(t, err)
	return file, file.Record.(*File)
}

func TestParse_Header(t *testing.T) {
	file, rec := parse(t, buildNSF(0, 0))

	require.Equal(t, Magic, rec.Header)
	require.Equal(t, uint8(1), rec.Version)
	require.Equal(t, uint8(24), rec.TotalSongs)
	require.Equal(t, uint8(2), rec.StartingSong)
	require.Equal(t, uint16(0x8000), rec.LoadAddress)
	require.Equal(t, uint16(0x8003), rec.InitAddress)
	require.Equal(t, uint16(0x8006), rec.PlayAddress)
	require.Equal(t, "Mega Man 2", rec.SongName)
	require.Equal(t, "Takashi Tateishi", rec.Artist)
	require.Equal(t, "1988 Capcom", rec.Copyright)
	require.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0}, rec.Bankswitch)
	require.True(t, rec.IsNTSC)
	require.False(t, rec.IsDual)
	require.Equal(t, uint16(16639), rec.SpeedTicks)
	require.False(t, rec.UsesExpansionChips())

	require.Equal(t, "Mega Man 2", file.Tags.Title)
	require.Equal(t, "Takashi Tateishi", file.Tags.Artist)
	require.Equal(t, "NSF", file.Audio.Container)
	require.Equal(t, "2A03", file.Audio.Chip)
	require.Equal(t, "NTSC", file.Audio.VideoStandard)
	require.Equal(t, 24, file.Audio.Songs)
	require.Equal(t, 2, file.Audio.StartSong)
}

func TestParse_Region(t *testing.T) {
	tests := []struct {
		region uint8
		ntsc   bool
		dual   bool
		speed  uint16
		video  string
	}{
		{0x00, true, false, 16639, "NTSC"},
		{0x01, false, false, 19997, "PAL"},
		{0x02, true, true, 16639, "PAL and NTSC"},
		{0x03, false, true, 19997, "PAL and NTSC"},
	}

	for _, tt := range tests {
		_, rec := parse(t, buildNSF(tt.region, 0))
		require.Equal(t, tt.ntsc, rec.IsNTSC, "region %#x", tt.region)
		require.Equal(t, tt.dual, rec.IsDual, "region %#x", tt.region)
		require.Equal(t, tt.speed, rec.SpeedTicks, "region %#x", tt.region)
		require.Equal(t, tt.video, rec.VideoStandard(), "region %#x", tt.region)
	}
}

func TestParse_Chips(t *testing.T) {
	file, rec := parse(t, buildNSF(0, ChipVRC6|ChipFDS|ChipSunsoft))

	require.True(t, rec.HasChip(ChipVRC6))
	require.False(t, rec.HasChip(ChipVRC7))
	require.True(t, rec.HasChip(ChipFDS))
	require.False(t, rec.HasChip(ChipMMC5))
	require.False(t, rec.HasChip(ChipNamco))
	require.True(t, rec.HasChip(ChipSunsoft))
	require.True(t, rec.UsesExpansionChips())
	require.Equal(t, "2A03+VRC6+FDS+Sunsoft5B", file.Audio.Chip)
}

func TestParse_Errors(t *testing.T) {
	bad := buildNSF(0, 0)
	copy(bad, "NESN")
	_, err := (&parser{}).Parse(bytes.NewReader(bad), int64(len(bad)), "bad.nsf", types.ParseOptions{})
	var corrupt *types.CorruptedFileError
	require.ErrorAs(t, err, &corrupt)

	short := buildNSF(0, 0)[:0x70]
	_, err = (&parser{}).Parse(bytes.NewReader(short), int64(len(short)), "short.nsf", types.ParseOptions{})
	require.ErrorIs(t, err, types.ErrTruncatedRead)
}
