package gbs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/types"
)

func buildGBS() []byte {
	data := make([]byte, 0x70)
	copy(data, Magic)
	data[0x03] = 1
	data[0x04] = 17
	data[0x05] = 1
	binary.PutLE16(data, 0x06, 0x3E80)
	binary.PutLE16(data, 0x08, 0x3E83)
	binary.PutLE16(data, 0x0A, 0x3E86)
	binary.PutLE16(data, 0x0C, 0xDFFF)
	data[0x0E] = 0xC0
	data[0x0F] = timerEnabled | doubleSpeed
	copy(data[0x10:], "Link's Awakening")
	copy(data[0x30:], "Kazumi Totaka")
	copy(data[0x50:], "1993 Nintendo")
	return data
}

func TestParse(t *testing.T) {
	data := buildGBS()
	file, err := (&parser{}).Parse(bytes.NewReader(data), int64(len(data)), "test.gbs", types.ParseOptions{})
	require.NoError(t, err)
	rec := file.Record.(*File)

	require.Equal(t, File{
		HeaderID:     "GBS",
		Version:      1,
		TotalSongs:   17,
		StartingSong: 1,
		LoadAddress:  0x3E80,
		InitAddress:  0x3E83,
		PlayAddress:  0x3E86,
		StackPointer: 0xDFFF,
		TimerModulo:  0xC0,
		TimerControl: 0x84,
		SongTitle:    "Link's Awakening",
		Artist:       "Kazumi Totaka",
		Copyright:    "1993 Nintendo",
	}, *rec)
	require.True(t, rec.UsesTimer())
	require.True(t, rec.DoubleSpeed())

	require.Equal(t, "Link's Awakening", file.Tags.Title)
	require.Equal(t, "Kazumi Totaka", file.Tags.Artist)
	require.Equal(t, 17, file.Audio.Songs)
	require.Equal(t, "GBS LR35902 4ch 17 songs", file.Audio.String())
}

func TestParse_Errors(t *testing.T) {
	bad := buildGBS()
	copy(bad, "GBX")
	_, err := (&parser{}).Parse(bytes.NewReader(bad), int64(len(bad)), "bad.gbs", types.ParseOptions{})
	var corrupt *types.CorruptedFileError
	require.ErrorAs(t, err, &corrupt)

	short := buildGBS()[:0x40]
	_, err = (&parser{}).Parse(bytes.NewReader(short), int64(len(short)), "short.gbs", types.ParseOptions{})
	require.ErrorIs(t, err, types.ErrTruncatedRead)
}
