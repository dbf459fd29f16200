package mt2

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/types"
)

func buildHeader(drumLength uint16) []byte {
	data := make([]byte, drumDataOffset)
	copy(data, Magic)
	binary.PutLE16(data, 0x08, 0x0250)
	copy(data[0x0A:], "MadTracker 2.6.1")
	copy(data[0x2A:], "Outland")
	binary.PutLE16(data, 0x6A, 3)
	binary.PutLE16(data, 0x6C, 1)
	binary.PutLE16(data, 0x6E, 5)
	binary.PutLE16(data, 0x70, 2)
	binary.PutLE16(data, 0x72, 0x1000)
	data[0x74] = 6
	data[0x75] = 4
	binary.PutLE32(data, 0x76, FlagPackedPatterns|FlagDrumAutomation|FlagMasterAutomation)
	binary.PutLE16(data, 0x7A, 7)
	binary.PutLE16(data, 0x7C, 9)
	copy(data[0x7E:], []byte{0, 2, 1})
	binary.PutLE16(data, drumLengthOffset, drumLength)
	return data
}

// drums returns a drum block padded past its fields, so the reader has to
// skip by the declared length.
func drums() []byte {
	b := make([]byte, 2+2*drumSampleCount+orderCount+6)
	binary.PutLE16(b, 0, 3)
	for i := 0; i < drumSampleCount; i++ {
		binary.PutLE16(b, 2+2*i, uint16(int16(i-1)))
	}
	b[2+2*drumSampleCount] = 2
	copy(b[len(b)-6:], bytes.Repeat([]byte{0xEE}, 6))
	return b
}

func chunkBytes(tag string, payload []byte) []byte {
	b := make([]byte, 8, 8+len(payload))
	copy(b, tag)
	binary.PutLE32(b, 4, uint32(len(payload)))
	return append(b, payload...)
}

func tracks() []byte {
	b := make([]byte, 2+2*trackRecordSize)
	binary.PutLE16(b, 0, 0x100)
	for i := 0; i < 2; i++ {
		r := b[2+i*trackRecordSize:]
		binary.PutLE16(r, 0, uint16(0x80+i))
		r[2] = 1
		r[3] = byte(i)
		binary.PutLE16(r, 4, 3)
		for j := 0; j < trackParams; j++ {
			binary.PutLE16(r, 6+2*j, uint16(j+1))
		}
	}
	return b
}

func additional(declared int, chunks ...[]byte) []byte {
	body := bytes.Join(chunks, nil)
	if declared < 0 {
		declared = len(body)
	}
	b := make([]byte, 4, 4+len(body))
	binary.PutLE32(b, 0, uint32(declared))
	return append(b, body...)
}

func parse(t *testing.T, data []byte) (*types.File, *File) {
	t.Helper()
	file, err := (&parser{}).Parse(bytes.NewReader(data), int64(len(data)), "test.mt2", types.ParseOptions{})
	require.NoError(t, err)
	return file, file.Record.(*File)
}

func TestParse_Full(t *testing.T) {
	drum := drums()
	data := buildHeader(uint16(len(drum)))
	data = append(data, drum...)
	data = append(data, additional(-1,
		chunkBytes("TRKS", tracks()),
		chunkBytes("MSG\x00", append([]byte{1}, "Hello\r\nWorld\x00"...)),
		chunkBytes("XXXX", []byte{1, 2, 3, 4}),
		chunkBytes("SUM\x00", append([]byte{1, 2, 3, 4, 5, 6}, "Built with MT2"...)),
	)...)

	file, rec := parse(t, data)

	require.Equal(t, Magic, rec.HeaderID)
	require.Equal(t, int16(0x0250), rec.Version)
	require.Equal(t, "MadTracker 2.6.1", rec.TrackerName)
	require.Equal(t, "Outland", rec.Title)
	require.Equal(t, uint16(3), rec.TotalPositions)
	require.Equal(t, uint16(1), rec.RestartPosition)
	require.Equal(t, uint16(5), rec.TotalPatterns)
	require.Equal(t, uint16(2), rec.TotalTracks)
	require.Equal(t, uint16(0x1000), rec.SamplesPerTick)
	require.Equal(t, uint8(6), rec.TicksPerLine)
	require.Equal(t, uint8(4), rec.LinesPerBeat)
	require.True(t, rec.HasPackedPatterns)
	require.False(t, rec.HasAutomation)
	require.True(t, rec.HasDrumAutomation)
	require.True(t, rec.HasMasterAutomation)
	require.Equal(t, uint16(7), rec.TotalInstruments)
	require.Equal(t, uint16(9), rec.TotalSamples)
	require.Equal(t, []uint8{0, 2, 1}, rec.Orders())

	require.False(t, rec.Drums.IsEmpty())
	require.Equal(t, uint16(len(drum)), rec.Drums.Length)
	require.Equal(t, uint16(3), rec.Drums.TotalPatterns)
	require.Equal(t, []int16{-1, 0, 1, 2, 3, 4, 5, 6}, rec.Drums.Samples)
	require.Equal(t, uint8(2), rec.Drums.PatternOrders[0])

	require.True(t, rec.HasChunks)
	require.Equal(t, int64(drumDataOffset+len(drum)+4), rec.ChunksOffset())
	require.Equal(t, []string{"TRKS", "MSG\x00", "XXXX", "SUM\x00"}, rec.Chunks.Tags)
	require.Equal(t, uint16(0x100), rec.Chunks.MasterVolume)
	require.Len(t, rec.Chunks.Tracks, 2)
	require.Equal(t, Track{
		Volume:       0x81,
		EffectBuffer: true,
		OutputTrack:  true,
		EffectID:     3,
		Params:       [trackParams]int16{1, 2, 3, 4, 5, 6, 7, 8},
	}, rec.Chunks.Tracks[1])
	require.False(t, rec.Chunks.Tracks[0].OutputTrack)
	require.Equal(t, []Message{{Show: true, Text: "Hello\r\nWorld"}}, rec.Chunks.Messages)
	require.Equal(t, &Summary{Mask: []byte{1, 2, 3, 4, 5, 6}, Content: "Built with MT2"}, rec.Chunks.Summary)
	require.Equal(t, 3, rec.Chunks.Stats.Decoded)
	require.Equal(t, 1, rec.Chunks.Stats.Skipped)
	require.Empty(t, file.Warnings)

	require.Equal(t, "Outland", file.Tags.Title)
	require.Equal(t, "Hello\nWorld", file.Tags.Comment)
	require.Equal(t, "Built with MT2", file.Tags.GetFirst("SUMMARY"))
	require.Equal(t, "MT2 MadTracker 2.6.1 stereo", file.Audio.String())
}

func TestParse_NoAdditionalData(t *testing.T) {
	file, rec := parse(t, buildHeader(0))

	require.True(t, rec.Drums.IsEmpty())
	require.Nil(t, rec.Drums.Samples)
	require.False(t, rec.HasChunks)
	require.Empty(t, rec.Chunks.Tags)
	require.Empty(t, file.Warnings)
	require.Empty(t, file.Tags.Comment)
}

func TestParse_BudgetStopsIteration(t *testing.T) {
	msg := chunkBytes("MSG\x00", append([]byte{0}, "first"...))
	data := append(buildHeader(0), additional(len(msg),
		msg,
		chunkBytes("MSG\x00", append([]byte{0}, "second"...)),
	)...)

	_, rec := parse(t, data)
	require.Equal(t, []Message{{Text: "first"}}, rec.Chunks.Messages)
	require.Equal(t, 1, rec.Chunks.Stats.Chunks)
}

func TestParse_TruncatedChunk(t *testing.T) {
	data := append(buildHeader(0), additional(-1,
		chunkBytes("MSG\x00", append([]byte{0}, "kept"...)),
		chunkBytes("TRKS", tracks()),
	)...)
	data = data[:len(data)-5]

	file, rec := parse(t, data)
	require.Equal(t, []Message{{Text: "kept"}}, rec.Chunks.Messages)
	require.Nil(t, rec.Chunks.Tracks)
	require.True(t, rec.Chunks.Stats.Truncated)
	require.Len(t, file.Warnings, 1)
	require.Equal(t, "chunks", file.Warnings[0].Stage)
}

func TestParse_Errors(t *testing.T) {
	bad := buildHeader(0)
	copy(bad, "MT21")
	_, err := (&parser{}).Parse(bytes.NewReader(bad), int64(len(bad)), "bad.mt2", types.ParseOptions{})
	var corrupt *types.CorruptedFileError
	require.ErrorAs(t, err, &corrupt)

	short := buildHeader(0)[:0x100]
	_, err = (&parser{}).Parse(bytes.NewReader(short), int64(len(short)), "short.mt2", types.ParseOptions{})
	require.ErrorIs(t, err, types.ErrTruncatedRead)

	drum := buildHeader(300)
	_, err = (&parser{}).Parse(bytes.NewReader(drum), int64(len(drum)), "drum.mt2", types.ParseOptions{})
	require.ErrorContains(t, err, "read MT2 drum data")
}

func TestParse_DrumLengthBoundsRead(t *testing.T) {
	// The fields need 274 bytes but only 20 are declared; what follows is
	// the additional-data region, not drum data.
	data := append(buildHeader(20), drums()...)
	data = append(data, additional(-1, chunkBytes("MSG\x00", append([]byte{0}, "note"...)))...)

	_, err := (&parser{}).Parse(bytes.NewReader(data), int64(len(data)), "drum.mt2", types.ParseOptions{})
	require.ErrorIs(t, err, types.ErrTruncatedRead)
	require.ErrorContains(t, err, "read MT2 drum data")
}
