package psf

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/types"
)

func buildPSF(version uint8, reserved, program int, tags string) []byte {
	data := make([]byte, headerSize+reserved+program)
	copy(data, Magic)
	data[3] = version
	binary.PutLE32(data, 0x04, uint32(reserved))
	binary.PutLE32(data, 0x08, uint32(program))
	binary.PutLE32(data, 0x0C, 0xDEADBEEF)
	if tags != "" {
		data = append(data, tagMarker+tags...)
	}
	return data
}

func parse(t *testing.T, data []byte, path string) (*types.File, *File) {
	t.Helper()
	file, err := (&parser{}).Parse(bytes.NewReader(data), int64(len(data)), path, types.ParseOptions{})
	require.NoError(t, err)
	return file, file.Record.(*File)
}

const sampleTags = "\ntitle=Prelude\nartist=Nobuo Uematsu\ngame=Final Fantasy VII\n" +
	"genre=Game\nyear=1997\ncopyright=1997 Square\ncomment=line one\ncomment=line two\n" +
	"psfby=Caitsith2\nvolume=1.0\nlength=2:05.500\nfade=10\n" +
	"_lib=ff7.psflib\n_lib3=third.psflib\n_lib2=second.psflib\n"

func TestParse_Tags(t *testing.T) {
	file, rec := parse(t, buildPSF(0x01, 8, 32, sampleTags), "01 Prelude.minipsf")

	require.Equal(t, "PSF", rec.HeaderID)
	require.Equal(t, uint8(1), rec.Version)
	require.Equal(t, uint32(8), rec.ReservedLength)
	require.Equal(t, uint32(32), rec.ProgramLength)
	require.Equal(t, uint32(0xDEADBEEF), rec.CRC32)
	require.Equal(t, int64(0x10+8+32), rec.TagOffset())
	require.Equal(t, "PlayStation", rec.Platform())

	require.True(t, rec.HasTags)
	require.Equal(t, "Prelude", rec.SongTitle)
	require.Equal(t, "Nobuo Uematsu", rec.Artist)
	require.Equal(t, "Final Fantasy VII", rec.Game)
	require.Equal(t, "Game", rec.Genre)
	require.Equal(t, "1997", rec.Year)
	require.Equal(t, "1997 Square", rec.Copyright)
	require.Equal(t, "line one\nline two", rec.Comment)
	require.Equal(t, "Caitsith2", rec.Ripper)
	require.Equal(t, "1.0", rec.Volume)
	require.Equal(t, "2:05.500", rec.Length)
	require.Equal(t, "10", rec.FadeLength)
	require.Equal(t, 2*time.Minute+5500*time.Millisecond, rec.LengthDuration)
	require.Equal(t, 10*time.Second, rec.FadeDuration)
	require.Equal(t, []string{"ff7.psflib", "second.psflib", "third.psflib"}, rec.ReferencedLibs)

	v, ok := rec.Tag("TITLE")
	require.True(t, ok)
	require.Equal(t, "Prelude", v)

	require.Equal(t, "Prelude", file.Tags.Title)
	require.Equal(t, "Final Fantasy VII", file.Tags.Game)
	require.Equal(t, "Caitsith2", file.Tags.Dumper)
	require.Equal(t, 1997, file.Tags.Year)
	require.Equal(t, "ff7.psflib", file.Tags.GetFirst("_lib"))
	require.Equal(t, "PSF", file.Audio.Container)
	require.Equal(t, "PlayStation", file.Audio.Chip)
	require.Equal(t, 2*time.Minute+15500*time.Millisecond, file.Audio.TotalDuration())
}

func TestParse_RipperByExtension(t *testing.T) {
	tags := "\ngsfby=GSF Ripper\nusfby=USF Ripper\n2sfby=2SF Ripper\n"
	tests := []struct {
		path string
		want string
	}{
		{"song.minigsf", "GSF Ripper"},
		{"song.usf", "USF Ripper"},
		{"song.mini2sf", "2SF Ripper"},
		{"song.ssf", types.NotPresent},
		{"song.bin", "GSF Ripper"}, // first *sfby tag
	}

	for _, tt := range tests {
		_, rec := parse(t, buildPSF(0x22, 0, 4, tags), tt.path)
		require.Equal(t, tt.want, rec.Ripper, tt.path)
	}
}

func TestParse_NoTagBlock(t *testing.T) {
	file, rec := parse(t, buildPSF(0x02, 0, 16, ""), "song.psf2")

	require.False(t, rec.HasTags)
	for _, s := range []string{
		rec.Artist, rec.Game, rec.SongTitle, rec.Genre, rec.Copyright, rec.Year,
		rec.Comment, rec.Ripper, rec.Volume, rec.Length, rec.FadeLength,
	} {
		require.Equal(t, types.NotPresent, s)
	}
	require.Empty(t, rec.ReferencedLibs)
	require.Empty(t, file.Tags.Title)
	require.Empty(t, file.Warnings)
	require.Equal(t, "PSF2", file.Audio.Container)
}

func TestParse_WrongMarker(t *testing.T) {
	data := append(buildPSF(0x01, 0, 4, ""), "[TAX]\ntitle=x\n"...)
	_, rec := parse(t, data, "song.psf")
	require.False(t, rec.HasTags)
	require.Equal(t, types.NotPresent, rec.SongTitle)
}

func TestParse_SectionsPastEOF(t *testing.T) {
	data := buildPSF(0x01, 0, 4, "")
	binary.PutLE32(data, 0x08, 4096)

	file, rec := parse(t, data, "song.psf")
	require.False(t, rec.HasTags)
	require.Len(t, file.Warnings, 1)
	require.Equal(t, "tags", file.Warnings[0].Stage)
}

func TestParse_UTF8(t *testing.T) {
	_, rec := parse(t, buildPSF(0x01, 0, 0, "\nutf8=1\ntitle=ファイナル\n"), "song.psf")
	require.Equal(t, "ファイナル", rec.SongTitle)

	// Without the utf8 tag the block is codepage text.
	_, rec = parse(t, buildPSF(0x01, 0, 0, "\ntitle=Caf\xe9\n"), "song.psf")
	require.Equal(t, "Café", rec.SongTitle)
}

func TestParse_InvalidMagic(t *testing.T) {
	data := buildPSF(0x01, 0, 0, "")
	copy(data, "PSX")
	_, err := (&parser{}).Parse(bytes.NewReader(data), int64(len(data)), "bad.psf", types.ParseOptions{})
	var corrupt *types.CorruptedFileError
	require.ErrorAs(t, err, &corrupt)
}
