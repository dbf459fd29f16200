// Package psf reads the Portable Sound Format family (PSF, PSF2, SSF, DSF,
// USF, GSF, SNSF, QSF, 2SF and their mini variants).
//
// Only the 16-byte header and the trailing "[TAG]" text block are read; the
// reserved area and the compressed program are skipped by their declared
// lengths.
package psf

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/layout"
	"github.com/simonhull/chipmeta/internal/registry"
	"github.com/simonhull/chipmeta/internal/texttag"
	"github.com/simonhull/chipmeta/internal/types"
)

const (
	// Magic is the 3-byte PSF signature.
	Magic = "PSF"

	headerSize = 0x10
	tagMarker  = "[TAG]"
)

// File is a decoded PSF header and tag block. Text fields hold
// types.NotPresent when the tag block or the individual tag is missing.
type File struct {
	HeaderID       string
	Version        uint8
	ReservedLength uint32
	ProgramLength  uint32
	CRC32          uint32 // of the compressed program; not verified

	HasTags    bool
	Artist     string
	Game       string
	SongTitle  string
	Genre      string
	Copyright  string
	Year       string
	Comment    string
	Ripper     string
	Volume     string
	Length     string
	FadeLength string

	// Parsed forms of Length and FadeLength; zero when absent or malformed.
	LengthDuration time.Duration
	FadeDuration   time.Duration

	// ReferencedLibs lists _lib, _lib2, _lib3, ... in load order.
	ReferencedLibs []string

	block *texttag.Block
}

var header = []layout.Field[File]{
	layout.Raw("header id", 0x00, 3, func(f *File, v []byte) { f.HeaderID = string(v) }),
	layout.U8("version", 0x03, func(f *File, v uint8) { f.Version = v }),
	layout.U32("reserved length", 0x04, func(f *File, v uint32) { f.ReservedLength = v }),
	layout.U32("program length", 0x08, func(f *File, v uint32) { f.ProgramLength = v }),
	layout.U32("program crc32", 0x0C, func(f *File, v uint32) { f.CRC32 = v }),
}

var platforms = map[uint8]string{
	0x01: "PlayStation",
	0x02: "PlayStation 2",
	0x11: "Sega Saturn",
	0x12: "Sega Dreamcast",
	0x13: "Sega Mega Drive",
	0x21: "Nintendo 64",
	0x22: "Game Boy Advance",
	0x23: "Super Nintendo",
	0x24: "Nintendo DS",
	0x41: "Capcom QSound",
}

// Platform names the system identified by the version byte.
func (f *File) Platform() string {
	if name, ok := platforms[f.Version]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (0x%02X)", f.Version)
}

// TagOffset returns where the tag block starts.
func (f *File) TagOffset() int64 {
	return headerSize + int64(f.ReservedLength) + int64(f.ProgramLength)
}

// Tag returns a raw tag value by (case-insensitive) name.
func (f *File) Tag(name string) (string, bool) {
	if f.block == nil {
		return "", false
	}
	return f.block.Get(strings.ToLower(name))
}

// parser implements the registry.FormatParser interface for PSF files
type parser struct{}

// Parse parses a PSF file and extracts metadata
func (p *parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.File, error) {
	c := binary.NewCursor(binary.NewSafeReader(r, size, path), binary.LittleEndian)
	file := &types.File{}

	rec, err := Decode(c, file, opts)
	if err != nil {
		return nil, err
	}

	file.Record = rec
	rec.fillTags(&file.Tags)
	file.Audio = types.AudioInfo{
		Container: strings.ToUpper(family(path)),
		Chip:      rec.Platform(),
		Duration:  rec.LengthDuration,
		Fade:      rec.FadeDuration,
		Songs:     1,
		StartSong: 1,
	}
	return file, nil
}

// Decode reads a PSF header and its tag block from c. The ripper tag is
// chosen by the extension of c's path.
func Decode(c *binary.Cursor, file *types.File, opts types.ParseOptions) (*File, error) {
	rec := &File{}
	if err := layout.Decode(c, rec, header, nil); err != nil {
		return nil, fmt.Errorf("read PSF header: %w", err)
	}
	if rec.HeaderID != Magic {
		return nil, &types.CorruptedFileError{
			Path:   c.Path(),
			Offset: 0,
			Reason: "invalid PSF magic bytes",
		}
	}

	text, ok := readTagBlock(c, rec, file)
	if !ok {
		rec.setAbsent()
		return rec, nil
	}

	// A utf8 tag declares the whole block as UTF-8; otherwise it is
	// system-codepage text.
	block := texttag.ParseKeyValue(string(text))
	if !block.Has("utf8") {
		enc := opts.TextEncoding(charmap.Windows1252)
		block = texttag.ParseKeyValue(binary.DecodeText(text, enc))
	}
	rec.apply(block, ripperKey(c.Path()))
	return rec, nil
}

// readTagBlock returns the bytes after the "[TAG]" marker. ok is false when
// the file has no tag block.
func readTagBlock(c *binary.Cursor, rec *File, file *types.File) ([]byte, bool) {
	off := rec.TagOffset()
	if off > c.Size() {
		file.Warn("tags", headerSize, fmt.Sprintf("binary sections end at %d, past the end of the file", off))
		return nil, false
	}
	if err := c.Seek(off); err != nil || c.Remaining() < int64(len(tagMarker)) {
		return nil, false
	}

	marker, err := c.Bytes(len(tagMarker), "tag marker")
	if err != nil || string(marker) != tagMarker {
		return nil, false
	}
	text, err := c.Bytes(int(c.Remaining()), "tag block")
	if err != nil {
		return nil, false
	}
	return text, true
}

func (f *File) apply(block *texttag.Block, ripper string) {
	f.HasTags = true
	f.block = block

	get := func(key string) string {
		if v, ok := block.Get(key); ok {
			return v
		}
		return types.NotPresent
	}
	f.Artist = get("artist")
	f.Game = get("game")
	f.SongTitle = get("title")
	f.Genre = get("genre")
	f.Copyright = get("copyright")
	f.Year = get("year")
	f.Comment = get("comment")
	f.Volume = get("volume")
	f.Length = get("length")
	f.FadeLength = get("fade")

	f.Ripper = types.NotPresent
	if ripper != "" {
		f.Ripper = get(ripper)
	} else {
		for _, key := range block.Keys() {
			if strings.HasSuffix(key, "sfby") {
				f.Ripper = get(key)
				break
			}
		}
	}

	if d, ok := texttag.ParseClock(f.Length); ok {
		f.LengthDuration = d
	}
	if d, ok := texttag.ParseClock(f.FadeLength); ok {
		f.FadeDuration = d
	}
	f.ReferencedLibs = libs(block)
}

func (f *File) setAbsent() {
	for _, s := range []*string{
		&f.Artist, &f.Game, &f.SongTitle, &f.Genre, &f.Copyright, &f.Year,
		&f.Comment, &f.Ripper, &f.Volume, &f.Length, &f.FadeLength,
	} {
		*s = types.NotPresent
	}
	f.ReferencedLibs = []string{}
}

// libs collects _lib and _libN references, ordered by N with _lib first.
func libs(block *texttag.Block) []string {
	type ref struct {
		n    int
		path string
	}
	var refs []ref
	for _, key := range block.Keys() {
		rest, ok := strings.CutPrefix(key, "_lib")
		if !ok {
			continue
		}
		n := 1
		if rest != "" {
			var err error
			if n, err = strconv.Atoi(rest); err != nil || n < 2 {
				continue
			}
		}
		if v, _ := block.Get(key); v != "" {
			refs = append(refs, ref{n, v})
		}
	}
	slices.SortFunc(refs, func(a, b ref) int { return a.n - b.n })

	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.path)
	}
	return out
}

func (f *File) fillTags(t *types.Tags) {
	if f.block != nil {
		for _, key := range f.block.Keys() {
			t.Set(key, f.block.Values(key)...)
		}
	}
	t.Title = present(f.SongTitle)
	t.Artist = present(f.Artist)
	t.Game = present(f.Game)
	t.Genre = present(f.Genre)
	t.Copyright = present(f.Copyright)
	t.Comment = present(f.Comment)
	t.Dumper = present(f.Ripper)
	t.Date = present(f.Year)
	if y, err := strconv.Atoi(t.Date); err == nil {
		t.Year = y
	}
}

func present(s string) string {
	if s == types.NotPresent {
		return ""
	}
	return s
}

// family returns the format family of a path: "minigsf" -> "gsf",
// "psf2" -> "psf2".
func family(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	ext = strings.TrimPrefix(ext, "mini")
	if ext == "" {
		return "psf"
	}
	return ext
}

// ripperKey returns the tag naming the ripper for the path's format, or ""
// for unknown extensions.
func ripperKey(path string) string {
	switch ext := family(path); ext {
	case "psf", "psf2":
		return "psfby"
	case "dsf", "gsf", "qsf", "ssf", "snsf", "usf", "2sf":
		return ext + "by"
	default:
		return ""
	}
}

func init() {
	registry.Register(types.FormatPSF, &parser{})
}
