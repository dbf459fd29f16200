// Package sap reads the text header of Atari 8-bit Slight Atari Player
// files.
package sap

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/registry"
	"github.com/simonhull/chipmeta/internal/texttag"
	"github.com/simonhull/chipmeta/internal/types"
)

// Magic is the first line of every SAP file.
const Magic = "SAP"

// maxHeader bounds the text header scan; real headers are a few hundred
// bytes.
const maxHeader = 64 << 10

// File is a decoded SAP header. Text fields hold types.NotPresent when the
// keyword is missing.
type File struct {
	SongTitle     string
	Artist        string
	Date          string
	SongLength    string // first TIME value
	InitAddress   string
	FastPlay      string
	PlayerType    string
	PlayerAddress string
	MusicAddress  string
	SongCount     string
	DefaultSong   string
	IsNTSC        bool
	IsStereo      bool

	// Times holds every TIME value, one per sub-song, and Durations their
	// parsed form (zero where unparsable). LOOP markers are dropped.
	Times     []string
	Durations []time.Duration
}

// Songs returns the declared sub-song count, 1 when SONGS is missing.
func (f *File) Songs() int {
	if n, err := strconv.Atoi(f.SongCount); err == nil && n > 0 {
		return n
	}
	return 1
}

// StartSong returns the 1-based default sub-song.
func (f *File) StartSong() int {
	if n, err := strconv.Atoi(f.DefaultSong); err == nil && n >= 0 {
		return n + 1
	}
	return 1
}

// parser implements the registry.FormatParser interface for SAP files
type parser struct{}

// Parse parses a SAP file and extracts metadata
func (p *parser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.File, error) {
	c := binary.NewCursor(binary.NewSafeReader(r, size, path), binary.LittleEndian)

	rec, block, err := Decode(c, opts)
	if err != nil {
		return nil, err
	}

	file := &types.File{Record: rec}
	for _, key := range block.Keys() {
		file.Tags.Set(key, block.Values(key)...)
	}
	file.Tags.Title = present(rec.SongTitle)
	file.Tags.Artist = present(rec.Artist)
	file.Tags.Date = present(rec.Date)
	if len(file.Tags.Date) >= 4 {
		if y, err := strconv.Atoi(file.Tags.Date[len(file.Tags.Date)-4:]); err == nil {
			file.Tags.Year = y
		}
	}

	file.Audio = types.AudioInfo{
		Container: "SAP",
		Chip:      "POKEY",
		Channels:  4,
		Songs:     rec.Songs(),
		StartSong: rec.StartSong(),
	}
	if rec.IsStereo {
		file.Audio.Channels = 8
	}
	file.Audio.VideoStandard = "PAL"
	if rec.IsNTSC {
		file.Audio.VideoStandard = "NTSC"
	}
	if i := rec.StartSong() - 1; i < len(rec.Durations) {
		file.Audio.Duration = rec.Durations[i]
	}
	return file, nil
}

// Decode reads the SAP text header from c.
func Decode(c *binary.Cursor, opts types.ParseOptions) (*File, *texttag.Block, error) {
	head, err := c.Bytes(int(min(c.Size(), maxHeader)), "sap header")
	if err != nil {
		return nil, nil, fmt.Errorf("read SAP header: %w", err)
	}
	if !bytes.HasPrefix(head, []byte(Magic+"\r\n")) && !bytes.HasPrefix(head, []byte(Magic+"\n")) {
		return nil, nil, &types.CorruptedFileError{
			Path:   c.Path(),
			Offset: 0,
			Reason: "invalid SAP magic bytes",
		}
	}
	if i := bytes.Index(head, texttag.SAPTerminator); i >= 0 {
		head = head[:i]
	}

	text := binary.DecodeText(head, opts.TextEncoding(charmap.Windows1252))
	block := texttag.ParseSAPHeader([]byte(text))

	get := func(key string) string {
		if v, ok := block.Get(key); ok {
			return v
		}
		return types.NotPresent
	}
	rec := &File{
		SongTitle:     get("NAME"),
		Artist:        get("AUTHOR"),
		Date:          get("DATE"),
		SongLength:    get("TIME"),
		InitAddress:   get("INIT"),
		FastPlay:      get("FASTPLAY"),
		PlayerType:    get("TYPE"),
		PlayerAddress: get("PLAYER"),
		MusicAddress:  get("MUSIC"),
		SongCount:     get("SONGS"),
		DefaultSong:   get("DEFSONG"),
		IsNTSC:        block.Has("NTSC"),
		IsStereo:      block.Has("STEREO"),
		Times:         []string{},
	}

	for _, v := range block.Values("TIME") {
		clock, _, _ := strings.Cut(v, " ")
		rec.Times = append(rec.Times, clock)
		d, _ := texttag.ParseClock(clock)
		rec.Durations = append(rec.Durations, d)
	}
	if len(rec.Times) > 0 {
		rec.SongLength = rec.Times[0]
	}
	return rec, block, nil
}

func present(s string) string {
	if s == types.NotPresent {
		return ""
	}
	return s
}

func init() {
	registry.Register(types.FormatSAP, &parser{})
}
