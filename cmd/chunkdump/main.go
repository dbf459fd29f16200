// chunkdump prints what chipmeta reads from a file, followed by a listing
// of the chunk regions of SPC (XID6), MT2 (additional data) and DBM files.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/simonhull/chipmeta"
	"github.com/simonhull/chipmeta/internal/binary"
	"github.com/simonhull/chipmeta/internal/chunk"
	"github.com/simonhull/chipmeta/internal/mt2"
)

func main() {
	verbose := flag.Bool("v", false, "log parser debug output to stderr")
	version := flag.Bool("version", false, "print the version and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-v] [-version] <file>...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if *version {
		fmt.Println(chipmeta.GetVersionInfo())
		return
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	var opts []chipmeta.Option
	if *verbose {
		h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
		opts = append(opts, chipmeta.WithLogger(slog.New(h)))
	}

	for _, path := range flag.Args() {
		f, err := chipmeta.Open(path, opts...)
		if err != nil {
			log.Fatalf("error reading %q: %v", path, err)
		}
		printFile(f)
		if err := dumpChunks(f); err != nil {
			log.Fatalf("error walking chunks of %q: %v", path, err)
		}
		fmt.Println()
	}
}

func printFile(f *chipmeta.File) {
	fmt.Printf("%s\n", f.Path)
	fmt.Printf("  format  %s (%s)\n", f.Format, humanize.Bytes(uint64(f.Size)))
	fmt.Printf("  audio   %s\n", f.Audio)
	for _, key := range f.Tags.Keys() {
		fmt.Printf("  %-12s %s\n", key, strings.Join(f.Tags.Get(key), "; "))
	}
	for _, w := range f.Warnings {
		fmt.Printf("  warning %s\n", w)
	}
}

// region is one chunk stream to list.
type region struct {
	name   string
	start  int64
	budget int64
	align  int64
	header chunk.HeaderFunc
	size   int64
}

func dumpChunks(f *chipmeta.File) error {
	osf, err := os.Open(f.Path)
	if err != nil {
		return err
	}
	defer osf.Close()
	c := binary.NewCursor(binary.NewSafeReader(osf, f.Size, f.Path), binary.LittleEndian)

	r, ok, err := findRegion(c, f)
	if err != nil || !ok {
		return err
	}
	if err := c.Seek(r.start); err != nil {
		return err
	}

	fmt.Printf("  %s chunks at %s\n", r.name, humanize.Comma(r.start))
	it := chunk.Iterator{
		Header:     r.header,
		HeaderSize: r.size,
		Budget:     r.budget,
		Align:      r.align,
		OnChunk: func(h chunk.Header) {
			id := h.Tag
			if id == "" {
				id = fmt.Sprintf("0x%02X type %d data 0x%04X", h.ID, h.Type, h.Data)
			}
			fmt.Printf("    %-28q @%-10s %s\n", id, humanize.Comma(h.Offset), humanize.Bytes(uint64(h.Length)))
		},
	}
	st, err := it.Run(c)
	if err != nil {
		return err
	}
	fmt.Printf("  %d chunks, ends at %s", st.Chunks, humanize.Comma(st.End))
	if st.Truncated {
		fmt.Print(" (truncated)")
	}
	fmt.Println()
	return nil
}

// findRegion locates the chunk stream of f, if its format has one.
func findRegion(c *binary.Cursor, f *chipmeta.File) (region, bool, error) {
	switch f.Format {
	case chipmeta.FormatSPC:
		const at = 0x10200
		if c.Size() < at+8 {
			return region{}, false, nil
		}
		if err := c.Seek(at); err != nil {
			return region{}, false, err
		}
		ch := binary.NewChain(c)
		magic := ch.Bytes(4, "xid6 magic")
		n := ch.U32("xid6 size")
		if ch.Err() != nil || string(magic) != "xid6" {
			return region{}, false, nil
		}
		return region{
			name:   "XID6",
			start:  at + 8,
			budget: chunk.Align(int64(n), 4),
			align:  4,
			header: chunk.XID6Header,
			size:   chunk.XID6HeaderSize,
		}, true, nil

	case chipmeta.FormatMT2:
		rec := f.Record.(*mt2.File)
		if !rec.HasChunks {
			return region{}, false, nil
		}
		return region{
			name:   "MT2",
			start:  rec.ChunksOffset(),
			budget: int64(rec.Chunks.Length),
			header: chunk.FourCC(binary.LittleEndian),
			size:   chunk.FourCCHeaderSize,
		}, true, nil

	case chipmeta.FormatDBM:
		return region{
			name:   "DBM",
			start:  8,
			budget: -1,
			header: chunk.FourCC(binary.BigEndian),
			size:   chunk.FourCCHeaderSize,
		}, true, nil
	}
	return region{}, false, nil
}
