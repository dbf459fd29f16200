package chunk

import (
	"bytes"
	"errors"
	"testing"

	bin "github.com/simonhull/chipmeta/internal/binary"
)

func newCursor(data []byte, order bin.Endianness) *bin.Cursor {
	sr := bin.NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.chunks")
	return bin.NewCursor(sr, order)
}

// xid6 appends one XID6 sub-chunk. Payloads are padded to 4 bytes.
func xid6(sw *bin.SafeWriter, id, typ uint8, data uint16, payload []byte) {
	bin.WriteLE(sw, id)
	bin.WriteLE(sw, typ)
	bin.WriteLE(sw, data)
	sw.WriteBytes(payload)
	if pad := Align(int64(len(payload)), 4) - int64(len(payload)); pad > 0 {
		sw.WriteBytes(make([]byte, pad))
	}
}

func fourCC(sw *bin.SafeWriter, tag string, payload []byte) {
	sw.WriteString(tag)
	bin.Write(sw, uint32(len(payload)))
	sw.WriteBytes(payload)
}

func TestIterator_SelfHealing(t *testing.T) {
	buf := &bytes.Buffer{}
	sw := bin.NewSafeWriter(buf)
	xid6(sw, 0x01, XID6String, 6, []byte("Title\x00"))
	xid6(sw, 0x02, XID6String, 5, []byte("Game\x00"))
	xid6(sw, 0x11, XID6Inline, 3, nil)

	var game string
	var disc uint16
	it := &Iterator{
		Header:     XID6Header,
		HeaderSize: XID6HeaderSize,
		Budget:     int64(buf.Len()),
		Align:      4,
		Handlers: map[uint32]Handler{
			// Reads a single byte of a six-byte payload.
			0x01: func(h Header, p *bin.Cursor) error {
				_, err := p.U8("first letter")
				return err
			},
			0x02: func(h Header, p *bin.Cursor) error {
				s, err := p.String(int(h.Length), nil, "game")
				game = string(bin.TrimText([]byte(s)))
				return err
			},
			0x11: func(h Header, p *bin.Cursor) error {
				disc = h.Data
				return nil
			},
		},
	}

	st, err := it.Run(newCursor(buf.Bytes(), bin.LittleEndian))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if game != "Game" {
		t.Errorf("game = %q, want %q", game, "Game")
	}
	if disc != 3 {
		t.Errorf("disc = %d, want 3", disc)
	}
	if st.Chunks != 3 || st.Decoded != 3 || st.Truncated {
		t.Errorf("unexpected stats: %+v", st)
	}
	if st.End != int64(buf.Len()) {
		t.Errorf("End = %d, want %d", st.End, buf.Len())
	}
}

func TestIterator_OverReadIsContained(t *testing.T) {
	buf := &bytes.Buffer{}
	sw := bin.NewSafeWriter(buf)
	fourCC(sw, "AAAA", []byte{1, 2})
	fourCC(sw, "BBBB", []byte{3, 4, 5, 6})

	var got uint32
	it := &Iterator{
		Header:     FourCC(bin.BigEndian),
		HeaderSize: FourCCHeaderSize,
		Budget:     -1,
		Handlers: map[uint32]Handler{
			ID("AAAA"): func(h Header, p *bin.Cursor) error {
				_, err := p.U32("too wide") // payload is only two bytes
				return err
			},
			ID("BBBB"): func(h Header, p *bin.Cursor) error {
				v, err := p.U32("value")
				got = v
				return err
			},
		},
	}

	st, err := it.Run(newCursor(buf.Bytes(), bin.BigEndian))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got != 0x03040506 {
		t.Errorf("second chunk = %#x, want 0x03040506", got)
	}
	if st.Malformed != 1 || st.Decoded != 1 {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestIterator_UnknownChunksSkipped(t *testing.T) {
	buf := &bytes.Buffer{}
	sw := bin.NewSafeWriter(buf)
	fourCC(sw, "JUNK", bytes.Repeat([]byte{0xFF}, 13))
	fourCC(sw, "NAME", []byte("Song"))

	var name string
	var seen []string
	it := &Iterator{
		Header:     FourCC(bin.BigEndian),
		HeaderSize: FourCCHeaderSize,
		Budget:     -1,
		OnChunk:    func(h Header) { seen = append(seen, h.Tag) },
		Handlers: map[uint32]Handler{
			ID("NAME"): func(h Header, p *bin.Cursor) error {
				s, err := p.String(int(h.Length), nil, "name")
				name = s
				return err
			},
		},
	}

	st, err := it.Run(newCursor(buf.Bytes(), bin.BigEndian))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if name != "Song" {
		t.Errorf("name = %q, want Song", name)
	}
	if st.Skipped != 1 || st.Decoded != 1 {
		t.Errorf("unexpected stats: %+v", st)
	}
	if len(seen) != 2 || seen[0] != "JUNK" || seen[1] != "NAME" {
		t.Errorf("OnChunk saw %v", seen)
	}
}

func TestIterator_Budget(t *testing.T) {
	buf := &bytes.Buffer{}
	sw := bin.NewSafeWriter(buf)
	fourCC(sw, "ONE ", []byte{1, 1, 1, 1})
	fourCC(sw, "TWO ", []byte{2, 2, 2, 2})
	fourCC(sw, "THRE", []byte{3, 3, 3, 3})

	tests := []struct {
		name      string
		budget    int64
		want      int
		truncated bool
	}{
		{"zero budget reads nothing", 0, 0, false},
		{"one chunk", 12, 1, false},
		{"second chunk overruns the budget", 13, 2, true},
		{"exact", 36, 3, false},
		{"unbounded", -1, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := &Iterator{
				Header:     FourCC(bin.BigEndian),
				HeaderSize: FourCCHeaderSize,
				Budget:     tt.budget,
			}
			st, err := it.Run(newCursor(buf.Bytes(), bin.BigEndian))
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if st.Chunks != tt.want {
				t.Errorf("Chunks = %d, want %d", st.Chunks, tt.want)
			}
			if st.Truncated != tt.truncated {
				t.Errorf("Truncated = %v, want %v", st.Truncated, tt.truncated)
			}
		})
	}
}

func TestIterator_PayloadPastBudget(t *testing.T) {
	buf := &bytes.Buffer{}
	sw := bin.NewSafeWriter(buf)
	sw.WriteString("MSG\x00")
	bin.WriteLE(sw, uint32(20))
	sw.WriteString("hi|OUTSIDE-REGION!!!")

	var seen []string
	it := &Iterator{
		Header:     FourCC(bin.LittleEndian),
		HeaderSize: FourCCHeaderSize,
		Budget:     10,
		Handlers: map[uint32]Handler{
			ID("MSG\x00"): func(h Header, p *bin.Cursor) error {
				b, err := p.Bytes(int(h.Length), "message")
				seen = append(seen, string(b))
				return err
			},
		},
	}

	st, err := it.Run(newCursor(buf.Bytes(), bin.LittleEndian))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(seen) != 0 {
		t.Errorf("handler read bytes outside the region: %q", seen)
	}
	if st.Chunks != 1 || st.Decoded != 0 || !st.Truncated {
		t.Errorf("unexpected stats: %+v", st)
	}
	if st.End != 0 {
		t.Errorf("End = %d, want 0", st.End)
	}
}

func TestIterator_TruncatedFinalChunk(t *testing.T) {
	buf := &bytes.Buffer{}
	sw := bin.NewSafeWriter(buf)
	xid6(sw, 0x01, XID6String, 4, []byte("Song"))
	// Declares 40 bytes, carries 4.
	bin.WriteLE(sw, uint8(0x07))
	bin.WriteLE(sw, uint8(XID6String))
	bin.WriteLE(sw, uint16(40))
	sw.WriteString("Cut!")

	decoded := 0
	it := &Iterator{
		Header:     XID6Header,
		HeaderSize: XID6HeaderSize,
		Budget:     -1,
		Align:      4,
		Handlers: map[uint32]Handler{
			0x01: func(Header, *bin.Cursor) error { decoded++; return nil },
			0x07: func(Header, *bin.Cursor) error { decoded++; return nil },
		},
	}

	st, err := it.Run(newCursor(buf.Bytes(), bin.LittleEndian))
	if err != nil {
		t.Fatalf("truncation must not be an error: %v", err)
	}
	if !st.Truncated {
		t.Error("expected Truncated")
	}
	if decoded != 1 {
		t.Errorf("decoded %d chunks, want 1", decoded)
	}
	if st.End != 8 {
		t.Errorf("End = %d, want 8", st.End)
	}
}

func TestIterator_ShortHeaderTail(t *testing.T) {
	buf := &bytes.Buffer{}
	sw := bin.NewSafeWriter(buf)
	fourCC(sw, "DATA", []byte{1, 2})
	sw.WriteString("TRK") // not enough for another header

	it := &Iterator{Header: FourCC(bin.BigEndian), HeaderSize: FourCCHeaderSize, Budget: -1}
	st, err := it.Run(newCursor(buf.Bytes(), bin.BigEndian))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Chunks != 1 || !st.Truncated {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestIterator_HandlerErrorPropagates(t *testing.T) {
	buf := &bytes.Buffer{}
	sw := bin.NewSafeWriter(buf)
	fourCC(sw, "FAIL", []byte{0})

	boom := errors.New("boom")
	it := &Iterator{
		Header:     FourCC(bin.BigEndian),
		HeaderSize: FourCCHeaderSize,
		Budget:     -1,
		Handlers: map[uint32]Handler{
			ID("FAIL"): func(Header, *bin.Cursor) error { return boom },
		},
	}
	if _, err := it.Run(newCursor(buf.Bytes(), bin.BigEndian)); !errors.Is(err, boom) {
		t.Errorf("expected handler error, got %v", err)
	}
}

func TestXID6Header_InlineHasNoPayload(t *testing.T) {
	c := newCursor([]byte{0x35, 0x00, 0x05, 0x00}, bin.LittleEndian)
	h, err := XID6Header(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.ID != 0x35 || h.Type != XID6Inline || h.Data != 5 || h.Length != 0 {
		t.Errorf("unexpected header: %+v", h)
	}
}

func TestAlign(t *testing.T) {
	tests := []struct{ n, to, want int64 }{
		{0, 4, 0},
		{1, 4, 4},
		{4, 4, 4},
		{5, 4, 8},
		{7, 0, 7},
		{7, 1, 7},
	}
	for _, tt := range tests {
		if got := Align(tt.n, tt.to); got != tt.want {
			t.Errorf("Align(%d, %d) = %d, want %d", tt.n, tt.to, got, tt.want)
		}
	}
}
