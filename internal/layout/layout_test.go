package layout

import (
	"bytes"
	"errors"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"github.com/simonhull/chipmeta/internal/binary"
)

type header struct {
	Version  uint8
	Pitch    int8
	Count    uint16
	Signed   int16
	Base     uint32
	Delta    int32
	Name     string
	Magic    []byte
	BigCount uint16
	Indirect uint8
}

func headerFields() []Field[header] {
	return []Field[header]{
		Raw("magic", 0, 4, func(h *header, v []byte) { h.Magic = v }),
		U8("version", 4, func(h *header, v uint8) { h.Version = v }),
		I8("pitch", 5, func(h *header, v int8) { h.Pitch = v }),
		U16("count", 6, func(h *header, v uint16) { h.Count = v }),
		I16("signed", 8, func(h *header, v int16) { h.Signed = v }),
		U32("base", 10, func(h *header, v uint32) { h.Base = v }),
		I32("delta", 14, func(h *header, v int32) { h.Delta = v }),
		Text("name", 18, 8, func(h *header, v string) { h.Name = v }),
		U16("big count", 26, func(h *header, v uint16) { h.BigCount = v }).Endian(binary.BigEndian),
		U8("indirect", 0, func(h *header, v uint8) { h.Indirect = v }).
			Computed(func(h *header) int64 { return int64(h.Base) }),
	}
}

func buildHeader(t *testing.T) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	sw := binary.NewSafeWriter(buf)
	sw.WriteString("TEST")
	binary.WriteLE(sw, uint8(3))
	binary.WriteLE(sw, uint8(0xE0))
	binary.WriteLE(sw, uint16(0x0102))
	binary.WriteLE(sw, uint16(0xFFFE))
	binary.WriteLE(sw, uint32(30))
	binary.WriteLE(sw, uint32(0xFFFFFFFF))
	sw.WriteFixed("Caf\x82  ", 8)
	binary.Write(sw, uint16(0x0005))
	sw.PadTo(30)
	binary.WriteLE(sw, uint8(0x7A))
	return buf.Bytes()
}

func newCursor(data []byte) *binary.Cursor {
	sr := binary.NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.bin")
	return binary.NewCursor(sr, binary.LittleEndian)
}

func TestDecode(t *testing.T) {
	var h header
	err := Decode(newCursor(buildHeader(t)), &h, headerFields(), charmap.CodePage437)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if string(h.Magic) != "TEST" {
		t.Errorf("Magic = %q, want TEST", h.Magic)
	}
	if h.Version != 3 {
		t.Errorf("Version = %d, want 3", h.Version)
	}
	if h.Pitch != -32 {
		t.Errorf("Pitch = %d, want -32", h.Pitch)
	}
	if h.Count != 0x0102 {
		t.Errorf("Count = %#x, want 0x0102", h.Count)
	}
	if h.Signed != -2 {
		t.Errorf("Signed = %d, want -2", h.Signed)
	}
	if h.Base != 30 {
		t.Errorf("Base = %d, want 30", h.Base)
	}
	if h.Delta != -1 {
		t.Errorf("Delta = %d, want -1", h.Delta)
	}
	if h.Name != "Café" {
		t.Errorf("Name = %q, want %q", h.Name, "Café")
	}
	if h.BigCount != 5 {
		t.Errorf("BigCount = %d, want 5", h.BigCount)
	}
	if h.Indirect != 0x7A {
		t.Errorf("Indirect = %#x, want 0x7a", h.Indirect)
	}
}

func TestDecode_OffsetsAreIndependentOfOrder(t *testing.T) {
	fields := headerFields()
	// Reverse the static part of the table; the computed field stays last.
	static := fields[:len(fields)-1]
	for i, j := 0, len(static)-1; i < j; i, j = i+1, j-1 {
		static[i], static[j] = static[j], static[i]
	}

	var h header
	if err := Decode(newCursor(buildHeader(t)), &h, fields, nil); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if h.Version != 3 || h.Count != 0x0102 || h.Indirect != 0x7A {
		t.Errorf("unexpected record: %+v", h)
	}
}

func TestDecode_Truncated(t *testing.T) {
	data := buildHeader(t)[:20]

	var h header
	err := Decode(newCursor(data), &h, headerFields(), nil)
	if !errors.Is(err, binary.ErrTruncatedRead) {
		t.Fatalf("expected ErrTruncatedRead, got %v", err)
	}
}

func TestDecode_ComputedOutOfRange(t *testing.T) {
	data := buildHeader(t)
	binary.PutLE32(data, 10, 5000)

	var h header
	err := Decode(newCursor(data), &h, headerFields(), nil)
	if !errors.Is(err, binary.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}

	var oob *binary.OutOfBoundsError
	if !errors.As(err, &oob) || oob.What != "indirect" {
		t.Errorf("error should name the failing field: %v", err)
	}
}

func TestBit(t *testing.T) {
	tests := []struct {
		flag uint8
		mask uint8
		want bool
	}{
		{0x00, 0x01, false},
		{0x01, 0x01, true},
		{0x80, 0x80, true},
		{0x7F, 0x80, false},
		{0x0C, 0x04, true},
	}
	for _, tt := range tests {
		if got := Bit(tt.flag, tt.mask); got != tt.want {
			t.Errorf("Bit(%#x, %#x) = %v, want %v", tt.flag, tt.mask, got, tt.want)
		}
	}

	if !Bit(uint16(0x0100), 0x0100) {
		t.Error("Bit should accept 16-bit flags")
	}
}
