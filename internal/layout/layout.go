// Package layout decodes fixed-offset binary headers from declarative field
// tables, plus fixed-stride record tables.
//
// A format describes its header once as a []Field[R] and hands it to Decode.
// Each field carries its own authoritative offset, so table order only
// matters for fields whose offset is computed from a value read earlier:
//
//	var header = []layout.Field[Header]{
//		layout.U16("instrument count", 0x22, func(h *Header, v uint16) { h.Instruments = v }),
//		layout.U32("instrument base", 0, func(h *Header, v uint32) { h.Base = v }).
//			Computed(func(h *Header) int64 { return 0xC0 + int64(h.Orders) }),
//	}
package layout

import (
	"errors"

	"golang.org/x/text/encoding"

	"github.com/simonhull/chipmeta/internal/binary"
)

// Kind identifies how a field's bytes are interpreted.
type Kind int

const (
	KindU8 Kind = iota
	KindI8
	KindU16
	KindI16
	KindU32
	KindI32
	KindText
	KindRaw
)

// Field describes one fixed-width value of record R.
type Field[R any] struct {
	Name   string
	Offset int64
	Kind   Kind
	Width  int

	at       func(*R) int64
	order    binary.Endianness
	hasOrder bool

	setInt  func(*R, uint32)
	setText func(*R, string)
	setRaw  func(*R, []byte)
}

// Computed returns a copy of f whose offset is derived from fields already
// decoded into the record. The computed offset is absolute, even inside
// DecodeAt.
func (f Field[R]) Computed(at func(*R) int64) Field[R] {
	f.at = at
	return f
}

// Endian returns a copy of f read in an explicit byte order instead of the
// cursor's default.
func (f Field[R]) Endian(order binary.Endianness) Field[R] {
	f.order = order
	f.hasOrder = true
	return f
}

func intField[R any](name string, off int64, kind Kind, width int, set func(*R, uint32)) Field[R] {
	return Field[R]{Name: name, Offset: off, Kind: kind, Width: width, setInt: set}
}

// U8 declares an unsigned byte.
func U8[R any](name string, off int64, set func(*R, uint8)) Field[R] {
	return intField(name, off, KindU8, 1, func(r *R, v uint32) { set(r, uint8(v)) })
}

// I8 declares a signed byte.
func I8[R any](name string, off int64, set func(*R, int8)) Field[R] {
	return intField(name, off, KindI8, 1, func(r *R, v uint32) { set(r, int8(v)) })
}

// U16 declares an unsigned 16-bit value.
func U16[R any](name string, off int64, set func(*R, uint16)) Field[R] {
	return intField(name, off, KindU16, 2, func(r *R, v uint32) { set(r, uint16(v)) })
}

// I16 declares a signed 16-bit value.
func I16[R any](name string, off int64, set func(*R, int16)) Field[R] {
	return intField(name, off, KindI16, 2, func(r *R, v uint32) { set(r, int16(v)) })
}

// U32 declares an unsigned 32-bit value.
func U32[R any](name string, off int64, set func(*R, uint32)) Field[R] {
	return intField(name, off, KindU32, 4, set)
}

// I32 declares a signed 32-bit value.
func I32[R any](name string, off int64, set func(*R, int32)) Field[R] {
	return intField(name, off, KindI32, 4, func(r *R, v uint32) { set(r, int32(v)) })
}

// Text declares a fixed-width text field. The stored value is cut at the
// first NUL, right-trimmed of spaces and decoded with the table's encoding.
func Text[R any](name string, off int64, width int, set func(*R, string)) Field[R] {
	return Field[R]{Name: name, Offset: off, Kind: KindText, Width: width, setText: set}
}

// Raw declares a fixed-width byte block, delivered untouched.
func Raw[R any](name string, off int64, width int, set func(*R, []byte)) Field[R] {
	return Field[R]{Name: name, Offset: off, Kind: KindRaw, Width: width, setRaw: set}
}

// Decode applies fields to rec in table order, seeking to every field's
// offset before reading it. The first failing read aborts the decode.
func Decode[R any](c *binary.Cursor, rec *R, fields []Field[R], enc encoding.Encoding) error {
	return DecodeAt(c, 0, rec, fields, enc)
}

// DecodeAt is Decode for a record that starts at base: static offsets are
// relative to base, computed offsets stay absolute.
func DecodeAt[R any](c *binary.Cursor, base int64, rec *R, fields []Field[R], enc encoding.Encoding) error {
	for i := range fields {
		f := &fields[i]

		off := base + f.Offset
		if f.at != nil {
			off = f.at(rec)
		}
		if err := c.Seek(off); err != nil {
			var oob *binary.OutOfBoundsError
			if errors.As(err, &oob) {
				oob.What = f.Name
				oob.Length = f.Width
			}
			return err
		}

		if err := f.read(c, rec, enc); err != nil {
			return err
		}
	}
	return nil
}

func (f *Field[R]) read(c *binary.Cursor, rec *R, enc encoding.Encoding) error {
	order := c.Order()
	if f.hasOrder {
		order = f.order
	}

	switch f.Kind {
	case KindU8, KindI8:
		v, err := c.U8(f.Name)
		if err != nil {
			return err
		}
		f.setInt(rec, uint32(v))
	case KindU16, KindI16:
		v, err := c.U16Order(order, f.Name)
		if err != nil {
			return err
		}
		f.setInt(rec, uint32(v))
	case KindU32, KindI32:
		v, err := c.U32Order(order, f.Name)
		if err != nil {
			return err
		}
		f.setInt(rec, v)
	case KindText:
		b, err := c.Bytes(f.Width, f.Name)
		if err != nil {
			return err
		}
		f.setText(rec, binary.DecodeText(binary.TrimText(b), enc))
	case KindRaw:
		b, err := c.Bytes(f.Width, f.Name)
		if err != nil {
			return err
		}
		f.setRaw(rec, b)
	}
	return nil
}

// Bit reports whether any bit of mask is set in flag.
func Bit[T ~uint8 | ~uint16 | ~uint32](flag, mask T) bool {
	return flag&mask != 0
}
