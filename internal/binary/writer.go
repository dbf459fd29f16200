package binary

import (
	"encoding/binary"
	"fmt"
	"io"
)

// SafeWriter wraps io.Writer with position tracking.
//
// The library never writes music files; SafeWriter lays out synthetic
// sources field by field, at the same offsets the parsers read from.
type SafeWriter struct {
	w      io.Writer
	offset int64
}

// NewSafeWriter creates a new SafeWriter.
func NewSafeWriter(w io.Writer) *SafeWriter {
	return &SafeWriter{
		w:      w,
		offset: 0,
	}
}

// Offset returns the current position (number of bytes written).
func (sw *SafeWriter) Offset() int64 {
	return sw.offset
}

// WriteBytes writes raw bytes to the underlying writer.
func (sw *SafeWriter) WriteBytes(b []byte) error {
	n, err := sw.w.Write(b)
	sw.offset += int64(n)
	return err
}

// WriteString writes a string as bytes to the underlying writer.
func (sw *SafeWriter) WriteString(s string) error {
	return sw.WriteBytes([]byte(s))
}

// WriteFixed writes s into a field of exactly width bytes, NUL padded.
// Longer strings are truncated.
func (sw *SafeWriter) WriteFixed(s string, width int) error {
	buf := make([]byte, width)
	copy(buf, s)
	return sw.WriteBytes(buf)
}

// PadTo writes zero bytes until the offset reaches off.
func (sw *SafeWriter) PadTo(off int64) error {
	if off < sw.offset {
		return fmt.Errorf("pad to %d: already at offset %d", off, sw.offset)
	}
	return sw.WriteBytes(make([]byte, off-sw.offset))
}

// Write writes a value of type T in big-endian byte order.
// T must be uint8, uint16, uint32, or uint64.
func Write[T uint8 | uint16 | uint32 | uint64](sw *SafeWriter, val T) error {
	return WriteEndian(sw, val, BigEndian)
}

// WriteLE writes a value of type T in little-endian byte order.
// T must be uint8, uint16, uint32, or uint64.
func WriteLE[T uint8 | uint16 | uint32 | uint64](sw *SafeWriter, val T) error {
	return WriteEndian(sw, val, LittleEndian)
}

// WriteEndian writes a value of type T with the specified byte order.
func WriteEndian[T uint8 | uint16 | uint32 | uint64](sw *SafeWriter, val T, endian Endianness) error {
	buf := make([]byte, sizeOf[T]())
	order := endian.byteOrder()

	var zero T
	switch any(zero).(type) {
	case uint8:
		buf[0] = byte(val)
	case uint16:
		order.PutUint16(buf, uint16(val))
	case uint32:
		order.PutUint32(buf, uint32(val))
	case uint64:
		order.PutUint64(buf, uint64(val))
	}

	return sw.WriteBytes(buf)
}

// PutLE16 is a convenience for patching a little-endian value into b.
func PutLE16(b []byte, off int, v uint16) {
	binary.LittleEndian.PutUint16(b[off:], v)
}

// PutLE32 is a convenience for patching a little-endian value into b.
func PutLE32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:], v)
}

// PutBE16 is a convenience for patching a big-endian value into b.
func PutBE16(b []byte, off int, v uint16) {
	binary.BigEndian.PutUint16(b[off:], v)
}

// PutBE32 is a convenience for patching a big-endian value into b.
func PutBE32(b []byte, off int, v uint32) {
	binary.BigEndian.PutUint32(b[off:], v)
}
