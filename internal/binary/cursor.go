package binary

import (
	"golang.org/x/text/encoding"
)

// Cursor provides positioned, endian-aware reads over a SafeReader.
//
// Positions are absolute offsets into the source. A cursor returned by
// Limit shares the source but refuses to read or seek past its window.
type Cursor struct {
	sr    *SafeReader
	start int64
	end   int64
	pos   int64
	order Endianness
}

// NewCursor creates a cursor over the whole source, positioned at 0.
func NewCursor(sr *SafeReader, order Endianness) *Cursor {
	return &Cursor{
		sr:    sr,
		end:   sr.size,
		order: order,
	}
}

// Path returns the source path, used in error messages.
func (c *Cursor) Path() string {
	return c.sr.path
}

// Order returns the cursor's default byte order.
func (c *Cursor) Order() Endianness {
	return c.order
}

// Position returns the absolute offset of the next read.
func (c *Cursor) Position() int64 {
	return c.pos
}

// Size returns the absolute end of the readable window.
func (c *Cursor) Size() int64 {
	return c.end
}

// Remaining returns the number of unread bytes in the window.
func (c *Cursor) Remaining() int64 {
	if c.pos >= c.end {
		return 0
	}
	return c.end - c.pos
}

// Seek moves to an absolute offset. Seeking to exactly Size is allowed
// and leaves nothing to read.
func (c *Cursor) Seek(off int64) error {
	if off < c.start || off > c.end {
		return &OutOfBoundsError{Path: c.sr.path, What: "seek target", Offset: off, Start: c.start, Size: c.end}
	}
	c.pos = off
	return nil
}

// Skip advances the position by n bytes.
func (c *Cursor) Skip(n int64) error {
	return c.Seek(c.pos + n)
}

// Limit returns a cursor restricted to the next n bytes (or fewer, if the
// window ends first). The parent's position is not changed.
func (c *Cursor) Limit(n int64) *Cursor {
	end := c.pos + n
	if n < 0 || end > c.end {
		end = c.end
	}
	return &Cursor{
		sr:    c.sr,
		start: c.pos,
		end:   end,
		pos:   c.pos,
		order: c.order,
	}
}

// Bytes reads exactly n bytes.
func (c *Cursor) Bytes(n int, what string) ([]byte, error) {
	if n < 0 || c.pos+int64(n) > c.end {
		return nil, &OutOfBoundsError{Path: c.sr.path, What: what, Offset: c.pos, Length: n, Start: c.start, Size: c.end}
	}
	buf := make([]byte, n)
	if err := c.sr.ReadAt(buf, c.pos, what); err != nil {
		return nil, err
	}
	c.pos += int64(n)
	return buf, nil
}

// String reads n bytes and decodes them with enc. A nil encoding keeps the
// raw bytes. No padding is stripped here.
func (c *Cursor) String(n int, enc encoding.Encoding, what string) (string, error) {
	buf, err := c.Bytes(n, what)
	if err != nil {
		return "", err
	}
	return DecodeText(buf, enc), nil
}

// DecodeText converts raw bytes using enc, falling back to the raw bytes
// when the decoder rejects the input.
func DecodeText(b []byte, enc encoding.Encoding) string {
	if enc == nil {
		return string(b)
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// U8 reads an unsigned byte.
func (c *Cursor) U8(what string) (uint8, error) {
	return readValue[uint8](c, c.order, what)
}

// I8 reads a signed byte.
func (c *Cursor) I8(what string) (int8, error) {
	v, err := readValue[uint8](c, c.order, what)
	return int8(v), err
}

// U16 reads an unsigned 16-bit value in the cursor's byte order.
func (c *Cursor) U16(what string) (uint16, error) {
	return readValue[uint16](c, c.order, what)
}

// I16 reads a signed 16-bit value in the cursor's byte order.
func (c *Cursor) I16(what string) (int16, error) {
	v, err := readValue[uint16](c, c.order, what)
	return int16(v), err
}

// U32 reads an unsigned 32-bit value in the cursor's byte order.
func (c *Cursor) U32(what string) (uint32, error) {
	return readValue[uint32](c, c.order, what)
}

// I32 reads a signed 32-bit value in the cursor's byte order.
func (c *Cursor) I32(what string) (int32, error) {
	v, err := readValue[uint32](c, c.order, what)
	return int32(v), err
}

// U16Order reads an unsigned 16-bit value in an explicit byte order.
func (c *Cursor) U16Order(order Endianness, what string) (uint16, error) {
	return readValue[uint16](c, order, what)
}

// U32Order reads an unsigned 32-bit value in an explicit byte order.
func (c *Cursor) U32Order(order Endianness, what string) (uint32, error) {
	return readValue[uint32](c, order, what)
}

// readValue reads T at the current position and advances past it.
func readValue[T uint8 | uint16 | uint32 | uint64](c *Cursor, order Endianness, what string) (T, error) {
	var zero T
	size := sizeOf[T]()
	if c.pos+int64(size) > c.end {
		return zero, &OutOfBoundsError{Path: c.sr.path, What: what, Offset: c.pos, Length: size, Start: c.start, Size: c.end}
	}
	v, err := ReadEndian[T](c.sr, c.pos, what, order)
	if err != nil {
		return zero, err
	}
	c.pos += int64(size)
	return v, nil
}
