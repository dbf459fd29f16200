package binary

import "golang.org/x/text/encoding"

// Chain allows chaining multiple cursor reads with deferred error checking.
// This avoids repetitive "if err != nil" checks when decoding records
// made of many consecutive fields.
type Chain struct {
	c   *Cursor
	err error
}

// NewChain creates a new Chain reading from c.
func NewChain(c *Cursor) *Chain {
	return &Chain{c: c}
}

// Err returns the first error encountered, if any.
func (ch *Chain) Err() error {
	return ch.err
}

// U8 reads a byte. If a previous read failed, returns zero without reading.
func (ch *Chain) U8(what string) uint8 {
	if ch.err != nil {
		return 0
	}
	v, err := ch.c.U8(what)
	ch.err = err
	return v
}

// I8 reads a signed byte.
func (ch *Chain) I8(what string) int8 {
	if ch.err != nil {
		return 0
	}
	v, err := ch.c.I8(what)
	ch.err = err
	return v
}

// U16 reads an unsigned 16-bit value in the cursor's byte order.
func (ch *Chain) U16(what string) uint16 {
	if ch.err != nil {
		return 0
	}
	v, err := ch.c.U16(what)
	ch.err = err
	return v
}

// I16 reads a signed 16-bit value in the cursor's byte order.
func (ch *Chain) I16(what string) int16 {
	if ch.err != nil {
		return 0
	}
	v, err := ch.c.I16(what)
	ch.err = err
	return v
}

// U32 reads an unsigned 32-bit value in the cursor's byte order.
func (ch *Chain) U32(what string) uint32 {
	if ch.err != nil {
		return 0
	}
	v, err := ch.c.U32(what)
	ch.err = err
	return v
}

// I32 reads a signed 32-bit value in the cursor's byte order.
func (ch *Chain) I32(what string) int32 {
	if ch.err != nil {
		return 0
	}
	v, err := ch.c.I32(what)
	ch.err = err
	return v
}

// Bytes reads n raw bytes.
func (ch *Chain) Bytes(n int, what string) []byte {
	if ch.err != nil {
		return nil
	}
	v, err := ch.c.Bytes(n, what)
	ch.err = err
	return v
}

// Text reads a fixed-width text field, cut at the first NUL and
// right-trimmed of spaces.
func (ch *Chain) Text(n int, enc encoding.Encoding, what string) string {
	b := ch.Bytes(n, what)
	if b == nil {
		return ""
	}
	return DecodeText(TrimText(b), enc)
}

// Skip advances past n bytes.
func (ch *Chain) Skip(n int64) {
	if ch.err != nil {
		return
	}
	ch.err = ch.c.Skip(n)
}

// Seek moves to an absolute offset.
func (ch *Chain) Seek(off int64) {
	if ch.err != nil {
		return
	}
	ch.err = ch.c.Seek(off)
}
