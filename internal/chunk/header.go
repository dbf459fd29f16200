// Package chunk walks self-describing (identifier, length, payload) streams.
//
// The same engine drives SPC's XID6 extended tags, MT2's additional-data
// chunk list and DigiBooster's IFF chunks. What varies between them is the
// header shape (see HeaderFunc) and the value decoders registered for known
// identifiers.
package chunk

import (
	"encoding/binary"

	bin "github.com/simonhull/chipmeta/internal/binary"
)

// Header is one decoded chunk header. It only lives for the duration of the
// iteration step that produced it.
type Header struct {
	// ID is the dispatch key. FourCC headers pack the tag big-endian.
	ID uint32

	// Tag is the printable form of a four-character identifier.
	Tag string

	// Type and Data carry XID6's per-tag type byte and 16-bit data word.
	Type uint8
	Data uint16

	// Offset is where the header starts; HeaderSize bytes later the payload
	// begins and runs for Length bytes.
	Offset     int64
	HeaderSize int64
	Length     int64
}

// PayloadOffset returns the absolute offset of the first payload byte.
func (h Header) PayloadOffset() int64 {
	return h.Offset + h.HeaderSize
}

// HeaderFunc reads one chunk header at the cursor's position.
type HeaderFunc func(c *bin.Cursor) (Header, error)

// XID6 type bytes.
const (
	XID6Inline  = 0 // value lives in the header's data word
	XID6String  = 1
	XID6Integer = 4
)

// XID6HeaderSize is the size of an XID6 sub-chunk header.
const XID6HeaderSize = 4

// XID6Header reads an XID6 sub-chunk header: id(1), type(1), data(2, LE).
// Inline values carry no payload; for the other types the data word is the
// payload length.
func XID6Header(c *bin.Cursor) (Header, error) {
	h := Header{Offset: c.Position(), HeaderSize: XID6HeaderSize}

	ch := bin.NewChain(c)
	id := ch.U8("xid6 tag id")
	h.Type = ch.U8("xid6 tag type")
	h.Data = ch.U16("xid6 tag data")
	if err := ch.Err(); err != nil {
		return Header{}, err
	}

	h.ID = uint32(id)
	if h.Type != XID6Inline {
		h.Length = int64(h.Data)
	}
	return h, nil
}

// FourCCHeaderSize is the size of a four-character-code chunk header.
const FourCCHeaderSize = 8

// FourCC returns a HeaderFunc for chunks made of a four-character tag
// followed by a 32-bit payload length in the given byte order.
func FourCC(order bin.Endianness) HeaderFunc {
	return func(c *bin.Cursor) (Header, error) {
		h := Header{Offset: c.Position(), HeaderSize: FourCCHeaderSize}

		tag, err := c.Bytes(4, "chunk id")
		if err != nil {
			return Header{}, err
		}
		n, err := c.U32Order(order, "chunk length")
		if err != nil {
			return Header{}, err
		}

		h.ID = binary.BigEndian.Uint32(tag)
		h.Tag = string(tag)
		h.Length = int64(n)
		return h, nil
	}
}

// ID packs a four-character tag the way FourCC headers report it.
func ID(tag string) uint32 {
	var b [4]byte
	copy(b[:], tag)
	return binary.BigEndian.Uint32(b[:])
}
