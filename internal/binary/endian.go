package binary

// Endianness represents byte order for multi-byte values.
type Endianness int

const (
	// BigEndian uses big-endian byte order.
	// Used by: PSID/RSID headers, ProTracker MOD sample headers, DigiBooster chunks.
	BigEndian Endianness = iota

	// LittleEndian uses little-endian byte order.
	// Used by: SPC, NSF, GBS, PSF and the PC trackers (S3M, XM, IT, MT2, ...).
	LittleEndian
)

func (e Endianness) String() string {
	if e == LittleEndian {
		return "little-endian"
	}
	return "big-endian"
}

// ReadEndian reads a numeric value of type T at the given offset with specified byte order.
//
// Cursor reads go through it; most code should use a Cursor instead.
func ReadEndian[T uint8 | uint16 | uint32 | uint64](sr *SafeReader, off int64, what string, endian Endianness) (T, error) {
	buf := make([]byte, sizeOf[T]())
	if err := sr.ReadAt(buf, off, what); err != nil {
		var zero T
		return zero, err
	}
	return decode[T](buf, endian), nil
}
