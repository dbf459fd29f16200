package binary

import "bytes"

// TrimText applies the fixed-width text rule shared by every format:
// the field ends at the first NUL, and trailing spaces are padding.
func TrimText(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return bytes.TrimRight(b, " ")
}
