package layout

import (
	"fmt"

	"golang.org/x/text/encoding"

	"github.com/simonhull/chipmeta/internal/binary"
)

// maxPrealloc bounds the up-front allocation for counts read from untrusted
// headers. Larger tables still decode; they just grow as they go.
const maxPrealloc = 1024

// Repeat decodes count records of a fixed stride starting at base. Record i
// is decoded with the cursor positioned at base + i*stride. A count of zero
// performs no reads. A truncated record fails the whole table.
func Repeat[T any](c *binary.Cursor, base, stride int64, count int, decode func(c *binary.Cursor, i int) (T, error)) ([]T, error) {
	if count <= 0 {
		return []T{}, nil
	}

	out := make([]T, 0, min(count, maxPrealloc))
	for i := 0; i < count; i++ {
		off := base + int64(i)*stride
		if err := c.Seek(off); err != nil {
			return nil, fmt.Errorf("record %d at offset %d: %w", i, off, err)
		}
		v, err := decode(c, i)
		if err != nil {
			return nil, fmt.Errorf("record %d at offset %d: %w", i, off, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// RepeatFields is Repeat for records described by a field table whose
// offsets are relative to the record start.
func RepeatFields[R any](c *binary.Cursor, base, stride int64, count int, fields []Field[R], enc encoding.Encoding) ([]R, error) {
	return Repeat(c, base, stride, count, func(c *binary.Cursor, _ int) (R, error) {
		var rec R
		err := DecodeAt(c, c.Position(), &rec, fields, enc)
		return rec, err
	})
}
