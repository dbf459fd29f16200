package chunk

import (
	"errors"
	"fmt"
	"log/slog"

	bin "github.com/simonhull/chipmeta/internal/binary"
)

// Handler decodes one chunk payload. The cursor is limited to the declared
// payload; what the handler leaves unread does not matter.
type Handler func(h Header, payload *bin.Cursor) error

// Stats summarizes one iteration.
type Stats struct {
	Chunks    int // headers read
	Decoded   int // chunks handled by a registered Handler
	Skipped   int // chunks with no Handler
	Malformed int // handlers that ran out of payload

	// Truncated is set when the region ended inside a chunk header or
	// payload. The chunks before it are still decoded.
	Truncated bool

	// End is the cursor position after the last complete chunk.
	End int64
}

// Iterator walks a chunk stream with type-keyed dispatch.
//
// After every chunk the cursor is moved to
// Offset + HeaderSize + align(Length), no matter how much of the payload the
// handler consumed, so one bad value cannot desynchronize the chunks that
// follow it.
type Iterator struct {
	// Header reads a chunk header; HeaderSize is its fixed size.
	Header     HeaderFunc
	HeaderSize int64

	// Handlers maps chunk IDs to value decoders. Unknown IDs are skipped.
	Handlers map[uint32]Handler

	// Budget is the declared length of the chunk region. A negative budget
	// iterates until the end of the cursor's window.
	Budget int64

	// Align rounds each payload length up to a multiple of Align (0 or 1
	// means no padding).
	Align int64

	// OnChunk, when set, observes every header before dispatch.
	OnChunk func(Header)

	Logger *slog.Logger
}

// Run iterates from the cursor's current position. Only I/O failures that
// are not bounds problems are returned as errors; a short region, or a chunk
// whose payload overruns the budget, simply ends the walk and sets
// Stats.Truncated.
func (it *Iterator) Run(c *bin.Cursor) (Stats, error) {
	var st Stats
	log := it.logger()
	budget := it.Budget
	st.End = c.Position()

	// A payload may not run past the declared region, nor past the window.
	end := c.Size()
	if it.Budget >= 0 {
		end = min(end, c.Position()+it.Budget)
	}

	for {
		if it.Budget >= 0 && budget <= 0 {
			break
		}
		if c.Remaining() == 0 {
			break
		}
		if c.Remaining() < it.HeaderSize {
			st.Truncated = true
			log.Debug("chunk header cut short",
				slog.Int64("offset", c.Position()),
				slog.Int64("remaining", c.Remaining()))
			break
		}

		h, err := it.Header(c)
		if err != nil {
			if isBounds(err) {
				st.Truncated = true
				break
			}
			return st, fmt.Errorf("read chunk header at offset %d: %w", c.Position(), err)
		}
		st.Chunks++

		if h.PayloadOffset()+h.Length > end {
			st.Truncated = true
			log.Debug("chunk payload runs past region",
				slog.String("chunk", h.name()),
				slog.Int64("offset", h.Offset),
				slog.Int64("length", h.Length))
			break
		}

		if it.OnChunk != nil {
			it.OnChunk(h)
		}

		if err := it.dispatch(c, h, &st, log); err != nil {
			return st, err
		}

		step := h.HeaderSize + Align(h.Length, it.Align)
		budget -= step

		next := h.Offset + step
		if next > c.Size() {
			// Only the trailing alignment padding is missing.
			next = c.Size()
		}
		if err := c.Seek(next); err != nil {
			return st, err
		}
		st.End = next
	}

	return st, nil
}

func (it *Iterator) dispatch(c *bin.Cursor, h Header, st *Stats, log *slog.Logger) error {
	handler, ok := it.Handlers[h.ID]
	if !ok {
		st.Skipped++
		log.Debug("skipping unknown chunk",
			slog.String("chunk", h.name()),
			slog.Int64("offset", h.Offset),
			slog.Int64("length", h.Length))
		return nil
	}

	if err := c.Seek(h.PayloadOffset()); err != nil {
		return err
	}
	if err := handler(h, c.Limit(h.Length)); err != nil {
		if !isBounds(err) {
			return fmt.Errorf("chunk %s at offset %d: %w", h.name(), h.Offset, err)
		}
		st.Malformed++
		log.Debug("chunk value overran its payload",
			slog.String("chunk", h.name()),
			slog.Int64("offset", h.Offset),
			slog.Any("error", err))
		return nil
	}
	st.Decoded++
	return nil
}

func (it *Iterator) logger() *slog.Logger {
	if it.Logger != nil {
		return it.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Align rounds n up to a multiple of to.
func Align(n, to int64) int64 {
	if to <= 1 {
		return n
	}
	if r := n % to; r != 0 {
		return n + to - r
	}
	return n
}

func (h Header) name() string {
	if h.Tag != "" {
		return fmt.Sprintf("%q", h.Tag)
	}
	return fmt.Sprintf("0x%02X", h.ID)
}

func isBounds(err error) bool {
	return errors.Is(err, bin.ErrTruncatedRead) || errors.Is(err, bin.ErrOutOfRange)
}
