package chipmeta

import (
	"errors"
	"strings"
	"testing"
)

func TestOutOfBoundsError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *OutOfBoundsError
		contains []string
	}{
		{
			name: "offset beyond file size",
			err: &OutOfBoundsError{
				Path:   "test.nsf",
				Offset: 1000,
				Length: 4,
				Size:   500,
				What:   "song name",
			},
			contains: []string{"test.nsf", "offset 1000 out of bounds", "file size: 500", "song name"},
		},
		{
			name: "read would exceed file size",
			err: &OutOfBoundsError{
				Path:   "song.it",
				Offset: 100,
				Length: 50,
				Size:   120,
				What:   "instrument table",
			},
			contains: []string{"song.it", "read of 50 bytes", "offset 100", "exceed file size 120", "instrument table"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, substr := range tt.contains {
				if !strings.Contains(msg, substr) {
					t.Errorf("error message %q should contain %q", msg, substr)
				}
			}
		})
	}
}

func TestUnsupportedFormatError_Error(t *testing.T) {
	err := &UnsupportedFormatError{
		Path:   "notes.txt",
		Reason: "no known signature",
	}

	msg := err.Error()
	if !strings.Contains(msg, "notes.txt") {
		t.Errorf("error should contain path, got: %s", msg)
	}
	if !strings.Contains(msg, "no known signature") {
		t.Errorf("error should contain reason, got: %s", msg)
	}
	if !strings.Contains(msg, "unsupported format") {
		t.Errorf("error should contain 'unsupported format', got: %s", msg)
	}
}

func TestCorruptedFileError_Error(t *testing.T) {
	err := &CorruptedFileError{
		Path:   "broken.sid",
		Offset: 256,
		Reason: "invalid SID magic bytes",
	}

	msg := err.Error()
	if !strings.Contains(msg, "broken.sid") {
		t.Errorf("error should contain path, got: %s", msg)
	}
	if !strings.Contains(msg, "offset 256") {
		t.Errorf("error should contain offset, got: %s", msg)
	}
	if !strings.Contains(msg, "invalid SID magic bytes") {
		t.Errorf("error should contain reason, got: %s", msg)
	}
	if !strings.Contains(msg, "corrupted file") {
		t.Errorf("error should contain 'corrupted file', got: %s", msg)
	}
}

func TestOutOfBoundsError_Is(t *testing.T) {
	tests := []struct {
		name string
		err  *OutOfBoundsError
		want error
	}{
		{"read runs past the end", &OutOfBoundsError{Offset: 100, Length: 50, Size: 120}, ErrTruncatedRead},
		{"read starts at the end", &OutOfBoundsError{Offset: 120, Length: 1, Size: 120}, ErrTruncatedRead},
		{"offset past the end", &OutOfBoundsError{Offset: 121, Size: 120}, ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.want)
			}
		})
	}
}
