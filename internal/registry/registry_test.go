package registry

import (
	"io"
	"testing"

	"github.com/simonhull/chipmeta/internal/types"
)

// mockParser implements FormatParser for testing.
type mockParser struct {
	name string
}

func (m *mockParser) Parse(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.File, error) {
	return &types.File{Path: m.name}, nil
}

func TestRegisterAndGet(t *testing.T) {
	// Use a format that's unlikely to conflict with real registrations
	format := types.Format(999)
	parser := &mockParser{name: "test"}

	Register(format, parser)

	got := Get(format)
	if got == nil {
		t.Fatal("Get() returned nil for registered format")
	}

	mp, ok := got.(*mockParser)
	if !ok {
		t.Fatal("Get() returned wrong parser type")
	}
	if mp.name != "test" {
		t.Errorf("Parser name = %q, want %q", mp.name, "test")
	}
}

func TestGet_Unregistered(t *testing.T) {
	format := types.Format(998)

	if got := Get(format); got != nil {
		t.Errorf("Get() = %v for unregistered format, want nil", got)
	}
}

func TestRegister_Overwrites(t *testing.T) {
	format := types.Format(997)

	Register(format, &mockParser{name: "first"})
	Register(format, &mockParser{name: "second"})

	mp, ok := Get(format).(*mockParser)
	if !ok {
		t.Fatal("Get() returned wrong parser type")
	}
	if mp.name != "second" {
		t.Errorf("Parser name = %q, want %q (should be overwritten)", mp.name, "second")
	}
}

func TestParserFunc(t *testing.T) {
	format := types.Format(996)
	Register(format, ParserFunc(func(r io.ReaderAt, size int64, path string, opts types.ParseOptions) (*types.File, error) {
		return &types.File{Path: path, Size: size}, nil
	}))

	file, err := Get(format).Parse(nil, 42, "x.bin", types.ParseOptions{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if file.Path != "x.bin" || file.Size != 42 {
		t.Errorf("Parse() = %+v", file)
	}
}

func TestFormats_KnownOnly(t *testing.T) {
	Register(types.FormatSTM, &mockParser{name: "stm"})

	found := false
	for _, f := range Formats() {
		if f == types.Format(999) {
			t.Error("Formats() should only list known formats")
		}
		if f == types.FormatSTM {
			found = true
		}
	}
	if !found {
		t.Error("Formats() missing registered STM parser")
	}
}
