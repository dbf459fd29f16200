// Package texttag parses the plain-text tag blocks used by PSF and SAP files.
//
// PSF appends a "[TAG]" block of "name=value" lines after its binary
// sections. SAP starts with "KEYWORD value" lines terminated by the two
// bytes 0xFF 0xFF. Both are scanned line by line; nothing here touches the
// binary parts of either format.
package texttag

import (
	"bytes"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Block is an ordered collection of tag values keyed by normalized name.
type Block struct {
	values map[string][]string
	keys   []string
}

func newBlock() *Block {
	return &Block{values: make(map[string][]string)}
}

func (b *Block) add(key, value string) {
	if _, ok := b.values[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[key] = append(b.values[key], value)
}

// Get returns the first value stored for key.
func (b *Block) Get(key string) (string, bool) {
	v := b.values[key]
	if len(v) == 0 {
		return "", false
	}
	return v[0], true
}

// Values returns every value stored for key, in file order.
func (b *Block) Values(key string) []string {
	return slices.Clone(b.values[key])
}

// Has reports whether key appeared at all.
func (b *Block) Has(key string) bool {
	_, ok := b.values[key]
	return ok
}

// Keys returns the keys in order of first appearance.
func (b *Block) Keys() []string {
	return slices.Clone(b.keys)
}

// Len returns the number of distinct keys.
func (b *Block) Len() int {
	return len(b.keys)
}

// ParseKeyValue parses "name=value" lines. Names are case-insensitive and
// stored lower case. Whitespace around names and values is dropped. A name
// that repeats continues the previous value on a new line, which is how
// multi-line tags are written. Lines without '=' are ignored.
func ParseKeyValue(text string) *Block {
	b := newBlock()
	for line := range strings.Lines(text) {
		line = strings.TrimRight(line, "\r\n")
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		value = strings.TrimSpace(value)

		if prev, seen := b.values[name]; seen {
			prev[0] += "\n" + value
			continue
		}
		b.add(name, value)
	}
	return b
}

// SAPTerminator ends the text header of a SAP file.
var SAPTerminator = []byte{0xFF, 0xFF}

// ParseSAPHeader parses "KEYWORD value" lines up to the binary terminator.
// Keywords are stored upper case; quoted values are unquoted; keywords that
// carry no value (NTSC, STEREO) are stored with an empty value.
func ParseSAPHeader(data []byte) *Block {
	if i := bytes.Index(data, SAPTerminator); i >= 0 {
		data = data[:i]
	}

	b := newBlock()
	for line := range strings.Lines(string(data)) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, _ := strings.Cut(line, " ")
		key = strings.ToUpper(key)
		b.add(key, unquote(strings.TrimSpace(value)))
	}
	return b
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return strings.ReplaceAll(s, `"`, "")
}

// ParseClock parses a play time written as "[[h:]m:]s[.fff]". A comma is
// accepted as the decimal separator.
func ParseClock(s string) (time.Duration, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, false
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, false
	}

	sec, err := strconv.ParseFloat(parts[len(parts)-1], 64)
	if err != nil || sec < 0 {
		return 0, false
	}
	total := time.Duration(sec * float64(time.Second))

	unit := time.Minute
	for i := len(parts) - 2; i >= 0; i-- {
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return 0, false
		}
		total += time.Duration(n) * unit
		unit = time.Hour
	}
	return total.Round(time.Millisecond), true
}
