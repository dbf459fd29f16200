package types

import (
	"iter"
	"maps"
	"slices"
	"strings"
)

// NotPresent is the sentinel stored in text fields of a format record when
// the file has no value for them. Tags never carry it: an absent value is
// an empty string there.
const NotPresent = "N/A"

// Tags represents format-agnostic song metadata.
//
// Tags provides a unified view across the game-music rip formats and the
// tracker modules. Format-specific fields are mapped to standard fields
// where possible; every value the parser saw is also kept in the raw map,
// under the format's own key name ("XID6:SONG", "AUTHOR", "psfby", ...).
type Tags struct {
	raw         map[string][]string
	Title       string
	Artist      string
	Game        string // album-equivalent for rips; OST title when present
	Copyright   string
	Publisher   string
	Comment     string
	Date        string
	Genre       string
	Dumper      string // ripper or dumper credit
	TrackNumber int
	DiscNumber  int
	Year        int
}

// All returns an iterator over all raw tags.
//
// The iterator yields key-value pairs where values are string slices
// (some tags, such as SAP's TIME, repeat).
//
// Example:
//
//	for key, values := range file.Tags.All() {
//		fmt.Printf("%s: %v\n", key, values)
//	}
//
// The returned iterator is read-only. Do not modify the returned slices.
func (t *Tags) All() iter.Seq2[string, []string] {
	return func(yield func(string, []string) bool) {
		if t.raw == nil {
			return
		}
		for key, values := range t.raw {
			if !yield(key, values) {
				return
			}
		}
	}
}

// Keys returns the raw tag keys in sorted order.
func (t *Tags) Keys() []string {
	return slices.Sorted(maps.Keys(t.raw))
}

// Get retrieves all values for a tag key.
//
// Tag keys are format-specific (e.g., "XID6:OST", "AUTHOR", "_lib2").
// Returns nil if the key doesn't exist.
//
// Example:
//
//	libs := file.Tags.Get("_lib")
func (t *Tags) Get(key string) []string {
	if t.raw == nil {
		return nil
	}
	values := t.raw[key]
	if values == nil {
		return nil
	}
	return slices.Clone(values) // Return a copy to prevent modification
}

// GetFirst retrieves the first value for a tag key.
//
// Returns empty string if the key doesn't exist or has no values.
func (t *Tags) GetFirst(key string) string {
	values := t.Get(key)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// GetBest tries multiple tag keys and returns the first non-empty value.
//
//	artist := tags.GetBest("XID6:ARTIST", "ID666:ARTIST")
func (t *Tags) GetBest(candidates ...string) string {
	for _, key := range candidates {
		if value := t.GetFirst(key); value != "" {
			return value
		}
	}
	return ""
}

// Set stores raw values for a tag key. Parsers call it while building a
// File; an empty values list removes the key.
func (t *Tags) Set(key string, values ...string) {
	if t.raw == nil {
		t.raw = make(map[string][]string)
	}

	if len(values) == 0 {
		delete(t.raw, key)
		return
	}

	t.raw[key] = slices.Clone(values)
}

// SetPresent stores value under key unless it is empty or the NotPresent
// sentinel, and returns the value with the sentinel mapped to "".
func (t *Tags) SetPresent(key, value string) string {
	if value == "" || value == NotPresent {
		return ""
	}
	t.Set(key, value)
	return value
}

// Merge merges tags from another Tags object.
//
// For standard fields, non-empty values in other override empty values in t.
// For raw tags, all tags from other are copied to t.
func (t *Tags) Merge(other *Tags) {
	if other == nil {
		return
	}

	for _, f := range []struct{ dst, src *string }{
		{&t.Title, &other.Title},
		{&t.Artist, &other.Artist},
		{&t.Game, &other.Game},
		{&t.Copyright, &other.Copyright},
		{&t.Publisher, &other.Publisher},
		{&t.Comment, &other.Comment},
		{&t.Date, &other.Date},
		{&t.Genre, &other.Genre},
		{&t.Dumper, &other.Dumper},
	} {
		if *f.dst == "" {
			*f.dst = *f.src
		}
	}
	if t.TrackNumber == 0 {
		t.TrackNumber = other.TrackNumber
	}
	if t.DiscNumber == 0 {
		t.DiscNumber = other.DiscNumber
	}
	if t.Year == 0 {
		t.Year = other.Year
	}

	// Merge raw tags
	if t.raw == nil {
		t.raw = make(map[string][]string)
	}
	for key, values := range other.raw {
		t.raw[key] = slices.Clone(values)
	}
}

// Clone creates a deep copy of the Tags.
func (t *Tags) Clone() *Tags {
	if t == nil {
		return nil
	}

	clone := *t
	clone.raw = nil
	if t.raw != nil {
		clone.raw = make(map[string][]string, len(t.raw))
		for key, values := range t.raw {
			clone.raw[key] = slices.Clone(values)
		}
	}
	return &clone
}

// Equal checks if two Tags are equal.
//
// Compares all standard fields and raw tags for equality.
func (t *Tags) Equal(other *Tags) bool {
	if t == nil && other == nil {
		return true
	}
	if t == nil || other == nil {
		return false
	}

	a, b := *t, *other
	a.raw, b.raw = nil, nil
	if !equalFields(a, b) {
		return false
	}

	return maps.EqualFunc(t.raw, other.raw, slices.Equal)
}

func equalFields(a, b Tags) bool {
	return a.Title == b.Title &&
		a.Artist == b.Artist &&
		a.Game == b.Game &&
		a.Copyright == b.Copyright &&
		a.Publisher == b.Publisher &&
		a.Comment == b.Comment &&
		a.Date == b.Date &&
		a.Genre == b.Genre &&
		a.Dumper == b.Dumper &&
		a.TrackNumber == b.TrackNumber &&
		a.DiscNumber == b.DiscNumber &&
		a.Year == b.Year
}

// Filter returns an iterator over tags matching a predicate.
//
// Example:
//
//	// All extended SPC tags
//	for key, values := range file.Tags.Filter(func(k string) bool {
//		return strings.HasPrefix(k, "XID6:")
//	}) {
//		fmt.Printf("%s: %v\n", key, values)
//	}
func (t *Tags) Filter(predicate func(string) bool) iter.Seq2[string, []string] {
	return func(yield func(string, []string) bool) {
		if t.raw == nil {
			return
		}
		for key, values := range t.raw {
			if predicate(key) {
				if !yield(key, values) {
					return
				}
			}
		}
	}
}

// HasPrefix reports whether any raw key starts with prefix, ignoring case.
func (t *Tags) HasPrefix(prefix string) bool {
	for key := range t.raw {
		if len(key) >= len(prefix) && strings.EqualFold(key[:len(prefix)], prefix) {
			return true
		}
	}
	return false
}
