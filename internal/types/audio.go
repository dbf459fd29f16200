package types

import (
	"fmt"
	"strings"
	"time"
)

// AudioInfo represents playback properties declared by the file.
//
// Nothing here is measured from audio data: every value is read from the
// header (or tags) of the file. Zero means the format does not declare it.
type AudioInfo struct {
	Container     string        // "SPC", "NSF", "XM", ...
	Chip          string        // sound hardware, e.g. "SPC700", "2A03+VRC6", "MOS6581"
	Tracker       string        // authoring tool named in the file, for modules
	VideoStandard string        // "NTSC", "PAL", "PAL and NTSC", or empty
	Duration      time.Duration // declared play time before fade
	Fade          time.Duration // declared fade-out length
	Channels      int           // tracker channels or sound-chip voices
	Songs         int           // sub-songs in a rip; 1 for modules
	StartSong     int           // 1-based default sub-song
}

// String returns a human-readable representation of the audio info.
// Example output: "NSF 2A03 6 songs 2:30 (+0:10 fade)".
func (a AudioInfo) String() string {
	parts := []string{a.Container}

	if a.Chip != "" {
		parts = append(parts, a.Chip)
	}
	if a.Tracker != "" {
		parts = append(parts, a.Tracker)
	}
	if a.Channels > 0 {
		parts = append(parts, channelDescription(a.Channels))
	}
	if a.Songs > 1 {
		parts = append(parts, fmt.Sprintf("%d songs", a.Songs))
	}
	if a.Duration > 0 {
		d := clock(a.Duration)
		if a.Fade > 0 {
			d += fmt.Sprintf(" (+%s fade)", clock(a.Fade))
		}
		parts = append(parts, d)
	}

	return join(parts, " ")
}

// TotalDuration returns the play time including the fade-out.
func (a AudioInfo) TotalDuration() time.Duration {
	return a.Duration + a.Fade
}

// channelDescription returns a human-readable channel description.
func channelDescription(channels int) string {
	switch channels {
	case 0:
		return ""
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return fmt.Sprintf("%dch", channels)
	}
}

// clock formats a duration as m:ss, or h:mm:ss past an hour.
func clock(d time.Duration) string {
	s := int(d.Round(time.Second) / time.Second)
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, s/60%60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// join concatenates strings with a separator, skipping empty strings.
func join(parts []string, sep string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
