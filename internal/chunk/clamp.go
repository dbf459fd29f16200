package chunk

// Bounds used by the extended-tag conventions. Ticks run at 64 kHz.
const (
	TicksPerSecond = 64000
	TicksPerMinute = TicksPerSecond * 60

	MaxTicks      = 383999999
	MaxFadeTicks  = TicksPerMinute - 1
	MaxDisc       = 9
	MinLoops      = 1
	MaxLoops      = 9
	MinMixLevel   = 32768
	MaxMixLevel   = 524288
	MaxTextLength = 256
)

// ClampTicks limits an intro, loop or end length.
func ClampTicks(v uint32) uint32 {
	return min(v, MaxTicks)
}

// ClampFade limits a fade length to just under one minute of ticks.
func ClampFade(v uint32) uint32 {
	return min(v, MaxFadeTicks)
}

// ClampDisc limits a disc number. The whole data word is clamped, so a
// value with a non-zero high byte reads as MaxDisc.
func ClampDisc(v uint16) uint8 {
	return uint8(min(v, MaxDisc))
}

// TrackNumber splits a track word into the number (high byte) and an
// optional suffix character (low byte). Numbers with (t-1) > 98 read as 0.
func TrackNumber(data uint16) (track uint8, suffix byte) {
	t := int(data >> 8)
	if t-1 > 98 {
		t = 0
	}
	return uint8(t), byte(data)
}

// ClampLoops limits a loop count to [MinLoops, MaxLoops].
func ClampLoops(v uint8) uint8 {
	return max(MinLoops, min(v, MaxLoops))
}

// ClampMixLevel limits a mixing/pre-amp level to [MinMixLevel, MaxMixLevel].
func ClampMixLevel(v uint32) uint32 {
	return max(MinMixLevel, min(v, MaxMixLevel))
}

// ValidStringLength reports whether a declared text length lies in
// [1, limit].
func ValidStringLength(n int64, limit int64) bool {
	return n >= 1 && n <= limit
}
