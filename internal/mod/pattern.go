package mod

import (
	"bytes"
	"fmt"

	"github.com/icza/bitio"

	"github.com/simonhull/chipmeta/internal/binary"
)

// Effect is a ProTracker effect command. Commands 0x0..0xF are the main
// effects; extended (0xE) commands are stored as 0xE0 | x.
type Effect uint8

const (
	EffectArpeggio         Effect = 0x00
	EffectSlideUp          Effect = 0x01
	EffectSlideDown        Effect = 0x02
	EffectTonePortamento   Effect = 0x03
	EffectVibrato          Effect = 0x04
	EffectPortaVolumeSlide Effect = 0x05
	EffectVibVolumeSlide   Effect = 0x06
	EffectTremolo          Effect = 0x07
	EffectUnused8          Effect = 0x08
	EffectSampleOffset     Effect = 0x09
	EffectVolumeSlide      Effect = 0x0A
	EffectPositionJump     Effect = 0x0B
	EffectSetVolume        Effect = 0x0C
	EffectPatternBreak     Effect = 0x0D
	EffectExtended         Effect = 0x0E
	EffectSetSpeed         Effect = 0x0F

	EffectSetFilter       Effect = 0xE0
	EffectFineSlideUp     Effect = 0xE1
	EffectFineSlideDown   Effect = 0xE2
	EffectGlissando       Effect = 0xE3
	EffectVibratoWaveform Effect = 0xE4
	EffectSetFineTune     Effect = 0xE5
	EffectPatternLoop     Effect = 0xE6
	EffectTremoloWaveform Effect = 0xE7
	EffectUnusedE8        Effect = 0xE8
	EffectRetrigNote      Effect = 0xE9
	EffectFineVolumeUp    Effect = 0xEA
	EffectFineVolumeDown  Effect = 0xEB
	EffectNoteCut         Effect = 0xEC
	EffectNoteDelay       Effect = 0xED
	EffectPatternDelay    Effect = 0xEE
	EffectInvertLoop      Effect = 0xEF
)

var effectNames = map[Effect]string{
	EffectArpeggio:         "Arpeggio",
	EffectSlideUp:          "SlideUp",
	EffectSlideDown:        "SlideDown",
	EffectTonePortamento:   "TonePortamento",
	EffectVibrato:          "Vibrato",
	EffectPortaVolumeSlide: "TonePortamentoAndVolumeSlide",
	EffectVibVolumeSlide:   "VibratoAndVolumeSlide",
	EffectTremolo:          "Tremolo",
	EffectUnused8:          "Unused",
	EffectSampleOffset:     "SetSampleOffset",
	EffectVolumeSlide:      "VolumeSlide",
	EffectPositionJump:     "PositionJump",
	EffectSetVolume:        "SetVolume",
	EffectPatternBreak:     "PatternBreak",
	EffectSetSpeed:         "SetSpeed",
	EffectSetFilter:        "SetFilter",
	EffectFineSlideUp:      "FineSlideUp",
	EffectFineSlideDown:    "FineSlideDown",
	EffectGlissando:        "GlissandoControl",
	EffectVibratoWaveform:  "SetVibratoWaveform",
	EffectSetFineTune:      "SetFineTune",
	EffectPatternLoop:      "PatternLoop",
	EffectTremoloWaveform:  "SetTremoloWaveform",
	EffectUnusedE8:         "Unused",
	EffectRetrigNote:       "RetrigNote",
	EffectFineVolumeUp:     "FineVolumeSlideUp",
	EffectFineVolumeDown:   "FineVolumeSlideDown",
	EffectNoteCut:          "NoteCut",
	EffectNoteDelay:        "NoteDelay",
	EffectPatternDelay:     "PatternDelay",
	EffectInvertLoop:       "InvertLoop",
}

func (e Effect) String() string {
	if name, ok := effectNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Effect(0x%02X)", uint8(e))
}

// Cell is one note slot of a pattern.
type Cell struct {
	Sample uint8  // 0 = no sample change
	Period uint16 // Amiga period; 0 = no note
	Effect Effect
	Value  uint8
}

// Pattern holds 64 rows of one cell per channel, row-major.
type Pattern struct {
	Channels int
	Cells    []Cell
}

// Row returns the cells of row i.
func (p Pattern) Row(i int) []Cell {
	return p.Cells[i*p.Channels : (i+1)*p.Channels]
}

// readPattern decodes 64 rows of packed cells. Each cell is 32 bits:
//
//	ssss pppppppppppp ssss eeee dddddddd
//
// high sample nibble, 12-bit period, low sample nibble, effect, effect data.
func readPattern(c *binary.Cursor, channels int) (Pattern, error) {
	n := rowsPerPattern * channels
	raw, err := c.Bytes(n*cellSize, "pattern data")
	if err != nil {
		return Pattern{}, err
	}

	br := bitio.NewReader(bytes.NewReader(raw))
	p := Pattern{Channels: channels, Cells: make([]Cell, n)}
	for i := range p.Cells {
		hi := br.TryReadBits(4)
		period := br.TryReadBits(12)
		lo := br.TryReadBits(4)
		effect := br.TryReadBits(4)
		data := br.TryReadBits(8)
		p.Cells[i] = newCell(uint8(hi<<4|lo), uint16(period), uint8(effect), uint8(data))
	}
	if br.TryError != nil {
		return Pattern{}, br.TryError
	}
	return p, nil
}

func newCell(sample uint8, period uint16, effect, data uint8) Cell {
	cell := Cell{Sample: sample, Period: period, Effect: Effect(effect), Value: data}
	if cell.Effect == EffectExtended {
		cell.Effect = Effect(0xE0 | data>>4)
		cell.Value = data & 0x0F
	}
	return cell
}
