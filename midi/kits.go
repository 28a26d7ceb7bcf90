package midi

// SoundSet maps 16 voice slots to MIDI notes. A layer's Voice picks the slot.
type SoundSet struct {
	Name  string
	Notes [16]uint8
}

// Slot layout shared by every drum set:
// 0: Kick      1: Snare     2: Closed HH  3: Open HH
// 4: Low Tom   5: Mid Tom   6: High Tom   7: Crash
// 8: Ride      9: Clap     10: Rimshot   11: Cowbell
// 12: Clave   13: Maracas  14: Low Conga 15: High Conga
//
// The click set puts practice sounds first instead.

// SoundSets contains all available voice mappings
var SoundSets = map[string]SoundSet{
	"click": {
		Name: "Practice Click",
		Notes: [16]uint8{
			76, // Hi Wood Block
			77, // Low Wood Block
			37, // Side Stick
			56, // Cowbell
			75, // Claves
			42, // Closed HH
			33, // Metronome Click (GS)
			34, // Metronome Bell (GS)
			60, // Hi Bongo
			61, // Low Bongo
			62, // Mute Hi Conga
			63, // Open Hi Conga
			64, // Low Conga
			69, // Cabasa
			70, // Maracas
			81, // Open Triangle
		},
	},
	"gm": {
		Name: "General MIDI",
		Notes: [16]uint8{
			36, 38, 42, 46,
			41, 43, 45, 49,
			51, 39, 37, 56,
			75, 70, 64, 63,
		},
	},
	"rd8": {
		Name: "Behringer RD-8",
		Notes: [16]uint8{
			36, 40, 42, 46, // RD-8 snare sits on 40, not 38
			45, 48, 50, 49,
			51, 39, 37, 56,
			75, 70, 64, 63,
		},
	},
	"tr8s": {
		Name: "Roland TR-8S",
		Notes: [16]uint8{
			36, 38, 42, 46,
			41, 43, 45, 49,
			51, 39, 37, 56,
			75, 70, 62, 63,
		},
	},
	"er1": {
		Name: "Korg ER-1",
		Notes: [16]uint8{
			36, 38, 42, 46,
			40, 41, 43, 49,
			45, 39, 37, 56,
			75, 70, 64, 63,
		},
	},
}

// DefaultSoundSet is used when the configured name is unknown
const DefaultSoundSet = "click"

// SoundSetNames returns the available set names in display order
func SoundSetNames() []string {
	return []string{"click", "gm", "rd8", "tr8s", "er1"}
}

// GetSoundSet returns a set by name, falling back to the click set
func GetSoundSet(name string) SoundSet {
	if s, ok := SoundSets[name]; ok {
		return s
	}
	return SoundSets[DefaultSoundSet]
}

// Note returns the note for a voice slot; voices wrap around the 16 slots
func (s SoundSet) Note(voice int) uint8 {
	if voice < 0 {
		voice = -voice
	}
	return s.Notes[voice%len(s.Notes)]
}
