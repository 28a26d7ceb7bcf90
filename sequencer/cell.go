package sequencer

import "strings"

// CellState is the trigger intensity of one subdivision
type CellState uint8

const (
	Accent CellState = iota
	Normal
	Soft
	Mute
)

// Levels relative to full scale. A downbeat gets a one-shot boost on top.
const (
	levelAccent   = 1.0
	levelNormal   = 0.75
	levelSoft     = 0.45
	downbeatBoost = 0.15
)

// Next returns the state a user toggle moves to.
// Accent → Normal → Soft → Mute → Accent
func (c CellState) Next() CellState {
	switch c {
	case Accent:
		return Normal
	case Normal:
		return Soft
	case Soft:
		return Mute
	case Mute:
		return Accent
	}
	return Normal
}

// Fires reports whether the state produces a fire event at all
func (c CellState) Fires() bool {
	switch c {
	case Accent, Normal, Soft:
		return true
	case Mute:
		return false
	}
	return false
}

// Level returns the trigger level, optionally with the downbeat boost
func (c CellState) Level(downbeat bool) float64 {
	var level float64
	switch c {
	case Accent:
		level = levelAccent
	case Normal:
		level = levelNormal
	case Soft:
		level = levelSoft
	case Mute:
		return 0
	}
	if downbeat {
		level += downbeatBoost
		if level > 1 {
			level = 1
		}
	}
	return level
}

func (c CellState) String() string {
	switch c {
	case Accent:
		return "accent"
	case Normal:
		return "normal"
	case Soft:
		return "soft"
	case Mute:
		return "mute"
	}
	return "unknown"
}

// ParseCellState accepts the names produced by String
func ParseCellState(s string) (CellState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "accent":
		return Accent, nil
	case "normal":
		return Normal, nil
	case "soft":
		return Soft, nil
	case "mute":
		return Mute, nil
	}
	return Normal, invalid("unknown cell state %q", s)
}

func (c CellState) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *CellState) UnmarshalText(text []byte) error {
	s, err := ParseCellState(string(text))
	if err != nil {
		return err
	}
	*c = s
	return nil
}
