package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	Cursor   rune // ▶ focused form row
	Choice   rune // ◂▸ cycle hint around enum fields
	NoteOn   rune // ● note-on log line
	NoteOff  rune // ○ note-off log line
	Error    rune // ✕ error log line
	Bullet   rune // · any other log line
	Mask     rune // • hidden secret characters
	StateRun rune // ◉ worker active
	StateOff rune // ◌ idle
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Cursor:   '▶',
			Choice:   '↔',
			NoteOn:   '●',
			NoteOff:  '○',
			Error:    '✕',
			Bullet:   '·',
			Mask:     '•',
			StateRun: '◉',
			StateOff: '◌',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0  // void
	RoleSurface = 0.1  // night
	RoleMuted   = 0.3  // nebula
	RoleFG      = 0.55 // starlight
	RoleAccent  = 0.75 // sun
	RoleActive  = 0.85 // flare
	RoleWarning = 0.9  // flare-nova
	RoleSuccess = 1.0  // nova
)

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) Surface() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSurface))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

// Velocity maps a MIDI velocity onto the palette, quiet notes cool and loud notes hot
func (t *Theme) Velocity(v uint8) lipgloss.Color {
	return t.Color(0.3 + 0.7*float64(v)/127)
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
