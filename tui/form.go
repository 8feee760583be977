package tui

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"neo-midi/config"
)

// errInvalidNumber is reported when a numeric field does not parse
var errInvalidNumber = errors.New("invalid input in MIDI note range, velocity, or tempo fields")

type fieldKind int

const (
	fieldText fieldKind = iota
	fieldSecret
	fieldChoice
)

// field is one row of the settings form
type field struct {
	label    string
	kind     fieldKind
	value    string   // text and secret fields
	options  []string // choice fields
	selected int
	want     string // choice requested before it was available
}

func (f *field) current() string {
	if f.kind != fieldChoice {
		return f.value
	}
	if f.selected < 0 || f.selected >= len(f.options) {
		return ""
	}
	return f.options[f.selected]
}

// choose selects name if present, otherwise the first option. A missing
// name is remembered and picked up by a later setOptions.
func (f *field) choose(name string) {
	f.want = name
	f.selectName(name)
}

func (f *field) selectName(name string) {
	if i := slices.Index(f.options, name); i >= 0 {
		f.selected = i
		return
	}
	f.selected = 0
}

// setOptions replaces the option list, keeping the selection if it survives
func (f *field) setOptions(opts []string) {
	target := f.current()
	if f.want != "" {
		target = f.want
	}
	f.options = slices.Clone(opts)
	f.selectName(target)
}

func (f *field) cycle(delta int) {
	if f.kind != fieldChoice || len(f.options) == 0 {
		return
	}
	f.selected = (f.selected + delta + len(f.options)) % len(f.options)
	f.want = ""
}

func (f *field) insert(s string) {
	if f.kind == fieldChoice {
		return
	}
	f.value += s
}

func (f *field) backspace() {
	if f.kind == fieldChoice || f.value == "" {
		return
	}
	r := []rune(f.value)
	f.value = string(r[:len(r)-1])
}

// Form rows, in display order
const (
	rowAPIKey = iota
	rowAPI
	rowPort
	rowStartDate
	rowEndDate
	rowMinNote
	rowMaxNote
	rowMinVelocity
	rowMaxVelocity
	rowKey
	rowTempo
	numRows
)

// form is the settings panel
type form struct {
	fields [numRows]field
	cursor int
}

func newForm(s config.Settings, ports []string) *form {
	f := &form{}
	f.fields[rowAPIKey] = field{label: "NASA API Key", kind: fieldSecret}
	f.fields[rowAPI] = field{label: "NASA API", kind: fieldChoice, options: slices.Clone(config.APINames)}
	f.fields[rowPort] = field{label: "MIDI Output Port", kind: fieldChoice, options: slices.Clone(ports)}
	f.fields[rowStartDate] = field{label: "Start Date (YYYY-MM-DD)"}
	f.fields[rowEndDate] = field{label: "End Date (YYYY-MM-DD)"}
	f.fields[rowMinNote] = field{label: "Min Note"}
	f.fields[rowMaxNote] = field{label: "Max Note"}
	f.fields[rowMinVelocity] = field{label: "Min Velocity"}
	f.fields[rowMaxVelocity] = field{label: "Max Velocity"}
	f.fields[rowKey] = field{label: "Key", kind: fieldChoice, options: slices.Clone(config.Keys)}
	f.fields[rowTempo] = field{label: "Tempo (BPM)"}
	f.load(s)
	return f
}

// load copies settings into the fields
func (f *form) load(s config.Settings) {
	f.fields[rowAPIKey].value = s.APIKey
	f.fields[rowAPI].choose(s.SelectedAPI)
	f.fields[rowPort].choose(s.SelectedMIDIPort)
	f.fields[rowStartDate].value = s.StartDate
	f.fields[rowEndDate].value = s.EndDate
	f.fields[rowMinNote].value = strconv.Itoa(s.MinMIDINote)
	f.fields[rowMaxNote].value = strconv.Itoa(s.MaxMIDINote)
	f.fields[rowMinVelocity].value = strconv.Itoa(s.MinMIDIVelocity)
	f.fields[rowMaxVelocity].value = strconv.Itoa(s.MaxMIDIVelocity)
	f.fields[rowKey].choose(s.Key)
	f.fields[rowTempo].value = strconv.Itoa(s.Tempo)
}

// settings reads the fields back. Only number parsing is checked here;
// range checks happen when generation starts.
func (f *form) settings() (config.Settings, error) {
	s := config.Settings{
		APIKey:           strings.TrimSpace(f.fields[rowAPIKey].value),
		SelectedAPI:      f.fields[rowAPI].current(),
		SelectedMIDIPort: f.fields[rowPort].current(),
		StartDate:        strings.TrimSpace(f.fields[rowStartDate].value),
		EndDate:          strings.TrimSpace(f.fields[rowEndDate].value),
		Key:              f.fields[rowKey].current(),
	}

	ints := []struct {
		row int
		dst *int
	}{
		{rowMinNote, &s.MinMIDINote},
		{rowMaxNote, &s.MaxMIDINote},
		{rowMinVelocity, &s.MinMIDIVelocity},
		{rowMaxVelocity, &s.MaxMIDIVelocity},
		{rowTempo, &s.Tempo},
	}
	for _, in := range ints {
		n, err := strconv.Atoi(strings.TrimSpace(f.fields[in.row].value))
		if err != nil {
			return config.Settings{}, errInvalidNumber
		}
		*in.dst = n
	}

	return s, nil
}

func (f *form) focused() *field {
	return &f.fields[f.cursor]
}

func (f *form) move(delta int) {
	f.cursor = (f.cursor + delta + numRows) % numRows
}
