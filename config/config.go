package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// APIKeyEnv supplies the key at start time when the saved api_key is empty
const APIKeyEnv = "NASA_API_KEY"

// Settings is the flat record behind the settings panel.
// Field order here is the order written to disk.
type Settings struct {
	APIKey           string `json:"api_key"`
	SelectedAPI      string `json:"selected_api"`
	SelectedMIDIPort string `json:"selected_midi_port"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	MinMIDINote      int    `json:"min_midi_note"`
	MaxMIDINote      int    `json:"max_midi_note"`
	MinMIDIVelocity  int    `json:"min_midi_velocity"`
	MaxMIDIVelocity  int    `json:"max_midi_velocity"`
	Key              string `json:"key"`
	Tempo            int    `json:"tempo"`
}

// Default returns the settings used when nothing has been saved yet
func Default() Settings {
	return Settings{
		SelectedAPI:     "Near-Earth Object (NEO)",
		StartDate:       "2024-01-01",
		EndDate:         "2024-01-07",
		MinMIDINote:     60,
		MaxMIDINote:     72,
		MinMIDIVelocity: 64,
		MaxMIDIVelocity: 127,
		Key:             "C",
		Tempo:           120,
	}
}

// Dir returns the config directory path
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "neo-midi"), nil
}

// Path returns the full path to config.json
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads settings from path. A missing file is not an error: defaults
// are returned with found=false. Fields absent from the file keep their
// defaults.
func Load(path string) (s Settings, found bool, err error) {
	s = Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, false, nil
		}
		return s, false, err
	}

	if err := json.Unmarshal(data, &s); err != nil {
		return Default(), true, fmt.Errorf("parse %s: %w", path, err)
	}

	return s, true, nil
}

// WithEnvAPIKey returns a copy whose empty api_key is filled from
// NASA_API_KEY. Only the copy handed to generation carries it, so the
// environment key is never saved.
func (s Settings) WithEnvAPIKey() Settings {
	if s.APIKey == "" {
		s.APIKey = os.Getenv(APIKeyEnv)
	}
	return s
}

// Save writes the settings to path, replacing any previous file
func (s Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, path)
}
