package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	path := filepath.Join(t.TempDir(), "config.json")

	s, found, err := Load(path)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, Default(), s)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	want := Settings{
		APIKey:           "DEMO_KEY",
		SelectedAPI:      "Mars Rover Photos",
		SelectedMIDIPort: "IAC Driver Bus 1",
		StartDate:        "2023-05-01",
		EndDate:          "2023-05-03",
		MinMIDINote:      48,
		MaxMIDINote:      84,
		MinMIDIVelocity:  10,
		MaxMIDIVelocity:  90,
		Key:              "G",
		Tempo:            96,
	}
	require.NoError(t, want.Save(path))

	got, found, err := Load(path)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestSaveWritesStableFieldOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, Default().Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	order := []string{
		"api_key", "selected_api", "selected_midi_port", "start_date", "end_date",
		"min_midi_note", "max_midi_note", "min_midi_velocity", "max_midi_velocity",
		"key", "tempo",
	}
	last := -1
	for _, field := range order {
		idx := strings.Index(string(data), `"`+field+`"`)
		require.NotEqual(t, -1, idx, "missing %s", field)
		assert.Greater(t, idx, last, "%s out of order", field)
		last = idx
	}
	assert.Contains(t, string(data), "\n  \"tempo\": 120")
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	path := filepath.Join(t.TempDir(), "config.json")
	raw, _ := json.Marshal(map[string]any{"key": "D", "tempo": 90})
	require.NoError(t, os.WriteFile(path, raw, 0644))

	s, found, err := Load(path)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "D", s.Key)
	assert.Equal(t, 90, s.Tempo)
	assert.Equal(t, 60, s.MinMIDINote)
	assert.Equal(t, 127, s.MaxMIDIVelocity)
	assert.Equal(t, "Near-Earth Object (NEO)", s.SelectedAPI)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, _, err := Load(path)
	assert.Error(t, err)
}

func TestEnvAPIKeyIsNotLoadedOrSaved(t *testing.T) {
	t.Setenv(APIKeyEnv, "env-key")
	path := filepath.Join(t.TempDir(), "config.json")

	s, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "", s.APIKey)

	want := Default()
	require.NoError(t, want.Save(path))

	got, found, err := Load(path)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "env-key")
}

func TestWithEnvAPIKey(t *testing.T) {
	t.Setenv(APIKeyEnv, "env-key")

	s := Default()
	assert.Equal(t, "env-key", s.WithEnvAPIKey().APIKey)
	assert.Equal(t, "", s.APIKey, "receiver is not modified")

	s.APIKey = "file-key"
	assert.Equal(t, "file-key", s.WithEnvAPIKey().APIKey, "saved key wins over env")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Settings)
		field string
	}{
		{"defaults", func(*Settings) {}, ""},
		{"note min above max", func(s *Settings) { s.MinMIDINote, s.MaxMIDINote = 80, 70 }, "midi_note"},
		{"velocity min above max", func(s *Settings) { s.MinMIDIVelocity, s.MaxMIDIVelocity = 100, 50 }, "midi_velocity"},
		{"velocity above 127", func(s *Settings) { s.MaxMIDIVelocity = 200 }, "max_midi_velocity"},
		{"negative note", func(s *Settings) { s.MinMIDINote = -1 }, "min_midi_note"},
		{"zero tempo", func(s *Settings) { s.Tempo = 0 }, "tempo"},
		{"negative tempo", func(s *Settings) { s.Tempo = -10 }, "tempo"},
		{"unknown key", func(s *Settings) { s.Key = "H" }, "key"},
		{"unknown api", func(s *Settings) { s.SelectedAPI = "Hubble" }, "selected_api"},
		{"equal bounds", func(s *Settings) { s.MinMIDIVelocity, s.MaxMIDIVelocity = 100, 100 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.edit(&s)
			err := s.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
