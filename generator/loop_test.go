package generator

import (
	"context"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neo-midi/config"
	"neo-midi/midi"
)

func TestScaleTable(t *testing.T) {
	c, ok := Scale("C")
	require.True(t, ok)
	assert.Equal(t, []uint8{60, 62, 64, 65, 67, 69, 71, 72}, c)

	for _, key := range config.Keys {
		notes, ok := Scale(key)
		require.True(t, ok, key)
		require.Len(t, notes, 8)
		// major scale: W W H W W W H
		steps := []uint8{2, 2, 1, 2, 2, 2, 1}
		for i, step := range steps {
			assert.Equal(t, step, notes[i+1]-notes[i], "key %s degree %d", key, i)
		}
	}

	_, ok = Scale("H")
	assert.False(t, ok)
}

func TestScaleIsNotMutable(t *testing.T) {
	c, _ := Scale("C")
	c[0] = 0
	again, _ := Scale("C")
	assert.Equal(t, uint8(60), again[0])
}

func TestBeatDuration(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, BeatDuration(120))
	assert.Equal(t, time.Second, BeatDuration(60))
	for _, tempo := range []int{1, 7, 90, 133, 240} {
		want := time.Duration(float64(time.Second) * 60 / float64(tempo))
		assert.InDelta(t, float64(want), float64(BeatDuration(tempo)), 1, "tempo %d", tempo)
	}
}

func TestNewParamsIntersectsNoteRange(t *testing.T) {
	s := config.Default()
	p, err := NewParams(s)
	require.NoError(t, err)
	assert.Equal(t, []uint8{60, 62, 64, 65, 67, 69, 71, 72}, p.Notes)

	s.MinMIDINote, s.MaxMIDINote = 63, 70
	p, err = NewParams(s)
	require.NoError(t, err)
	assert.Equal(t, []uint8{64, 65, 67, 69}, p.Notes)

	s.MinMIDINote, s.MaxMIDINote = 0, 59
	_, err = NewParams(s)
	var verr *config.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "midi_note", verr.Field)
}

func TestNewParamsRejectsInvalidSettings(t *testing.T) {
	s := config.Default()
	s.MinMIDIVelocity, s.MaxMIDIVelocity = 120, 100
	_, err := NewParams(s)
	var verr *config.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestLoopKeyCTempo120(t *testing.T) {
	params, err := NewParams(config.Default())
	require.NoError(t, err)

	sink := &fakeSink{}
	var slept []time.Duration
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const pairs = 200
	offs := 0
	loop := &Loop{
		Rand:  rand.New(rand.NewPCG(1, 2)),
		Sleep: func(d time.Duration) { slept = append(slept, d) },
		Emit: func(e midi.Event) {
			if e.Type == midi.NoteOff {
				offs++
				if offs == pairs {
					cancel()
				}
			}
		},
	}
	require.NoError(t, loop.Run(ctx, sink, params))

	events := sink.Events()
	require.Len(t, events, 2*pairs)
	require.Len(t, slept, pairs)

	scale := []uint8{60, 62, 64, 65, 67, 69, 71, 72}
	for i := 0; i < len(events); i += 2 {
		on, off := events[i], events[i+1]
		assert.Equal(t, midi.NoteOn, on.Type)
		assert.Equal(t, midi.NoteOff, off.Type)
		assert.Equal(t, on.Note, off.Note)
		assert.True(t, slices.Contains(scale, on.Note), "note %d outside scale", on.Note)
		assert.GreaterOrEqual(t, on.Velocity, uint8(64))
		assert.LessOrEqual(t, on.Velocity, uint8(127))
	}
	for _, d := range slept {
		assert.GreaterOrEqual(t, d, 250*time.Millisecond)
		assert.Less(t, d, 750*time.Millisecond)
	}
}

func TestLoopVelocityBounds(t *testing.T) {
	loop := &Loop{Rand: rand.New(rand.NewPCG(3, 4))}
	p := Params{Notes: []uint8{60}, MinVelocity: 100, MaxVelocity: 102, Tempo: 60}

	seen := map[uint8]bool{}
	for i := 0; i < 500; i++ {
		_, v, d := loop.Next(p)
		seen[v] = true
		assert.GreaterOrEqual(t, d, 500*time.Millisecond)
		assert.Less(t, d, 1500*time.Millisecond)
	}
	assert.Equal(t, map[uint8]bool{100: true, 101: true, 102: true}, seen)

	p.MinVelocity, p.MaxVelocity = 127, 127
	_, v, _ := loop.Next(p)
	assert.Equal(t, uint8(127), v)
}

func TestLoopStopMidNoteCompletesNote(t *testing.T) {
	params := Params{Notes: []uint8{62}, MinVelocity: 1, MaxVelocity: 1, Tempo: 120}
	sink := &fakeSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := &Loop{
		Rand:  rand.New(rand.NewPCG(5, 6)),
		Sleep: func(time.Duration) { cancel() },
	}
	require.NoError(t, loop.Run(ctx, sink, params))

	assert.Equal(t, []midi.Event{
		{Type: midi.NoteOn, Note: 62, Velocity: 1},
		{Type: midi.NoteOff, Note: 62},
	}, sink.Events())
}

func TestLoopCancelledBeforeStartSendsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &fakeSink{}
	loop := &Loop{Rand: rand.New(rand.NewPCG(1, 1)), Sleep: func(time.Duration) {}}
	require.NoError(t, loop.Run(ctx, sink, Params{Notes: []uint8{60}, MaxVelocity: 1, Tempo: 60}))
	assert.Empty(t, sink.Events())
}

func TestLoopSinkErrorEndsRun(t *testing.T) {
	sink := &fakeSink{failAt: 4} // second note-off
	loop := &Loop{Rand: rand.New(rand.NewPCG(1, 1)), Sleep: func(time.Duration) {}}

	err := loop.Run(context.Background(), sink, Params{Notes: []uint8{60}, MaxVelocity: 1, Tempo: 60})
	require.ErrorIs(t, err, errSinkWrite)
	assert.Contains(t, err.Error(), "note off 60")
	assert.Len(t, sink.Events(), 3)
}
