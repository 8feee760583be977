package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v3"

	"neo-midi/midi"
)

func main() {
	cmd := &cli.Command{
		Name:  "miditest",
		Usage: "MIDI port checks for neo-midi",
		After: func(ctx context.Context, c *cli.Command) error {
			midi.CloseDriver()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "list all MIDI output ports",
				Action: listPorts,
			},
			{
				Name:      "note",
				Usage:     "play a short scale on a port",
				ArgsUsage: "[port name]",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "root", Value: 60, Usage: "first note"},
					&cli.IntFlag{Name: "velocity", Value: 100},
					&cli.DurationFlag{Name: "length", Value: 250 * time.Millisecond, Usage: "note length"},
				},
				Action: playNotes,
			},
			{
				Name:   "poll",
				Usage:  "print output port changes until interrupted",
				Action: pollPorts,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func listPorts(ctx context.Context, c *cli.Command) error {
	fmt.Println("=== MIDI Output Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ports, err := midi.OutPorts(ctx)
	if err != nil {
		if errors.Is(err, midi.ErrScanTimeout) {
			fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
			fmt.Println("Fix: sudo killall coreaudiod midiserver")
		}
		return err
	}
	for i, name := range ports {
		fmt.Printf("  %d: %s\n", i, name)
	}
	return nil
}

func playNotes(ctx context.Context, c *cli.Command) error {
	name := c.Args().First()
	sink, err := midi.PortOpener{}.Open(name)
	if err != nil {
		return err
	}
	defer sink.Close()

	root := c.Int("root")
	velocity := uint8(c.Int("velocity"))
	length := c.Duration("length")

	// major scale, one octave
	for _, step := range []int{0, 2, 4, 5, 7, 9, 11, 12} {
		note := uint8(root + step)
		fmt.Printf("%s  %s\n", midi.Event{Type: midi.NoteOn, Note: note, Velocity: velocity}, midi.NoteName(note))
		if err := sink.NoteOn(note, velocity); err != nil {
			return err
		}
		time.Sleep(length)
		if err := sink.NoteOff(note); err != nil {
			return err
		}
	}
	fmt.Println("Done!")
	return nil
}

func pollPorts(ctx context.Context, c *cli.Command) error {
	fmt.Println("Polling for port changes every second...")
	fmt.Println("Connect/disconnect devices to test. Ctrl+C to exit.")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	pw := midi.NewPortWatcher()
	go pw.Run(ctx)

	for event := range pw.Events() {
		fmt.Printf("\n[%s] Port change detected!\n", time.Now().Format("15:04:05"))
		fmt.Printf("  Outputs: %v\n", event.Ports)
	}
	return nil
}
