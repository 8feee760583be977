package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"neo-midi/config"
	"neo-midi/debug"
	"neo-midi/generator"
	"neo-midi/midi"
	"neo-midi/nasa"
	"neo-midi/telemetry"
	"neo-midi/theme"
	"neo-midi/tui"
)

var releaseVersion = "dev"

func main() {
	// .env is optional
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:    "neo-midi",
		Usage:   "Play NASA data sets as random notes in a musical key",
		Version: releaseVersion,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "settings file (default ~/.config/neo-midi/config.json)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "write a debug log to ~/.config/neo-midi/debug.log",
			},
			&cli.StringFlag{
				Name:  "record",
				Usage: "also write every played note to this Standard MIDI File",
			},
			&cli.StringFlag{
				Name:  "palette",
				Usage: "GIMP .gpl palette for the UI (default: built-in deepspace)",
			},
			&cli.StringFlag{
				Name:    "sentry-dsn",
				Usage:   "report generation failures to Sentry",
				Sources: cli.EnvVars("SENTRY_DSN"),
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if c.Bool("debug") {
				if err := debug.Enable(debug.DefaultPath()); err != nil {
					return ctx, fmt.Errorf("enable debug log: %w", err)
				}
			}
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			midi.CloseDriver()
			debug.Disable()
			return nil
		},
		Action: runTUI,
		Commands: []*cli.Command{
			{
				Name:   "ports",
				Usage:  "list MIDI output ports",
				Action: listPorts,
			},
			{
				Name:  "play",
				Usage: "generate notes from the saved settings without the UI, until interrupted",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "port",
						Usage: "override the saved MIDI output port",
					},
				},
				Action: play,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func configPath(c *cli.Command) (string, error) {
	if p := c.String("config"); p != "" {
		return p, nil
	}
	return config.Path()
}

// newSession wires the session with the options shared by both front ends
func newSession(c *cli.Command, journal *generator.Journal) (*generator.Session, *telemetry.Reporter, error) {
	reporter, err := telemetry.New(c.String("sentry-dsn"), releaseVersion)
	if err != nil {
		return nil, nil, fmt.Errorf("init sentry: %w", err)
	}

	opts := []generator.Option{
		generator.WithErrorHook(reporter.Capture),
	}
	if path := c.String("record"); path != "" {
		opts = append(opts, generator.WithSinkWrapper(func(s midi.Sink, p generator.Params) midi.Sink {
			return midi.NewRecorder(s, path, p.Tempo)
		}))
	}

	session := generator.NewSession(nasa.NewClient(), midi.PortOpener{}, journal, opts...)
	return session, reporter, nil
}

func loadSettings(path string, journal *generator.Journal) (config.Settings, error) {
	settings, found, err := config.Load(path)
	if err != nil {
		return settings, err
	}
	if !found {
		journal.Printf("No saved settings found. Please configure.")
	}
	return settings, nil
}

func loadTheme(c *cli.Command) (*theme.Theme, error) {
	path := c.String("palette")
	if path == "" {
		return theme.New(theme.DefaultPalette()), nil
	}
	palette, err := theme.LoadGPL(path)
	if err != nil {
		return nil, fmt.Errorf("load palette: %w", err)
	}
	return theme.New(palette), nil
}

func runTUI(ctx context.Context, c *cli.Command) error {
	path, err := configPath(c)
	if err != nil {
		return err
	}
	th, err := loadTheme(c)
	if err != nil {
		return err
	}

	journal := generator.NewJournal(nil)
	session, reporter, err := newSession(c, journal)
	if err != nil {
		return err
	}
	defer reporter.Flush()

	settings, err := loadSettings(path, journal)
	if err != nil {
		return err
	}

	// Create port watcher (handles hot-plug)
	watcher := midi.NewPortWatcher()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go watcher.Run(ctx)

	m := tui.NewModel(tui.Options{
		Session:    session,
		Journal:    journal,
		Ports:      watcher,
		Theme:      th,
		ConfigPath: path,
	}, settings)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return err
	}

	// The model stops the worker before quitting; this covers a killed program
	if session.State() != generator.Idle {
		_ = session.Stop()
	}
	return nil
}

func listPorts(ctx context.Context, c *cli.Command) error {
	ports, err := midi.OutPorts(ctx)
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("No MIDI output ports found")
		return nil
	}
	for i, name := range ports {
		fmt.Printf("  %d: %s\n", i, name)
	}
	return nil
}

func play(ctx context.Context, c *cli.Command) error {
	path, err := configPath(c)
	if err != nil {
		return err
	}

	journal := generator.NewJournal(os.Stdout)
	session, reporter, err := newSession(c, journal)
	if err != nil {
		return err
	}
	defer reporter.Flush()

	settings, err := loadSettings(path, journal)
	if err != nil {
		return err
	}
	if port := c.String("port"); port != "" {
		settings.SelectedMIDIPort = port
	}

	if err := session.Start(settings.WithEnvAPIKey()); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		session.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		if err := session.Stop(); err != nil && !errors.Is(err, generator.ErrNotRunning) {
			return err
		}
	case <-done:
		// worker ended on its own, already reported to the journal
	}
	return nil
}
