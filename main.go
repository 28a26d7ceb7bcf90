package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Southclaws/fault/fmsg"
	tea "github.com/charmbracelet/bubbletea"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"go-rhythm/config"
	"go-rhythm/debug"
	"go-rhythm/midi"
	"go-rhythm/sequencer"
	"go-rhythm/theme"
	"go-rhythm/tui"
)

func main() {
	if err := run(); err != nil {
		if issue := fmsg.GetIssue(err); issue != "" {
			fmt.Printf("Error: %s (%v)\n", issue, err)
		} else {
			fmt.Printf("Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Debug || os.Getenv("GO_RHYTHM_DEBUG") != "" {
		if err := debug.Enable(""); err != nil {
			fmt.Printf("debug log disabled: %v\n", err)
		}
		defer debug.Disable()
	}

	// Load theme
	th := theme.New(theme.LoadOrDefault(os.Getenv("GO_RHYTHM_PALETTE")))

	// Sinks: the highlighter always, MIDI when a port is available
	hi := tui.NewHighlighter()
	sinks := sequencer.Sinks{hi}
	set := midi.GetSoundSet(cfg.Output.SoundSet)
	out, err := midi.OpenOutput(cfg.Output.PortName, cfg.Output.Channel, set)
	if err != nil {
		fmt.Printf("No MIDI output (%v), running silent\n", err)
	} else {
		defer out.Close()
		sinks = append(sinks, out)
	}

	opts, err := cfg.ControllerOptions()
	if err != nil {
		return err
	}
	player := sequencer.NewController(sequencer.SystemTime{}, sinks, opts...)

	layers, err := cfg.ExerciseLayers()
	if err != nil {
		return err
	}
	for _, l := range layers {
		if err := player.UpsertLayer(l); err != nil {
			return err
		}
	}

	// Dispatch loop owns timing until the TUI exits
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		player.Run(ctx)
		close(done)
	}()

	m := tui.NewModel(player, hi, th)
	m.Export.Channel = cfg.Output.Channel
	m.Export.Set = set
	m.Pattern = cfg.Exercise.Name
	if lib, err := config.DefaultLibrary(); err == nil {
		m.Library = lib
	}
	p := tea.NewProgram(m, tea.WithAltScreen())

	_, runErr := p.Run()
	cancel()
	<-done

	// Remember where the user left tempo and swing
	cfg.Tempo = player.Tempo()
	cfg.Swing = player.Swing()
	cfg.SetPolicies(player.Policies())
	if err := cfg.Save(); err != nil {
		debug.Log("main", "save config: %v", err)
	}

	return runErr
}
