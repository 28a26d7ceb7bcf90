package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Southclaws/fault/fmsg"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-rhythm/audio"
	"go-rhythm/config"
	"go-rhythm/midi"
	"go-rhythm/sequencer"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = listPorts()
	case "play":
		err = play(os.Args[2:])
	case "bounce":
		err = bounce(os.Args[2:])
	case "export":
		err = export(os.Args[2:])
	default:
		usage()
		return
	}

	if err != nil {
		if issue := fmsg.GetIssue(err); issue != "" {
			fmt.Printf("Error: %s (%v)\n", issue, err)
		} else {
			fmt.Printf("Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Click Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                      - List MIDI output ports")
	fmt.Println("  play <port> [seconds]     - Play the configured exercise on a port")
	fmt.Println("  bounce <out.wav> [cycles] - Render the exercise to a WAV file")
	fmt.Println("  export <out.mid> [cycles] - Write the exercise as a MIDI file")
	fmt.Println("")
	fmt.Println("The exercise, tempo and swing come from ~/.config/go-rhythm/config.json")
}

func listPorts() error {
	fmt.Println("=== MIDI Output Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	names, err := midi.PortNames()
	if errors.Is(err, midi.ErrScanTimeout) {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return nil
	}
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("  (none)")
	}
	for i, n := range names {
		fmt.Printf("  %d: %s\n", i, n)
	}
	return nil
}

func loadExercise() (*config.Config, []*sequencer.Layer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	layers, err := cfg.ExerciseLayers()
	if err != nil {
		return nil, nil, err
	}
	return cfg, layers, nil
}

// countArg reads an optional positive count at args[at]
func countArg(args []string, at, fallback int) (int, error) {
	if len(args) <= at {
		return fallback, nil
	}
	n, err := strconv.Atoi(args[at])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("expected a positive number, got %q", args[at])
	}
	return n, nil
}

func play(args []string) error {
	if len(args) < 1 {
		usage()
		return nil
	}
	seconds, err := countArg(args, 1, 8)
	if err != nil {
		return err
	}

	cfg, layers, err := loadExercise()
	if err != nil {
		return err
	}

	out, err := midi.OpenOutput(args[0], cfg.Output.Channel, midi.GetSoundSet(cfg.Output.SoundSet))
	if err != nil {
		return err
	}
	defer out.Close()

	printer := sequencer.SinkFunc(func(ev sequencer.FireEvent) {
		mark := " "
		if ev.IsCycleStart {
			mark = "*"
		}
		fmt.Printf("%s %8.3fs  %-12s cell %2d  %s\n", mark, ev.Time.Seconds(), ev.LayerID, ev.Cell, ev.State)
	})

	opts, err := cfg.ControllerOptions()
	if err != nil {
		return err
	}
	player := sequencer.NewController(sequencer.SystemTime{}, sequencer.Sinks{out, printer}, opts...)
	for _, l := range layers {
		if err := player.UpsertLayer(l); err != nil {
			return err
		}
	}

	fmt.Printf("Playing %s at %d bpm for %ds on channel %d\n", cfg.Exercise.Name, player.Tempo(), seconds, cfg.Output.Channel)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(seconds)*time.Second)
	defer cancel()
	player.Start()
	player.Run(ctx)
	return nil
}

func bounce(args []string) error {
	if len(args) < 1 {
		usage()
		return nil
	}
	cycles, err := countArg(args, 1, 4)
	if err != nil {
		return err
	}

	cfg, layers, err := loadExercise()
	if err != nil {
		return err
	}
	sched := sequencer.Plan(layers, cfg.Tempo, cfg.Swing)
	if err := audio.WriteWAV(args[0], sched, audio.Options{Cycles: cycles}); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d cycles, %.2fs)\n", args[0], cycles, (time.Duration(cycles) * sched.CycleLen).Seconds())
	return nil
}

func export(args []string) error {
	if len(args) < 1 {
		usage()
		return nil
	}
	cycles, err := countArg(args, 1, 4)
	if err != nil {
		return err
	}

	cfg, layers, err := loadExercise()
	if err != nil {
		return err
	}
	sched := sequencer.Plan(layers, cfg.Tempo, cfg.Swing)
	err = midi.ExportFile(args[0], sched, cfg.Tempo, midi.ExportOptions{
		Cycles:  cycles,
		Channel: cfg.Output.Channel,
		Set:     midi.GetSoundSet(cfg.Output.SoundSet),
	})
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d cycles, %d triggers per cycle)\n", args[0], cycles, len(sched.Triggers))
	return nil
}
