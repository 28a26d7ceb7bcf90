package config

import (
	"testing"
	"time"

	"go-rhythm/sequencer"
)

var stamp = time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

func testController(t *testing.T) *sequencer.Controller {
	t.Helper()
	p := sequencer.NewController(sequencer.NewManualTime(stamp), nil, sequencer.WithTempo(90), sequencer.WithSwing(0.3))
	layers, err := sequencer.Polyrhythm(3, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range layers {
		if err := p.UpsertLayer(l); err != nil {
			t.Fatal(err)
		}
	}
	if err := p.SetCellState(layers[1].ID, 2, sequencer.Mute); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLibrarySaveLoad(t *testing.T) {
	lib := &Library{Dir: t.TempDir()}
	src := testController(t)

	name, err := lib.Save("poly 3:4", Capture(src), stamp)
	if err != nil {
		t.Fatal(err)
	}
	if name != "2024-03-09_14-30-00.json" {
		t.Errorf("Filename = %q", name)
	}

	patterns, err := lib.ListPatterns()
	if err != nil {
		t.Fatal(err)
	}
	if len(patterns) != 1 || patterns[0] != "poly-3-4" {
		t.Fatalf("Patterns = %v", patterns)
	}

	snap, err := lib.Load("poly-3-4", "")
	if err != nil {
		t.Fatal(err)
	}
	dst := sequencer.NewController(sequencer.NewManualTime(stamp), nil)
	if err := snap.Apply(dst); err != nil {
		t.Fatal(err)
	}
	if dst.Tempo() != 90 || dst.Swing() != 0.3 {
		t.Errorf("Tempo/swing = %d/%v", dst.Tempo(), dst.Swing())
	}
	layers := dst.Layers()
	if len(layers) != 2 {
		t.Fatalf("Expected 2 layers, got %d", len(layers))
	}
	if c, _ := layers[1].Cell(2); c != sequencer.Mute {
		t.Errorf("Edited cell restored as %s", c)
	}
}

func TestLibraryNewestFirst(t *testing.T) {
	lib := &Library{Dir: t.TempDir()}
	p := testController(t)
	for i := 0; i < 3; i++ {
		if _, err := lib.Save("grid", Capture(p), stamp.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatal(err)
		}
	}
	saves, err := lib.ListSaves("grid")
	if err != nil {
		t.Fatal(err)
	}
	if len(saves) != 3 {
		t.Fatalf("Expected 3 saves, got %d", len(saves))
	}
	if !saves[0].Timestamp.After(saves[1].Timestamp) {
		t.Error("Saves not sorted newest first")
	}
}

func TestLibraryRenameDelete(t *testing.T) {
	lib := &Library{Dir: t.TempDir()}
	name, err := lib.Save("grid", Capture(testController(t)), stamp)
	if err != nil {
		t.Fatal(err)
	}
	renamed, err := lib.Rename("grid", name, "warm up")
	if err != nil {
		t.Fatal(err)
	}
	saves, _ := lib.ListSaves("grid")
	if len(saves) != 1 || saves[0].Name != "warm-up" || saves[0].Filename != renamed {
		t.Errorf("Saves after rename = %+v", saves)
	}
	if err := lib.Delete("grid", renamed); err != nil {
		t.Fatal(err)
	}
	if _, err := lib.Load("grid", ""); err == nil {
		t.Error("Expected an error loading an empty pattern")
	}
}

func TestLibraryEmpty(t *testing.T) {
	lib := &Library{Dir: t.TempDir() + "/missing"}
	patterns, err := lib.ListPatterns()
	if err != nil || len(patterns) != 0 {
		t.Errorf("ListPatterns on a missing dir = %v, %v", patterns, err)
	}
}

func TestSnapshotRejectsRepeatedLayer(t *testing.T) {
	a, err := sequencer.NewLayer("a", 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	snap := Snapshot{Tempo: 100, Layers: []*sequencer.Layer{a, a.Clone()}}
	if err := snap.Validate(); err == nil {
		t.Fatal("Expected repeated layer id to be rejected")
	}

	dst := testController(t)
	before := dst.Layers()
	if err := snap.Apply(dst); err == nil {
		t.Fatal("Apply accepted a repeated layer id")
	}
	if got := dst.Layers(); len(got) != len(before) || got[0].ID != before[0].ID {
		t.Errorf("Rejected snapshot changed layers to %d", len(got))
	}
	if dst.Tempo() != 90 {
		t.Errorf("Rejected snapshot changed tempo to %d", dst.Tempo())
	}
}

func TestSnapshotApplyReplacesLayers(t *testing.T) {
	b, err := sequencer.NewLayer("b", 5, 4)
	if err != nil {
		t.Fatal(err)
	}
	dst := testController(t)
	dst.Start()
	if err := (Snapshot{Tempo: 100, Layers: []*sequencer.Layer{b}}).Apply(dst); err != nil {
		t.Fatal(err)
	}
	layers := dst.Layers()
	if len(layers) != 1 || layers[0].ID != "b" {
		t.Fatalf("Layers after apply = %d", len(layers))
	}
	if dst.Tempo() != 100 || dst.Swing() != 0 {
		t.Errorf("Tempo/swing = %d/%v", dst.Tempo(), dst.Swing())
	}
}
