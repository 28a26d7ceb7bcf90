package midi

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"go-rhythm/sequencer"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func polySchedule(t *testing.T) sequencer.Schedule {
	t.Helper()
	layers, err := sequencer.Polyrhythm(3, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	return sequencer.Plan(layers, 120, 0)
}

type noteStart struct {
	track int
	tick  int64
	key   uint8
}

func readStarts(t *testing.T, sm *smf.SMF) []noteStart {
	t.Helper()
	var out []noteStart
	for i, tr := range sm.Tracks {
		var abs int64
		for _, ev := range tr {
			abs += int64(ev.Delta)
			var ch, key, vel uint8
			if gomidi.Message(ev.Message).GetNoteStart(&ch, &key, &vel) {
				out = append(out, noteStart{track: i, tick: abs, key: key})
			}
		}
	}
	return out
}

func TestExportSMF(t *testing.T) {
	var buf bytes.Buffer
	opts := ExportOptions{Cycles: 2, Channel: 1, Set: GetSoundSet("click")}
	if err := ExportSMF(&buf, polySchedule(t), 120, opts); err != nil {
		t.Fatal(err)
	}

	sm, err := smf.ReadFrom(&buf)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if len(sm.Tracks) != 3 {
		t.Fatalf("Expected tempo track + 2 layer tracks, got %d", len(sm.Tracks))
	}
	if tc := sm.TempoChanges(); len(tc) == 0 || int(tc[0].BPM+0.5) != 120 {
		t.Errorf("Tempo changes = %+v", tc)
	}

	perTrack := make(map[int]int)
	for _, s := range readStarts(t, sm) {
		perTrack[s.track]++
	}
	if perTrack[1] != 6 || perTrack[2] != 8 {
		t.Errorf("Note starts per track = %v, want 6 and 8", perTrack)
	}
}

func TestExportTickPositions(t *testing.T) {
	sched := polySchedule(t)
	sm, err := BuildSMF(sched, 120, ExportOptions{Cycles: 1})
	if err != nil {
		t.Fatal(err)
	}
	var four []int64
	for _, s := range readStarts(t, sm) {
		if s.track == 2 {
			four = append(four, s.tick)
		}
	}
	want := []int64{0, 960, 1920, 2880}
	if len(four) != len(want) {
		t.Fatalf("Four-layer starts = %v", four)
	}
	for i := range want {
		if four[i] != want[i] {
			t.Errorf("Start %d at tick %d, want %d", i, four[i], want[i])
		}
	}
}

func TestExportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poly.mid")
	if err := ExportFile(path, polySchedule(t), 120, ExportOptions{Cycles: 1}); err != nil {
		t.Fatal(err)
	}
	sm, err := smf.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got := len(readStarts(t, sm)); got != 7 {
		t.Errorf("Expected 7 note starts, got %d", got)
	}
}

func TestExportEmptySchedule(t *testing.T) {
	if _, err := BuildSMF(sequencer.Schedule{}, 120, ExportOptions{}); err == nil {
		t.Error("Expected an error for a schedule without tempo")
	}
}
