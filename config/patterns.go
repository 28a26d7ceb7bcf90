package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"

	"go-rhythm/sequencer"
)

const stampLayout = "2006-01-02_15-04-05"

// Snapshot is a saved practice setup
type Snapshot struct {
	Tempo  int                `json:"tempo"`
	Swing  float64            `json:"swing"`
	Layers []*sequencer.Layer `json:"layers"`
}

// Capture records the controller's tempo, swing and layers
func Capture(p *sequencer.Controller) Snapshot {
	return Snapshot{
		Tempo:  p.Tempo(),
		Swing:  p.Swing(),
		Layers: p.Layers(),
	}
}

// Validate checks every layer and rejects repeated layer ids
func (s Snapshot) Validate() error {
	seen := make(map[string]bool, len(s.Layers))
	for _, l := range s.Layers {
		if l == nil {
			return fault.New("snapshot has an empty layer", fmsg.With("corrupt pattern file"))
		}
		if err := l.Validate(); err != nil {
			return err
		}
		if seen[l.ID] {
			return fault.New("snapshot repeats layer "+l.ID, fmsg.With("corrupt pattern file"))
		}
		seen[l.ID] = true
	}
	return nil
}

// Apply replaces the controller's layers with the snapshot and sets its
// tempo and swing
func (s Snapshot) Apply(p *sequencer.Controller) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := p.ReplaceLayers(s.Layers); err != nil {
		return err
	}
	if s.Tempo > 0 {
		p.SetTempo(s.Tempo)
	}
	p.SetSwing(s.Swing)
	return nil
}

// SaveInfo represents a saved pattern file (for listing)
type SaveInfo struct {
	Filename  string
	Name      string // parsed from filename (empty if unnamed)
	Timestamp time.Time
}

// Library stores snapshots as timestamped JSON files, one folder per pattern
type Library struct {
	Dir string
}

// DefaultLibrary lives in ~/.config/go-rhythm/patterns
func DefaultLibrary() (*Library, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	return &Library{Dir: filepath.Join(dir, "patterns")}, nil
}

// PatternDir returns the path to a specific pattern
func (lib *Library) PatternDir(pattern string) string {
	return filepath.Join(lib.Dir, pattern)
}

// ListPatterns returns all pattern folder names
func (lib *Library) ListPatterns() ([]string, error) {
	entries, err := os.ReadDir(lib.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fault.Wrap(err, fmsg.With("list patterns"))
	}

	var patterns []string
	for _, entry := range entries {
		if entry.IsDir() {
			patterns = append(patterns, entry.Name())
		}
	}

	sort.Strings(patterns)
	return patterns, nil
}

// ListSaves returns timestamped saves for a pattern, newest first
func (lib *Library) ListSaves(pattern string) ([]SaveInfo, error) {
	entries, err := os.ReadDir(lib.PatternDir(pattern))
	if err != nil {
		if os.IsNotExist(err) {
			return []SaveInfo{}, nil
		}
		return nil, fault.Wrap(err, fmsg.With("list saves"))
	}

	var saves []SaveInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if info, ok := parseSaveName(entry.Name()); ok {
			saves = append(saves, info)
		}
	}

	sort.Slice(saves, func(i, j int) bool {
		return saves[i].Timestamp.After(saves[j].Timestamp)
	})

	return saves, nil
}

// parseSaveName reads 2024-01-15_14-30-00.json or 2024-01-15_14-30-00_name.json
func parseSaveName(filename string) (SaveInfo, bool) {
	if !strings.HasSuffix(filename, ".json") {
		return SaveInfo{}, false
	}
	base := strings.TrimSuffix(filename, ".json")
	if len(base) < len(stampLayout) {
		return SaveInfo{}, false
	}
	ts, err := time.Parse(stampLayout, base[:len(stampLayout)])
	if err != nil {
		return SaveInfo{}, false
	}
	name := ""
	if len(base) > len(stampLayout)+1 && base[len(stampLayout)] == '_' {
		name = base[len(stampLayout)+1:]
	}
	return SaveInfo{Filename: filename, Name: name, Timestamp: ts}, true
}

// Save writes snap into pattern stamped with at, returning the file name
func (lib *Library) Save(pattern string, snap Snapshot, at time.Time) (string, error) {
	if pattern == "" {
		pattern = "untitled"
	}
	pattern = sanitizeFilename(pattern)

	dir := lib.PatternDir(pattern)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fault.Wrap(err, fmsg.With("create pattern folder"))
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fault.Wrap(err, fmsg.With("encode pattern"))
	}

	filename := at.Format(stampLayout) + ".json"
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		return "", fault.Wrap(err, fmsg.With("write pattern"))
	}
	return filename, nil
}

// Load reads a specific save (or the most recent if filename is empty)
func (lib *Library) Load(pattern, filename string) (*Snapshot, error) {
	if filename == "" {
		saves, err := lib.ListSaves(pattern)
		if err != nil {
			return nil, err
		}
		if len(saves) == 0 {
			return nil, fault.New("no saves in pattern "+pattern, fmsg.With("nothing saved yet"))
		}
		filename = saves[0].Filename
	}

	data, err := os.ReadFile(filepath.Join(lib.PatternDir(pattern), filename))
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("read pattern"))
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fault.Wrap(err, fmsg.With("parse pattern "+filename))
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Delete removes a specific save file
func (lib *Library) Delete(pattern, filename string) error {
	if err := os.Remove(filepath.Join(lib.PatternDir(pattern), filename)); err != nil {
		return fault.Wrap(err, fmsg.With("delete save"))
	}
	return nil
}

// Rename changes the name part of a save, keeping its timestamp
func (lib *Library) Rename(pattern, oldFilename, newName string) (string, error) {
	info, ok := parseSaveName(oldFilename)
	if !ok {
		return "", fault.New("invalid save filename "+oldFilename, fmsg.With("not a pattern save"))
	}

	stamp := info.Timestamp.Format(stampLayout)
	newFilename := stamp + ".json"
	if newName != "" {
		newFilename = stamp + "_" + sanitizeFilename(newName) + ".json"
	}

	dir := lib.PatternDir(pattern)
	if err := os.Rename(filepath.Join(dir, oldFilename), filepath.Join(dir, newFilename)); err != nil {
		return "", fault.Wrap(err, fmsg.With("rename save"))
	}
	return newFilename, nil
}

// sanitizeFilename removes/replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	r := strings.NewReplacer(
		" ", "-", "/", "-", "\\", "-", ":", "-",
		"*", "", "?", "", "\"", "", "<", "", ">", "", "|", "",
	)
	return r.Replace(name)
}
