// Package preset loads and saves synth settings as JSON.
package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chase3718/synth3d/internal/param"
)

// File is the JSON schema for presets. Missing fields keep their defaults.
type File struct {
	FilterCutoff    *float64 `json:"filterCutoff"`
	FilterResonance *float64 `json:"filterResonance"`
	Amp             *float64 `json:"amp"`
	Attack          *float64 `json:"attack"`
	Decay           *float64 `json:"decay"`
	Sustain         *float64 `json:"sustain"`
	Release         *float64 `json:"release"`
}

func (f *File) fields() map[param.Param]*float64 {
	return map[param.Param]*float64{
		param.FilterCutoff:    f.FilterCutoff,
		param.FilterResonance: f.FilterResonance,
		param.Amp:             f.Amp,
		param.Attack:          f.Attack,
		param.Decay:           f.Decay,
		param.Sustain:         f.Sustain,
		param.Release:         f.Release,
	}
}

// LoadJSON loads a preset file and applies it on top of the default state.
func LoadJSON(path string) (param.State, error) {
	s := param.DefaultState()
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return s, fmt.Errorf("preset %s: %w", path, err)
	}
	if err := ApplyFile(&s, &f); err != nil {
		return param.DefaultState(), fmt.Errorf("preset %s: %w", path, err)
	}
	return s, nil
}

// ApplyFile applies a parsed preset onto dst. Values must lie in [0,1].
func ApplyFile(dst *param.State, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination state")
	}
	if f == nil {
		return nil
	}
	fields := f.fields()
	for _, p := range param.All() {
		v := fields[p]
		if v == nil {
			continue
		}
		if !(*v >= 0 && *v <= 1) {
			return fmt.Errorf("%s must be in [0,1], got %g", p, *v)
		}
		dst.Set(p, *v)
	}
	return nil
}

// SaveJSON writes s to path, creating parent directories.
func SaveJSON(path string, s param.State) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
