// Package upload tracks simulated file ingestion: an upload phase with
// randomized progress steps followed by a processing phase.
package upload

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/design-review/backend/internal/discipline"
	"github.com/design-review/backend/internal/models"
)

// ProcessingMode selects how the processing phase reports progress.
type ProcessingMode string

const (
	// ProcessingHold keeps progress at 100 for ProcessingDelay.
	ProcessingHold ProcessingMode = "hold"
	// ProcessingRamp resets progress to 0 and adds ProcessingStep every ProcessingTick.
	ProcessingRamp ProcessingMode = "ramp"
)

const defaultTick = 200 * time.Millisecond

// Preset describes how a file advances through its lifecycle.
type Preset struct {
	Name            string
	Tick            time.Duration
	MaxStep         float64 // upload step is uniform in [0, MaxStep)
	FixedStep       float64 // used instead of MaxStep when > 0
	Processing      ProcessingMode
	ProcessingDelay time.Duration
	ProcessingTick  time.Duration
	ProcessingStep  float64
	Finish          func(*models.TrackedFile) // runs under the tracker lock on completion
}

// Built-in presets.
var (
	PresetCAD = Preset{
		Name:            "cad",
		Tick:            200 * time.Millisecond,
		MaxStep:         15,
		Processing:      ProcessingHold,
		ProcessingDelay: 3 * time.Second,
	}
	PresetFileUpload = Preset{
		Name:            "file-upload",
		Tick:            200 * time.Millisecond,
		MaxStep:         15,
		Processing:      ProcessingHold,
		ProcessingDelay: 2 * time.Second,
	}
	PresetBuildingCode = Preset{
		Name:           "building-code",
		Tick:           200 * time.Millisecond,
		FixedStep:      10,
		Processing:     ProcessingRamp,
		ProcessingTick: 300 * time.Millisecond,
		ProcessingStep: 20,
		Finish:         annotateDocument,
	}
	PresetExport = Preset{
		Name:       "export",
		Tick:       300 * time.Millisecond,
		MaxStep:    15,
		Processing: ProcessingHold,
	}
)

// PresetByName returns a built-in preset.
func PresetByName(name string) (Preset, error) {
	for _, p := range []Preset{PresetCAD, PresetFileUpload, PresetBuildingCode, PresetExport} {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("unknown upload preset: %s", name)
}

// Scaled returns a copy with every interval multiplied by factor.
func (p Preset) Scaled(factor float64) Preset {
	scale := func(d time.Duration) time.Duration {
		return time.Duration(float64(d) * factor)
	}
	p.Tick = scale(p.Tick)
	p.ProcessingDelay = scale(p.ProcessingDelay)
	p.ProcessingTick = scale(p.ProcessingTick)
	return p
}

func (p Preset) normalize() Preset {
	if p.Tick <= 0 {
		p.Tick = defaultTick
	}
	if p.MaxStep <= 0 && p.FixedStep <= 0 {
		p.MaxStep = 15
	}
	if p.Processing == "" {
		p.Processing = ProcessingHold
	}
	if p.Processing == ProcessingRamp {
		if p.ProcessingTick <= 0 {
			p.ProcessingTick = p.Tick
		}
		if p.ProcessingStep <= 0 {
			p.ProcessingStep = 20
		}
	}
	return p
}

// annotateDocument fills the code family and a section count once a
// building code document finishes processing.
func annotateDocument(f *models.TrackedFile) {
	f.Category = discipline.DocumentCategory(f.Name)
	f.Sections = rand.IntN(50) + 10
}
