package apply

import (
	"context"
	"errors"

	"github.com/shidetake/uvrcli/internal/engine"
	"github.com/shidetake/uvrcli/internal/request"
)

// EngineHandle is the part of the separation engine the CLI configures.
// Setters that can be rejected by the engine return an error.
type EngineHandle interface {
	SelectModel(name string) error
	SetGPU(enabled bool) error
	SetOutputFormat(format string) error
	SetPrimaryStemOnly(enabled bool)
	SetSecondaryStemOnly(enabled bool)
	SetStemLabel(label string)
	StemLabels() engine.StemLabels
	SetInputPaths(paths []string)
	NormalizeInputs() error
	SetOutputDir(dir string) error
	Process(ctx context.Context) error
	Persist() error
	Settings() engine.Settings
}

// Options controls the optional steps of Run
type Options struct {
	Cleanup bool // Reset stem flags and persist settings after processing
}

// Apply writes cfg onto host. Host errors are returned unchanged.
func Apply(cfg *request.ValidatedConfig, host EngineHandle) error {
	if err := host.SelectModel(engine.DefaultModel); err != nil {
		return err
	}
	if err := host.SetGPU(cfg.GPU()); err != nil {
		return err
	}
	if err := host.SetOutputFormat(cfg.OutputFormat()); err != nil {
		return err
	}

	// Persisted settings may still hold a previous run's stem selection
	resetStems(host)

	labels := host.StemLabels()
	switch cfg.StemSelection() {
	case request.StemsVocalsOnly:
		host.SetSecondaryStemOnly(true)
		host.SetStemLabel(labels.Vocals)
	case request.StemsInstrumentalsOnly:
		host.SetPrimaryStemOnly(true)
		host.SetStemLabel(labels.Instrumental)
	}

	host.SetInputPaths(cfg.InputFiles())
	if err := host.NormalizeInputs(); err != nil {
		return err
	}
	return host.SetOutputDir(cfg.OutputDir())
}

// Process starts separation. It blocks until the engine finishes.
func Process(ctx context.Context, host EngineHandle) error {
	return host.Process(ctx)
}

// Cleanup restores both stems and persists the engine settings
func Cleanup(host EngineHandle) error {
	resetStems(host)
	return host.Persist()
}

// Run applies cfg, processes, and optionally cleans up. Cleanup also runs
// after a failed Process; the Process error takes precedence.
func Run(ctx context.Context, cfg *request.ValidatedConfig, host EngineHandle, opts Options) error {
	if err := Apply(cfg, host); err != nil {
		return err
	}

	processErr := Process(ctx, host)
	if !opts.Cleanup {
		return processErr
	}

	cleanupErr := Cleanup(host)
	if processErr != nil {
		if cleanupErr != nil {
			return errors.Join(processErr, cleanupErr)
		}
		return processErr
	}
	return cleanupErr
}

func resetStems(host EngineHandle) {
	host.SetPrimaryStemOnly(false)
	host.SetSecondaryStemOnly(false)
	host.SetStemLabel("")
}
