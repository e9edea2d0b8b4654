package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Stem labels understood by the separator's single-stem option
const (
	VocalStem        = "Vocals"
	InstrumentalStem = "Instrumental"
)

// DefaultModel is the separation model the CLI always selects
const DefaultModel = "UVR-MDX-NET-Inst_HQ_3.onnx"

// StemLabels is the engine's vocabulary for the two stems of a vocal model
type StemLabels struct {
	Vocals       string
	Instrumental string
}

// Settings is the engine's mutable configuration, persisted between runs
type Settings struct {
	Model             string   `toml:"model"`
	GPU               bool     `toml:"gpu"`
	OutputFormat      string   `toml:"output_format"`
	PrimaryStemOnly   bool     `toml:"primary_stem_only"`   // Keep only the primary (instrumental) stem
	SecondaryStemOnly bool     `toml:"secondary_stem_only"` // Keep only the secondary (vocal) stem
	StemLabel         string   `toml:"stem_label"`
	InputPaths        []string `toml:"input_paths"`
	OutputDir         string   `toml:"output_dir"`
}

// DefaultSettings returns the settings of a fresh installation
func DefaultSettings() Settings {
	return Settings{
		Model:        DefaultModel,
		OutputFormat: "WAV",
	}
}

// Summary renders the settings on one line for diagnostics
func (s Settings) Summary() string {
	stems := "both"
	switch {
	case s.PrimaryStemOnly:
		stems = s.StemLabel + " only (primary)"
	case s.SecondaryStemOnly:
		stems = s.StemLabel + " only (secondary)"
	}
	return fmt.Sprintf("model=%s gpu=%t format=%s stems=%s inputs=%d output_dir=%s",
		s.Model, s.GPU, s.OutputFormat, stems, len(s.InputPaths), s.OutputDir)
}

// LoadSettings reads settings from path. A missing file yields DefaultSettings.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()
	if path == "" {
		return settings, nil
	}

	if _, err := toml.DecodeFile(path, &settings); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return Settings{}, fmt.Errorf("failed to read settings %s: %w", path, err)
	}
	settings.OutputFormat = strings.ToUpper(settings.OutputFormat)
	return settings, nil
}

// SaveSettings writes settings to path through a temporary file in the same directory
func SaveSettings(path string, settings Settings) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create settings file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(settings); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to save settings %s: %w", path, err)
	}
	return nil
}

// DefaultSettingsPath returns the per-user settings location
func DefaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "uvrcli-settings.toml")
	}
	return filepath.Join(dir, "uvrcli", "settings.toml")
}
