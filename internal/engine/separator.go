package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/shidetake/uvrcli/internal/audio"
)

const (
	defaultBinary        = "audio-separator"
	virtualDisplayRunner = "xvfb-run"
)

// formats the separator can encode
var engineFormats = map[string]bool{"WAV": true, "MP3": true, "FLAC": true}

// Options configures a Separator
type Options struct {
	CLIMode        bool   // Show a progress bar and capture separator output instead of streaming it
	VirtualDisplay bool   // Run the separator under xvfb-run
	SettingsPath   string // Empty disables persistence
	Binary         string // Defaults to audio-separator on PATH
	ModelDir       string // Passed as --model_file_dir when set
	Logger         zerolog.Logger
	Stdout         io.Writer // Separator output when not in CLI mode; defaults to os.Stdout
	Stderr         io.Writer // Progress bar and separator errors; defaults to os.Stderr
}

// Separator drives the external audio-separator program
type Separator struct {
	opts     Options
	settings Settings
	logger   zerolog.Logger
}

// HostError is a failure reported by the separator itself
type HostError struct {
	Input  string
	Err    error
	Output string // Captured separator output, CLI mode only
}

func (e *HostError) Error() string {
	msg := fmt.Sprintf("separation failed for %s: %v", e.Input, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		lines := strings.Split(out, "\n")
		msg += ": " + lines[len(lines)-1]
	}
	return msg
}

func (e *HostError) Unwrap() error { return e.Err }

// New creates a Separator, loading any settings persisted by a previous run
func New(opts Options) (*Separator, error) {
	if opts.Binary == "" {
		opts.Binary = defaultBinary
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	settings, err := LoadSettings(opts.SettingsPath)
	if err != nil {
		return nil, err
	}

	s := &Separator{
		opts:     opts,
		settings: settings,
		logger:   opts.Logger.With().Str("component", "engine").Logger(),
	}
	s.logger.Debug().
		Bool("cli_mode", opts.CLIMode).
		Bool("virtual_display", opts.VirtualDisplay).
		Str("settings", s.settings.Summary()).
		Msg("engine loaded")
	return s, nil
}

func (s *Separator) SelectModel(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("model name must not be empty")
	}
	s.settings.Model = name
	return nil
}

func (s *Separator) SetGPU(enabled bool) error {
	s.settings.GPU = enabled
	return nil
}

func (s *Separator) SetOutputFormat(format string) error {
	format = strings.ToUpper(format)
	if !engineFormats[format] {
		return fmt.Errorf("engine does not support output format %q", format)
	}
	s.settings.OutputFormat = format
	return nil
}

func (s *Separator) SetPrimaryStemOnly(enabled bool) { s.settings.PrimaryStemOnly = enabled }

func (s *Separator) SetSecondaryStemOnly(enabled bool) { s.settings.SecondaryStemOnly = enabled }

func (s *Separator) SetStemLabel(label string) { s.settings.StemLabel = label }

// StemLabels returns the stem names accepted by --single_stem
func (s *Separator) StemLabels() StemLabels {
	return StemLabels{Vocals: VocalStem, Instrumental: InstrumentalStem}
}

// SetInputPaths stores raw paths; NormalizeInputs must be called before Process
func (s *Separator) SetInputPaths(paths []string) {
	s.settings.InputPaths = append([]string(nil), paths...)
}

// NormalizeInputs makes input paths absolute, drops duplicates and logs what each file contains
func (s *Separator) NormalizeInputs() error {
	seen := make(map[string]bool, len(s.settings.InputPaths))
	normalized := make([]string, 0, len(s.settings.InputPaths))

	for _, path := range s.settings.InputPaths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve input %s: %w", path, err)
		}
		if seen[abs] {
			s.logger.Warn().Str("input", abs).Msg("duplicate input skipped")
			continue
		}
		seen[abs] = true
		normalized = append(normalized, abs)

		info, err := audio.Probe(abs)
		if err != nil {
			s.logger.Warn().Err(err).Str("input", abs).Msg("could not probe input, passing it to the separator as is")
			continue
		}
		s.logger.Debug().Str("input", abs).Str("probe", info.String()).Msg("input probed")
	}

	s.settings.InputPaths = normalized
	return nil
}

func (s *Separator) SetOutputDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve output directory %s: %w", dir, err)
	}
	s.settings.OutputDir = abs
	return nil
}

// Settings returns a copy of the current configuration
func (s *Separator) Settings() Settings {
	settings := s.settings
	settings.InputPaths = append([]string(nil), s.settings.InputPaths...)
	return settings
}

// Persist saves the current settings. It is a no-op without a settings path.
func (s *Separator) Persist() error {
	if s.opts.SettingsPath == "" {
		return nil
	}
	if err := SaveSettings(s.opts.SettingsPath, s.settings); err != nil {
		return err
	}
	s.logger.Debug().Str("path", s.opts.SettingsPath).Msg("settings persisted")
	return nil
}

// Process runs the separator once per input file, in order, and stops at the first failure
func (s *Separator) Process(ctx context.Context) error {
	inputs := s.settings.InputPaths
	if len(inputs) == 0 {
		return fmt.Errorf("no input files configured")
	}
	if s.settings.OutputDir == "" {
		return fmt.Errorf("no output directory configured")
	}

	var bar *progressbar.ProgressBar
	if s.opts.CLIMode {
		bar = progressbar.NewOptions(len(inputs),
			progressbar.OptionSetWriter(s.opts.Stderr),
			progressbar.OptionSetDescription("Separating"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(s.opts.Stderr) }),
		)
	}

	for _, input := range inputs {
		if err := s.separate(ctx, input); err != nil {
			return err
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	return nil
}

// separate runs the separator on a single input
func (s *Separator) separate(ctx context.Context, input string) error {
	name, args := s.command(input)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = s.environ()

	var captured bytes.Buffer
	if s.opts.CLIMode {
		cmd.Stdout = &captured
		cmd.Stderr = &captured
	} else {
		cmd.Stdout = s.opts.Stdout
		cmd.Stderr = s.opts.Stderr
	}

	s.logger.Debug().Str("cmd", name).Strs("args", args).Msg("starting separator")

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		s.logger.Error().Err(err).Str("input", input).Msg("separator failed")
		return &HostError{Input: input, Err: err, Output: captured.String()}
	}

	s.logger.Info().Str("input", filepath.Base(input)).Msg("separated")
	return nil
}

// command builds the program name and arguments for one input
func (s *Separator) command(input string) (string, []string) {
	args := []string{
		input,
		"--model_filename", s.settings.Model,
		"--output_dir", s.settings.OutputDir,
		"--output_format", s.settings.OutputFormat,
	}
	if s.settings.PrimaryStemOnly || s.settings.SecondaryStemOnly {
		args = append(args, "--single_stem", s.settings.StemLabel)
	}
	if s.opts.ModelDir != "" {
		args = append(args, "--model_file_dir", s.opts.ModelDir)
	}

	if s.opts.VirtualDisplay {
		return virtualDisplayRunner, append([]string{"-a", s.opts.Binary}, args...)
	}
	return s.opts.Binary, args
}

// environ hides CUDA devices from the child when GPU conversion is off
func (s *Separator) environ() []string {
	env := os.Environ()
	if !s.settings.GPU {
		env = append(env, "CUDA_VISIBLE_DEVICES=")
	}
	return env
}
