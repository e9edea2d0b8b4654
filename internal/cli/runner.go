package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/shidetake/uvrcli/internal/apply"
	"github.com/shidetake/uvrcli/internal/engine"
	"github.com/shidetake/uvrcli/internal/request"
)

// ValidationError wraps a rejected request. Its messages have already been printed.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// ExitCode maps an error returned by Execute to a process exit status
func ExitCode(err error) int {
	var validationErr *ValidationError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &validationErr):
		return 2
	default:
		return 1
	}
}

// Run executes the separation workflow
func Run(ctx context.Context, config *Config, newHost HostFactory, out io.Writer, logger zerolog.Logger) error {
	fmt.Fprintln(out, "uvrcli - Audio Source Separation")
	fmt.Fprintln(out, "================================")
	fmt.Fprintln(out)

	// Step 1: Validate arguments before the engine exists
	validated, err := request.Validate(config.Request)
	if err != nil {
		for _, line := range request.Messages(err) {
			fmt.Fprintln(out, line)
		}
		return &ValidationError{Err: err}
	}
	logger.Debug().Stringer("request", validated).Msg("arguments validated")

	// Step 2: Start the engine
	host, err := newHost(engine.Options{
		CLIMode:        true,
		VirtualDisplay: config.VirtualDisplay,
		SettingsPath:   config.SettingsPath,
		Binary:         config.SeparatorBin,
		ModelDir:       config.ModelDir,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	logger.Debug().Str("settings", host.Settings().Summary()).Msg("engine settings loaded")

	for _, path := range validated.InputFiles() {
		fmt.Fprintf(out, "  ✓ %s\n", filepath.Base(path))
	}
	fmt.Fprintf(out, "Separating into %s (%s, stems: %s, gpu: %t)...\n",
		validated.OutputDir(), validated.OutputFormat(), validated.StemSelection(), validated.GPU())

	// Step 3: Configure, process and reset the engine
	if err := apply.Run(ctx, validated, host, apply.Options{Cleanup: !config.NoCleanup}); err != nil {
		return err
	}
	logger.Debug().Str("settings", host.Settings().Summary()).Msg("engine settings after run")

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Separation complete!")
	return nil
}
