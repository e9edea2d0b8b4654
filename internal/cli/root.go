package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/shidetake/uvrcli/internal/apply"
	"github.com/shidetake/uvrcli/internal/engine"
	"github.com/shidetake/uvrcli/internal/request"
)

// Environment variables read at startup
const (
	envVirtualDisplay = "UVR_VIRTUAL_DISPLAY"
	envSeparatorBin   = "UVR_SEPARATOR_BIN"
	envModelDir       = "UVR_MODEL_DIR"
	envLogLevel       = "UVR_LOG_LEVEL"
)

var version = "dev" // set at build time with -ldflags

// Config holds the parsed command-line configuration
type Config struct {
	Request        request.RawRequest
	SettingsPath   string
	SeparatorBin   string
	ModelDir       string
	LogLevel       string
	NoCleanup      bool
	VirtualDisplay bool // From UVR_VIRTUAL_DISPLAY
}

// HostFactory creates the engine a run configures
type HostFactory func(opts engine.Options) (apply.EngineHandle, error)

var _ apply.EngineHandle = (*engine.Separator)(nil)

func newSeparator(opts engine.Options) (apply.EngineHandle, error) {
	s, err := engine.New(opts)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewRootCommand builds the uvrcli command around newHost
func NewRootCommand(newHost HostFactory) *cobra.Command {
	config := &Config{}

	cmd := &cobra.Command{
		Use:   "uvrcli --input-files <file> [--input-files <file> ...] --output-dir <dir> [flags]",
		Short: "Audio source separation from the command line",
		Long: `uvrcli - Audio Source Separation

Split audio files into vocal and instrumental stems with audio-separator.

Example:
  uvrcli --input-files song.wav --output-dir ./stems
  uvrcli --input-files a.wav --input-files b.mp3 --output-dir ./stems --output-format MP3 --is-vocals-only

Environment:
  UVR_VIRTUAL_DISPLAY  run the separator under xvfb-run (true/false)
  UVR_SEPARATOR_BIN    separator executable
  UVR_MODEL_DIR        directory holding model files
  UVR_LOG_LEVEL        log level`,
		Args:          cobra.NoArgs,
		Version:       version,
		SilenceUsage:  true, // Don't show usage on errors during execution
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			config.VirtualDisplay = envBool(envVirtualDisplay)
			logger := newLogger(cmd.ErrOrStderr(), config.LogLevel)
			return Run(cmd.Context(), config, newHost, cmd.OutOrStdout(), logger)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&config.Request.InputPaths, request.FlagInputFiles, nil, "Input audio file, repeat for several files (required)")
	flags.StringVar(&config.Request.OutputDir, request.FlagOutputDir, "", "Directory that receives the stems (required)")
	flags.StringVar(&config.Request.OutputFormat, request.FlagOutputFormat, request.FormatWAV,
		"Output format, one of "+strings.Join(request.SupportedFormats, ", "))
	flags.BoolVar(&config.Request.GPU, request.FlagGPU, false, "Run the model on the GPU")
	flags.BoolVar(&config.Request.VocalsOnly, request.FlagVocalsOnly, false, "Write only the vocal stem")
	flags.BoolVar(&config.Request.InstrumentalsOnly, request.FlagInstrumentalsOnly, false, "Write only the instrumental stem")
	flags.StringVar(&config.SettingsPath, "settings-file", engine.DefaultSettingsPath(), "Engine settings file")
	flags.StringVar(&config.SeparatorBin, "separator-bin", envOr(envSeparatorBin, "audio-separator"), "audio-separator executable")
	flags.StringVar(&config.ModelDir, "model-dir", os.Getenv(envModelDir), "Directory holding model files")
	flags.StringVar(&config.LogLevel, "log-level", envOr(envLogLevel, "info"), "Log level (debug, info, warn, error)")
	flags.BoolVar(&config.NoCleanup, "no-cleanup", false, "Keep this run's stem selection in the saved settings")

	return cmd
}

// Execute runs the root command against the real separator
func Execute() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: couldn't load .env: %v\n", err)
	}

	// Keep all timestamps in UTC
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCommand(newSeparator).ExecuteContext(ctx)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// envBool reports whether key holds a true value; unset or unparsable means false
func envBool(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && v
}
