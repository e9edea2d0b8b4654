package request

import (
	"fmt"
	"strings"
)

// Output formats accepted on the command line
const (
	FormatWAV = "WAV"
	FormatMP3 = "MP3"
)

// Flag names as they appear on the command line
const (
	FlagInputFiles        = "input-files"
	FlagOutputDir         = "output-dir"
	FlagOutputFormat      = "output-format"
	FlagGPU               = "is-gpu-conversion"
	FlagVocalsOnly        = "is-vocals-only"
	FlagInstrumentalsOnly = "is-instrumentals-only"
)

// SupportedFormats lists the output formats the CLI accepts, in help order
var SupportedFormats = []string{FormatWAV, FormatMP3}

// StemSelection is the resolved choice of which stems the engine should emit
type StemSelection int

const (
	StemsBoth StemSelection = iota
	StemsVocalsOnly
	StemsInstrumentalsOnly
)

func (s StemSelection) String() string {
	switch s {
	case StemsBoth:
		return "both"
	case StemsVocalsOnly:
		return "vocals-only"
	case StemsInstrumentalsOnly:
		return "instrumentals-only"
	default:
		return fmt.Sprintf("StemSelection(%d)", int(s))
	}
}

// RawRequest holds the command-line input before any checks
type RawRequest struct {
	InputPaths        []string
	OutputDir         string
	OutputFormat      string // Defaults to WAV when empty
	GPU               bool
	VocalsOnly        bool
	InstrumentalsOnly bool
}

// ValidatedConfig is produced only by Validate and cannot be changed afterwards
type ValidatedConfig struct {
	inputFiles   []string
	outputDir    string
	outputFormat string
	stems        StemSelection
	gpu          bool
}

// InputFiles returns a copy of the confirmed input files in their original order
func (c *ValidatedConfig) InputFiles() []string {
	files := make([]string, len(c.inputFiles))
	copy(files, c.inputFiles)
	return files
}

func (c *ValidatedConfig) OutputDir() string { return c.outputDir }

func (c *ValidatedConfig) OutputFormat() string { return c.outputFormat }

func (c *ValidatedConfig) StemSelection() StemSelection { return c.stems }

// GPU reports whether GPU conversion was requested; it is not checked against available devices
func (c *ValidatedConfig) GPU() bool { return c.gpu }

// String renders the config for log lines
func (c *ValidatedConfig) String() string {
	return fmt.Sprintf("inputs=[%s] output_dir=%s format=%s stems=%s gpu=%t",
		strings.Join(c.inputFiles, ", "), c.outputDir, c.outputFormat, c.stems, c.gpu)
}

// normalizeFormat upper-cases the format and applies the WAV default
func normalizeFormat(format string) string {
	format = strings.ToUpper(strings.TrimSpace(format))
	if format == "" {
		return FormatWAV
	}
	return format
}

func isSupportedFormat(format string) bool {
	for _, f := range SupportedFormats {
		if f == format {
			return true
		}
	}
	return false
}
