package request

import (
	"errors"
	"os"
)

// Validate checks a raw request and returns the config derived from it.
//
// All checks run, in this order: output directory, each input file, output
// format, stem flags. Every violation is reported through errors.Join, so
// errors.As yields the first offending argument in that order. A config is
// returned only when there are no violations.
func Validate(raw RawRequest) (*ValidatedConfig, error) {
	var errs []error

	if err := validateDir(raw.OutputDir); err != nil {
		errs = append(errs, err)
	}

	if len(raw.InputPaths) == 0 {
		errs = append(errs, &PathError{Flag: FlagInputFiles, Err: ErrFileNotFound})
	}
	for _, path := range raw.InputPaths {
		if err := validateFile(path); err != nil {
			errs = append(errs, err)
		}
	}

	format := normalizeFormat(raw.OutputFormat)
	if !isSupportedFormat(format) {
		errs = append(errs, &ConfigurationError{
			Flag:      FlagOutputFormat,
			Value:     raw.OutputFormat,
			Supported: append([]string(nil), SupportedFormats...),
			Err:       ErrUnsupportedFormat,
		})
	}

	stems, err := resolveStems(raw.VocalsOnly, raw.InstrumentalsOnly)
	if err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	inputs := make([]string, len(raw.InputPaths))
	copy(inputs, raw.InputPaths)

	return &ValidatedConfig{
		inputFiles:   inputs,
		outputDir:    raw.OutputDir,
		outputFormat: format,
		stems:        stems,
		gpu:          raw.GPU,
	}, nil
}

// validateDir checks that path exists and is a directory
func validateDir(path string) error {
	if path == "" {
		return &PathError{Flag: FlagOutputDir, Err: ErrNotADirectory}
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return &PathError{Flag: FlagOutputDir, Path: path, Err: ErrNotADirectory}
	}
	return nil
}

// validateFile checks that path exists and is a regular file
func validateFile(path string) error {
	if path == "" {
		return &PathError{Flag: FlagInputFiles, Err: ErrFileNotFound}
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return &PathError{Flag: FlagInputFiles, Path: path, Err: ErrFileNotFound}
	}
	return nil
}

// resolveStems collapses the two stem-only flags into a StemSelection
func resolveStems(vocalsOnly, instrumentalsOnly bool) (StemSelection, error) {
	switch {
	case vocalsOnly && instrumentalsOnly:
		return StemsBoth, &ConfigurationError{
			Flag:  FlagVocalsOnly,
			Value: FlagInstrumentalsOnly,
			Err:   ErrConflictingStemSelection,
		}
	case vocalsOnly:
		return StemsVocalsOnly, nil
	case instrumentalsOnly:
		return StemsInstrumentalsOnly, nil
	default:
		return StemsBoth, nil
	}
}
