package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shidetake/uvrcli/internal/engine"
)

// FakeHost is an in-memory engine that records every call made to it.
// Set the *Err fields to make the matching call fail.
type FakeHost struct {
	State        engine.Settings
	Calls        []string
	ProcessCalls int
	PersistCalls int
	Processed    engine.Settings // Snapshot of State when Process was called

	FormatErr  error
	ProcessErr error
	PersistErr error
}

// NewFakeHost returns a FakeHost holding engine.DefaultSettings
func NewFakeHost() *FakeHost {
	return &FakeHost{State: engine.DefaultSettings()}
}

func (f *FakeHost) record(name string) { f.Calls = append(f.Calls, name) }

func (f *FakeHost) SelectModel(name string) error {
	f.record("SelectModel")
	f.State.Model = name
	return nil
}

func (f *FakeHost) SetGPU(enabled bool) error {
	f.record("SetGPU")
	f.State.GPU = enabled
	return nil
}

func (f *FakeHost) SetOutputFormat(format string) error {
	f.record("SetOutputFormat")
	if f.FormatErr != nil {
		return f.FormatErr
	}
	f.State.OutputFormat = format
	return nil
}

func (f *FakeHost) SetPrimaryStemOnly(enabled bool) {
	f.record("SetPrimaryStemOnly")
	f.State.PrimaryStemOnly = enabled
}

func (f *FakeHost) SetSecondaryStemOnly(enabled bool) {
	f.record("SetSecondaryStemOnly")
	f.State.SecondaryStemOnly = enabled
}

func (f *FakeHost) SetStemLabel(label string) {
	f.record("SetStemLabel")
	f.State.StemLabel = label
}

func (f *FakeHost) StemLabels() engine.StemLabels {
	return engine.StemLabels{Vocals: engine.VocalStem, Instrumental: engine.InstrumentalStem}
}

func (f *FakeHost) SetInputPaths(paths []string) {
	f.record("SetInputPaths")
	f.State.InputPaths = paths
}

func (f *FakeHost) NormalizeInputs() error {
	f.record("NormalizeInputs")
	return nil
}

func (f *FakeHost) SetOutputDir(dir string) error {
	f.record("SetOutputDir")
	f.State.OutputDir = dir
	return nil
}

func (f *FakeHost) Process(ctx context.Context) error {
	f.record("Process")
	f.ProcessCalls++
	f.Processed = f.Settings()
	return f.ProcessErr
}

func (f *FakeHost) Persist() error {
	f.record("Persist")
	f.PersistCalls++
	return f.PersistErr
}

func (f *FakeHost) Settings() engine.Settings {
	s := f.State
	s.InputPaths = append([]string(nil), f.State.InputPaths...)
	return s
}

// CallIndex returns the position of the first call named name, or -1
func (f *FakeHost) CallIndex(name string) int {
	for i, c := range f.Calls {
		if c == name {
			return i
		}
	}
	return -1
}

// TempInputs creates an output directory and one small file per name.
// It returns the directory and the file paths in order.
func TempInputs(t *testing.T, names ...string) (string, []string) {
	t.Helper()
	root := t.TempDir()
	outDir := filepath.Join(root, "out")
	require.NoError(t, os.Mkdir(outDir, 0o755))

	inputs := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(root, name)
		require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o644))
		inputs = append(inputs, path)
	}
	return outDir, inputs
}
