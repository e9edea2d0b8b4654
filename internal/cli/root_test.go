package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shidetake/uvrcli/internal/apply"
	"github.com/shidetake/uvrcli/internal/engine"
	"github.com/shidetake/uvrcli/internal/request"
	"github.com/shidetake/uvrcli/internal/testutil"
)

// recordingFactory hands out host and remembers the options it was built with
type recordingFactory struct {
	host  *testutil.FakeHost
	opts  []engine.Options
	err   error
	calls int
}

func (f *recordingFactory) New(opts engine.Options) (apply.EngineHandle, error) {
	f.calls++
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return nil, f.err
	}
	return f.host, nil
}

func execute(t *testing.T, factory *recordingFactory, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(factory.New)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestRootMP3Scenario(t *testing.T) {
	outDir, inputs := testutil.TempInputs(t, "a.wav")
	factory := &recordingFactory{host: testutil.NewFakeHost()}
	settings := filepath.Join(t.TempDir(), "settings.toml")

	out, err := execute(t, factory,
		"--input-files", inputs[0],
		"--output-dir", outDir,
		"--output-format", "MP3",
		"--settings-file", settings,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Separation complete!")

	host := factory.host
	assert.Equal(t, 1, host.ProcessCalls)
	assert.Equal(t, "MP3", host.Processed.OutputFormat)
	assert.False(t, host.Processed.GPU)
	assert.False(t, host.Processed.PrimaryStemOnly)
	assert.False(t, host.Processed.SecondaryStemOnly)
	assert.Equal(t, inputs, host.Processed.InputPaths)
	assert.Equal(t, outDir, host.Processed.OutputDir)
	assert.Equal(t, 1, host.PersistCalls, "cleanup runs by default")

	require.Len(t, factory.opts, 1)
	assert.True(t, factory.opts[0].CLIMode)
	assert.Equal(t, settings, factory.opts[0].SettingsPath)
}

func TestRootVocalsOnly(t *testing.T) {
	outDir, inputs := testutil.TempInputs(t, "a.wav")
	factory := &recordingFactory{host: testutil.NewFakeHost()}

	_, err := execute(t, factory,
		"--input-files", inputs[0],
		"--output-dir", outDir,
		"--is-vocals-only",
		"--no-cleanup",
	)
	require.NoError(t, err)

	got := factory.host.Settings()
	assert.False(t, got.PrimaryStemOnly, "primary stem suppressed")
	assert.True(t, got.SecondaryStemOnly, "vocal stem kept")
	assert.Equal(t, engine.VocalStem, got.StemLabel)
	assert.Zero(t, factory.host.PersistCalls)
}

func TestRootRepeatedInputs(t *testing.T) {
	outDir, inputs := testutil.TempInputs(t, "a,1.wav", "b.wav")
	factory := &recordingFactory{host: testutil.NewFakeHost()}

	_, err := execute(t, factory,
		"--input-files", inputs[0],
		"--input-files", inputs[1],
		"--output-dir", outDir,
	)
	require.NoError(t, err)
	assert.Equal(t, inputs, factory.host.Processed.InputPaths, "commas in paths must not split inputs")
}

func TestRootMissingOutputDir(t *testing.T) {
	_, inputs := testutil.TempInputs(t, "a.wav")
	factory := &recordingFactory{host: testutil.NewFakeHost()}

	out, err := execute(t, factory,
		"--input-files", inputs[0],
		"--output-dir", "/does/not/exist",
	)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	var pathErr *request.PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, "/does/not/exist", pathErr.Path)
	assert.Contains(t, out, "'--output-dir' argument [/does/not/exist]")
	assert.Equal(t, 2, ExitCode(err))

	assert.Zero(t, factory.calls, "engine must not be created")
	assert.Zero(t, factory.host.ProcessCalls)
	assert.Empty(t, factory.host.Calls)
}

func TestRootRejectsBeforeEngine(t *testing.T) {
	outDir, inputs := testutil.TempInputs(t, "a.wav")

	testCases := []struct {
		name string
		args []string
	}{
		{"no inputs", []string{"--output-dir", outDir}},
		{"no output dir", []string{"--input-files", inputs[0]}},
		{"unsupported format", []string{"--input-files", inputs[0], "--output-dir", outDir, "--output-format", "OGG"}},
		{"both stem flags", []string{"--input-files", inputs[0], "--output-dir", outDir, "--is-vocals-only", "--is-instrumentals-only"}},
		{"input is a directory", []string{"--input-files", outDir, "--output-dir", outDir}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			factory := &recordingFactory{host: testutil.NewFakeHost()}
			_, err := execute(t, factory, tc.args...)
			assert.Equal(t, 2, ExitCode(err), "err = %v", err)
			assert.Zero(t, factory.calls)
		})
	}
}

func TestRootHostErrorsPassThrough(t *testing.T) {
	outDir, inputs := testutil.TempInputs(t, "a.wav")
	host := testutil.NewFakeHost()
	host.ProcessErr = errors.New("CUDA out of memory")
	factory := &recordingFactory{host: host}

	_, err := execute(t, factory, "--input-files", inputs[0], "--output-dir", outDir)
	require.Same(t, host.ProcessErr, err)
	assert.Equal(t, 1, ExitCode(err))
	assert.Equal(t, 1, host.PersistCalls)
}

func TestRootEngineStartFailure(t *testing.T) {
	outDir, inputs := testutil.TempInputs(t, "a.wav")
	factory := &recordingFactory{err: errors.New("settings unreadable")}

	_, err := execute(t, factory, "--input-files", inputs[0], "--output-dir", outDir)
	require.EqualError(t, err, "settings unreadable")
	assert.Equal(t, 1, ExitCode(err))
}

func TestRootVirtualDisplayEnv(t *testing.T) {
	outDir, inputs := testutil.TempInputs(t, "a.wav")

	testCases := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"0", false},
		{"", false},
		{"maybe", false},
	}

	for _, tc := range testCases {
		t.Run(tc.value, func(t *testing.T) {
			t.Setenv(envVirtualDisplay, tc.value)
			factory := &recordingFactory{host: testutil.NewFakeHost()}
			_, err := execute(t, factory, "--input-files", inputs[0], "--output-dir", outDir)
			require.NoError(t, err)
			require.Len(t, factory.opts, 1)
			assert.Equal(t, tc.want, factory.opts[0].VirtualDisplay)
		})
	}
}

func TestRootEnvDefaults(t *testing.T) {
	outDir, inputs := testutil.TempInputs(t, "a.wav")
	t.Setenv(envSeparatorBin, "/opt/uvr/bin/audio-separator")
	t.Setenv(envModelDir, "/opt/uvr/models")
	factory := &recordingFactory{host: testutil.NewFakeHost()}

	_, err := execute(t, factory, "--input-files", inputs[0], "--output-dir", outDir)
	require.NoError(t, err)
	assert.Equal(t, "/opt/uvr/bin/audio-separator", factory.opts[0].Binary)
	assert.Equal(t, "/opt/uvr/models", factory.opts[0].ModelDir)
}

func TestRootRejectsPositionalArgs(t *testing.T) {
	factory := &recordingFactory{host: testutil.NewFakeHost()}
	_, err := execute(t, factory, "song.wav")
	require.Error(t, err)
	assert.Equal(t, 1, ExitCode(err))
	assert.Zero(t, factory.calls)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 2, ExitCode(&ValidationError{Err: request.ErrFileNotFound}))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
}
