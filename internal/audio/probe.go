package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Info describes an input file as far as can be read without decoding it
type Info struct {
	Path       string
	Container  string // WAV, MP3, FLAC, ... as reported by the header or tags
	SampleRate int    // Zero when not known
	Channels   int
	BitDepth   int
	Duration   time.Duration // Zero when not known
	Title      string
	Artist     string
	Format     *audio.Format // Set for WAV only
}

// Probe reads header and tag metadata from path
func Probe(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info := &Info{Path: path}

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		if err := probeWAV(f, info); err != nil {
			return nil, err
		}
		return info, nil
	}

	if err := probeTags(f, info); err != nil {
		return nil, err
	}
	return info, nil
}

// probeWAV reads the RIFF header
func probeWAV(r io.ReadSeeker, info *Info) error {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return fmt.Errorf("invalid WAV file: %s", info.Path)
	}

	info.Container = "WAV"
	info.SampleRate = int(decoder.SampleRate)
	info.Channels = int(decoder.NumChans)
	info.BitDepth = int(decoder.BitDepth)
	info.Format = decoder.Format()

	if info.SampleRate > 0 {
		if d, err := decoder.Duration(); err == nil {
			info.Duration = d
		}
	}
	return nil
}

// probeTags reads embedded tags from compressed containers
func probeTags(r io.ReadSeeker, info *Info) error {
	m, err := tag.ReadFrom(r)
	if err != nil {
		// Untagged files still carry a recognizable container signature
		if _, seekErr := r.Seek(0, io.SeekStart); seekErr != nil {
			return fmt.Errorf("failed to rewind %s: %w", info.Path, seekErr)
		}
		_, fileType, identErr := tag.Identify(r)
		if identErr != nil || fileType == tag.UnknownFileType {
			return fmt.Errorf("unrecognized audio container: %s", info.Path)
		}
		info.Container = string(fileType)
		return nil
	}

	info.Container = string(m.FileType())
	info.Title = m.Title()
	info.Artist = m.Artist()
	return nil
}

// DurationString returns a human-readable duration string (M:SS format)
func (i *Info) DurationString() string {
	if i.Duration <= 0 {
		return "?:??"
	}
	seconds := int(i.Duration.Seconds())
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// String summarizes the probe for log output
func (i *Info) String() string {
	if i.SampleRate > 0 {
		return fmt.Sprintf("%s (%d channels, %d Hz, %s)",
			i.Container, i.Channels, i.SampleRate, i.DurationString())
	}
	if i.Artist != "" || i.Title != "" {
		return fmt.Sprintf("%s (%s - %s)", i.Container, i.Artist, i.Title)
	}
	return i.Container
}
