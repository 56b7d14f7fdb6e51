package statecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/racewall/go/internal/display/snapshot"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// ErrEmptyScript is returned for a script with no frames
var ErrEmptyScript = errors.New("script has no frames")

// Script is a sequence of snapshots replayed in a loop
type Script struct {
	Interval time.Duration
	Frames   [][]byte
}

type scriptFile struct {
	Interval time.Duration    `yaml:"interval"`
	Frames   []map[string]any `yaml:"frames"`
}

// LoadScript reads a YAML script from disk
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript decodes a YAML script. Each frame is converted to the JSON
// wire form and must decode as a snapshot.
func ParseScript(data []byte) (*Script, error) {
	var file scriptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if len(file.Frames) == 0 {
		return nil, ErrEmptyScript
	}

	script := &Script{Interval: file.Interval, Frames: make([][]byte, 0, len(file.Frames))}
	if script.Interval <= 0 {
		script.Interval = 2 * time.Second
	}

	for i, frame := range file.Frames {
		raw, err := json.Marshal(frame)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		if _, err := snapshot.Decode(raw); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		script.Frames = append(script.Frames, raw)
	}
	return script, nil
}

// Play publishes the first frame immediately, then one frame per interval,
// wrapping around, until ctx is cancelled.
func (s *Script) Play(ctx context.Context, clock clockwork.Clock, publish func(raw []byte)) {
	ticker := clock.NewTicker(s.Interval)
	defer ticker.Stop()

	log.Info().Int("frames", len(s.Frames)).Dur("interval", s.Interval).Msg("script playback started")

	next := 0
	for {
		publish(s.Frames[next])
		next = (next + 1) % len(s.Frames)

		select {
		case <-ctx.Done():
			log.Info().Msg("script playback stopped")
			return
		case <-ticker.Chan():
		}
	}
}
