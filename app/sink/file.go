package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/flight-comb/app/flights"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var ErrUnknownFormat = errors.New("unknown output format")

type fileSink struct {
	path   string
	format string
}

// NewFile overwrites path with the full batch on every push.
func NewFile(path, format string) (Sink, error) {
	switch format {
	case FormatJSON, FormatYAML:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return &fileSink{path: path, format: format}, nil
}

func (s *fileSink) Name() string { return "file" }

func (s *fileSink) Push(_ context.Context, events []flights.Event) (Result, error) {
	if events == nil {
		events = []flights.Event{}
	}

	data, err := s.encode(events)
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode flights as %s: %w", s.format, err)
	}

	if err := writeFileAtomic(s.path, data); err != nil {
		return Result{}, err
	}

	return Result{Written: len(events)}, nil
}

func (s *fileSink) encode(events []flights.Event) ([]byte, error) {
	if s.format == FormatYAML {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(4)
		if err := enc.Encode(events); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	return json.MarshalIndent(events, "", "    ")
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}
