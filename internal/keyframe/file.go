package keyframe

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileVersion is written into every keyframe file.
const FileVersion = "1.0"

// File is the on-disk form of a Store.
type File struct {
	Version   string     `yaml:"version"`
	Layers    int        `yaml:"layers"`
	Keyframes []Keyframe `yaml:"keyframes"`
}

// Save writes the store to a YAML file, creating parent directories.
func Save(s *Store, layers int, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(&File{
		Version:   FileVersion,
		Layers:    layers,
		Keyframes: s.Keyframes(),
	})
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Load reads a store from a YAML file and validates every state.
func Load(path string, timeExtent int) (*Store, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, 0, fmt.Errorf("parsing %s: %w", path, err)
	}

	for _, kf := range f.Keyframes {
		if err := kf.State.Validate(f.Layers, timeExtent); err != nil {
			return nil, 0, fmt.Errorf("keyframe at frame %d: %w", kf.Frame, err)
		}
	}

	s, err := FromKeyframes(f.Keyframes)
	if err != nil {
		return nil, 0, fmt.Errorf("loading %s: %w", path, err)
	}
	return s, f.Layers, nil
}
