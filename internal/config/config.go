// Package config handles framereel configuration loading and management.
package config

import (
	"fmt"
	"runtime"

	"github.com/Faultbox/framereel/internal/viewstate"
)

// Config holds all framereel settings.
type Config struct {
	Movie   MovieConfig   `yaml:"movie"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// MovieConfig holds the settings fixed for one editing session.
type MovieConfig struct {
	InterSteps   int  `yaml:"inter_steps"`   // frames generated between keyframe pairs
	Layers       int  `yaml:"layers"`        // data layers shown by the host
	TimeExtent   int  `yaml:"time_extent"`   // 0 for data without a time axis
	FrameSpacing bool `yaml:"frame_spacing"` // derive steps from keyframe frame gaps
}

// OutputConfig holds export settings.
type OutputConfig struct {
	Dir        string  `yaml:"dir"`
	Workers    int     `yaml:"workers"`
	PlotWidth  float64 `yaml:"plot_width"`  // inches
	PlotHeight float64 `yaml:"plot_height"` // inches
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Movie: MovieConfig{
			InterSteps: 15,
			Layers:     1,
		},
		Output: OutputConfig{
			Dir:        "frames",
			Workers:    runtime.NumCPU(),
			PlotWidth:  8,
			PlotHeight: 10,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate rejects settings no session can run with.
func (c *Config) Validate() error {
	switch {
	case c.Movie.InterSteps < 1:
		return fmt.Errorf("%w: inter_steps must be positive, got %d", viewstate.ErrInvalidParameter, c.Movie.InterSteps)
	case c.Movie.Layers < 1:
		return fmt.Errorf("%w: layers must be positive, got %d", viewstate.ErrInvalidParameter, c.Movie.Layers)
	case c.Movie.TimeExtent < 0:
		return fmt.Errorf("%w: time_extent must not be negative, got %d", viewstate.ErrInvalidParameter, c.Movie.TimeExtent)
	case c.Output.Workers < 1:
		return fmt.Errorf("%w: workers must be positive, got %d", viewstate.ErrInvalidParameter, c.Output.Workers)
	case !(c.Output.PlotWidth > 0) || !(c.Output.PlotHeight > 0):
		return fmt.Errorf("%w: plot size must be positive, got %vx%v", viewstate.ErrInvalidParameter, c.Output.PlotWidth, c.Output.PlotHeight)
	}
	return nil
}
