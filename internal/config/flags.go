package config

import "flag"

var (
	flagConfig       = flag.String("config", "", "Path to config file")
	flagDebug        = flag.Bool("debug", false, "Enable debug logging")
	flagSteps        = flag.Int("steps", 0, "Frames generated between keyframes")
	flagLayers       = flag.Int("layers", 0, "Number of data layers")
	flagTimeExtent   = flag.Int("time-extent", 0, "Number of time steps in the dataset")
	flagFrameSpacing = flag.Bool("frame-spacing", false, "Use keyframe frame gaps as step counts")
	flagOut          = flag.String("out", "", "Output directory for frame files")
	flagWorkers      = flag.Int("workers", 0, "Parallel frame writers")
)

// ParseFlags parses command-line flags. Call this early in main().
// Flags must precede the subcommand.
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after the flags: the subcommand and its
// own arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagSteps > 0 {
		cfg.Movie.InterSteps = *flagSteps
	}
	if *flagLayers > 0 {
		cfg.Movie.Layers = *flagLayers
	}
	if *flagTimeExtent > 0 {
		cfg.Movie.TimeExtent = *flagTimeExtent
	}
	if *flagFrameSpacing {
		cfg.Movie.FrameSpacing = true
	}
	if *flagOut != "" {
		cfg.Output.Dir = *flagOut
	}
	if *flagWorkers > 0 {
		cfg.Output.Workers = *flagWorkers
	}
}
