// framereel compiles animation scripts into keyframes and interpolated
// movie frames.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/framereel/internal/builder"
	"github.com/Faultbox/framereel/internal/config"
	"github.com/Faultbox/framereel/internal/export"
	"github.com/Faultbox/framereel/internal/interp"
	"github.com/Faultbox/framereel/internal/keyframe"
	"github.com/Faultbox/framereel/internal/logger"
	"github.com/Faultbox/framereel/internal/movie"
	"github.com/Faultbox/framereel/internal/script"
	"github.com/Faultbox/framereel/internal/watch"
)

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Sugar.Debugf("config: %+v", cfg)

	command, rest := args[0], args[1:]
	switch command {
	case "compile":
		err = cmdCompile(cfg, rest)
	case "check":
		err = cmdCheck(rest)
	case "frames":
		err = cmdFrames(cfg, rest)
	case "plot":
		err = cmdPlot(cfg, rest)
	case "watch":
		err = cmdWatch(cfg, rest)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`framereel - keyframe movie compiler

Usage:
  framereel [flags] <command> [options]

Commands:
  compile <script> [-o file] [-append file]  Build keyframes from a script
  check <script>                             Report every script error
  frames <script|keyframes.yaml>             Write one state file per frame
  plot <script|keyframes.yaml> [-o file]     Plot the animated parameters
  watch <script>                             Recompile on every save

Flags:
  -config path     Config file
  -debug           Debug logging
  -steps n         Frames between keyframes
  -layers n        Number of data layers
  -time-extent n   Time steps in the dataset
  -frame-spacing   Use keyframe frame gaps as step counts
  -out dir         Frame output directory
  -workers n       Parallel frame writers

Examples:
  framereel compile tour.script -o tour.yaml
  framereel -steps 30 frames tour.yaml
  framereel -frame-spacing plot tour.script -o tour.png`)
}

func interpOptions(cfg *config.Config) interp.Options {
	return interp.Options{
		Steps:        cfg.Movie.InterSteps,
		FrameSpacing: cfg.Movie.FrameSpacing,
	}
}

func builderOptions(cfg *config.Config) builder.Options {
	return builder.Options{
		Layers:     cfg.Movie.Layers,
		TimeExtent: cfg.Movie.TimeExtent,
		Logger:     logger.Named("builder"),
	}
}

func cmdCompile(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	out := fs.String("o", "", "Output keyframe file (default: <script>.yaml)")
	appendTo := fs.String("append", "", "Continue the session stored in this keyframe file")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: framereel compile <script> [-o file] [-append file]")
	}
	path := fs.Arg(0)
	if *out == "" {
		*out = strings.TrimSuffix(path, filepath.Ext(path)) + ".yaml"
	}

	cmds, err := script.ParseFile(path)
	if err != nil {
		return err
	}

	store := keyframe.NewStore()
	if *appendTo != "" {
		var layers int
		store, layers, err = keyframe.Load(*appendTo, cfg.Movie.TimeExtent)
		if err != nil {
			return err
		}
		if layers != cfg.Movie.Layers {
			return fmt.Errorf("%s has %d layers, config has %d", *appendTo, layers, cfg.Movie.Layers)
		}
	}

	ctrl := movie.NewWithStore(movie.NewTrackball(cfg.Movie.Layers), store, movie.Options{
		Interp:     interpOptions(cfg),
		Layers:     cfg.Movie.Layers,
		TimeExtent: cfg.Movie.TimeExtent,
		Logger:     logger.Named("movie"),
	})
	if err := ctrl.RunScript(cmds); err != nil {
		return err
	}
	seq, err := ctrl.Sequence()
	if err != nil {
		return err
	}

	if err := keyframe.Save(ctrl.Store(), cfg.Movie.Layers, *out); err != nil {
		return err
	}
	logger.Info("keyframes written",
		zap.String("path", *out),
		zap.Int("keyframes", ctrl.Store().Len()),
		zap.Int("frames", seq.Len()))
	return nil
}

func cmdCheck(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: framereel check <script>")
	}
	cmds, err := script.ParseFile(args[0])
	var list script.ErrorList
	if errors.As(err, &list) {
		for _, e := range list {
			fmt.Printf("%s:%d: %s\n", args[0], e.Line, e.Msg)
		}
		return fmt.Errorf("%d errors", len(list))
	}
	if err != nil {
		return err
	}
	for _, c := range cmds {
		fmt.Printf("%4d  %s\n", c.Line, c)
	}
	return nil
}

// loadSequence interpolates a keyframe file, or compiles a script first.
func loadSequence(cfg *config.Config, path string) (*interp.Sequence, error) {
	var store *keyframe.Store
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		s, layers, err := keyframe.Load(path, cfg.Movie.TimeExtent)
		if err != nil {
			return nil, err
		}
		if layers != cfg.Movie.Layers {
			logger.Warn("layer count differs from config",
				zap.String("path", path), zap.Int("file", layers), zap.Int("config", cfg.Movie.Layers))
		}
		store = s
	default:
		cmds, err := script.ParseFile(path)
		if err != nil {
			return nil, err
		}
		store, err = builder.Build(cmds, builderOptions(cfg))
		if err != nil {
			return nil, err
		}
	}
	return interp.FromStore(store, interpOptions(cfg))
}

func cmdFrames(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: framereel frames <script|keyframes.yaml>")
	}
	seq, err := loadSequence(cfg, args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return export.WriteFrames(ctx, seq, cfg.Output.Dir, cfg.Output.Workers, logger.Named("export"))
}

func cmdPlot(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("plot", flag.ExitOnError)
	out := fs.String("o", "curves.png", "Output PNG file")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: framereel plot <script|keyframes.yaml> [-o file]")
	}
	seq, err := loadSequence(cfg, fs.Arg(0))
	if err != nil {
		return err
	}
	if err := export.PlotCurves(seq, *out, cfg.Output.PlotWidth, cfg.Output.PlotHeight); err != nil {
		return err
	}
	logger.Info("plot written", zap.String("path", *out), zap.Int("frames", seq.Len()))
	return nil
}

func cmdWatch(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: framereel watch <script>")
	}
	w, err := watch.New(args[0], builderOptions(cfg), logger.Named("watch"))
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = w.Run(ctx, func(res watch.Result) {
		if res.Err != nil {
			fmt.Fprintln(os.Stderr, res.Err)
			return
		}
		seq, err := interp.FromStore(res.Store, interpOptions(cfg))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		fmt.Printf("%s: %d keyframes, %d frames\n", args[0], res.Store.Len(), seq.Len())
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
