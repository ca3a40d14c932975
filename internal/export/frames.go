// Package export hands an interpolated movie to the rendering side: one
// state file per output frame, or a plot of the animated parameters.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/framereel/internal/interp"
	"github.com/Faultbox/framereel/internal/viewstate"
)

// FrameFile is the content of one frame file.
type FrameFile struct {
	Index    int             `yaml:"index"`
	Keyframe *int            `yaml:"keyframe,omitempty"`
	State    viewstate.State `yaml:"state"`
}

// FrameName returns the file name of output frame i.
func FrameName(i int) string {
	return fmt.Sprintf("frame_%05d.yaml", i)
}

// WriteFrames writes every frame of seq into dir using up to workers
// goroutines. It stops at the first error or when ctx is cancelled.
func WriteFrames(ctx context.Context, seq *interp.Sequence, dir string, workers int, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	if workers < 1 {
		workers = 1
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < seq.Len(); i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return writeFrame(seq, dir, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	log.Info("frames written",
		zap.String("dir", dir),
		zap.Int("frames", seq.Len()),
		zap.Int("workers", workers))
	return nil
}

func writeFrame(seq *interp.Sequence, dir string, i int) error {
	st, err := seq.At(i)
	if err != nil {
		return err
	}
	ff := FrameFile{Index: i, State: st}
	if k, ok := seq.KeyframeAt(i); ok {
		ff.Keyframe = &k
	}

	data, err := yaml.Marshal(&ff)
	if err != nil {
		return fmt.Errorf("failed to marshal frame %d: %w", i, err)
	}
	path := filepath.Join(dir, FrameName(i))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", i, err)
	}
	return nil
}

// ReadFrame loads a frame file written by WriteFrames.
func ReadFrame(path string) (FrameFile, error) {
	var ff FrameFile
	data, err := os.ReadFile(path)
	if err != nil {
		return ff, err
	}
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return ff, fmt.Errorf("failed to parse frame file: %w", err)
	}
	return ff, nil
}
