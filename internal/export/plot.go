package export

import (
	"fmt"
	"image/color"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/Faultbox/framereel/internal/interp"
	"github.com/Faultbox/framereel/internal/viewstate"
)

var (
	lineColor     = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	keyframeColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// curve extracts one plotted parameter from a state.
type curve struct {
	title string
	unit  string
	value func(viewstate.State) float64
}

var curves = []curve{
	{"Zoom", "factor", func(s viewstate.State) float64 { return s.Zoom }},
	{"Time Index", "index", func(s viewstate.State) float64 { return float64(s.Time) }},
	{"Translation", "distance", func(s viewstate.State) float64 { return r3.Norm(s.Translation) }},
	{"Rotation Angle", "degrees", func(s viewstate.State) float64 { return s.Rotation.AngleDegrees() }},
}

// Curves returns one plot per animated parameter of seq, with keyframes
// marked.
func Curves(seq *interp.Sequence) ([]*plot.Plot, error) {
	series := make([]plotter.XYs, len(curves))
	marks := make([]plotter.XYs, len(curves))
	for i, st := range seq.All() {
		_, isKey := seq.KeyframeAt(i)
		for c, cv := range curves {
			pt := plotter.XY{X: float64(i), Y: cv.value(st)}
			series[c] = append(series[c], pt)
			if isKey {
				marks[c] = append(marks[c], pt)
			}
		}
	}

	plots := make([]*plot.Plot, len(curves))
	for c, cv := range curves {
		p := plot.New()
		p.Title.Text = cv.title
		p.X.Label.Text = "Frame"
		p.Y.Label.Text = cv.unit

		line, err := plotter.NewLine(series[c])
		if err != nil {
			return nil, fmt.Errorf("%s curve: %w", cv.title, err)
		}
		line.Color = lineColor
		line.Width = vg.Points(1)
		p.Add(line)

		keys, err := plotter.NewScatter(marks[c])
		if err != nil {
			return nil, fmt.Errorf("%s keyframes: %w", cv.title, err)
		}
		keys.Color = keyframeColor
		keys.Shape = draw.CircleGlyph{}
		p.Add(keys)
		p.Legend.Add("keyframe", keys)
		p.Legend.Top = true
		p.Legend.Left = false

		plots[c] = p
	}
	return plots, nil
}

// PlotCurves renders the parameter curves of seq, stacked vertically, into a
// PNG of the given size in inches.
func PlotCurves(seq *interp.Sequence, path string, width, height float64) error {
	plots, err := Curves(seq)
	if err != nil {
		return err
	}

	rows := make([][]*plot.Plot, len(plots))
	for i, p := range plots {
		rows[i] = []*plot.Plot{p}
	}

	img := vgimg.New(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: len(rows),
		Cols: 1,
		PadY: vg.Millimeter,
	}
	canvases := plot.Align(rows, tiles, dc)
	for i := range rows {
		rows[i][0].Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plot file: %w", err)
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}
	return f.Close()
}
