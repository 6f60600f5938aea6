package trainer

import (
	"fmt"
	"os"
	"path"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// rollingMean returns the window-sized running average of values. The
// result has len(values)-window+1 points; nil when there are not enough
// values.
func rollingMean(values []float64, window int) []float64 {
	if window < 1 || len(values) < window {
		return nil
	}
	out := make([]float64, len(values)-window+1)
	for i := range out {
		out[i] = stat.Mean(values[i:i+window], nil)
	}
	return out
}

func column(history []RateTriple, pick func(RateTriple) float64) []float64 {
	out := make([]float64, len(history))
	for i, r := range history {
		out[i] = pick(r)
	}
	return out
}

// PlotRateHistory renders the rolling win/lose/draw curves of one seat's
// evaluation history to a PNG file.
func PlotRateHistory(plotPath, title string, history []RateTriple, window int) error {
	if _, err := os.Stat(plotPath); err != nil {
		if err := os.MkdirAll(plotPath, os.ModePerm); err != nil {
			return fmt.Errorf("creating plot directory: %w", err)
		}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Evaluation batch"
	p.Y.Label.Text = "Rate"
	p.Y.Min, p.Y.Max = 0, 1

	series := []struct {
		name string
		pick func(RateTriple) float64
	}{
		{"win", func(r RateTriple) float64 { return r.Win }},
		{"lose", func(r RateTriple) float64 { return r.Lose }},
		{"draw", func(r RateTriple) float64 { return r.Draw }},
	}
	for i, s := range series {
		values := rollingMean(column(history, s.pick), window)
		if values == nil {
			return fmt.Errorf("not enough evaluation batches for a window of %d", window)
		}
		points := make(plotter.XYs, len(values))
		for j, v := range values {
			points[j] = plotter.XY{X: float64(j + window), Y: v}
		}
		line, err := plotter.NewLine(points)
		if err != nil {
			return fmt.Errorf("plotting %s rate: %w", s.name, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}

	out := path.Join(plotPath, title+"_record.png")
	if err := p.Save(8*vg.Inch, 8*vg.Inch, out); err != nil {
		return fmt.Errorf("saving plot: %w", err)
	}
	return nil
}
