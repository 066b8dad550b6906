package tracker

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SavePlot draws a learning curve of per-episode data to filename.
// The image format is taken from the file extension. If window > 1, a
// moving average over the previous window episodes is drawn on top of
// the raw data.
func SavePlot(data []float64, title, yLabel, filename string,
	window int) error {
	if len(data) == 0 {
		return fmt.Errorf("savePlot: no data to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = yLabel

	raw, err := plotter.NewLine(points(data))
	if err != nil {
		return fmt.Errorf("savePlot: could not create line plotter: %v", err)
	}
	p.Add(raw)

	if window > 1 {
		smooth, err := plotter.NewLine(points(MovingAverage(data, window)))
		if err != nil {
			return fmt.Errorf("savePlot: could not create line plotter: %v",
				err)
		}
		smooth.Width = vg.Points(2)
		raw.Color = color.Gray{Y: 160}
		p.Add(smooth)
		p.Legend.Add("episode", raw)
		p.Legend.Add(fmt.Sprintf("%d-episode average", window), smooth)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, filename); err != nil {
		return fmt.Errorf("savePlot: could not save plot to file: %v", err)
	}
	return nil
}

// MovingAverage returns the average of each element and the up to
// window-1 elements before it.
func MovingAverage(data []float64, window int) []float64 {
	avg := make([]float64, len(data))
	for i := range data {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		avg[i] = floats.Sum(data[start:i+1]) / float64(i+1-start)
	}
	return avg
}

func points(data []float64) plotter.XYs {
	pts := make(plotter.XYs, len(data))
	for i := range data {
		pts[i].X = float64(i)
		pts[i].Y = data[i]
	}
	return pts
}
