package signal

import (
	"bytes"
	"fmt"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Plot size in pixels.
const (
	PlotWidth  = 640
	PlotHeight = 360
)

// figureColors are the line colours of figures 1 to 4.
var figureColors = [Figures]drawing.Color{
	drawing.ColorFromHex("1f77b4"), // blue
	drawing.ColorFromHex("ff7f0e"), // orange
	drawing.ColorFromHex("2ca02c"), // green
	drawing.ColorFromHex("d62728"), // red
}

// Title is the chart title of figure n of label.
func Title(s Set, n int) string {
	return fmt.Sprintf("%s - Figure %d", s.Label, n)
}

// RenderPNG writes figure n of the set as a PNG line chart.
func RenderPNG(w io.Writer, s Set, n int) error {
	series, ok := s.Figure(n)
	if !ok {
		return fmt.Errorf("figure %d out of range", n)
	}
	ch := chart.Chart{
		Title:      Title(s, n),
		Width:      PlotWidth,
		Height:     PlotHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Range: &chart.ContinuousRange{Min: 0, Max: 1}},
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: -1.1, Max: 1.1}},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    series.Name,
				XValues: s.X,
				YValues: series.Y,
				Style: chart.Style{
					StrokeColor: figureColors[n-1],
					StrokeWidth: 2,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return fmt.Errorf("render %s: %w", ch.Title, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
