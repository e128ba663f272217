// Package signal generates the deterministic placeholder EEG series shown
// by the signal explorer and renders them as PNG line charts.
package signal

import (
	"errors"
	"fmt"
	"math"

	"github.com/me/neurolens/pkg/model"
)

// Points is the length of every generated series.
const Points = 500

// Figures is the number of series per label.
const Figures = 4

// ErrUnknownLabel is returned for labels the generator has no table for.
var ErrUnknownLabel = errors.New("unknown signal label")

// Series is one sampled waveform.
type Series struct {
	Figure int       `json:"figure"`
	Name   string    `json:"name"`
	Y      []float64 `json:"y"`
}

// Set is the four series of one label sharing an X axis.
type Set struct {
	Label  model.DatasetLabel `json:"label"`
	X      []float64          `json:"x"`
	Series []Series           `json:"series"`
}

// waveform is sin or cos at k*pi cycles over the unit interval.
type waveform struct {
	cos bool
	k   float64
}

var table = map[model.DatasetLabel][Figures]waveform{
	model.DatasetEEG1: {{false, 10}, {false, 15}, {true, 10}, {true, 15}},
	model.DatasetEEG2: {{false, 8}, {false, 12}, {true, 8}, {true, 12}},
	model.DatasetEEG3: {{false, 6}, {false, 9}, {true, 6}, {true, 9}},
}

// Labels returns the labels Generate accepts, in display order.
func Labels() []model.DatasetLabel {
	return []model.DatasetLabel{model.DatasetEEG1, model.DatasetEEG2, model.DatasetEEG3}
}

// Generate returns the series for label. The result depends only on label.
func Generate(label model.DatasetLabel) (Set, error) {
	waves, ok := table[label]
	if !ok {
		return Set{}, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	x := Linspace(0, 1, Points)
	set := Set{Label: label, X: x, Series: make([]Series, 0, Figures)}
	for i, w := range waves {
		y := make([]float64, len(x))
		for j, v := range x {
			if w.cos {
				y[j] = math.Cos(w.k * math.Pi * v)
			} else {
				y[j] = math.Sin(w.k * math.Pi * v)
			}
		}
		set.Series = append(set.Series, Series{Figure: i + 1, Name: w.String(), Y: y})
	}
	return set, nil
}

// Figure returns the series numbered n (1-based).
func (s Set) Figure(n int) (Series, bool) {
	if n < 1 || n > len(s.Series) {
		return Series{}, false
	}
	return s.Series[n-1], true
}

func (w waveform) String() string {
	fn := "sin"
	if w.cos {
		fn = "cos"
	}
	return fmt.Sprintf("%s(%gπx)", fn, w.k)
}

// Linspace returns n evenly spaced values over [start, stop], endpoints included.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}
