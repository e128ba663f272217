package signal

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"testing"

	"github.com/me/neurolens/pkg/model"
)

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate(model.DatasetEEG2)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, _ := Generate(model.DatasetEEG2)
	for i := range a.Series {
		for j := range a.Series[i].Y {
			if math.Float64bits(a.Series[i].Y[j]) != math.Float64bits(b.Series[i].Y[j]) {
				t.Fatalf("series %d point %d differs", i, j)
			}
		}
	}
}

func TestGenerateShape(t *testing.T) {
	for _, label := range Labels() {
		s, err := Generate(label)
		if err != nil {
			t.Fatalf("Generate(%s): %v", label, err)
		}
		if len(s.X) != Points || s.X[0] != 0 || s.X[Points-1] != 1 {
			t.Errorf("%s: bad x axis", label)
		}
		if len(s.Series) != Figures {
			t.Fatalf("%s: %d series", label, len(s.Series))
		}
		for i, ser := range s.Series {
			if ser.Figure != i+1 || len(ser.Y) != Points {
				t.Errorf("%s: series %d = figure %d, %d points", label, i, ser.Figure, len(ser.Y))
			}
		}
	}
}

func TestGenerateValues(t *testing.T) {
	s, _ := Generate(model.DatasetEEG1)
	x := s.X[123]
	want := []float64{
		math.Sin(10 * math.Pi * x),
		math.Sin(15 * math.Pi * x),
		math.Cos(10 * math.Pi * x),
		math.Cos(15 * math.Pi * x),
	}
	for i, w := range want {
		if got := s.Series[i].Y[123]; got != w {
			t.Errorf("series %d = %v, want %v", i+1, got, w)
		}
	}
	if s.Series[2].Y[0] != 1 {
		t.Errorf("cos series should start at 1")
	}
	if s.Series[0].Name != "sin(10πx)" {
		t.Errorf("name = %q", s.Series[0].Name)
	}
}

func TestGenerateUnknown(t *testing.T) {
	for _, label := range []model.DatasetLabel{"", "EEG4", "eeg1"} {
		if _, err := Generate(label); !errors.Is(err, ErrUnknownLabel) {
			t.Errorf("Generate(%q) err = %v", label, err)
		}
	}
}

func TestLinspace(t *testing.T) {
	got := Linspace(0, 1, 5)
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Linspace[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if Linspace(0, 1, 0) != nil {
		t.Error("Linspace with n=0 should be nil")
	}
}

func TestRenderPNG(t *testing.T) {
	s, _ := Generate(model.DatasetEEG3)
	var buf bytes.Buffer
	if err := RenderPNG(&buf, s, 4); err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != PlotWidth || b.Dy() != PlotHeight {
		t.Errorf("size = %v", b)
	}
	if err := RenderPNG(&buf, s, 5); err == nil {
		t.Error("expected error for figure 5")
	}
	if Title(s, 2) != "EEG3 - Figure 2" {
		t.Errorf("Title = %q", Title(s, 2))
	}
}

func TestDemoWorkbook(t *testing.T) {
	wb := DemoWorkbook()
	names := []string{"Summary", "ERP Peaks", "Metadata"}
	if len(wb.Sheets) != len(names) {
		t.Fatalf("got %d sheets", len(wb.Sheets))
	}
	for i, n := range names {
		if wb.Sheets[i].Name != n || len(wb.Sheets[i].Columns) != 3 {
			t.Errorf("sheet %d = %q (%d cols)", i, wb.Sheets[i].Name, len(wb.Sheets[i].Columns))
		}
	}
}
