// Package plot draws a static PNG snapshot of a scene on an equirectangular
// longitude/latitude grid.
package plot

import (
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"

	gonumplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/couchcryptid/migration-dashboard/internal/config"
	"github.com/couchcryptid/migration-dashboard/internal/domain"
)

// Size of the snapshot image.
const (
	Width  = 12 * vg.Inch
	Height = 6 * vg.Inch
)

var fallbackColor = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}

// Snapshot renders scenes with a fixed style.
type Snapshot struct {
	style config.Style
}

// NewSnapshot creates a Snapshot using style for line widths, marker sizes
// and the legend title.
func NewSnapshot(style config.Style) *Snapshot {
	return &Snapshot{style: style}
}

// Build lays out the plot for scene. An empty scene yields the bare grid.
func (s *Snapshot) Build(scene domain.Scene) (*gonumplot.Plot, error) {
	p := gonumplot.New()
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"
	p.X.Min, p.X.Max = -180, 180
	p.Y.Min, p.Y.Max = -90, 90
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	if !scene.Empty() {
		p.Title.Text = fmt.Sprintf("%s, week %d", s.style.LegendTitle, scene.Week+1)
	}

	for _, tr := range scene.Traces {
		c := ParseHexColor(tr.Color)

		pts := make(plotter.XYs, len(tr.Path))
		for i, pt := range tr.Path {
			pts[i].X = pt.Lon
			pts[i].Y = pt.Lat
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("path %s: %w", tr.Key, err)
		}
		line.LineStyle.Color = c
		line.LineStyle.Width = vg.Points(s.style.LineWidth)

		marker, err := plotter.NewScatter(plotter.XYs{{X: tr.Last.Lon, Y: tr.Last.Lat}})
		if err != nil {
			return nil, fmt.Errorf("marker %s: %w", tr.Key, err)
		}
		marker.GlyphStyle.Color = c
		marker.GlyphStyle.Radius = vg.Points(s.style.MarkerSize / 2)
		marker.GlyphStyle.Shape = draw.CircleGlyph{}

		p.Add(line, marker)
		p.Legend.Add(tr.Key.String(), line)
	}
	return p, nil
}

// WritePNG renders scene as a PNG image to w.
func (s *Snapshot) WritePNG(w io.Writer, scene domain.Scene) error {
	p, err := s.Build(scene)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(Width, Height, "png")
	if err != nil {
		return fmt.Errorf("prepare png: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

// ParseHexColor accepts #RGB, #RRGGBB and #RRGGBBAA. Anything else maps to grey.
func ParseHexColor(s string) color.RGBA {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return fallbackColor
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return fallbackColor
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}
