package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Style controls how scenes are drawn. Zero-valued fields in a style file
// keep their defaults.
type Style struct {
	Palette      []string `yaml:"palette" validate:"min=1,dive,hexcolor"`
	MapHeight    int      `yaml:"mapHeight" validate:"gt=0,lte=4000"`
	LineWidth    float64  `yaml:"lineWidth" validate:"gt=0,lte=20"`
	MarkerSize   float64  `yaml:"markerSize" validate:"gt=0,lte=50"`
	CountryColor string   `yaml:"countryColor" validate:"hexcolor"`
	LegendTitle  string   `yaml:"legendTitle" validate:"max=64"`
}

// DefaultStyle mirrors the stock dashboard look.
func DefaultStyle() Style {
	return Style{
		Palette: []string{
			"#636EFA", "#EF553B", "#00CC96", "#AB63FA", "#FFA15A",
			"#19D3F3", "#FF6692", "#B6E880", "#FF97FF", "#FECB52",
		},
		MapHeight:    800,
		LineWidth:    2,
		MarkerSize:   8,
		CountryColor: "#bfbfbf",
		LegendTitle:  "ID + Year",
	}
}

// LoadStyle reads a YAML style file over the defaults and validates the result.
func LoadStyle(path string) (Style, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Style{}, err
	}

	style := DefaultStyle()
	var overlay Style
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return Style{}, fmt.Errorf("parse style: %w", err)
	}
	style.merge(overlay)

	if err := validator.New().Struct(style); err != nil {
		return Style{}, fmt.Errorf("validate style: %w", err)
	}
	return style, nil
}

func (s *Style) merge(o Style) {
	if len(o.Palette) > 0 {
		s.Palette = o.Palette
	}
	if o.MapHeight != 0 {
		s.MapHeight = o.MapHeight
	}
	if o.LineWidth != 0 {
		s.LineWidth = o.LineWidth
	}
	if o.MarkerSize != 0 {
		s.MarkerSize = o.MarkerSize
	}
	if o.CountryColor != "" {
		s.CountryColor = o.CountryColor
	}
	if o.LegendTitle != "" {
		s.LegendTitle = o.LegendTitle
	}
}
