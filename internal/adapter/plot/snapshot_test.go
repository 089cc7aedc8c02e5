package plot

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/migration-dashboard/internal/config"
	"github.com/couchcryptid/migration-dashboard/internal/domain"
)

func TestParseHexColor(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 0x63, G: 0x6e, B: 0xfa, A: 0xff}, ParseHexColor("#636EFA"))
	assert.Equal(t, color.RGBA{R: 0xbb, G: 0xff, B: 0x00, A: 0xff}, ParseHexColor("#bf0"))
	assert.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 4}, ParseHexColor("#01020304"))
	assert.Equal(t, fallbackColor, ParseHexColor("teal"))
	assert.Equal(t, fallbackColor, ParseHexColor("#zzzzzz"))
}

func TestSnapshot_BuildAddsLegendPerTrace(t *testing.T) {
	scene := domain.Scene{Week: 3, Traces: []domain.Trace{
		{
			Key:      domain.Key{ID: "A", Year: 2020},
			Path:     []domain.Point{{Lon: 10, Lat: 50}, {Lon: 12, Lat: 48}},
			Last:     domain.Point{Lon: 12, Lat: 48},
			LastSeen: time.Date(2020, 1, 20, 0, 0, 0, 0, time.UTC),
			Color:    "#636EFA",
		},
	}}

	p, err := NewSnapshot(config.DefaultStyle()).Build(scene)
	require.NoError(t, err)
	assert.Equal(t, "ID + Year, week 4", p.Title.Text)
	assert.InDelta(t, -180, p.X.Min, 0)
	assert.InDelta(t, 90, p.Y.Max, 0)
}

func TestSnapshot_WritePNG(t *testing.T) {
	scene := domain.Scene{Week: 10, Traces: []domain.Trace{{
		Key:   domain.Key{ID: "A", Year: 2020},
		Path:  []domain.Point{{Lon: 10, Lat: 50}, {Lon: 11, Lat: 49}},
		Last:  domain.Point{Lon: 11, Lat: 49},
		Color: "#EF553B",
	}}}

	var buf bytes.Buffer
	require.NoError(t, NewSnapshot(config.DefaultStyle()).WritePNG(&buf, scene))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Positive(t, img.Bounds().Dx())
	assert.Greater(t, img.Bounds().Dx(), img.Bounds().Dy())
}

func TestSnapshot_EmptyScene(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewSnapshot(config.DefaultStyle()).WritePNG(&buf, domain.Scene{}))
	_, err := png.Decode(&buf)
	require.NoError(t, err)
}
