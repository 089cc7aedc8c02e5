// Package geojson encodes rendered scenes as GeoJSON feature collections for
// the browser map.
package geojson

import (
	"fmt"
	"time"

	gj "github.com/paulmach/go.geojson"

	"github.com/couchcryptid/migration-dashboard/internal/domain"
)

// Feature kinds carried in the "kind" property.
const (
	KindPath   = "path"
	KindMarker = "marker"
)

// FromScene converts a scene into a collection holding, per trace, one
// LineString (the path) followed by one Point (the latest position). An empty
// scene becomes an empty collection.
func FromScene(scene domain.Scene) *gj.FeatureCollection {
	fc := gj.NewFeatureCollection()
	for _, tr := range scene.Traces {
		coords := make([][]float64, len(tr.Path))
		for i, p := range tr.Path {
			coords[i] = []float64{p.Lon, p.Lat}
		}

		path := gj.NewLineStringFeature(coords)
		setCommon(path, tr, scene.Week, KindPath)
		fc.AddFeature(path)

		marker := gj.NewPointFeature([]float64{tr.Last.Lon, tr.Last.Lat})
		setCommon(marker, tr, scene.Week, KindMarker)
		marker.SetProperty("last_seen", tr.LastSeen.UTC().Format(time.RFC3339))
		fc.AddFeature(marker)
	}
	return fc
}

// Encode marshals the scene's feature collection.
func Encode(scene domain.Scene) ([]byte, error) {
	data, err := FromScene(scene).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode scene geojson: %w", err)
	}
	return data, nil
}

func setCommon(f *gj.Feature, tr domain.Trace, week int, kind string) {
	f.ID = tr.Key.String() + ":" + kind
	f.SetProperty("key", tr.Key.String())
	f.SetProperty("color", tr.Color)
	f.SetProperty("kind", kind)
	f.SetProperty("week", week)
}
