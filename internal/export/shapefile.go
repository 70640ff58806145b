// Package export writes pipeline outputs to shapefiles for GIS tooling.
package export

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/siamhydro/floodwatch/internal/model"
)

// RegionPoints writes region summaries as a point shapefile with one
// attribute row per province.
func RegionPoints(path string, regions []model.RegionSummary) error {
	writer, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}
	defer writer.Close()

	writer.SetFields([]shp.Field{
		shp.StringField("PROVINCE", 40),
		shp.NumberField("SAMPLES", 10),
		shp.FloatField("FLOODRATE", 12, 6),
		shp.FloatField("RISK", 12, 6),
		shp.StringField("DETECTED", 25),
	})

	for i, r := range regions {
		writer.Write(&shp.Point{X: r.Lon, Y: r.Lat})
		writer.WriteAttribute(i, 0, r.Province)
		writer.WriteAttribute(i, 1, r.SampleCount)
		writer.WriteAttribute(i, 2, r.FloodRate)
		writer.WriteAttribute(i, 3, r.RiskScore)
		writer.WriteAttribute(i, 4, r.DetectedAt.Format("2006-01-02T15:04:05Z"))
	}
	return nil
}

// WaterPolygons writes extracted water polygons as a polygon shapefile.
func WaterPolygons(path string, polys []model.WaterPolygon) error {
	writer, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}
	defer writer.Close()

	writer.SetFields([]shp.Field{
		shp.NumberField("WATER", 2),
		shp.FloatField("AREA_SQKM", 14, 6),
		shp.FloatField("MNDWI", 12, 6),
		shp.StringField("DETECTED", 25),
	})

	for i, p := range polys {
		writer.Write(shpPolygon(p.Geometry))
		writer.WriteAttribute(i, 0, p.Water)
		writer.WriteAttribute(i, 1, p.AreaSqKM)
		writer.WriteAttribute(i, 2, p.MeanMNDWI)
		writer.WriteAttribute(i, 3, p.DetectedAt.Format("2006-01-02T15:04:05Z"))
	}
	return nil
}

// shpPolygon converts a geom.Polygon into go-shp's polygon representation,
// one part per ring.
func shpPolygon(poly *geom.Polygon) *shp.Polygon {
	parts := make([][]shp.Point, 0, poly.NumLinearRings())
	for i := 0; i < poly.NumLinearRings(); i++ {
		ring := poly.LinearRing(i)
		coords := ring.Coords()
		pts := make([]shp.Point, 0, len(coords))
		for _, c := range coords {
			pts = append(pts, shp.Point{X: c.X(), Y: c.Y()})
		}
		parts = append(parts, pts)
	}
	return (*shp.Polygon)(shp.NewPolyLine(parts))
}
