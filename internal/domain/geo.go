package domain

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean radius of the spherical Earth model.
const EarthRadiusKm = 6371.0

// BBox is an axis-aligned longitude/latitude box.
type BBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// String renders the box as "minLon,minLat,maxLon,maxLat" with 7 decimals,
// the form the USGS bBox query parameter expects.
func (b BBox) String() string {
	return fmt.Sprintf("%.7f,%.7f,%.7f,%.7f", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// DestinationPoint returns the point reached by travelling distanceKm from
// (lat, lon) along the initial bearing bearingDeg (degrees clockwise from north).
// NaN inputs yield NaN outputs.
func DestinationPoint(lat, lon, distanceKm, bearingDeg float64) (float64, float64) {
	phi1 := toRadians(lat)
	lambda1 := toRadians(lon)
	theta := toRadians(bearingDeg)
	delta := distanceKm / EarthRadiusKm

	phi2 := math.Asin(math.Sin(phi1)*math.Cos(delta) + math.Cos(phi1)*math.Sin(delta)*math.Cos(theta))
	lambda2 := lambda1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2),
	)

	return toDegrees(phi2), toDegrees(lambda2)
}

// BoundingBox builds the box spanned by the destination points radiusKm away
// from (lat, lon) at bearings 0, 90, 180 and 270 degrees.
//
// Pole and antimeridian cases are not special-cased: the east/west points may
// wrap past ±180 or swap, so MinLon <= MaxLon only holds away from those regions.
func BoundingBox(lat, lon, radiusKm float64) BBox {
	northLat, _ := DestinationPoint(lat, lon, radiusKm, 0)
	_, eastLon := DestinationPoint(lat, lon, radiusKm, 90)
	southLat, _ := DestinationPoint(lat, lon, radiusKm, 180)
	_, westLon := DestinationPoint(lat, lon, radiusKm, 270)

	return BBox{
		MinLon: math.Min(westLon, eastLon),
		MinLat: math.Min(southLat, northLat),
		MaxLon: math.Max(westLon, eastLon),
		MaxLat: math.Max(southLat, northLat),
	}
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }
