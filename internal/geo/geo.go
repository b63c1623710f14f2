// Package geo holds the coordinate math behind proximity queries and hot-area
// bucketing. Coordinates are WGS84 decimal degrees.
package geo

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0088

// kmPerDegree is the length of one degree of arc on the sphere DistanceKm
// uses, so the bounding box and the exact check agree.
const kmPerDegree = earthRadiusKm * math.Pi / 180

// boxMargin widens the bounding box so float error near the edge never
// drops a point the exact check would keep.
const boxMargin = 1.01

type Point struct {
	Longitude float64
	Latitude  float64
}

func (p Point) Validate() error {
	if math.IsNaN(p.Longitude) || math.IsInf(p.Longitude, 0) {
		return fmt.Errorf("longitude must be a finite number")
	}
	if math.IsNaN(p.Latitude) || math.IsInf(p.Latitude, 0) {
		return fmt.Errorf("latitude must be a finite number")
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", p.Longitude)
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", p.Latitude)
	}
	return nil
}

// DistanceKm is the haversine great-circle distance.
func DistanceKm(a, b Point) float64 {
	lat1 := toRad(a.Latitude)
	lat2 := toRad(b.Latitude)
	dLat := lat2 - lat1
	dLng := toRad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// Offset moves p northKm along its meridian and eastKm along its parallel.
func Offset(p Point, northKm, eastKm float64) Point {
	lat := p.Latitude + northKm/kmPerDegree
	return Point{
		Longitude: p.Longitude + eastKm/(kmPerDegree*math.Cos(toRad(lat))),
		Latitude:  lat,
	}
}

// Box is a lat/lng rectangle used to prefilter rows before the exact
// distance check. UseLongitude is false when the box would wrap the
// antimeridian or reach a pole; callers then filter on latitude only.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
	UseLongitude   bool
}

// BoundingBox returns a box that contains every point within radiusKm of
// center. It may contain more.
func BoundingBox(center Point, radiusKm float64) Box {
	radiusKm *= boxMargin
	dLat := radiusKm / kmPerDegree
	box := Box{
		MinLat: math.Max(-90, center.Latitude-dLat),
		MaxLat: math.Min(90, center.Latitude+dLat),
	}

	cos := math.Cos(toRad(center.Latitude))
	if cos < 1e-6 || box.MinLat <= -90 || box.MaxLat >= 90 {
		return box
	}
	// Widen by the largest latitude in the box, where degrees are shortest.
	edge := math.Max(math.Abs(box.MinLat), math.Abs(box.MaxLat))
	dLng := radiusKm / (kmPerDegree * math.Cos(toRad(edge)))
	if center.Longitude-dLng < -180 || center.Longitude+dLng > 180 {
		return box
	}
	box.MinLng = center.Longitude - dLng
	box.MaxLng = center.Longitude + dLng
	box.UseLongitude = true
	return box
}

// Cell identifies a grid square by integer indices. The snapped coordinate
// is index times the grid resolution.
type Cell struct {
	LatIndex int64
	LngIndex int64
}

// SnapToGrid rounds p to the nearest multiple of resolution on both axes.
func SnapToGrid(p Point, resolution float64) Cell {
	return Cell{
		LatIndex: int64(math.Round(p.Latitude / resolution)),
		LngIndex: int64(math.Round(p.Longitude / resolution)),
	}
}

// Label formats the snapped coordinate as "lat,lng" with four decimals.
func (c Cell) Label(resolution float64) string {
	lat := float64(c.LatIndex) * resolution
	lng := float64(c.LngIndex) * resolution
	return fmt.Sprintf("%.4f,%.4f", normZero(lat), normZero(lng))
}

// Less orders cells by latitude index, then longitude index.
func (c Cell) Less(o Cell) bool {
	if c.LatIndex != o.LatIndex {
		return c.LatIndex < o.LatIndex
	}
	return c.LngIndex < o.LngIndex
}

// normZero avoids printing "-0.0000".
func normZero(f float64) float64 {
	if f == 0 {
		return 0
	}
	return f
}

type CellCount struct {
	Cell  Cell
	Count int64
}
