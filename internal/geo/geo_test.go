package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Point
		wantErr bool
	}{
		{"origin", Point{0, 0}, false},
		{"corners", Point{180, -90}, false},
		{"other corner", Point{-180, 90}, false},
		{"lng too big", Point{180.0001, 0}, true},
		{"lat too small", Point{0, -90.5}, true},
		{"nan", Point{math.NaN(), 0}, true},
		{"inf", Point{0, math.Inf(1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDistanceKm(t *testing.T) {
	// One degree of latitude is ~111.2 km on the mean sphere.
	d := DistanceKm(Point{Longitude: 14.42, Latitude: 50.0}, Point{Longitude: 14.42, Latitude: 51.0})
	assert.InDelta(t, 111.2, d, 0.2)

	assert.Equal(t, 0.0, DistanceKm(Point{1, 2}, Point{1, 2}))

	// Symmetric.
	a, b := Point{-73.98, 40.75}, Point{-0.12, 51.5}
	assert.InDelta(t, DistanceKm(a, b), DistanceKm(b, a), 1e-9)
	assert.InDelta(t, 5570, DistanceKm(a, b), 15)
}

func TestBoundingBox_ContainsRadius(t *testing.T) {
	center := Point{Longitude: 14.42, Latitude: 50.08}
	box := BoundingBox(center, 5)

	assert.True(t, box.UseLongitude)
	assert.Less(t, box.MinLat, center.Latitude)
	assert.Greater(t, box.MaxLat, center.Latitude)

	// Points just inside the radius on either axis must be inside the box.
	for _, p := range []Point{
		Offset(center, 4.999, 0),
		Offset(center, -4.999, 0),
		Offset(center, 0, 4.999),
		Offset(center, 0, -4.999),
	} {
		require.LessOrEqual(t, DistanceKm(center, p), 5.0)
		assert.GreaterOrEqual(t, p.Latitude, box.MinLat)
		assert.LessOrEqual(t, p.Latitude, box.MaxLat)
		assert.GreaterOrEqual(t, p.Longitude, box.MinLng)
		assert.LessOrEqual(t, p.Longitude, box.MaxLng)
	}
}

func TestBoundingBox_NearPoleAndAntimeridian(t *testing.T) {
	assert.False(t, BoundingBox(Point{Longitude: 0, Latitude: 89.99}, 5).UseLongitude)
	assert.False(t, BoundingBox(Point{Longitude: 179.99, Latitude: 0}, 5).UseLongitude)
}

func TestSnapToGrid(t *testing.T) {
	c := SnapToGrid(Point{Longitude: 14.4237, Latitude: 50.0871}, 0.01)
	assert.Equal(t, Cell{LatIndex: 5009, LngIndex: 1442}, c)
	assert.Equal(t, "50.0900,14.4200", c.Label(0.01))

	neg := SnapToGrid(Point{Longitude: -0.1278, Latitude: 51.5074}, 0.01)
	assert.Equal(t, "51.5100,-0.1300", neg.Label(0.01))

	zero := SnapToGrid(Point{Longitude: -0.001, Latitude: 0.001}, 0.01)
	assert.Equal(t, "0.0000,0.0000", zero.Label(0.01))
}

func TestCellLess(t *testing.T) {
	assert.True(t, Cell{1, 5}.Less(Cell{2, 0}))
	assert.True(t, Cell{1, 1}.Less(Cell{1, 2}))
	assert.False(t, Cell{1, 2}.Less(Cell{1, 2}))
}
