package mapper

import (
	"fmt"
	"math"
	"math/rand"
	"testing"
)

const eps = 1e-4

func TestTileSize(t *testing.T) {
	m := NewTilesManager()

	if m.TileSize() != 512 {
		t.Errorf("wrong tile size: got %d, must be 512", m.TileSize())
	}
}

func TestFlorence(t *testing.T) {
	m := NewTilesManager()
	lat, lon, zoom := 43.7696, 11.2558, 14

	x, y := m.LatLonToTile(lat, lon, zoom)
	n := math.Pow(2, float64(zoom))

	if x < 0 || x > n || y < 0 || y > n {
		t.Errorf("tile (%f, %f) is out of [0, %f]", x, y, n)
	}

	lat1, lon1 := m.TileToLatLon(x, y, zoom)

	if math.Abs(lat1-lat) > eps {
		t.Errorf("wrong lat: got %f, must be %f", lat1, lat)
	}

	if math.Abs(lon1-lon) > eps {
		t.Errorf("wrong lon: got %f, must be %f", lon1, lon)
	}
}

var testdata = []struct {
	lat, lon float64
	zoom     int
	x, y     float64
}{
	{0, 0, 0, 0.5, 0.5},
	{0, 0, 1, 1, 1},
	{0, 90, 1, 1.5, 1},
	{0, -180, 3, 0, 4},
	{MaxLatitude, -180, 1, 0, 0},
	{-MaxLatitude, 180, 1, 2, 2},
}

func TestConvert(t *testing.T) {
	m := NewTilesManager()

	for i, c := range testdata {
		t.Run(fmt.Sprintf("test_%d", i), func(t *testing.T) {
			x, y := m.LatLonToTile(c.lat, c.lon, c.zoom)

			if math.Abs(x-c.x) > 1e-6 {
				t.Errorf("wrong x: got %f, must be %f", x, c.x)
			}

			if math.Abs(y-c.y) > 1e-6 {
				t.Errorf("wrong y: got %f, must be %f", y, c.y)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	m := NewTilesManager()
	r := rand.New(rand.NewSource(42))

	for z := 0; z <= 20; z++ {
		for i := 0; i < 200; i++ {
			lat := 170*r.Float64() - 85
			lon := 360*r.Float64() - 180

			x, y := m.LatLonToTile(lat, lon, z)
			lat1, lon1 := m.TileToLatLon(x, y, z)

			if math.Abs(lat1-lat) > eps || math.Abs(lon1-lon) > eps {
				t.Errorf("z=%d: %f,%f -> %f,%f -> %f,%f", z, lat, lon, x, y, lat1, lon1)
			}
		}
	}
}

func TestRoundTripTms(t *testing.T) {
	m := NewTilesManager(WithTms(true))
	lat, lon, zoom := 55.746819, 37.612228, 16

	x, y := m.LatLonToTile(lat, lon, zoom)
	x1, y1 := NewTilesManager().LatLonToTile(lat, lon, zoom)

	if x != x1 {
		t.Errorf("tms must not change x: %f != %f", x, x1)
	}

	if math.Abs(y+y1-math.Pow(2, float64(zoom))) > 1e-6 {
		t.Errorf("tms y %f is not flipped xyz y %f", y, y1)
	}

	lat1, lon1 := m.TileToLatLon(x, y, zoom)

	if math.Abs(lat1-lat) > eps || math.Abs(lon1-lon) > eps {
		t.Errorf("got %f,%f, must be %f,%f", lat1, lon1, lat, lon)
	}
}

func TestMonotonic(t *testing.T) {
	m := NewTilesManager()

	for _, z := range []int{0, 5, 14, 20} {
		prev := -1.0
		for lon := -180.0; lon <= 180; lon += 0.5 {
			x, _ := m.LatLonToTile(0, lon, z)
			if x <= prev {
				t.Fatalf("z=%d: x is not increasing at lon %f", z, lon)
			}
			prev = x
		}

		prev = math.Inf(1)
		for lat := -85.0; lat <= 85; lat += 0.5 {
			_, y := m.LatLonToTile(lat, 0, z)
			if y >= prev {
				t.Fatalf("z=%d: y is not decreasing at lat %f", z, lat)
			}
			prev = y
		}
	}
}

func TestPoles(t *testing.T) {
	m := NewTilesManager()

	for _, lat := range []float64{90, -90, 89.9, -100} {
		_, y := m.LatLonToTile(lat, 0, 10)

		if math.IsNaN(y) || y < 0 || y > 1024 {
			t.Errorf("lat %f: y %f is out of range", lat, y)
		}
	}
}

func TestNegativeZoom(t *testing.T) {
	m := NewTilesManager()

	x, y := m.LatLonToTile(0, 0, -3)
	if x != 0.5 || y != 0.5 {
		t.Errorf("negative zoom must act as zoom 0, got %f,%f", x, y)
	}

	if ValidZoom(-1) != ErrZoomRange || ValidZoom(31) != ErrZoomRange {
		t.Error("zoom range is not checked")
	}

	if err := ValidZoom(14); err != nil {
		t.Error(err)
	}
}

func TestPixels(t *testing.T) {
	m := NewTilesManager()
	lat, lon, zoom := 43.7696, 11.2558, 14

	px, py := m.LatLonToPixel(lat, lon, zoom)
	x, y := m.LatLonToTile(lat, lon, zoom)

	if px != x*512 || py != y*512 {
		t.Errorf("pixel %f,%f does not match tile %f,%f", px, py, x, y)
	}

	lat1, lon1 := m.PixelToLatLon(px, py, zoom)
	if math.Abs(lat1-lat) > eps || math.Abs(lon1-lon) > eps {
		t.Errorf("got %f,%f, must be %f,%f", lat1, lon1, lat, lon)
	}
}

func TestTileIndex(t *testing.T) {
	m := NewTilesManager()

	tx, ty, ox, oy := m.LatLonToTileIndex(0, 90, 1)
	if tx != 1 || ty != 1 || ox != 256 || oy != 0 {
		t.Errorf("got %d/%d %d,%d", tx, ty, ox, oy)
	}

	// the south-east corner belongs to the last tile
	tx, ty, ox, oy = m.LatLonToTileIndex(-90, 180, 2)
	if tx != 3 || ty != 3 || ox != 511 || oy != 511 {
		t.Errorf("got %d/%d %d,%d", tx, ty, ox, oy)
	}
}

func TestTileIndexTms(t *testing.T) {
	xyz := NewTilesManager()
	tms := NewTilesManager(WithTms(true))

	for _, c := range []struct {
		lat, lon float64
		zoom     int
	}{
		{43.7696, 11.2558, 14},
		{-33.8688, 151.2093, 14},
		{0, 0, 14},
		{0, 0, 1},
		{MaxLatitude, -180, 5},
	} {
		x1, y1, ox1, oy1 := xyz.LatLonToTileIndex(c.lat, c.lon, c.zoom)
		x2, y2, ox2, oy2 := tms.LatLonToTileIndex(c.lat, c.lon, c.zoom)

		if x1 != x2 || y2 != 1<<c.zoom-y1-1 {
			t.Errorf("%f,%f z=%d: tms tile %d/%d is not flipped xyz %d/%d", c.lat, c.lon, c.zoom, x2, y2, x1, y1)
		}

		if ox1 != ox2 || oy1 != oy2 {
			t.Errorf("%f,%f z=%d: offset xyz %d,%d tms %d,%d", c.lat, c.lon, c.zoom, ox1, oy1, ox2, oy2)
		}
	}
}
