package mapper

import (
	"errors"
	"math"
)

const (
	DefaultTileSize = 512
	MaxZoom         = 30

	// MaxLatitude is the northernmost latitude a square Web-Mercator world covers.
	MaxLatitude = 85.05112877980659
)

var ErrZoomRange = errors.New("zoom value is out of range [0, 30]")

func radians(a float64) float64 {
	return a / 180 * math.Pi
}

func deg(a float64) float64 {
	return a / math.Pi * 180
}

type Option func(*TilesManager)

func WithTms(tms bool) Option {
	return func(m *TilesManager) {
		m.isTms = tms
	}
}

type TilesManager struct {
	isTms    bool
	tileSize int
}

func NewTilesManager(opts ...Option) *TilesManager {
	m := &TilesManager{
		isTms:    false,
		tileSize: DefaultTileSize,
	}

	for _, o := range opts {
		o(m)
	}

	return m
}

func (m *TilesManager) TileSize() int {
	return m.tileSize
}

func (m *TilesManager) IsTms() bool {
	return m.isTms
}

func ValidZoom(zoom int) error {
	if zoom < 0 || zoom > MaxZoom {
		return ErrZoomRange
	}

	return nil
}

func ClampLatitude(lat float64) float64 {
	return math.Max(-MaxLatitude, math.Min(MaxLatitude, lat))
}

// worldSize is the number of tiles along one axis, zoom clamped to [0, MaxZoom].
func worldSize(zoom int) float64 {
	zoom = max(0, min(MaxZoom, zoom))

	return float64(uint64(1) << uint(zoom))
}

// LatLonToTile projects a point to fractional tile coordinates.
// Latitude is clamped to ±MaxLatitude, longitude is mapped linearly without wrapping.
func (m *TilesManager) LatLonToTile(lat, lon float64, zoom int) (float64, float64) {
	x, y := project(lat, lon, zoom)

	if m.isTms {
		y = worldSize(zoom) - y
	}

	return x, y
}

// project returns xyz tile coordinates, y grows southwards.
func project(lat, lon float64, zoom int) (float64, float64) {
	n := worldSize(zoom)
	r := radians(ClampLatitude(lat))

	x := (lon + 180) / 360 * n
	y := (1 - math.Log(math.Tan(r)+1/math.Cos(r))/math.Pi) / 2 * n

	return x, math.Max(0, math.Min(n, y))
}

// TileToLatLon is the inverse of LatLonToTile.
func (m *TilesManager) TileToLatLon(x, y float64, zoom int) (float64, float64) {
	n := worldSize(zoom)

	if m.isTms {
		y = n - y
	}

	lon := x/n*360.0 - 180.0
	lat := deg(math.Atan(math.Sinh(math.Pi * (1 - 2*y/n))))

	return lat, lon
}

func (m *TilesManager) LatLonToPixel(lat, lon float64, zoom int) (float64, float64) {
	x, y := m.LatLonToTile(lat, lon, zoom)
	s := float64(m.tileSize)

	return x * s, y * s
}

func (m *TilesManager) PixelToLatLon(px, py float64, zoom int) (float64, float64) {
	s := float64(m.tileSize)

	return m.TileToLatLon(px/s, py/s, zoom)
}

// LatLonToTileIndex returns the tile containing the point and the pixel offset inside it.
// Offsets are counted from the top left corner of the tile image in both row orders.
func (m *TilesManager) LatLonToTileIndex(lat, lon float64, zoom int) (int, int, int, int) {
	x, y := project(lat, lon, zoom)
	last := int(worldSize(zoom)) - 1

	tx, ty := clampIndex(int(math.Floor(x)), last), clampIndex(int(math.Floor(y)), last)
	ox := clampIndex(int((x-float64(tx))*float64(m.tileSize)), m.tileSize-1)
	oy := clampIndex(int((y-float64(ty))*float64(m.tileSize)), m.tileSize-1)

	if m.isTms {
		ty = last - ty
	}

	return tx, ty, ox, oy
}

func clampIndex(v, last int) int {
	return max(0, min(last, v))
}
