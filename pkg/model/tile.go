package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"github.com/kdudkov/tilesmanager/pkg/mapper"
)

type Tile struct {
	X int
	Y int
	Z int
}

func TileAt(m *mapper.TilesManager, lat, lon float64, z int) *Tile {
	x, y, _, _ := m.LatLonToTileIndex(lat, lon, z)

	return &Tile{X: x, Y: y, Z: z}
}

func ParseTile(s string) (*Tile, error) {
	d := strings.Split(strings.Trim(s, "/ \n\r"), "/")

	if len(d) != 3 {
		return nil, fmt.Errorf("invalid tile: %s", s)
	}

	var v [3]int

	for i, p := range d {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid tile %s: %w", s, err)
		}
		v[i] = n
	}

	t := &Tile{Z: v[0], X: v[1], Y: v[2]}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	return t, nil
}

func (t *Tile) Validate() error {
	if err := mapper.ValidZoom(t.Z); err != nil {
		return err
	}

	n := 1 << t.Z

	if t.X < 0 || t.X >= n || t.Y < 0 || t.Y >= n {
		return fmt.Errorf("tile %s is out of range for zoom %d", t, t.Z)
	}

	return nil
}

func (t *Tile) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// FlipY converts between xyz and tms row numbering. A tile with invalid zoom is returned as is.
func (t *Tile) FlipY() *Tile {
	if mapper.ValidZoom(t.Z) != nil {
		return &Tile{X: t.X, Y: t.Y, Z: t.Z}
	}

	return &Tile{X: t.X, Y: 1<<t.Z - t.Y - 1, Z: t.Z}
}

// InRect reports whether t lies in the rectangle from t1 to t2, zoom levels may differ.
func (t *Tile) InRect(t1, t2 *Tile) bool {
	for _, tt := range []*Tile{t, t1, t2} {
		if mapper.ValidZoom(tt.Z) != nil {
			return false
		}
	}

	x1 := t.X * scale(t.Z)
	y1 := t.Y * scale(t.Z)

	xmin := t1.X * scale(t1.Z)
	xmax := (t2.X + 1) * scale(t2.Z)

	ymin := t1.Y * scale(t1.Z)
	ymax := (t2.Y + 1) * scale(t2.Z)

	return x1 >= xmin && x1 < xmax && y1 >= ymin && y1 < ymax
}

func scale(z int) int {
	return 1 << (mapper.MaxZoom - z)
}

// MapTile returns the xyz maptile for t, t.Y is in tms order when tms is set.
func (t *Tile) MapTile(tms bool) (maptile.Tile, error) {
	if err := t.Validate(); err != nil {
		return maptile.Tile{}, err
	}

	xyz := t
	if tms {
		xyz = t.FlipY()
	}

	return maptile.New(uint32(xyz.X), uint32(xyz.Y), maptile.Zoom(xyz.Z)), nil
}

func (t *Tile) Bounds(m *mapper.TilesManager) (orb.Bound, error) {
	mt, err := t.MapTile(m.IsTms())
	if err != nil {
		return orb.Bound{}, err
	}

	return mt.Bound(), nil
}
