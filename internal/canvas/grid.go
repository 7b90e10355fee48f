package canvas

import (
	"math"

	"appbuilder/internal/domain"
)

const (
	GridSize = 32   // cell size shared by drop snapping and auto-placement
	Padding  = 32   // one grid cell between auto-placed widgets
	MaxRowW  = 1280 // canvas width
)

// SnapToGrid rounds each coordinate to the nearest multiple of cell.
// A non-positive cell leaves the coordinates untouched.
func SnapToGrid(x, y, cell int) (int, int) {
	return snap(x, cell), snap(y, cell)
}

func snap(v, cell int) int {
	if cell <= 0 {
		return v
	}
	return int(math.Round(float64(v)/float64(cell))) * cell
}

// rect is a simple axis-aligned bounding box.
type rect struct {
	x, y, w, h int
}

func (a rect) intersects(b rect) bool {
	return a.x < b.x+b.w && a.x+a.w > b.x &&
		a.y < b.y+b.h && a.y+a.h > b.y
}

// NextPosition finds the first grid position, scanning rows top to bottom
// and columns left to right, where a widget of the given size does not
// overlap any existing box (padding included). It is used to pick an anchor
// for drops that arrive without one from non-pointer sources.
func NextPosition(boxes domain.Components, size domain.Size, cell int) domain.Point {
	if cell <= 0 {
		cell = GridSize
	}
	if len(boxes) == 0 {
		return domain.Point{}
	}

	occupied := make([]rect, 0, len(boxes))
	maxY := 0
	for _, b := range boxes {
		occupied = append(occupied, rect{
			x: b.Left - Padding,
			y: b.Top - Padding,
			w: b.Width + Padding*2,
			h: b.Height + Padding*2,
		})
		if b.Top+b.Height > maxY {
			maxY = b.Top + b.Height
		}
	}

	candidate := rect{w: size.Width, h: size.Height}
	for y := 0; y <= maxY+Padding; y += cell {
		for x := 0; x+size.Width <= MaxRowW; x += cell {
			candidate.x, candidate.y = x, y
			overlaps := false
			for _, occ := range occupied {
				if candidate.intersects(occ) {
					overlaps = true
					break
				}
			}
			if !overlaps {
				return domain.Point{X: x, Y: y}
			}
		}
	}

	// Fallback: below everything.
	return domain.Point{X: 0, Y: ceilToGrid(maxY+Padding, cell)}
}

func ceilToGrid(v, cell int) int {
	return int(math.Ceil(float64(v)/float64(cell))) * cell
}
