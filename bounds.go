package mapdraft

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BBox is an axis-aligned box in world space.
type BBox struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// MakeBBox returns a box centered on the origin extending size in every
// direction, the shape world bounds are usually given in (e.g. 8192).
func MakeBBox(size float64) BBox {
	return BBox{
		Min: mgl64.Vec3{-size, -size, -size},
		Max: mgl64.Vec3{size, size, size},
	}
}

func emptyBBox() BBox {
	inf := math.Inf(1)
	return BBox{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

func (b BBox) Empty() bool {
	return b.Min.X() > b.Max.X() || b.Min.Y() > b.Max.Y() || b.Min.Z() > b.Max.Z()
}

func (b BBox) Size() mgl64.Vec3 {
	if b.Empty() {
		return mgl64.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

func (b BBox) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b BBox) Union(o BBox) BBox {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	return BBox{
		Min: mgl64.Vec3{
			math.Min(b.Min.X(), o.Min.X()),
			math.Min(b.Min.Y(), o.Min.Y()),
			math.Min(b.Min.Z(), o.Min.Z()),
		},
		Max: mgl64.Vec3{
			math.Max(b.Max.X(), o.Max.X()),
			math.Max(b.Max.Y(), o.Max.Y()),
			math.Max(b.Max.Z(), o.Max.Z()),
		},
	}
}

func (b BBox) Extend(p mgl64.Vec3) BBox {
	return b.Union(BBox{Min: p, Max: p})
}

func (b BBox) Contains(p mgl64.Vec3) bool {
	return p.X() >= b.Min.X() && p.X() <= b.Max.X() &&
		p.Y() >= b.Min.Y() && p.Y() <= b.Max.Y() &&
		p.Z() >= b.Min.Z() && p.Z() <= b.Max.Z()
}

func (b BBox) ContainsBBox(o BBox) bool {
	return !o.Empty() && b.Contains(o.Min) && b.Contains(o.Max)
}

func (b BBox) Translate(d mgl64.Vec3) BBox {
	if b.Empty() {
		return b
	}
	return BBox{Min: b.Min.Add(d), Max: b.Max.Add(d)}
}

func bboxOfPoints(points []mgl64.Vec3) BBox {
	box := emptyBBox()
	for _, p := range points {
		box = box.Extend(p)
	}
	return box
}
