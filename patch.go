package mapdraft

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// PatchPoint is a bezier control point with its texture coordinates, the
// five-component tuple Quake3 patchDef2 blocks store.
type PatchPoint struct {
	Position mgl64.Vec3
	U, V     float64
}

// BezierPatch is a parametric surface over a grid of control points. Both
// grid dimensions must be odd and at least 3.
type BezierPatch struct {
	rows, cols int
	points     []PatchPoint
	material   string
}

func MakeBezierPatch(rows, cols int, points []PatchPoint, material string) (BezierPatch, error) {
	if rows < 3 || cols < 3 || rows%2 == 0 || cols%2 == 0 {
		return BezierPatch{}, fmt.Errorf("invalid patch grid %dx%d", rows, cols)
	}
	if len(points) != rows*cols {
		return BezierPatch{}, fmt.Errorf("expected %d control points, got %d", rows*cols, len(points))
	}
	return BezierPatch{rows: rows, cols: cols, points: points, material: material}, nil
}

func (p *BezierPatch) Rows() int { return p.rows }
func (p *BezierPatch) Cols() int { return p.cols }

func (p *BezierPatch) Material() string { return p.material }

func (p *BezierPatch) SetMaterial(material string) { p.material = material }

func (p *BezierPatch) ControlPoints() []PatchPoint { return p.points }

func (p *BezierPatch) ControlPoint(row, col int) PatchPoint {
	return p.points[row*p.cols+col]
}

// Evaluate samples the surface at parametric coordinates u,v in [0,1],
// treating the grid as a mesh of joined quadratic bezier spans.
func (p *BezierPatch) Evaluate(u, v float64) mgl64.Vec3 {
	// One quadratic span covers two grid steps; clamp into the last span.
	spansU := (p.cols - 1) / 2
	spansV := (p.rows - 1) / 2

	su := int(u * float64(spansU))
	if su >= spansU {
		su = spansU - 1
	}
	sv := int(v * float64(spansV))
	if sv >= spansV {
		sv = spansV - 1
	}

	lu := u*float64(spansU) - float64(su)
	lv := v*float64(spansV) - float64(sv)

	var rows [3]mgl64.Vec3
	for i := 0; i < 3; i++ {
		p0 := p.ControlPoint(sv*2+i, su*2).Position
		p1 := p.ControlPoint(sv*2+i, su*2+1).Position
		p2 := p.ControlPoint(sv*2+i, su*2+2).Position
		rows[i] = quadraticBezier(p0, p1, p2, lu)
	}
	return quadraticBezier(rows[0], rows[1], rows[2], lv)
}

func quadraticBezier(p0, p1, p2 mgl64.Vec3, t float64) mgl64.Vec3 {
	s := 1 - t
	return p0.Mul(s * s).Add(p1.Mul(2 * s * t)).Add(p2.Mul(t * t))
}

func (p *BezierPatch) bounds() BBox {
	box := emptyBBox()
	for _, cp := range p.points {
		box = box.Extend(cp.Position)
	}
	return box
}

func (p *BezierPatch) clone() BezierPatch {
	out := *p
	out.points = make([]PatchPoint, len(p.points))
	copy(out.points, p.points)
	return out
}

type PatchNode struct {
	nodeBase
	patch BezierPatch
}

func NewPatchNode(patch BezierPatch) *PatchNode {
	n := &PatchNode{patch: patch}
	n.self = n
	return n
}

func (n *PatchNode) Patch() *BezierPatch { return &n.patch }

func (n *PatchNode) SetPatch(patch BezierPatch) {
	n.patch = patch
	n.invalidateBounds()
}

func (n *PatchNode) ownBounds() BBox { return n.patch.bounds() }

func (n *PatchNode) cloneShallow() Node {
	return NewPatchNode(n.patch.clone())
}
