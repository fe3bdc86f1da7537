package mapdraft

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// TextureAxes are the explicit texture projection axes of the Valve220
// format. Standard-format faces project paraxially and carry none.
type TextureAxes struct {
	UAxis   mgl64.Vec3
	UOffset float64
	VAxis   mgl64.Vec3
	VOffset float64
}

// SurfaceAttributes are the Quake2-style content/flags/value triple.
type SurfaceAttributes struct {
	Contents int64
	Flags    int64
	Value    float64
}

type FaceAttributes struct {
	Material string
	XOffset  float64
	YOffset  float64
	Rotation float64
	XScale   float64
	YScale   float64
	Axes     *TextureAxes       // present on Valve faces only
	Surface  *SurfaceAttributes // present on Quake2/Quake3 faces when written
}

// BrushFace is one bounding plane of a brush, given by three points on the
// plane plus its texturing attributes.
type BrushFace struct {
	Points     [3]mgl64.Vec3
	Attributes FaceAttributes

	// material is the resolved material, nil when the name is not found in
	// any enabled collection.
	material *Material
}

func (f *BrushFace) Normal() mgl64.Vec3 {
	u := f.Points[1].Sub(f.Points[0])
	v := f.Points[2].Sub(f.Points[0])
	n := u.Cross(v)
	if n.Len() == 0 {
		return mgl64.Vec3{}
	}
	return n.Normalize()
}

func (f *BrushFace) Material() *Material { return f.material }

func (f *BrushFace) setMaterial(m *Material) { f.material = m }

func (f *BrushFace) clone() BrushFace {
	out := *f
	if f.Attributes.Axes != nil {
		axes := *f.Attributes.Axes
		out.Attributes.Axes = &axes
	}
	if f.Attributes.Surface != nil {
		surface := *f.Attributes.Surface
		out.Attributes.Surface = &surface
	}
	return out
}

// Brush is a convex solid bounded by its faces.
type Brush struct {
	faces []BrushFace
}

func MakeBrush(faces ...BrushFace) Brush {
	return Brush{faces: faces}
}

func (b *Brush) Faces() []BrushFace { return b.faces }

func (b *Brush) Face(i int) *BrushFace { return &b.faces[i] }

func (b *Brush) bounds() BBox {
	box := emptyBBox()
	for i := range b.faces {
		box = box.Union(bboxOfPoints(b.faces[i].Points[:]))
	}
	return box
}

func (b *Brush) clone() Brush {
	out := Brush{faces: make([]BrushFace, len(b.faces))}
	for i := range b.faces {
		out.faces[i] = b.faces[i].clone()
	}
	return out
}

type BrushNode struct {
	nodeBase
	brush Brush
}

func NewBrushNode(brush Brush) *BrushNode {
	n := &BrushNode{brush: brush}
	n.self = n
	return n
}

func (n *BrushNode) Brush() *Brush { return &n.brush }

func (n *BrushNode) SetBrush(brush Brush) {
	n.brush = brush
	n.invalidateBounds()
}

func (n *BrushNode) ownBounds() BBox { return n.brush.bounds() }

func (n *BrushNode) cloneShallow() Node {
	return NewBrushNode(n.brush.clone())
}

// BrushBuilder constructs axis-aligned brushes with face attributes
// matching the document's map format.
type BrushBuilder struct {
	format      MapFormat
	worldBounds BBox
}

func NewBrushBuilder(format MapFormat, worldBounds BBox) *BrushBuilder {
	return &BrushBuilder{format: format, worldBounds: worldBounds}
}

// CreateCube builds a cube of the given edge length centered on the origin.
func (b *BrushBuilder) CreateCube(size float64, material string) (Brush, error) {
	half := size / 2
	return b.CreateCuboid(BBox{
		Min: mgl64.Vec3{-half, -half, -half},
		Max: mgl64.Vec3{half, half, half},
	}, material)
}

func (b *BrushBuilder) CreateCuboid(box BBox, material string) (Brush, error) {
	if box.Empty() || box.Size().X() == 0 || box.Size().Y() == 0 || box.Size().Z() == 0 {
		return Brush{}, fmt.Errorf("cuboid is degenerate")
	}
	if !b.worldBounds.ContainsBBox(box) {
		return Brush{}, fmt.Errorf("cuboid exceeds world bounds")
	}

	x1, y1, z1 := box.Min.X(), box.Min.Y(), box.Min.Z()
	x2, y2, z2 := box.Max.X(), box.Max.Y(), box.Max.Z()

	// Three points per face, wound so the plane normal points out of the
	// solid, the way idtech tools emit cuboids.
	pointSets := [6][3]mgl64.Vec3{
		{{x1, y1, z1}, {x1, y2, z1}, {x1, y1, z2}}, // -x
		{{x2, y1, z1}, {x2, y1, z2}, {x2, y2, z1}}, // +x
		{{x1, y1, z1}, {x1, y1, z2}, {x2, y1, z1}}, // -y
		{{x1, y2, z1}, {x2, y2, z1}, {x1, y2, z2}}, // +y
		{{x1, y1, z1}, {x2, y1, z1}, {x1, y2, z1}}, // -z
		{{x1, y1, z2}, {x1, y2, z2}, {x2, y1, z2}}, // +z
	}

	faces := make([]BrushFace, 0, 6)
	for _, points := range pointSets {
		face := BrushFace{
			Points: points,
			Attributes: FaceAttributes{
				Material: material,
				XScale:   1,
				YScale:   1,
			},
		}
		switch b.format {
		case FormatValve:
			axes := defaultTextureAxes(face.Normal())
			face.Attributes.Axes = &axes
		case FormatQuake2:
			face.Attributes.Surface = &SurfaceAttributes{}
		}
		faces = append(faces, face)
	}
	return MakeBrush(faces...), nil
}

// defaultTextureAxes picks the paraxial projection for a face normal, which
// is what Valve-format tools default to for fresh faces.
func defaultTextureAxes(normal mgl64.Vec3) TextureAxes {
	ax, ay, az := abs(normal.X()), abs(normal.Y()), abs(normal.Z())
	switch {
	case az >= ax && az >= ay:
		return TextureAxes{UAxis: mgl64.Vec3{1, 0, 0}, VAxis: mgl64.Vec3{0, -1, 0}}
	case ax >= ay:
		return TextureAxes{UAxis: mgl64.Vec3{0, 1, 0}, VAxis: mgl64.Vec3{0, 0, -1}}
	default:
		return TextureAxes{UAxis: mgl64.Vec3{1, 0, 0}, VAxis: mgl64.Vec3{0, 0, -1}}
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
