package mapdraft

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteWorld serializes the node hierarchy as map text in the world's own
// format. Brushes and patches of the default layer live in the worldspawn
// block; custom layers, groups and entities become separate blocks linked
// through the reserved bookkeeping properties.
func WriteWorld(w io.Writer, world *WorldNode) error {
	mw := &mapWriter{
		out:    bufio.NewWriter(w),
		format: world.MapFormat(),
		world:  world,
		ids:    make(map[Node]int),
	}
	mw.assignIDs()
	mw.writeWorldspawn()

	defaultLayer := world.DefaultLayer()
	if defaultLayer != nil {
		for _, child := range defaultLayer.Children() {
			mw.writeContainedNode(child, "", 0)
		}
	}
	for _, layer := range world.CustomLayers() {
		mw.writeLayer(layer)
	}

	if mw.err != nil {
		return mw.err
	}
	return mw.out.Flush()
}

type mapWriter struct {
	out    *bufio.Writer
	format MapFormat
	world  *WorldNode
	ids    map[Node]int
	err    error
}

func (mw *mapWriter) printf(format string, args ...any) {
	if mw.err != nil {
		return
	}
	_, mw.err = fmt.Fprintf(mw.out, format, args...)
}

// assignIDs numbers layers and groups in tree order; the numbers only need
// to be unique within one file.
func (mw *mapWriter) assignIDs() {
	next := 1
	eachDescendant(mw.world, func(node Node) bool {
		switch node.(type) {
		case *LayerNode, *GroupNode:
			mw.ids[node] = next
			next++
		}
		return true
	})
}

func (mw *mapWriter) writeWorldspawn() {
	mw.printf("// Format: %s\n", mw.format)
	mw.printf("{\n")
	mw.writeProperties(mw.world.Entity().Properties())
	if defaultLayer := mw.world.DefaultLayer(); defaultLayer != nil {
		mw.writeGeometry(defaultLayer)
	}
	mw.printf("}\n")
}

func (mw *mapWriter) writeLayer(layer *LayerNode) {
	mw.printf("{\n")
	mw.writeProperties([]EntityProperty{
		{Key: PropertyClassname, Value: classnameGroup},
		{Key: propTBType, Value: tbTypeLayer},
		{Key: propTBName, Value: layer.Name()},
		{Key: propTBID, Value: strconv.Itoa(mw.ids[layer])},
	})
	mw.writeGeometry(layer)
	mw.printf("}\n")

	for _, child := range layer.Children() {
		mw.writeContainedNode(child, propTBLayer, mw.ids[layer])
	}
}

// writeContainedNode emits a group or entity node as its own block, tagged
// with the linkage property pointing at its container. Brushes and patches
// were already written inline by the container and are skipped here.
func (mw *mapWriter) writeContainedNode(node Node, linkKey string, linkID int) {
	switch n := node.(type) {
	case *GroupNode:
		mw.writeGroup(n, linkKey, linkID)
	case *EntityNode:
		mw.writeEntity(n, linkKey, linkID)
	}
}

func (mw *mapWriter) writeGroup(group *GroupNode, linkKey string, linkID int) {
	properties := []EntityProperty{
		{Key: PropertyClassname, Value: classnameGroup},
		{Key: propTBType, Value: tbTypeGroup},
		{Key: propTBName, Value: group.Name()},
		{Key: propTBID, Value: strconv.Itoa(mw.ids[group])},
	}
	if len(linkedSiblings(mw.world, group)) > 0 {
		properties = append(properties, EntityProperty{Key: propTBLinkID, Value: group.LinkID()})
	}
	if linkKey != "" {
		properties = append(properties, EntityProperty{Key: linkKey, Value: strconv.Itoa(linkID)})
	}

	mw.printf("{\n")
	mw.writeProperties(properties)
	mw.writeGeometry(group)
	mw.printf("}\n")

	for _, child := range group.Children() {
		mw.writeContainedNode(child, propTBGroup, mw.ids[group])
	}
}

func (mw *mapWriter) writeEntity(entity *EntityNode, linkKey string, linkID int) {
	mw.printf("{\n")
	mw.writeProperties(entity.Entity().Properties())
	if linkKey != "" {
		mw.writeProperties([]EntityProperty{{Key: linkKey, Value: strconv.Itoa(linkID)}})
	}
	mw.writeGeometry(entity)
	mw.printf("}\n")
}

func (mw *mapWriter) writeProperties(properties []EntityProperty) {
	for _, p := range properties {
		mw.printf("\"%s\" \"%s\"\n", escapePropertyText(p.Key), escapePropertyText(p.Value))
	}
}

// escapePropertyText backslash-escapes quotes and backslashes so the text
// survives the round trip through quoted map strings. All other bytes pass
// through untouched.
func escapePropertyText(s string) string {
	if !strings.ContainsAny(s, "\"\\") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func (mw *mapWriter) writeGeometry(container Node) {
	for _, child := range container.Children() {
		switch n := child.(type) {
		case *BrushNode:
			mw.writeBrush(n.Brush())
		case *PatchNode:
			mw.writePatch(n.Patch())
		}
	}
}

func (mw *mapWriter) writeBrush(brush *Brush) {
	mw.printf("{\n")
	for i := range brush.Faces() {
		mw.writeFace(brush.Face(i))
	}
	mw.printf("}\n")
}

func (mw *mapWriter) writeFace(face *BrushFace) {
	for _, p := range face.Points {
		mw.printf("( %s %s %s ) ", formatCoord(p.X()), formatCoord(p.Y()), formatCoord(p.Z()))
	}
	mw.printf("%s", face.Attributes.Material)

	if mw.format.usesValveFaces() {
		axes := face.Attributes.Axes
		if axes == nil {
			defaults := defaultTextureAxes(face.Normal())
			defaults.UOffset = face.Attributes.XOffset
			defaults.VOffset = face.Attributes.YOffset
			axes = &defaults
		}
		mw.printf(" [ %s %s %s %s ] [ %s %s %s %s ]",
			formatCoord(axes.UAxis.X()), formatCoord(axes.UAxis.Y()), formatCoord(axes.UAxis.Z()), formatCoord(axes.UOffset),
			formatCoord(axes.VAxis.X()), formatCoord(axes.VAxis.Y()), formatCoord(axes.VAxis.Z()), formatCoord(axes.VOffset))
		mw.printf(" %s %s %s",
			formatCoord(face.Attributes.Rotation),
			formatCoord(face.Attributes.XScale),
			formatCoord(face.Attributes.YScale))
	} else {
		mw.printf(" %s %s %s %s %s",
			formatCoord(face.Attributes.XOffset),
			formatCoord(face.Attributes.YOffset),
			formatCoord(face.Attributes.Rotation),
			formatCoord(face.Attributes.XScale),
			formatCoord(face.Attributes.YScale))
		if mw.format == FormatQuake2 || (mw.format == FormatQuake3 && face.Attributes.Surface != nil) {
			surface := face.Attributes.Surface
			if surface == nil {
				surface = &SurfaceAttributes{}
			}
			mw.printf(" %d %d %s", surface.Contents, surface.Flags, formatCoord(surface.Value))
		}
	}
	mw.printf("\n")
}

func (mw *mapWriter) writePatch(patch *BezierPatch) {
	mw.printf("{\npatchDef2\n{\n")
	mw.printf("%s\n", patch.Material())
	mw.printf("( %d %d 0 0 0 )\n", patch.Rows(), patch.Cols())
	mw.printf("(\n")
	for r := 0; r < patch.Rows(); r++ {
		mw.printf("(")
		for c := 0; c < patch.Cols(); c++ {
			cp := patch.ControlPoint(r, c)
			mw.printf(" ( %s %s %s %s %s )",
				formatCoord(cp.Position.X()), formatCoord(cp.Position.Y()), formatCoord(cp.Position.Z()),
				formatCoord(cp.U), formatCoord(cp.V))
		}
		mw.printf(" )\n")
	}
	mw.printf(")\n")
	mw.printf("}\n}\n")
}
