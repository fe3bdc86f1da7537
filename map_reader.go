package mapdraft

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Reserved classnames and properties representing layers, groups and their
// linkage in map text.
const (
	classnameWorldspawn = "worldspawn"
	classnameGroup      = "func_group"

	propTBType   = "_tb_type"
	propTBName   = "_tb_name"
	propTBID     = "_tb_id"
	propTBLayer  = "_tb_layer"
	propTBGroup  = "_tb_group"
	propTBLinkID = "_tb_linked_group_id"

	tbTypeLayer = "_tb_layer"
	tbTypeGroup = "_tb_group"
)

// ParseError is a failure at a specific line of one parse attempt. Conflict
// marks the mixed-format condition: face syntax belonging to a different
// format than the one being parsed.
type ParseError struct {
	Format   MapFormat
	Line     int
	Msg      string
	Conflict bool
}

func (e *ParseError) Error() string {
	if e.Conflict {
		return fmt.Sprintf("line %d: %s (conflicts with format %s)", e.Line, e.Msg, e.Format)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// FormatError pairs a parse attempt's format with its failure.
type FormatError struct {
	Format MapFormat
	Err    error
}

// WorldReaderError aggregates the failures of every attempted format when
// none of them could parse the input.
type WorldReaderError struct {
	Attempts []FormatError
}

func (e *WorldReaderError) Error() string {
	var sb strings.Builder
	if e.MixedFormat() {
		sb.WriteString("map file mixes brush formats")
	} else {
		sb.WriteString("unable to parse map file")
	}
	for _, attempt := range e.Attempts {
		fmt.Fprintf(&sb, "; %s: %v", attempt.Format, attempt.Err)
	}
	return sb.String()
}

// MixedFormat reports whether any attempt failed because it observed brush
// syntax of another format, distinguishing mixed input from plain garbage.
func (e *WorldReaderError) MixedFormat() bool {
	for _, attempt := range e.Attempts {
		if pe, ok := attempt.Err.(*ParseError); ok && pe.Conflict {
			return true
		}
	}
	return false
}

// TryReadWorld parses text as each of the given formats in order and
// returns the first world that parses completely. When every format fails,
// the per-format errors are aggregated into a WorldReaderError.
func TryReadWorld(text string, formats []MapFormat, worldBounds BBox, cfg EntityPropertyConfig) (*WorldNode, error) {
	var attempts []FormatError
	for _, format := range formats {
		if format == FormatUnknown {
			continue
		}
		world, err := ReadWorld(text, format, worldBounds, cfg)
		if err == nil {
			return world, nil
		}
		attempts = append(attempts, FormatError{Format: format, Err: err})
	}
	if len(attempts) == 0 {
		return nil, fmt.Errorf("no map formats to try")
	}
	return nil, &WorldReaderError{Attempts: attempts}
}

// ReadWorld parses text as the given format and builds the node hierarchy:
// the world root first, then layers as world children, and everything else
// below its immediate parent. Top-level nodes without explicit layer or
// group linkage land in the default layer.
func ReadWorld(text string, format MapFormat, worldBounds BBox, cfg EntityPropertyConfig) (*WorldNode, error) {
	if format == FormatUnknown {
		return nil, fmt.Errorf("cannot read a map without a concrete format")
	}
	parser := &mapParser{tok: newTokenizer(text), format: format}
	entities, err := parser.parse()
	if err != nil {
		return nil, err
	}
	return buildWorld(entities, format, worldBounds, cfg)
}

// parsedEntity is one bracketed block: its key/value properties plus the
// brush and patch nodes nested in it, with file positions recorded.
type parsedEntity struct {
	properties []EntityProperty
	children   []Node
	line       int
	span       int
}

func (e *parsedEntity) property(key string) (string, bool) {
	for _, p := range e.properties {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

func (e *parsedEntity) classname() string {
	v, _ := e.property(PropertyClassname)
	return v
}

type mapParser struct {
	tok    *tokenizer
	format MapFormat
}

func (p *mapParser) errf(line int, format string, args ...any) *ParseError {
	return &ParseError{Format: p.format, Line: line, Msg: fmt.Sprintf(format, args...)}
}

func (p *mapParser) conflictf(line int, observed MapFormat) *ParseError {
	return &ParseError{
		Format:   p.format,
		Line:     line,
		Msg:      fmt.Sprintf("brush face uses %s syntax", observed),
		Conflict: true,
	}
}

func (p *mapParser) parse() ([]parsedEntity, error) {
	var entities []parsedEntity
	for {
		tok := p.tok.nextNonComment()
		switch tok.typ {
		case tokenEOF:
			return entities, nil
		case tokenOBrace:
			entity, err := p.parseEntity(tok.line)
			if err != nil {
				return nil, err
			}
			entities = append(entities, entity)
		default:
			return nil, p.errf(tok.line, "expected '{' or end of input, got %s", tok.typ)
		}
	}
}

func (p *mapParser) parseEntity(startLine int) (parsedEntity, error) {
	entity := parsedEntity{line: startLine}
	for {
		tok := p.tok.nextNonComment()
		switch tok.typ {
		case tokenString:
			value := p.tok.nextNonComment()
			if value.typ != tokenString && value.typ != tokenWord {
				return entity, p.errf(value.line, "expected property value, got %s", value.typ)
			}
			entity.properties = append(entity.properties, EntityProperty{Key: tok.text, Value: value.text})
		case tokenOBrace:
			child, err := p.parseBrushOrPatch(tok.line)
			if err != nil {
				return entity, err
			}
			entity.children = append(entity.children, child)
		case tokenCBrace:
			entity.span = tok.line - startLine + 1
			return entity, nil
		case tokenEOF:
			return entity, p.errf(tok.line, "unexpected end of input in entity")
		default:
			return entity, p.errf(tok.line, "expected property, brush or '}', got %s", tok.typ)
		}
	}
}

func (p *mapParser) parseBrushOrPatch(startLine int) (Node, error) {
	tok := p.tok.peekNonComment()
	if tok.typ == tokenWord && tok.text == "patchDef2" {
		if p.format != FormatQuake3 {
			return nil, p.errf(tok.line, "patches are not supported by format %s", p.format)
		}
		p.tok.nextNonComment()
		return p.parsePatch(startLine)
	}
	return p.parseBrush(startLine)
}

func (p *mapParser) parseBrush(startLine int) (Node, error) {
	var faces []BrushFace
	for {
		tok := p.tok.peekNonComment()
		switch tok.typ {
		case tokenOParen:
			face, err := p.parseFace()
			if err != nil {
				return nil, err
			}
			faces = append(faces, face)
		case tokenCBrace:
			end := p.tok.nextNonComment()
			node := NewBrushNode(MakeBrush(faces...))
			node.SetFilePosition(startLine, end.line-startLine+1)
			return node, nil
		case tokenEOF:
			return nil, p.errf(tok.line, "unexpected end of input in brush")
		default:
			return nil, p.errf(tok.line, "expected brush face or '}', got %s", tok.typ)
		}
	}
}

func (p *mapParser) parseFace() (BrushFace, error) {
	var face BrushFace
	for i := 0; i < 3; i++ {
		point, err := p.parsePoint()
		if err != nil {
			return face, err
		}
		face.Points[i] = point
	}

	material := p.tok.nextNonComment()
	if material.typ != tokenWord && material.typ != tokenString {
		return face, p.errf(material.line, "expected material name, got %s", material.typ)
	}
	face.Attributes.Material = material.text

	next := p.tok.peekNonComment()
	switch {
	case next.typ == tokenOBracket:
		// Valve texture axes.
		if !p.format.usesValveFaces() {
			return face, p.conflictf(next.line, FormatValve)
		}
		if err := p.parseValveAttributes(&face); err != nil {
			return face, err
		}
	case next.typ == tokenWord:
		// Paraxial offsets.
		if p.format.usesValveFaces() {
			return face, p.conflictf(next.line, FormatStandard)
		}
		if err := p.parseStandardAttributes(&face); err != nil {
			return face, err
		}
	default:
		return face, p.errf(next.line, "expected face attributes, got %s", next.typ)
	}
	return face, nil
}

func (p *mapParser) parsePoint() (mgl64.Vec3, error) {
	var point mgl64.Vec3
	if _, err := p.expect(tokenOParen); err != nil {
		return point, err
	}
	for i := 0; i < 3; i++ {
		v, err := p.parseNumber()
		if err != nil {
			return point, err
		}
		point[i] = v
	}
	if _, err := p.expect(tokenCParen); err != nil {
		return point, err
	}
	return point, nil
}

func (p *mapParser) parseStandardAttributes(face *BrushFace) error {
	values := make([]float64, 5)
	for i := range values {
		v, err := p.parseNumber()
		if err != nil {
			return err
		}
		values[i] = v
	}
	face.Attributes.XOffset = values[0]
	face.Attributes.YOffset = values[1]
	face.Attributes.Rotation = values[2]
	face.Attributes.XScale = values[3]
	face.Attributes.YScale = values[4]

	// Quake2 and Quake3 faces may carry a content/flags/value triple.
	if tok := p.tok.peekNonComment(); tok.typ == tokenWord {
		if p.format != FormatQuake2 && p.format != FormatQuake3 {
			return p.errf(tok.line, "unexpected extra face attributes in format %s", p.format)
		}
		contents, err := p.parseNumber()
		if err != nil {
			return err
		}
		flags, err := p.parseNumber()
		if err != nil {
			return err
		}
		value, err := p.parseNumber()
		if err != nil {
			return err
		}
		face.Attributes.Surface = &SurfaceAttributes{
			Contents: int64(contents),
			Flags:    int64(flags),
			Value:    value,
		}
	}
	return nil
}

func (p *mapParser) parseValveAttributes(face *BrushFace) error {
	axes := &TextureAxes{}
	var err error
	if axes.UAxis, axes.UOffset, err = p.parseTextureAxis(); err != nil {
		return err
	}
	if axes.VAxis, axes.VOffset, err = p.parseTextureAxis(); err != nil {
		return err
	}
	face.Attributes.Axes = axes

	if face.Attributes.Rotation, err = p.parseNumber(); err != nil {
		return err
	}
	if face.Attributes.XScale, err = p.parseNumber(); err != nil {
		return err
	}
	if face.Attributes.YScale, err = p.parseNumber(); err != nil {
		return err
	}
	return nil
}

func (p *mapParser) parseTextureAxis() (mgl64.Vec3, float64, error) {
	var axis mgl64.Vec3
	if _, err := p.expect(tokenOBracket); err != nil {
		return axis, 0, err
	}
	for i := 0; i < 3; i++ {
		v, err := p.parseNumber()
		if err != nil {
			return axis, 0, err
		}
		axis[i] = v
	}
	offset, err := p.parseNumber()
	if err != nil {
		return axis, 0, err
	}
	if _, err := p.expect(tokenCBracket); err != nil {
		return axis, 0, err
	}
	return axis, offset, nil
}

func (p *mapParser) parsePatch(braceLine int) (Node, error) {
	if _, err := p.expect(tokenOBrace); err != nil {
		return nil, err
	}

	material := p.tok.nextNonComment()
	if material.typ != tokenWord && material.typ != tokenString {
		return nil, p.errf(material.line, "expected patch material, got %s", material.typ)
	}

	// ( rows cols contents flags value ); the trailing three are optional.
	if _, err := p.expect(tokenOParen); err != nil {
		return nil, err
	}
	var dims []float64
	for {
		tok := p.tok.peekNonComment()
		if tok.typ == tokenCParen {
			p.tok.nextNonComment()
			break
		}
		v, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		dims = append(dims, v)
	}
	if len(dims) < 2 {
		return nil, p.errf(material.line, "patch dimensions need at least rows and columns")
	}
	rows, cols := int(dims[0]), int(dims[1])

	if _, err := p.expect(tokenOParen); err != nil {
		return nil, err
	}
	points := make([]PatchPoint, 0, rows*cols)
	for r := 0; r < rows; r++ {
		if _, err := p.expect(tokenOParen); err != nil {
			return nil, err
		}
		for c := 0; c < cols; c++ {
			point, err := p.parsePatchPoint()
			if err != nil {
				return nil, err
			}
			points = append(points, point)
		}
		if _, err := p.expect(tokenCParen); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(tokenCParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokenCBrace); err != nil {
		return nil, err
	}
	end, err := p.expect(tokenCBrace)
	if err != nil {
		return nil, err
	}

	patch, err := MakeBezierPatch(rows, cols, points, material.text)
	if err != nil {
		return nil, p.errf(material.line, "%v", err)
	}
	node := NewPatchNode(patch)
	node.SetFilePosition(braceLine, end.line-braceLine+1)
	return node, nil
}

func (p *mapParser) parsePatchPoint() (PatchPoint, error) {
	var point PatchPoint
	if _, err := p.expect(tokenOParen); err != nil {
		return point, err
	}
	values := make([]float64, 5)
	for i := range values {
		v, err := p.parseNumber()
		if err != nil {
			return point, err
		}
		values[i] = v
	}
	if _, err := p.expect(tokenCParen); err != nil {
		return point, err
	}
	point.Position = mgl64.Vec3{values[0], values[1], values[2]}
	point.U = values[3]
	point.V = values[4]
	return point, nil
}

func (p *mapParser) expect(typ tokenType) (token, error) {
	tok := p.tok.nextNonComment()
	if tok.typ != typ {
		return tok, p.errf(tok.line, "expected %s, got %s", typ, tok.typ)
	}
	return tok, nil
}

func (p *mapParser) parseNumber() (float64, error) {
	tok := p.tok.nextNonComment()
	if tok.typ != tokenWord {
		return 0, p.errf(tok.line, "expected number, got %s", tok.typ)
	}
	v, err := strconv.ParseFloat(tok.text, 64)
	if err != nil {
		return 0, p.errf(tok.line, "invalid number %q", tok.text)
	}
	return v, nil
}

// buildWorld turns parsed entity blocks into the node hierarchy.
func buildWorld(entities []parsedEntity, format MapFormat, worldBounds BBox, cfg EntityPropertyConfig) (*WorldNode, error) {
	var worldEntity Entity
	var worldBlock *parsedEntity
	for i := range entities {
		if entities[i].classname() == classnameWorldspawn {
			worldBlock = &entities[i]
			break
		}
	}
	if worldBlock != nil {
		worldEntity = MakeEntity(stripReservedProperties(worldBlock.properties)...)
	}

	world := NewWorldNode(cfg, worldEntity, format)
	defaultLayer := world.DefaultLayer()
	if worldBlock != nil {
		world.SetFilePosition(worldBlock.line, worldBlock.span)
	}

	// First pass: create layer and group nodes so linkage properties can be
	// resolved regardless of declaration order. Nodes are tracked by block
	// index as well, since a block may lack a usable id.
	layers := make(map[string]*LayerNode)
	groups := make(map[string]*GroupNode)
	layerAt := make(map[int]*LayerNode)
	groupAt := make(map[int]*GroupNode)
	for i := range entities {
		block := &entities[i]
		switch classifyBlock(block) {
		case blockLayer:
			name, _ := block.property(propTBName)
			layer := NewLayerNode(name)
			layer.SetFilePosition(block.line, block.span)
			layerAt[i] = layer
			if id, ok := block.property(propTBID); ok {
				layers[id] = layer
			}
			world.AddChild(layer)
		case blockGroup:
			name, _ := block.property(propTBName)
			group := NewGroupNode(name)
			group.SetFilePosition(block.line, block.span)
			groupAt[i] = group
			if id, ok := block.property(propTBID); ok {
				groups[id] = group
			}
			if linkID, ok := block.property(propTBLinkID); ok {
				group.setLinkID(linkID)
			}
		}
	}

	resolveParent := func(block *parsedEntity) Node {
		if id, ok := block.property(propTBGroup); ok {
			if group, ok := groups[id]; ok {
				return group
			}
		}
		if id, ok := block.property(propTBLayer); ok {
			if layer, ok := layers[id]; ok {
				return layer
			}
		}
		return defaultLayer
	}

	// Second pass: attach everything in file order.
	for i := range entities {
		block := &entities[i]
		switch classifyBlock(block) {
		case blockWorld:
			defaultLayer.AddChildren(block.children...)
		case blockLayer:
			layerAt[i].AddChildren(block.children...)
		case blockGroup:
			group := groupAt[i]
			resolveParent(block).AddChild(group)
			group.AddChildren(block.children...)
		case blockEntity:
			node := NewEntityNode(MakeEntity(stripReservedProperties(block.properties)...))
			node.SetFilePosition(block.line, block.span)
			node.AddChildren(block.children...)
			resolveParent(block).AddChild(node)
		}
	}

	return world, nil
}

type entityBlockKind int

const (
	blockWorld entityBlockKind = iota
	blockLayer
	blockGroup
	blockEntity
)

func classifyBlock(block *parsedEntity) entityBlockKind {
	if block.classname() == classnameWorldspawn {
		return blockWorld
	}
	if block.classname() == classnameGroup {
		switch tbType, _ := block.property(propTBType); tbType {
		case tbTypeLayer:
			return blockLayer
		case tbTypeGroup:
			return blockGroup
		}
	}
	return blockEntity
}

// stripReservedProperties drops the structural bookkeeping properties; the
// writer regenerates them from the tree.
func stripReservedProperties(properties []EntityProperty) []EntityProperty {
	var out []EntityProperty
	for _, p := range properties {
		switch p.Key {
		case propTBType, propTBName, propTBID, propTBLayer, propTBGroup, propTBLinkID:
			continue
		}
		out = append(out, p)
	}
	return out
}
