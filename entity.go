package mapdraft

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	PropertyClassname = "classname"
	PropertyOrigin    = "origin"
)

type EntityProperty struct {
	Key   string
	Value string
}

// Entity is a key/value property bag describing a game object. Property
// order is preserved for round-tripping.
type Entity struct {
	properties []EntityProperty
	definition *EntityDefinition
}

func MakeEntity(properties ...EntityProperty) Entity {
	return Entity{properties: properties}
}

func (e *Entity) Properties() []EntityProperty {
	out := make([]EntityProperty, len(e.properties))
	copy(out, e.properties)
	return out
}

func (e *Entity) Property(key string) (string, bool) {
	for _, p := range e.properties {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

func (e *Entity) HasProperty(key string) bool {
	_, ok := e.Property(key)
	return ok
}

func (e *Entity) HasPropertyWithValue(key, value string) bool {
	v, ok := e.Property(key)
	return ok && v == value
}

// SetProperty overwrites an existing key in place or appends a new one.
func (e *Entity) SetProperty(key, value string) {
	for i := range e.properties {
		if e.properties[i].Key == key {
			e.properties[i].Value = value
			return
		}
	}
	e.properties = append(e.properties, EntityProperty{Key: key, Value: value})
}

// RemoveProperty deletes key if present and reports whether it was.
func (e *Entity) RemoveProperty(key string) bool {
	for i := range e.properties {
		if e.properties[i].Key == key {
			e.properties = append(e.properties[:i], e.properties[i+1:]...)
			return true
		}
	}
	return false
}

func (e *Entity) Classname() string {
	v, _ := e.Property(PropertyClassname)
	return v
}

// Origin parses the "origin" property; entities without one sit at zero.
func (e *Entity) Origin() mgl64.Vec3 {
	v, ok := e.Property(PropertyOrigin)
	if !ok {
		return mgl64.Vec3{}
	}
	origin, err := parseVec3(v)
	if err != nil {
		return mgl64.Vec3{}
	}
	return origin
}

func (e *Entity) SetOrigin(origin mgl64.Vec3) {
	e.SetProperty(PropertyOrigin, formatVec3(origin))
}

func (e *Entity) Definition() *EntityDefinition { return e.definition }

func (e *Entity) SetDefinition(definition *EntityDefinition) {
	e.definition = definition
}

func (e *Entity) clone() Entity {
	out := Entity{
		properties: make([]EntityProperty, len(e.properties)),
		definition: e.definition,
	}
	copy(out.properties, e.properties)
	return out
}

func parseVec3(s string) (mgl64.Vec3, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	var v mgl64.Vec3
	for i, f := range fields {
		c, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return mgl64.Vec3{}, err
		}
		v[i] = c
	}
	return v, nil
}

func formatVec3(v mgl64.Vec3) string {
	return fmt.Sprintf("%s %s %s", formatCoord(v.X()), formatCoord(v.Y()), formatCoord(v.Z()))
}

func formatCoord(c float64) string {
	return strconv.FormatFloat(c, 'f', -1, 64)
}

// PropertyDefinition describes one property an entity definition declares.
// Properties with a default value participate in SetDefaultProperties.
type PropertyDefinition struct {
	Key          string
	ShortDesc    string
	LongDesc     string
	ReadOnly     bool
	DefaultValue string
	HasDefault   bool
}

// EntityDefinition describes an entity class from a game's definition file.
// Point definitions carry placement bounds; brush definitions do not.
type EntityDefinition struct {
	Name        string
	Description string
	Point       bool
	Bounds      BBox
	Properties  []*PropertyDefinition
}

func NewPointEntityDefinition(name, description string, bounds BBox, properties ...*PropertyDefinition) *EntityDefinition {
	return &EntityDefinition{
		Name:        name,
		Description: description,
		Point:       true,
		Bounds:      bounds,
		Properties:  properties,
	}
}

func NewBrushEntityDefinition(name, description string, properties ...*PropertyDefinition) *EntityDefinition {
	return &EntityDefinition{
		Name:        name,
		Description: description,
		Properties:  properties,
	}
}

func (d *EntityDefinition) defaultProperties() []*PropertyDefinition {
	var out []*PropertyDefinition
	for _, p := range d.Properties {
		if p.HasDefault {
			out = append(out, p)
		}
	}
	return out
}

// SetDefaultPropertyMode selects how declared default values are applied to
// an entity's existing property bag.
type SetDefaultPropertyMode int

const (
	// SetExisting overwrites declared defaults the entity already has.
	SetExisting SetDefaultPropertyMode = iota
	// SetMissing adds declared defaults the entity does not have yet.
	SetMissing
	// SetAll overwrites existing declared defaults and adds missing ones.
	SetAll
)

// applyDefaultProperties applies the entity definition's defaults to entity
// according to mode. Keys not declared as defaults are never touched.
func applyDefaultProperties(entity *Entity, mode SetDefaultPropertyMode) {
	def := entity.Definition()
	if def == nil {
		return
	}
	for _, prop := range def.defaultProperties() {
		exists := entity.HasProperty(prop.Key)
		switch mode {
		case SetExisting:
			if exists {
				entity.SetProperty(prop.Key, prop.DefaultValue)
			}
		case SetMissing:
			if !exists {
				entity.SetProperty(prop.Key, prop.DefaultValue)
			}
		case SetAll:
			entity.SetProperty(prop.Key, prop.DefaultValue)
		}
	}
}

// EntityNode owns an Entity value. Point entities stand alone; brush
// entities contain their brushes as children.
type EntityNode struct {
	nodeBase
	entity Entity
}

func NewEntityNode(entity Entity) *EntityNode {
	n := &EntityNode{entity: entity}
	n.self = n
	return n
}

func (n *EntityNode) Entity() *Entity { return &n.entity }

// SetEntity replaces the node's entity value, invalidating cached bounds
// since the origin may have moved.
func (n *EntityNode) SetEntity(entity Entity) {
	n.entity = entity
	n.invalidateBounds()
}

func (n *EntityNode) ownBounds() BBox {
	if n.hasBrushChildren() {
		return emptyBBox()
	}
	if n.entity.HasProperty(PropertyOrigin) {
		origin := n.entity.Origin()
		if def := n.entity.Definition(); def != nil && def.Point && !def.Bounds.Empty() {
			return def.Bounds.Translate(origin)
		}
		return BBox{Min: origin, Max: origin}
	}
	return emptyBBox()
}

func (n *EntityNode) cloneShallow() Node {
	return NewEntityNode(n.entity.clone())
}

// hasBrushChildren distinguishes a brush entity from a point entity.
func (n *EntityNode) hasBrushChildren() bool {
	for _, child := range n.children {
		if _, ok := child.(*BrushNode); ok {
			return true
		}
	}
	return false
}
