package mapdraft

// EntityPropertyConfig is the per-game entity property behavior carried by
// the world node.
type EntityPropertyConfig struct {
	// SetDefaultProperties makes newly created entities start out with the
	// default values their definition declares.
	SetDefaultProperties bool
}

// WorldNode is the root of a map document's node hierarchy. Its children
// are layers: exactly one default layer plus any custom layers. The
// worldspawn entity's properties live on the world itself.
type WorldNode struct {
	nodeBase
	format         MapFormat
	propertyConfig EntityPropertyConfig
	entity         Entity
}

func NewWorldNode(propertyConfig EntityPropertyConfig, entity Entity, format MapFormat) *WorldNode {
	if !entity.HasProperty(PropertyClassname) {
		entity.SetProperty(PropertyClassname, "worldspawn")
	}
	n := &WorldNode{
		format:         format,
		propertyConfig: propertyConfig,
		entity:         entity,
	}
	n.self = n
	n.AddChild(newDefaultLayerNode())
	return n
}

func (n *WorldNode) MapFormat() MapFormat { return n.format }

func (n *WorldNode) EntityPropertyConfig() EntityPropertyConfig { return n.propertyConfig }

func (n *WorldNode) Entity() *Entity { return &n.entity }

func (n *WorldNode) DefaultLayer() *LayerNode {
	for _, child := range n.children {
		if layer, ok := child.(*LayerNode); ok && layer.IsDefaultLayer() {
			return layer
		}
	}
	return nil
}

func (n *WorldNode) CustomLayers() []*LayerNode {
	var out []*LayerNode
	for _, child := range n.children {
		if layer, ok := child.(*LayerNode); ok && !layer.IsDefaultLayer() {
			out = append(out, layer)
		}
	}
	return out
}

func (n *WorldNode) AllLayers() []*LayerNode {
	var out []*LayerNode
	for _, child := range n.children {
		if layer, ok := child.(*LayerNode); ok {
			out = append(out, layer)
		}
	}
	return out
}

func (n *WorldNode) ownBounds() BBox { return emptyBBox() }

func (n *WorldNode) cloneShallow() Node {
	clone := &WorldNode{
		format:         n.format,
		propertyConfig: n.propertyConfig,
		entity:         n.entity.clone(),
	}
	clone.self = clone
	return clone
}
