package mapdraft

// LayerNode is a pure container partitioning the map at the top level.
// Every world has exactly one default layer plus any number of custom
// layers.
type LayerNode struct {
	nodeBase
	name         string
	defaultLayer bool
}

func NewLayerNode(name string) *LayerNode {
	n := &LayerNode{name: name}
	n.self = n
	return n
}

func newDefaultLayerNode() *LayerNode {
	n := NewLayerNode("Default Layer")
	n.defaultLayer = true
	return n
}

func (n *LayerNode) Name() string { return n.name }

func (n *LayerNode) SetName(name string) { n.name = name }

func (n *LayerNode) IsDefaultLayer() bool { return n.defaultLayer }

func (n *LayerNode) ownBounds() BBox { return emptyBBox() }

func (n *LayerNode) cloneShallow() Node {
	clone := NewLayerNode(n.name)
	clone.defaultLayer = n.defaultLayer
	return clone
}
