package mapdraft

import (
	"fmt"
)

// Node is the closed set of map elements: WorldNode, LayerNode, GroupNode,
// EntityNode, BrushNode and PatchNode. Variant behavior is dispatched with
// type switches; the shared tree mechanics live in nodeBase.
type Node interface {
	Parent() Node
	Children() []Node
	ChildCount() int
	AddChild(child Node)
	AddChildren(children ...Node)
	RemoveChild(child Node)
	Bounds() BBox
	FilePosition() (line, span int)
	SetFilePosition(line, span int)
	ContainsLine(line int) bool
	PathFrom(ancestor Node) (NodePath, error)
	ResolvePath(path NodePath) (Node, error)
	CloneRecursively() Node

	base() *nodeBase
	// ownBounds is the node's own geometry, without descendants.
	ownBounds() BBox
	// cloneShallow copies the variant payload without parent or children.
	cloneShallow() Node
}

type nodeBase struct {
	// self points back at the outer variant so that shared tree mechanics
	// can hand out and store properly typed references.
	self     Node
	parent   Node
	children []Node

	line     int
	lineSpan int

	hidden bool
	locked bool

	bounds      BBox
	boundsValid bool
}

func (n *nodeBase) base() *nodeBase { return n }

func (n *nodeBase) Parent() Node { return n.parent }

func (n *nodeBase) Children() []Node { return n.children }

func (n *nodeBase) ChildCount() int { return len(n.children) }

// AddChild attaches child to this node, transferring ownership. The child
// must not currently have a parent.
func (n *nodeBase) AddChild(child Node) {
	cb := child.base()
	if cb.parent != nil {
		panic("node already has a parent")
	}
	cb.parent = n.self
	n.children = append(n.children, child)
	n.invalidateBounds()
}

func (n *nodeBase) AddChildren(children ...Node) {
	for _, child := range children {
		n.AddChild(child)
	}
}

// RemoveChild detaches child, leaving it parentless. Removing a node that is
// not a child is a programmer error.
func (n *nodeBase) RemoveChild(child Node) {
	idx := n.indexOfChild(child)
	if idx < 0 {
		panic("node is not a child of this node")
	}
	n.children = append(n.children[:idx], n.children[idx+1:]...)
	child.base().parent = nil
	n.invalidateBounds()
}

// insertChild attaches child at index idx, shifting later siblings. Used to
// restore a removed node to its original position.
func (n *nodeBase) insertChild(idx int, child Node) {
	cb := child.base()
	if cb.parent != nil {
		panic("node already has a parent")
	}
	if idx < 0 || idx > len(n.children) {
		panic("child index out of range")
	}
	cb.parent = n.self
	n.children = append(n.children, nil)
	copy(n.children[idx+1:], n.children[idx:])
	n.children[idx] = child
	n.invalidateBounds()
}

func (n *nodeBase) indexOfChild(child Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// Bounds returns the union of the node's own geometry and all descendants,
// recomputing the cached value if a structural edit invalidated it.
func (n *nodeBase) Bounds() BBox {
	if !n.boundsValid {
		box := n.self.ownBounds()
		for _, child := range n.children {
			box = box.Union(child.Bounds())
		}
		n.bounds = box
		n.boundsValid = true
	}
	return n.bounds
}

// invalidateBounds clears the cached bounds on this node and every ancestor.
func (n *nodeBase) invalidateBounds() {
	for node := n.self; node != nil; node = node.Parent() {
		node.base().boundsValid = false
	}
}

func (n *nodeBase) FilePosition() (line, span int) {
	return n.line, n.lineSpan
}

func (n *nodeBase) SetFilePosition(line, span int) {
	n.line = line
	n.lineSpan = span
}

// ContainsLine reports whether the node's recorded source span covers line.
// Nodes without a recorded position never match.
func (n *nodeBase) ContainsLine(line int) bool {
	return n.lineSpan > 0 && line >= n.line && line < n.line+n.lineSpan
}

func (n *nodeBase) hasFilePosition() bool { return n.lineSpan > 0 }

// PathFrom walks from ancestor down to this node and records the child index
// taken at every level. The result is stable only until the next structural
// mutation.
func (n *nodeBase) PathFrom(ancestor Node) (NodePath, error) {
	var path NodePath
	node := n.self
	for node != ancestor {
		parent := node.Parent()
		if parent == nil {
			return nil, fmt.Errorf("node is not a descendant of the given ancestor")
		}
		idx := parent.base().indexOfChild(node)
		if idx < 0 {
			return nil, fmt.Errorf("inconsistent parent link")
		}
		path = append(path, idx)
		node = parent
	}
	reversePath(path)
	return path, nil
}

// ResolvePath is the inverse of PathFrom, evaluated against the current tree
// shape. Any out-of-range index fails resolution.
func (n *nodeBase) ResolvePath(path NodePath) (Node, error) {
	node := n.self
	for depth, idx := range path {
		children := node.Children()
		if idx < 0 || idx >= len(children) {
			return nil, fmt.Errorf("path index %d out of range at depth %d", idx, depth)
		}
		node = children[idx]
	}
	return node, nil
}

// CloneRecursively deep-copies the subtree rooted at this node. The clone has
// no parent until attached. Group link identity is shared between original
// and clone, which is how linked-group instances come to exist.
func (n *nodeBase) CloneRecursively() Node {
	clone := n.self.cloneShallow()
	cb := clone.base()
	cb.line = n.line
	cb.lineSpan = n.lineSpan
	cb.hidden = n.hidden
	cb.locked = n.locked
	for _, child := range n.children {
		clone.AddChild(child.CloneRecursively())
	}
	return clone
}

// eachDescendant visits every node strictly below n in depth-first order.
// The visitor returns false to stop the walk early.
func eachDescendant(n Node, visit func(Node) bool) bool {
	for _, child := range n.Children() {
		if !visit(child) {
			return false
		}
		if !eachDescendant(child, visit) {
			return false
		}
	}
	return true
}

// isDescendantOf reports whether n is strictly below ancestor.
func isDescendantOf(n, ancestor Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p == ancestor {
			return true
		}
	}
	return false
}

// rootOf walks up to the tree root.
func rootOf(n Node) Node {
	node := n
	for node.Parent() != nil {
		node = node.Parent()
	}
	return node
}
