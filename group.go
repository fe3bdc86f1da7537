package mapdraft

import (
	"github.com/google/uuid"
)

// GroupNode is a named container. Every group carries a link id from birth;
// two distinct groups sharing a link id are linked instances of each other
// and edit in unison.
type GroupNode struct {
	nodeBase
	name   string
	linkID string
}

func NewGroupNode(name string) *GroupNode {
	n := &GroupNode{name: name, linkID: uuid.NewString()}
	n.self = n
	return n
}

func (n *GroupNode) Name() string { return n.name }

func (n *GroupNode) SetName(name string) { n.name = name }

func (n *GroupNode) LinkID() string { return n.linkID }

func (n *GroupNode) setLinkID(id string) { n.linkID = id }

func (n *GroupNode) ownBounds() BBox { return emptyBBox() }

// cloneShallow keeps the link id, so a recursive clone becomes a linked
// instance of the original.
func (n *GroupNode) cloneShallow() Node {
	clone := NewGroupNode(n.name)
	clone.linkID = n.linkID
	return clone
}
