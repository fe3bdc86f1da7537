package mapdraft

// linkedSiblings returns every other group below root that shares the given
// group's link id. A non-empty result means the group is a linked instance.
func linkedSiblings(root Node, group *GroupNode) []*GroupNode {
	var out []*GroupNode
	eachDescendant(root, func(n Node) bool {
		if g, ok := n.(*GroupNode); ok && g != group && g.LinkID() == group.LinkID() {
			out = append(out, g)
		}
		return true
	})
	return out
}

// containingLinkedGroup finds the nearest group at or above node that has at
// least one linked sibling below root.
func containingLinkedGroup(root Node, node Node) *GroupNode {
	for n := node; n != nil; n = n.Parent() {
		if group, ok := n.(*GroupNode); ok {
			if len(linkedSiblings(root, group)) > 0 {
				return group
			}
		}
	}
	return nil
}

// canUpdateLinkedGroups reports whether an edit touching exactly the given
// nodes can be propagated to linked siblings unambiguously: every changed
// node must live in one and the same linked group instance. A set spanning
// two instances of a family, or two different families, has no single
// propagation source.
func canUpdateLinkedGroups(root Node, changed []Node) bool {
	if len(changed) == 0 {
		return false
	}
	var source *GroupNode
	for _, node := range changed {
		group := containingLinkedGroup(root, node)
		if group == nil {
			return false
		}
		if source == nil {
			source = group
		} else if source != group {
			return false
		}
	}
	return true
}

// relativePathInGroup addresses node by its path inside its containing
// group, which is how an edit is retargeted onto a sibling instance.
func relativePathInGroup(group *GroupNode, node Node) (NodePath, error) {
	return node.PathFrom(group)
}

// cloneGroupContent deep-copies the children of source, the payload that
// gets replayed into each linked sibling.
func cloneGroupContent(source *GroupNode) []Node {
	children := source.Children()
	out := make([]Node, 0, len(children))
	for _, child := range children {
		out = append(out, child.CloneRecursively())
	}
	return out
}
