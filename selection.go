package mapdraft

// Selection tracks the currently selected nodes in insertion order together
// with the stack of open groups. Opening a group makes its contents
// individually addressable; everything outside the innermost open group is
// off limits for positional selection.
type Selection struct {
	nodes      []Node
	selected   map[Node]struct{}
	openGroups []*GroupNode
}

func MakeSelection() Selection {
	return Selection{selected: make(map[Node]struct{})}
}

func (s *Selection) Nodes() []Node {
	out := make([]Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

func (s *Selection) IsSelected(node Node) bool {
	_, ok := s.selected[node]
	return ok
}

func (s *Selection) HasSelection() bool { return len(s.nodes) > 0 }

// selectNodes extends the selection; duplicates collapse, order is the
// insertion order of the calls.
func (s *Selection) selectNodes(nodes []Node) {
	for _, node := range nodes {
		if _, ok := s.selected[node]; ok {
			continue
		}
		s.selected[node] = struct{}{}
		s.nodes = append(s.nodes, node)
	}
}

func (s *Selection) deselectNodes(nodes []Node) {
	for _, node := range nodes {
		if _, ok := s.selected[node]; !ok {
			continue
		}
		delete(s.selected, node)
		for i, sel := range s.nodes {
			if sel == node {
				s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
				break
			}
		}
	}
}

func (s *Selection) deselectAll() {
	s.nodes = nil
	s.selected = make(map[Node]struct{})
}

func (s *Selection) CurrentGroup() *GroupNode {
	if len(s.openGroups) == 0 {
		return nil
	}
	return s.openGroups[len(s.openGroups)-1]
}

func (s *Selection) openGroup(group *GroupNode) {
	s.openGroups = append(s.openGroups, group)
}

func (s *Selection) closeGroup() *GroupNode {
	if len(s.openGroups) == 0 {
		return nil
	}
	group := s.openGroups[len(s.openGroups)-1]
	s.openGroups = s.openGroups[:len(s.openGroups)-1]
	return group
}

// AllBrushNodes flattens the selection down to brush nodes: selected
// brushes directly, plus every brush inside a selected container, without
// duplicates.
func (s *Selection) AllBrushNodes() []*BrushNode {
	var out []*BrushNode
	seen := make(map[*BrushNode]struct{})
	add := func(brush *BrushNode) {
		if _, ok := seen[brush]; ok {
			return
		}
		seen[brush] = struct{}{}
		out = append(out, brush)
	}
	for _, node := range s.nodes {
		switch n := node.(type) {
		case *BrushNode:
			add(n)
		case *EntityNode, *GroupNode, *LayerNode, *WorldNode:
			eachDescendant(n, func(d Node) bool {
				if brush, ok := d.(*BrushNode); ok {
					add(brush)
				}
				return true
			})
		}
	}
	return out
}

// HasAnyBrushNodes is AllBrushNodes without materializing the set; it stops
// at the first brush it can reach.
func (s *Selection) HasAnyBrushNodes() bool {
	for _, node := range s.nodes {
		switch n := node.(type) {
		case *BrushNode:
			return true
		case *EntityNode, *GroupNode, *LayerNode, *WorldNode:
			found := false
			eachDescendant(n, func(d Node) bool {
				if _, ok := d.(*BrushNode); ok {
					found = true
					return false
				}
				return true
			})
			if found {
				return true
			}
		}
	}
	return false
}

// AllEntityNodes returns the entity nodes reachable from the selection:
// entities selected directly, entities inside selected containers, and the
// containing entity of any selected brush, deduplicated.
func (s *Selection) AllEntityNodes() []*EntityNode {
	var out []*EntityNode
	seen := make(map[*EntityNode]struct{})
	add := func(entity *EntityNode) {
		if _, ok := seen[entity]; ok {
			return
		}
		seen[entity] = struct{}{}
		out = append(out, entity)
	}
	for _, node := range s.nodes {
		switch n := node.(type) {
		case *EntityNode:
			add(n)
		case *BrushNode:
			if entity, ok := n.Parent().(*EntityNode); ok {
				add(entity)
			}
		case *GroupNode, *LayerNode, *WorldNode:
			eachDescendant(n, func(d Node) bool {
				if entity, ok := d.(*EntityNode); ok {
					add(entity)
				}
				return true
			})
		}
	}
	return out
}

// nodesWithFilePosition resolves source lines to selectable nodes below
// scope. A closed group swallows every line its span covers. A brush entity
// hit on its own span resolves to the child nodes covering the line, or to
// all of its children when none cover it; a childless entity resolves to
// itself.
func nodesWithFilePosition(scope Node, lines []int) []Node {
	var out []Node
	seen := make(map[Node]struct{})
	add := func(node Node) {
		if _, ok := seen[node]; ok {
			return
		}
		seen[node] = struct{}{}
		out = append(out, node)
	}
	for _, line := range lines {
		collectNodesAtLine(scope, line, add)
	}
	return out
}

func collectNodesAtLine(container Node, line int, add func(Node)) {
	for _, child := range container.Children() {
		switch c := child.(type) {
		case *LayerNode:
			// Layers are not selectable themselves. Descend when the layer
			// covers the line, or has no recorded span at all.
			if !c.base().hasFilePosition() || c.ContainsLine(line) {
				collectNodesAtLine(c, line, add)
			}
		case *GroupNode:
			if c.ContainsLine(line) {
				add(c)
			}
		case *EntityNode:
			if !c.ContainsLine(line) {
				continue
			}
			matched := false
			for _, grandchild := range c.Children() {
				if grandchild.ContainsLine(line) {
					add(grandchild)
					matched = true
				}
			}
			if matched {
				continue
			}
			if c.ChildCount() > 0 {
				for _, grandchild := range c.Children() {
					add(grandchild)
				}
			} else {
				add(c)
			}
		case *BrushNode, *PatchNode:
			if c.ContainsLine(line) {
				add(c)
			}
		}
	}
}
