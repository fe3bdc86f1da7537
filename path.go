package mapdraft

// NodePath addresses a node relative to a root as the sequence of child
// indices taken at every tree level. Paths are positional: they stay valid
// only as long as the tree shape between root and target does not change,
// and they are not a persistent cross-session identifier.
type NodePath []int

func (p NodePath) Clone() NodePath {
	if p == nil {
		return nil
	}
	out := make(NodePath, len(p))
	copy(out, p)
	return out
}

func (p NodePath) Equals(o NodePath) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// RelativeTo strips prefix from p. The second return is false when p does
// not start with prefix.
func (p NodePath) RelativeTo(prefix NodePath) (NodePath, bool) {
	if len(prefix) > len(p) {
		return nil, false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return nil, false
		}
	}
	return p[len(prefix):].Clone(), true
}

func reversePath(p NodePath) {
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
}
