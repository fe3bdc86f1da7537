package mapdraft

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkedSiblings(t *testing.T) {
	world := NewWorldNode(EntityPropertyConfig{}, MakeEntity(), FormatStandard)
	layer := world.DefaultLayer()

	group := NewGroupNode("a")
	layer.AddChild(group)
	assert.Empty(t, linkedSiblings(world, group))

	linked := group.CloneRecursively().(*GroupNode)
	layer.AddChild(linked)
	assert.Equal(t, []*GroupNode{linked}, linkedSiblings(world, group))
	assert.Equal(t, []*GroupNode{group}, linkedSiblings(world, linked))

	unrelated := NewGroupNode("b")
	layer.AddChild(unrelated)
	assert.Empty(t, linkedSiblings(world, unrelated))
}

func TestContainingLinkedGroup(t *testing.T) {
	world := NewWorldNode(EntityPropertyConfig{}, MakeEntity(), FormatStandard)
	layer := world.DefaultLayer()

	group := NewGroupNode("a")
	entity := NewEntityNode(MakeEntity(EntityProperty{Key: PropertyClassname, Value: "light"}))
	group.AddChild(entity)
	layer.AddChild(group)

	// Not linked yet.
	assert.Nil(t, containingLinkedGroup(world, entity))

	linked := group.CloneRecursively().(*GroupNode)
	layer.AddChild(linked)
	assert.Equal(t, group, containingLinkedGroup(world, entity))
	assert.Equal(t, group, containingLinkedGroup(world, group))
	assert.Equal(t, linked, containingLinkedGroup(world, linked.Children()[0]))

	loose := NewEntityNode(MakeEntity(EntityProperty{Key: PropertyClassname, Value: "light"}))
	layer.AddChild(loose)
	assert.Nil(t, containingLinkedGroup(world, loose))
}

func TestRelativePathInGroup(t *testing.T) {
	group := NewGroupNode("a")
	inner := NewGroupNode("inner")
	entity := NewEntityNode(MakeEntity(EntityProperty{Key: PropertyClassname, Value: "light"}))
	inner.AddChild(entity)
	group.AddChild(inner)

	path, err := relativePathInGroup(group, entity)
	require.NoError(t, err)
	assert.Equal(t, NodePath{0, 0}, path)

	// The same path addresses the matching node in a linked instance.
	linked := group.CloneRecursively().(*GroupNode)
	resolved, err := linked.ResolvePath(path)
	require.NoError(t, err)
	mirrored, ok := resolved.(*EntityNode)
	require.True(t, ok)
	assert.Equal(t, "light", mirrored.Entity().Classname())
}

func TestCloneGroupContent(t *testing.T) {
	group := NewGroupNode("a")
	entity := NewEntityNode(MakeEntity(EntityProperty{Key: PropertyClassname, Value: "light"}))
	group.AddChild(entity)

	content := cloneGroupContent(group)
	require.Len(t, content, 1)
	assert.NotSame(t, Node(entity), content[0])
	assert.Nil(t, content[0].Parent())
	assert.Equal(t, 1, group.ChildCount())
}
