package mapdraft

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTestBrushNode(t *testing.T, box BBox) *BrushNode {
	t.Helper()
	builder := NewBrushBuilder(FormatStandard, MakeBBox(8192))
	brush, err := builder.CreateCuboid(box, "base")
	require.NoError(t, err)
	return NewBrushNode(brush)
}

func TestNodeAddRemoveChild(t *testing.T) {
	world := NewWorldNode(EntityPropertyConfig{}, MakeEntity(), FormatStandard)
	layer := world.DefaultLayer()
	require.NotNil(t, layer)

	brush := makeTestBrushNode(t, BBox{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{32, 32, 32}})
	layer.AddChild(brush)

	assert.Equal(t, Node(layer), brush.Parent())
	assert.Equal(t, 1, layer.ChildCount())

	layer.RemoveChild(brush)
	assert.Nil(t, brush.Parent())
	assert.Equal(t, 0, layer.ChildCount())
}

func TestNodeAddChildTwicePanics(t *testing.T) {
	a := NewGroupNode("a")
	b := NewGroupNode("b")
	child := NewGroupNode("child")
	a.AddChild(child)
	assert.Panics(t, func() { b.AddChild(child) })
}

func TestNodeInsertChild(t *testing.T) {
	group := NewGroupNode("group")
	first := NewGroupNode("first")
	third := NewGroupNode("third")
	group.AddChildren(first, third)

	second := NewGroupNode("second")
	group.base().insertChild(1, second)

	children := group.Children()
	require.Len(t, children, 3)
	assert.Equal(t, Node(first), children[0])
	assert.Equal(t, Node(second), children[1])
	assert.Equal(t, Node(third), children[2])
}

func TestNodeBoundsUnionAndInvalidation(t *testing.T) {
	group := NewGroupNode("group")
	assert.True(t, group.Bounds().Empty())

	a := makeTestBrushNode(t, BBox{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{16, 16, 16}})
	b := makeTestBrushNode(t, BBox{Min: mgl64.Vec3{32, 0, 0}, Max: mgl64.Vec3{64, 16, 16}})
	group.AddChildren(a, b)

	bounds := group.Bounds()
	assert.Equal(t, mgl64.Vec3{0, 0, 0}, bounds.Min)
	assert.Equal(t, mgl64.Vec3{64, 16, 16}, bounds.Max)

	group.RemoveChild(b)
	bounds = group.Bounds()
	assert.Equal(t, mgl64.Vec3{16, 16, 16}, bounds.Max)
}

func TestEntityNodeBoundsFollowOrigin(t *testing.T) {
	def := NewPointEntityDefinition("info_player_start", "", BBox{
		Min: mgl64.Vec3{-16, -16, -24},
		Max: mgl64.Vec3{16, 16, 32},
	})
	entity := MakeEntity(EntityProperty{Key: PropertyClassname, Value: def.Name})
	entity.SetDefinition(def)
	entity.SetOrigin(mgl64.Vec3{100, 0, 0})
	node := NewEntityNode(entity)

	bounds := node.Bounds()
	assert.Equal(t, mgl64.Vec3{84, -16, -24}, bounds.Min)
	assert.Equal(t, mgl64.Vec3{116, 16, 32}, bounds.Max)
}

func TestContainsLine(t *testing.T) {
	node := NewGroupNode("group")
	assert.False(t, node.ContainsLine(1))

	node.SetFilePosition(10, 5)
	assert.False(t, node.ContainsLine(9))
	assert.True(t, node.ContainsLine(10))
	assert.True(t, node.ContainsLine(14))
	assert.False(t, node.ContainsLine(15))
}

func TestPathFromAndResolvePath(t *testing.T) {
	world := NewWorldNode(EntityPropertyConfig{}, MakeEntity(), FormatStandard)
	layer := world.DefaultLayer()
	group := NewGroupNode("group")
	entity := NewEntityNode(MakeEntity(EntityProperty{Key: PropertyClassname, Value: "func_door"}))
	layer.AddChild(group)
	group.AddChild(entity)

	path, err := entity.PathFrom(world)
	require.NoError(t, err)
	assert.Equal(t, NodePath{0, 0, 0}, path)

	resolved, err := world.ResolvePath(path)
	require.NoError(t, err)
	assert.Equal(t, Node(entity), resolved)

	_, err = world.ResolvePath(NodePath{0, 7})
	assert.Error(t, err)

	stranger := NewGroupNode("stranger")
	_, err = stranger.PathFrom(world)
	assert.Error(t, err)
}

func TestPathRelativeTo(t *testing.T) {
	outer := NodePath{0, 2, 1}
	prefix := NodePath{0, 2}
	rel, ok := outer.RelativeTo(prefix)
	require.True(t, ok)
	assert.Equal(t, NodePath{1}, rel)

	_, ok = outer.RelativeTo(NodePath{1})
	assert.False(t, ok)
}

func TestCloneRecursivelySharesGroupLinkID(t *testing.T) {
	group := NewGroupNode("room")
	entity := NewEntityNode(MakeEntity(EntityProperty{Key: PropertyClassname, Value: "light"}))
	group.AddChild(entity)

	clone := group.CloneRecursively().(*GroupNode)
	assert.Nil(t, clone.Parent())
	assert.Equal(t, group.LinkID(), clone.LinkID())
	require.Equal(t, 1, clone.ChildCount())

	clonedEntity := clone.Children()[0].(*EntityNode)
	assert.NotSame(t, entity, clonedEntity)
	assert.Equal(t, "light", clonedEntity.Entity().Classname())

	// Mutating the clone must not touch the original.
	clonedEntity.Entity().SetProperty("style", "1")
	assert.False(t, entity.Entity().HasProperty("style"))
}

func TestFreshGroupsAreNotLinked(t *testing.T) {
	a := NewGroupNode("a")
	b := NewGroupNode("b")
	assert.NotEqual(t, a.LinkID(), b.LinkID())
}

func TestRootOfAndIsDescendantOf(t *testing.T) {
	world := NewWorldNode(EntityPropertyConfig{}, MakeEntity(), FormatStandard)
	layer := world.DefaultLayer()
	group := NewGroupNode("group")
	layer.AddChild(group)

	assert.Equal(t, Node(world), rootOf(group))
	assert.True(t, isDescendantOf(group, world))
	assert.False(t, isDescendantOf(world, group))
	assert.False(t, isDescendantOf(world, world))
}
