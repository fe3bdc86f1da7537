package mapdraft

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDocument(t *testing.T) *Document {
	t.Helper()
	doc := NewMapDocument(NewNopLogger())
	game := &Game{Name: "Test", Formats: []MapFormat{FormatStandard}}
	require.NoError(t, doc.NewDocument(FormatStandard, MakeBBox(8192), game))
	return doc
}

func TestExecuteUndoRedo(t *testing.T) {
	doc := newTestDocument(t)
	layer := doc.World().DefaultLayer()
	entity := NewEntityNode(MakeEntity(EntityProperty{Key: PropertyClassname, Value: "light"}))

	require.NoError(t, doc.AddNodes(NodeAssignment{Parent: layer, Children: []Node{entity}}))
	assert.Equal(t, 1, layer.ChildCount())
	assert.True(t, doc.CanUndo())
	assert.False(t, doc.CanRedo())

	require.NoError(t, doc.Undo())
	assert.Equal(t, 0, layer.ChildCount())
	assert.Nil(t, entity.Parent())
	assert.True(t, doc.CanRedo())

	require.NoError(t, doc.Redo())
	assert.Equal(t, 1, layer.ChildCount())
	assert.Equal(t, Node(layer), entity.Parent())
}

func TestUndoRestoresChildOrder(t *testing.T) {
	doc := newTestDocument(t)
	layer := doc.World().DefaultLayer()

	first := NewEntityNode(MakeEntity(EntityProperty{Key: PropertyClassname, Value: "light"}))
	second := NewEntityNode(MakeEntity(EntityProperty{Key: PropertyClassname, Value: "light"}))
	third := NewEntityNode(MakeEntity(EntityProperty{Key: PropertyClassname, Value: "light"}))
	require.NoError(t, doc.AddNodes(NodeAssignment{Parent: layer, Children: []Node{first, second, third}}))

	require.NoError(t, doc.RemoveNodes(second))
	require.Equal(t, 2, layer.ChildCount())

	require.NoError(t, doc.Undo())
	children := layer.Children()
	require.Len(t, children, 3)
	assert.Equal(t, Node(second), children[1])
}

func TestExecuteClearsRedoStack(t *testing.T) {
	doc := newTestDocument(t)
	layer := doc.World().DefaultLayer()

	a := NewEntityNode(MakeEntity(EntityProperty{Key: PropertyClassname, Value: "light"}))
	b := NewEntityNode(MakeEntity(EntityProperty{Key: PropertyClassname, Value: "light"}))

	require.NoError(t, doc.AddNodes(NodeAssignment{Parent: layer, Children: []Node{a}}))
	require.NoError(t, doc.Undo())
	assert.True(t, doc.CanRedo())

	require.NoError(t, doc.AddNodes(NodeAssignment{Parent: layer, Children: []Node{b}}))
	assert.False(t, doc.CanRedo())
}

func TestUndoWithEmptyHistory(t *testing.T) {
	doc := newTestDocument(t)
	assert.ErrorIs(t, doc.Undo(), ErrNothingToUndo)
	assert.ErrorIs(t, doc.Redo(), ErrNothingToRedo)
}

func TestFailedCommandRollsBack(t *testing.T) {
	doc := newTestDocument(t)
	layer := doc.World().DefaultLayer()
	entity := NewEntityNode(MakeEntity(EntityProperty{Key: PropertyClassname, Value: "light"}))

	boom := errors.New("boom")
	err := doc.processor.Execute("Doomed", func(tx *Transaction) error {
		tx.AddNode(layer, entity)
		tx.SetSelection([]Node{entity})
		return boom
	})
	require.Error(t, err)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "Doomed", cmdErr.Command)
	assert.ErrorIs(t, err, boom)

	// Every edit was taken back.
	assert.Equal(t, 0, layer.ChildCount())
	assert.Nil(t, entity.Parent())
	assert.Empty(t, doc.SelectedNodes())
	assert.False(t, doc.CanUndo())
}

func TestPanickingCommandRollsBack(t *testing.T) {
	doc := newTestDocument(t)
	layer := doc.World().DefaultLayer()
	entity := NewEntityNode(MakeEntity(EntityProperty{Key: PropertyClassname, Value: "light"}))

	err := doc.processor.Execute("Panicky", func(tx *Transaction) error {
		tx.AddNode(layer, entity)
		panic("kaboom")
	})
	require.Error(t, err)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 0, layer.ChildCount())
	assert.False(t, doc.CanUndo())
}

func TestNestedExecuteIsRejected(t *testing.T) {
	doc := newTestDocument(t)

	err := doc.processor.Execute("Outer", func(tx *Transaction) error {
		inner := doc.processor.Execute("Inner", func(tx *Transaction) error { return nil })
		require.ErrorIs(t, inner, ErrProcessorBusy)
		return fmt.Errorf("inner rejected: %w", inner)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProcessorBusy)

	// The processor is usable again afterwards.
	require.NoError(t, doc.DeselectAll())
}

func TestUndoCommandName(t *testing.T) {
	doc := newTestDocument(t)
	assert.Equal(t, "", doc.processor.UndoCommandName())

	entity := NewEntityNode(MakeEntity(EntityProperty{Key: PropertyClassname, Value: "light"}))
	require.NoError(t, doc.AddNodes(NodeAssignment{Parent: doc.World().DefaultLayer(), Children: []Node{entity}}))
	assert.Equal(t, "Add Objects", doc.processor.UndoCommandName())
}

func TestSetPropertyEditIsReversible(t *testing.T) {
	doc := newTestDocument(t)
	entity := NewEntityNode(MakeEntity(
		EntityProperty{Key: PropertyClassname, Value: "light"},
		EntityProperty{Key: "light", Value: "200"},
	))
	require.NoError(t, doc.AddNodes(NodeAssignment{Parent: doc.World().DefaultLayer(), Children: []Node{entity}}))
	require.NoError(t, doc.SelectNodes(entity))

	require.NoError(t, doc.SetProperty("light", "300"))
	value, _ := entity.Entity().Property("light")
	assert.Equal(t, "300", value)

	require.NoError(t, doc.Undo())
	value, _ = entity.Entity().Property("light")
	assert.Equal(t, "200", value)

	// A key that did not exist before is removed again on undo.
	require.NoError(t, doc.SetProperty("style", "5"))
	require.NoError(t, doc.Undo())
	assert.False(t, entity.Entity().HasProperty("style"))
}

func TestNewDocumentClearsHistory(t *testing.T) {
	doc := newTestDocument(t)
	entity := NewEntityNode(MakeEntity(EntityProperty{Key: PropertyClassname, Value: "light"}))
	require.NoError(t, doc.AddNodes(NodeAssignment{Parent: doc.World().DefaultLayer(), Children: []Node{entity}}))
	require.True(t, doc.CanUndo())

	game := &Game{Name: "Test", Formats: []MapFormat{FormatStandard}}
	require.NoError(t, doc.NewDocument(FormatStandard, MakeBBox(8192), game))
	assert.False(t, doc.CanUndo())
	assert.False(t, doc.CanRedo())
}
