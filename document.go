package mapdraft

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrNoDocument         = errors.New("no document is open")
	ErrNodeNotInDocument  = errors.New("node does not belong to this document")
	ErrNoSelectedBrushes  = errors.New("no brushes are selected")
	ErrNoSelectedEntities = errors.New("no entities are selected")
)

// NodeAssignment names a parent and the children to attach to it, the unit
// AddNodes works in.
type NodeAssignment struct {
	Parent   Node
	Children []Node
}

// Document is the editing facade UI collaborators talk to. All mutation
// goes through the command processor and is undoable; accessors are plain
// reads. Documents are single-threaded: callers must not mutate
// concurrently.
type Document struct {
	logger Logger

	game        *Game
	world       *WorldNode
	worldBounds BBox
	path        string

	selection Selection
	processor *CommandProcessor
	materials *MaterialManager

	definitions []*EntityDefinition
}

func NewMapDocument(logger Logger) *Document {
	if logger == nil {
		logger = NewNopLogger()
	}
	doc := &Document{
		logger:    logger,
		selection: MakeSelection(),
	}
	doc.processor = NewCommandProcessor(doc, logger)
	doc.materials = NewMaterialManager(logger)
	return doc
}

func (d *Document) World() *WorldNode { return d.world }

func (d *Document) WorldBounds() BBox { return d.worldBounds }

func (d *Document) Game() *Game { return d.game }

func (d *Document) Materials() *MaterialManager { return d.materials }

func (d *Document) SelectedNodes() []Node { return d.selection.Nodes() }

func (d *Document) CurrentGroup() *GroupNode { return d.selection.CurrentGroup() }

func (d *Document) CanUndo() bool { return d.processor.CanUndo() }
func (d *Document) CanRedo() bool { return d.processor.CanRedo() }
func (d *Document) Undo() error   { return d.processor.Undo() }
func (d *Document) Redo() error   { return d.processor.Redo() }

// NewDocument replaces the current map with an empty one in the given
// format. An unknown format resolves to the game's preferred one.
func (d *Document) NewDocument(format MapFormat, worldBounds BBox, game *Game) error {
	if game == nil {
		return fmt.Errorf("no game configuration given")
	}
	if format == FormatUnknown {
		if len(game.Formats) == 0 {
			return fmt.Errorf("game %q declares no map formats", game.Name)
		}
		format = game.Formats[0]
	}
	d.reset(game, NewWorldNode(game.PropertyConfig, MakeEntity(), format), worldBounds, "")
	d.logger.Infof("new %s document for game %q", format, game.Name)
	return nil
}

// LoadDocument parses text into a fresh world. When format is unknown the
// game's candidate formats are tried in order. On failure the current
// document is left untouched.
func (d *Document) LoadDocument(game *Game, format MapFormat, worldBounds BBox, text string) error {
	if game == nil {
		return fmt.Errorf("no game configuration given")
	}
	formats := []MapFormat{format}
	if format == FormatUnknown {
		formats = game.Formats
	}
	world, err := TryReadWorld(text, formats, worldBounds, game.PropertyConfig)
	if err != nil {
		return err
	}
	d.reset(game, world, worldBounds, "")
	d.logger.Infof("loaded %s document for game %q", world.MapFormat(), game.Name)
	return nil
}

// SaveDocument serializes the current world in its own format.
func (d *Document) SaveDocument(w io.Writer) error {
	if d.world == nil {
		return ErrNoDocument
	}
	return WriteWorld(w, d.world)
}

func (d *Document) reset(game *Game, world *WorldNode, worldBounds BBox, path string) {
	d.game = game
	d.world = world
	d.worldBounds = worldBounds
	d.path = path
	d.selection = MakeSelection()
	d.processor.clearHistory()
}

// SetEntityDefinitions installs the entity class definitions and re-binds
// every entity in the document to its definition by classname.
func (d *Document) SetEntityDefinitions(definitions []*EntityDefinition) {
	d.definitions = definitions
	if d.world == nil {
		return
	}
	eachDescendant(d.world, func(n Node) bool {
		if entity, ok := n.(*EntityNode); ok {
			entity.Entity().SetDefinition(d.definitionForClassname(entity.Entity().Classname()))
		}
		return true
	})
}

func (d *Document) EntityDefinitions() []*EntityDefinition { return d.definitions }

func (d *Document) definitionForClassname(classname string) *EntityDefinition {
	for _, def := range d.definitions {
		if def.Name == classname {
			return def
		}
	}
	return nil
}

// ParentForNodes is where newly created nodes get attached: the innermost
// open group if any, otherwise the default layer.
func (d *Document) ParentForNodes() Node {
	if group := d.selection.CurrentGroup(); group != nil {
		return group
	}
	return d.world.DefaultLayer()
}

func (d *Document) checkInDocument(nodes ...Node) error {
	for _, node := range nodes {
		if node != d.world && rootOf(node) != Node(d.world) {
			return fmt.Errorf("%w: %T", ErrNodeNotInDocument, node)
		}
	}
	return nil
}

// AddNodes attaches the given children to their parents as one undo step.
func (d *Document) AddNodes(assignments ...NodeAssignment) error {
	if d.world == nil {
		return ErrNoDocument
	}
	for _, a := range assignments {
		if err := d.checkInDocument(a.Parent); err != nil {
			return err
		}
		for _, child := range a.Children {
			if child.Parent() != nil {
				return fmt.Errorf("node to add already has a parent")
			}
		}
	}
	parents := make([]Node, 0, len(assignments))
	for _, a := range assignments {
		parents = append(parents, a.Parent)
	}
	return d.processor.Execute("Add Objects", func(tx *Transaction) error {
		for _, a := range assignments {
			for _, child := range a.Children {
				tx.AddNode(a.Parent, child)
			}
		}
		d.propagateToLinkedGroups(tx, parents)
		return nil
	})
}

// RemoveNodes detaches the given nodes, deselecting them and any selected
// descendants in the same undo step.
func (d *Document) RemoveNodes(nodes ...Node) error {
	if err := d.checkInDocument(nodes...); err != nil {
		return err
	}
	parents := make([]Node, 0, len(nodes))
	for _, node := range nodes {
		if parent := node.Parent(); parent != nil {
			parents = append(parents, parent)
		}
	}
	return d.processor.Execute("Remove Objects", func(tx *Transaction) error {
		d.deselectRemoved(tx, nodes)
		for _, node := range nodes {
			tx.RemoveNode(node)
		}
		d.propagateToLinkedGroups(tx, parents)
		return nil
	})
}

func (d *Document) deselectRemoved(tx *Transaction, removed []Node) {
	var gone []Node
	for _, node := range removed {
		if d.selection.IsSelected(node) {
			gone = append(gone, node)
		}
		eachDescendant(node, func(n Node) bool {
			if d.selection.IsSelected(n) {
				gone = append(gone, n)
			}
			return true
		})
	}
	if len(gone) > 0 {
		tx.Do(
			func() { d.selection.deselectNodes(gone) },
			func() { d.selection.selectNodes(gone) },
		)
	}
}

// DeleteSelectedObjects removes every selected node.
func (d *Document) DeleteSelectedObjects() error {
	nodes := d.selection.Nodes()
	if len(nodes) == 0 {
		return nil
	}
	return d.RemoveNodes(nodes...)
}

// SelectNodes extends the selection with the given nodes.
func (d *Document) SelectNodes(nodes ...Node) error {
	if err := d.checkInDocument(nodes...); err != nil {
		return err
	}
	return d.processor.Execute("Select", func(tx *Transaction) error {
		tx.SelectNodes(nodes)
		return nil
	})
}

func (d *Document) DeselectAll() error {
	return d.processor.Execute("Deselect All", func(tx *Transaction) error {
		tx.SetSelection(nil)
		return nil
	})
}

// SelectAllNodes selects every top-level object in every layer.
func (d *Document) SelectAllNodes() error {
	if d.world == nil {
		return ErrNoDocument
	}
	var nodes []Node
	for _, layer := range d.world.AllLayers() {
		nodes = append(nodes, layer.Children()...)
	}
	return d.processor.Execute("Select All", func(tx *Transaction) error {
		tx.SetSelection(nodes)
		return nil
	})
}

// SelectNodesWithFilePosition replaces the selection with the nodes whose
// recorded source spans cover any of the given lines, resolved relative to
// the innermost open group.
func (d *Document) SelectNodesWithFilePosition(lines []int) error {
	if d.world == nil {
		return ErrNoDocument
	}
	scope := Node(d.world)
	if group := d.selection.CurrentGroup(); group != nil {
		scope = group
	}
	nodes := nodesWithFilePosition(scope, lines)
	return d.processor.Execute("Select by Line Number", func(tx *Transaction) error {
		tx.SetSelection(nodes)
		return nil
	})
}

// OpenGroup makes the group's contents individually selectable. The current
// selection is dropped.
func (d *Document) OpenGroup(group *GroupNode) error {
	if err := d.checkInDocument(group); err != nil {
		return err
	}
	d.selection.deselectAll()
	d.selection.openGroup(group)
	return nil
}

// CloseGroup closes the innermost open group, dropping the selection.
func (d *Document) CloseGroup() error {
	if d.selection.CurrentGroup() == nil {
		return fmt.Errorf("no group is open")
	}
	d.selection.deselectAll()
	d.selection.closeGroup()
	return nil
}

// GroupSelection wraps the selected nodes into a new group attached where
// the nodes would be created, as one undo step.
func (d *Document) GroupSelection(name string) (*GroupNode, error) {
	nodes := d.selection.Nodes()
	if len(nodes) == 0 {
		return nil, fmt.Errorf("nothing is selected")
	}
	group := NewGroupNode(name)
	parent := d.ParentForNodes()
	changed := []Node{parent}
	for _, node := range nodes {
		if p := node.Parent(); p != nil {
			changed = append(changed, p)
		}
	}
	err := d.processor.Execute("Group Objects", func(tx *Transaction) error {
		tx.AddNode(parent, group)
		for _, node := range nodes {
			tx.RemoveNode(node)
			tx.AddNode(group, node)
		}
		tx.SetSelection([]Node{group})
		d.propagateToLinkedGroups(tx, changed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (d *Document) AllSelectedBrushNodes() []*BrushNode {
	return d.selection.AllBrushNodes()
}

func (d *Document) HasAnySelectedBrushNodes() bool {
	return d.selection.HasAnyBrushNodes()
}

func (d *Document) AllSelectedEntityNodes() []*EntityNode {
	return d.selection.AllEntityNodes()
}

// CreatePointEntity creates a point entity of the given definition at
// origin, deselects everything else and selects the new node.
func (d *Document) CreatePointEntity(def *EntityDefinition, origin mgl64.Vec3) (*EntityNode, error) {
	if d.world == nil {
		return nil, ErrNoDocument
	}
	if def == nil || !def.Point {
		return nil, fmt.Errorf("not a point entity definition")
	}

	entity := MakeEntity(EntityProperty{Key: PropertyClassname, Value: def.Name})
	entity.SetDefinition(def)
	entity.SetOrigin(origin)
	if d.world.EntityPropertyConfig().SetDefaultProperties {
		applyDefaultProperties(&entity, SetAll)
	}
	node := NewEntityNode(entity)

	parent := d.ParentForNodes()
	err := d.processor.Execute(fmt.Sprintf("Create %s", def.Name), func(tx *Transaction) error {
		tx.AddNode(parent, node)
		tx.SetSelection([]Node{node})
		d.propagateToLinkedGroups(tx, []Node{parent})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// CreateBrushEntity moves the selected brushes into a new brush entity of
// the given definition. When all selected brushes already belong to one
// brush entity, its custom properties carry over. The brushes stay
// selected.
func (d *Document) CreateBrushEntity(def *EntityDefinition) (*EntityNode, error) {
	if d.world == nil {
		return nil, ErrNoDocument
	}
	if def == nil || def.Point {
		return nil, fmt.Errorf("not a brush entity definition")
	}

	var brushes []*BrushNode
	for _, node := range d.selection.Nodes() {
		if brush, ok := node.(*BrushNode); ok {
			brushes = append(brushes, brush)
		}
	}
	if len(brushes) == 0 {
		return nil, ErrNoSelectedBrushes
	}

	entity := MakeEntity(EntityProperty{Key: PropertyClassname, Value: def.Name})
	entity.SetDefinition(def)
	if previous := commonContainingEntity(brushes); previous != nil {
		for _, prop := range previous.Entity().Properties() {
			if prop.Key == PropertyClassname || prop.Key == PropertyOrigin {
				continue
			}
			entity.SetProperty(prop.Key, prop.Value)
		}
	}
	if d.world.EntityPropertyConfig().SetDefaultProperties {
		applyDefaultProperties(&entity, SetAll)
	}
	node := NewEntityNode(entity)

	parent := d.ParentForNodes()
	changed := []Node{parent}
	for _, brush := range brushes {
		if p := brush.Parent(); p != nil {
			changed = append(changed, p)
		}
	}
	err := d.processor.Execute(fmt.Sprintf("Create %s", def.Name), func(tx *Transaction) error {
		tx.AddNode(parent, node)
		for _, brush := range brushes {
			tx.RemoveNode(brush)
			tx.AddNode(node, brush)
		}
		sel := make([]Node, len(brushes))
		for i, brush := range brushes {
			sel[i] = brush
		}
		tx.SetSelection(sel)
		d.propagateToLinkedGroups(tx, changed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// commonContainingEntity returns the single brush entity all brushes live
// in, or nil when their containers differ or are not entities.
func commonContainingEntity(brushes []*BrushNode) *EntityNode {
	var common *EntityNode
	for _, brush := range brushes {
		entity, ok := brush.Parent().(*EntityNode)
		if !ok {
			return nil
		}
		if common == nil {
			common = entity
		} else if common != entity {
			return nil
		}
	}
	return common
}

// SetProperty sets key to value on every entity reachable from the
// selection.
func (d *Document) SetProperty(key, value string) error {
	entities := d.selection.AllEntityNodes()
	if len(entities) == 0 {
		return ErrNoSelectedEntities
	}
	return d.processor.Execute("Set Property", func(tx *Transaction) error {
		for _, entity := range entities {
			tx.SetProperty(entity, entity.Entity(), key, value)
		}
		d.propagateToLinkedGroups(tx, entityNodesAsNodes(entities))
		return nil
	})
}

// RemoveProperty removes key from every entity reachable from the
// selection.
func (d *Document) RemoveProperty(key string) error {
	entities := d.selection.AllEntityNodes()
	if len(entities) == 0 {
		return ErrNoSelectedEntities
	}
	return d.processor.Execute("Remove Property", func(tx *Transaction) error {
		for _, entity := range entities {
			tx.RemoveProperty(entity, entity.Entity(), key)
		}
		d.propagateToLinkedGroups(tx, entityNodesAsNodes(entities))
		return nil
	})
}

// SetDefaultProperties applies definition-declared default values to every
// selected entity that has a definition, according to mode.
func (d *Document) SetDefaultProperties(mode SetDefaultPropertyMode) error {
	entities := d.selection.AllEntityNodes()
	if len(entities) == 0 {
		return ErrNoSelectedEntities
	}
	return d.processor.Execute("Set Default Properties", func(tx *Transaction) error {
		for _, node := range entities {
			entity := node.Entity()
			def := entity.Definition()
			if def == nil {
				continue
			}
			for _, prop := range def.defaultProperties() {
				exists := entity.HasProperty(prop.Key)
				switch mode {
				case SetExisting:
					if exists {
						tx.SetProperty(node, entity, prop.Key, prop.DefaultValue)
					}
				case SetMissing:
					if !exists {
						tx.SetProperty(node, entity, prop.Key, prop.DefaultValue)
					}
				case SetAll:
					tx.SetProperty(node, entity, prop.Key, prop.DefaultValue)
				}
			}
		}
		d.propagateToLinkedGroups(tx, entityNodesAsNodes(entities))
		return nil
	})
}

// CanUpdateLinkedGroups reports whether an edit of exactly the given nodes
// could be propagated to linked group siblings unambiguously.
func (d *Document) CanUpdateLinkedGroups(changed []Node) bool {
	if d.world == nil {
		return false
	}
	return canUpdateLinkedGroups(d.world, changed)
}

// propagateToLinkedGroups replays the changed instance's content into its
// linked siblings within the current command, keeping the whole update one
// undo step. Ambiguous changed sets propagate nothing.
func (d *Document) propagateToLinkedGroups(tx *Transaction, changed []Node) {
	if !canUpdateLinkedGroups(d.world, changed) {
		return
	}
	source := containingLinkedGroup(d.world, changed[0])
	if source == nil {
		return
	}
	for _, sibling := range linkedSiblings(d.world, source) {
		tx.ReplaceChildren(sibling, cloneGroupContent(source))
	}
}

func entityNodesAsNodes(entities []*EntityNode) []Node {
	out := make([]Node, len(entities))
	for i, e := range entities {
		out[i] = e
	}
	return out
}

// ReloadMaterialCollections re-scans every registered collection and
// re-resolves all face materials, as one undo step. Only the face bindings
// are undoable; the rescanned collections reflect the file system and stay
// in place when the command is undone.
func (d *Document) ReloadMaterialCollections() error {
	if d.world == nil {
		return ErrNoDocument
	}
	return d.processor.Execute("Reload Material Collections", func(tx *Transaction) error {
		if err := d.materials.Reload(); err != nil {
			return err
		}

		type faceRef struct {
			face *BrushFace
			old  *Material
		}
		var refs []faceRef
		eachDescendant(d.world, func(n Node) bool {
			if brush, ok := n.(*BrushNode); ok {
				for i := range brush.Brush().Faces() {
					face := brush.Brush().Face(i)
					refs = append(refs, faceRef{face: face, old: face.Material()})
				}
			}
			return true
		})

		tx.Do(
			func() {
				for _, ref := range refs {
					ref.face.setMaterial(d.materials.Resolve(ref.face.Attributes.Material))
				}
			},
			func() {
				for _, ref := range refs {
					ref.face.setMaterial(ref.old)
				}
			},
		)
		return nil
	})
}
