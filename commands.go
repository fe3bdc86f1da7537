package mapdraft

import (
	"errors"
	"fmt"
)

var (
	// ErrProcessorBusy is returned when a command is submitted while
	// another command, undo or redo is still running.
	ErrProcessorBusy = errors.New("command processor is busy")
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// CommandError is the typed failure surfaced for any command that could not
// run to completion. By the time the caller sees it, every edit the command
// performed has been reverted.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

type processorState int

const (
	processorIdle processorState = iota
	processorExecuting
	processorUndoing
	processorRedoing
)

// editRecord is one reversible mutation. apply is re-run on redo, revert on
// undo and on rollback after a mid-command failure; both must be
// deterministic against the tree state they were recorded in.
type editRecord struct {
	apply  func()
	revert func()
}

// Command is one undo step: a named, ordered list of edits.
type Command struct {
	name  string
	edits []editRecord
}

func (c *Command) Name() string { return c.name }

// Transaction records the reversible edits a command performs. Every helper
// mutates immediately and remembers how to take the mutation back.
type Transaction struct {
	doc   *Document
	edits []editRecord
}

func (tx *Transaction) record(apply, revert func()) {
	apply()
	tx.edits = append(tx.edits, editRecord{apply: apply, revert: revert})
}

// AddNode attaches node to parent as its last child.
func (tx *Transaction) AddNode(parent, node Node) {
	idx := parent.ChildCount()
	tx.record(
		func() { parent.base().insertChild(idx, node) },
		func() { parent.RemoveChild(node) },
	)
}

// RemoveNode detaches node from its parent, remembering its position.
func (tx *Transaction) RemoveNode(node Node) {
	parent := node.Parent()
	idx := parent.base().indexOfChild(node)
	tx.record(
		func() { parent.RemoveChild(node) },
		func() { parent.base().insertChild(idx, node) },
	)
}

// SetProperty sets key on the given entity value. owner is the node the
// entity belongs to, so bounds can be invalidated (origin may change).
func (tx *Transaction) SetProperty(owner Node, entity *Entity, key, value string) {
	old, existed := entity.Property(key)
	tx.record(
		func() {
			entity.SetProperty(key, value)
			owner.base().invalidateBounds()
		},
		func() {
			if existed {
				entity.SetProperty(key, old)
			} else {
				entity.RemoveProperty(key)
			}
			owner.base().invalidateBounds()
		},
	)
}

// RemoveProperty removes key from the given entity value if present.
func (tx *Transaction) RemoveProperty(owner Node, entity *Entity, key string) {
	old, existed := entity.Property(key)
	if !existed {
		return
	}
	tx.record(
		func() {
			entity.RemoveProperty(key)
			owner.base().invalidateBounds()
		},
		func() {
			entity.SetProperty(key, old)
			owner.base().invalidateBounds()
		},
	)
}

// SetSelection replaces the document selection.
func (tx *Transaction) SetSelection(nodes []Node) {
	old := tx.doc.selection.Nodes()
	tx.record(
		func() {
			tx.doc.selection.deselectAll()
			tx.doc.selection.selectNodes(nodes)
		},
		func() {
			tx.doc.selection.deselectAll()
			tx.doc.selection.selectNodes(old)
		},
	)
}

// SelectNodes extends the document selection.
func (tx *Transaction) SelectNodes(nodes []Node) {
	old := tx.doc.selection.Nodes()
	tx.record(
		func() { tx.doc.selection.selectNodes(nodes) },
		func() {
			tx.doc.selection.deselectAll()
			tx.doc.selection.selectNodes(old)
		},
	)
}

// ReplaceChildren swaps out all children of parent, the primitive linked
// group propagation is built on.
func (tx *Transaction) ReplaceChildren(parent Node, children []Node) {
	old := parent.Children()
	oldCopy := make([]Node, len(old))
	copy(oldCopy, old)
	tx.record(
		func() {
			for _, child := range parent.Children() {
				child.base().parent = nil
			}
			parent.base().children = nil
			parent.AddChildren(children...)
		},
		func() {
			for _, child := range parent.Children() {
				child.base().parent = nil
			}
			parent.base().children = nil
			parent.AddChildren(oldCopy...)
		},
	)
}

// Do records an arbitrary reversible edit for mutations the other helpers
// do not cover.
func (tx *Transaction) Do(apply, revert func()) {
	tx.record(apply, revert)
}

func (tx *Transaction) rollback() {
	for i := len(tx.edits) - 1; i >= 0; i-- {
		tx.edits[i].revert()
	}
	tx.edits = nil
}

// CommandProcessor serializes document mutation into discrete, reversible
// commands. At most one command runs at a time; a command submitted from
// inside another command is rejected with ErrProcessorBusy. A command whose
// build function fails or panics is rolled back before the error is
// returned, leaving the document exactly as it was.
type CommandProcessor struct {
	doc    *Document
	logger Logger

	state processorState
	undo  []*Command
	redo  []*Command
}

func NewCommandProcessor(doc *Document, logger Logger) *CommandProcessor {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &CommandProcessor{doc: doc, logger: logger}
}

// Execute runs build inside a fresh transaction and pushes the resulting
// command onto the undo stack, clearing the redo stack.
func (p *CommandProcessor) Execute(name string, build func(tx *Transaction) error) (err error) {
	if p.state != processorIdle {
		return &CommandError{Command: name, Err: ErrProcessorBusy}
	}
	p.state = processorExecuting
	defer func() { p.state = processorIdle }()

	tx := &Transaction{doc: p.doc}
	defer func() {
		if r := recover(); r != nil {
			tx.rollback()
			err = &CommandError{Command: name, Err: fmt.Errorf("panic: %v", r)}
			p.logger.Errorf("command %q panicked: %v", name, r)
		}
	}()

	if buildErr := build(tx); buildErr != nil {
		tx.rollback()
		p.logger.Warnf("command %q rolled back: %v", name, buildErr)
		return &CommandError{Command: name, Err: buildErr}
	}

	p.undo = append(p.undo, &Command{name: name, edits: tx.edits})
	p.redo = nil
	p.logger.Debugf("executed command %q (%d edits)", name, len(tx.edits))
	return nil
}

func (p *CommandProcessor) CanUndo() bool { return len(p.undo) > 0 }
func (p *CommandProcessor) CanRedo() bool { return len(p.redo) > 0 }

// UndoCommandName returns the name of the command Undo would revert.
func (p *CommandProcessor) UndoCommandName() string {
	if !p.CanUndo() {
		return ""
	}
	return p.undo[len(p.undo)-1].name
}

func (p *CommandProcessor) Undo() error {
	if p.state != processorIdle {
		return &CommandError{Command: "undo", Err: ErrProcessorBusy}
	}
	if !p.CanUndo() {
		return ErrNothingToUndo
	}
	p.state = processorUndoing
	defer func() { p.state = processorIdle }()

	cmd := p.undo[len(p.undo)-1]
	p.undo = p.undo[:len(p.undo)-1]
	for i := len(cmd.edits) - 1; i >= 0; i-- {
		cmd.edits[i].revert()
	}
	p.redo = append(p.redo, cmd)
	p.logger.Debugf("undid command %q", cmd.name)
	return nil
}

func (p *CommandProcessor) Redo() error {
	if p.state != processorIdle {
		return &CommandError{Command: "redo", Err: ErrProcessorBusy}
	}
	if !p.CanRedo() {
		return ErrNothingToRedo
	}
	p.state = processorRedoing
	defer func() { p.state = processorIdle }()

	cmd := p.redo[len(p.redo)-1]
	p.redo = p.redo[:len(p.redo)-1]
	for _, edit := range cmd.edits {
		edit.apply()
	}
	p.undo = append(p.undo, cmd)
	p.logger.Debugf("redid command %q", cmd.name)
	return nil
}

// clearHistory drops both stacks, used when a new document replaces the
// current one.
func (p *CommandProcessor) clearHistory() {
	p.undo = nil
	p.redo = nil
}
