package filesystem

import (
	"fmt"
	"strings"
)

// Tree owns the single registered root and resolves segments against it.
// A nil root means nothing is registered.
type Tree struct {
	root *Node
}

// SetRoot replaces the registered root. The previous subtree is marked
// deleted so stale references cannot be mistaken for live ones. A nil node
// resets the tree to "no root".
func (t *Tree) SetRoot(node *Node) error {
	if node != nil {
		switch {
		case node.kind != DirKind:
			return fmt.Errorf("%w: root %s", ErrNotDir, node.name)
		case node.name == "" || strings.Contains(node.name, Separator):
			return fmt.Errorf("%w: bad root name %q", ErrInvalidPath, node.name)
		case node.parent != nil || node.isDel:
			return fmt.Errorf("%w: root %s is attached elsewhere or deleted", ErrInvalidPath, node.name)
		}
	}
	if t.root != nil && t.root != node {
		t.root.Del()
	}
	t.root = node
	if node != nil {
		node.isRoot = true
	}
	return nil
}

// Root returns the registered root or nil
func (t *Tree) Root() *Node {
	return t.root
}

// Resolve walks from the root matching authority against the root's name.
// Resolution is all or nothing.
func (t *Tree) Resolve(authority string, segments []string) (*Node, bool) {
	if t.root == nil || t.root.name != authority {
		return nil, false
	}
	cur := t.root
	for _, seg := range segments {
		child, ok := cur.GetChild(seg)
		if !ok {
			return nil, false
		}
		cur = child
	}
	return cur, true
}

// Attach inserts child under parent
func (t *Tree) Attach(parent, child *Node) error {
	if parent == nil {
		return fmt.Errorf("%w: nil parent", ErrNotFound)
	}
	return parent.AddChild(child)
}

// Detach removes the named child from parent and returns it for disposal.
// A nil parent targets the root itself, after which [Tree.Root] is nil.
func (t *Tree) Detach(parent *Node, name string) (*Node, error) {
	if parent == nil {
		if t.root == nil {
			return nil, fmt.Errorf("%w: %w", ErrNotFound, ErrNoRoot)
		}
		if t.root.name != name {
			return nil, fmt.Errorf("%w: root %s", ErrNotFound, name)
		}
		old := t.root
		t.root = nil
		old.Del()
		return old, nil
	}
	child, ok := parent.RemoveChild(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, parent.name, name)
	}
	return child, nil
}
