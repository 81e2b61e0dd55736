package filesystem

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brettbedarf/memvfs"
	"github.com/brettbedarf/memvfs/internal/util"
)

// Kind discriminates the two node variants
type Kind uint8

const (
	DirKind Kind = iota + 1
	FileKind
)

func (k Kind) String() string {
	switch k {
	case DirKind:
		return "dir"
	case FileKind:
		return "file"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// PermMask covers the rwx triads plus setuid, setgid and sticky bits
const PermMask uint32 = 0o7777

// Node is an entry of the tree, either a directory or a file.
//
// Nodes are not safe for concurrent use; callers sharing a tree across
// goroutines must serialize access themselves.
type Node struct {
	id     string
	name   string // Name of the node (last part of the path)
	kind   Kind
	perms  uint32
	mtime  int64 // epoch seconds
	parent *Node
	isRoot bool
	isDel  bool

	// Dirs only. order keeps insertion order for deterministic listing
	children map[string]*Node
	order    []string

	// Files only; size is always len(content)
	content []byte
}

// NewDirNode creates a detached directory with perms 0777 and the current time as mtime
func NewDirNode(name string) *Node {
	return &Node{
		id:       uuid.NewString(),
		name:     name,
		kind:     DirKind,
		perms:    0o777,
		mtime:    time.Now().Unix(),
		children: make(map[string]*Node),
	}
}

// NewFileNode creates a detached file owning content with perms 0777 and
// the current time as mtime
func NewFileNode(name string, content []byte) *Node {
	return &Node{
		id:      uuid.NewString(),
		name:    name,
		kind:    FileKind,
		perms:   0o777,
		mtime:   time.Now().Unix(),
		content: content,
	}
}

// WithID replaces the generated id. Returns n for chaining
func (n *Node) WithID(id string) *Node {
	n.id = id
	return n
}

// ID returns the node's stable identifier
func (n *Node) ID() string {
	return n.id
}

// Name returns the node's immutable Name.
func (n *Node) Name() string {
	return n.name
}

func (n *Node) Kind() Kind {
	return n.kind
}

func (n *Node) IsDir() bool {
	return n.kind == DirKind
}

func (n *Node) IsFile() bool {
	return n.kind == FileKind
}

// Perms returns the permission bits without any type bits
func (n *Node) Perms() uint32 {
	return n.perms
}

// Chmod overwrites the permission bits. Children are not affected
func (n *Node) Chmod(perms uint32) *Node {
	n.perms = perms & PermMask
	return n
}

// Mtime returns the modification time in epoch seconds
func (n *Node) Mtime() int64 {
	return n.mtime
}

func (n *Node) ModTime() time.Time {
	return time.Unix(n.mtime, 0)
}

// SetMtime sets the modification time in epoch seconds
func (n *Node) SetMtime(sec int64) *Node {
	n.mtime = sec
	return n
}

// ApplyRequest sets the id, perms and mtime carried by req. A missing mtime
// means now.
func (n *Node) ApplyRequest(req *memvfs.NodeRequest) *Node {
	if req.UUID != "" {
		n.WithID(req.UUID)
	}
	if req.Perms != nil {
		n.Chmod(*req.Perms)
	}
	return n.SetMtime(util.ValueOrDefault(req.Mtime, time.Now().Unix()))
}

// Size returns the content length for files and 0 for directories
func (n *Node) Size() int64 {
	if n.kind != FileKind {
		return 0
	}
	return int64(len(n.content))
}

// Content returns a copy of a file's bytes; nil for directories
func (n *Node) Content() []byte {
	if n.kind != FileKind {
		return nil
	}
	return append([]byte(nil), n.content...)
}

// SetContent replaces a file's bytes, taking ownership of content
func (n *Node) SetContent(content []byte) error {
	if n.kind != FileKind {
		return fmt.Errorf("%w: %s", ErrNotFile, n.name)
	}
	n.content = content
	return nil
}

// Parent returns the containing directory; nil for the root and detached nodes
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the direct children in insertion order
func (n *Node) Children() []*Node {
	children := make([]*Node, 0, len(n.order))
	for _, name := range n.order {
		children = append(children, n.mustChild(name))
	}
	return children
}

// HasChildren reports whether a directory holds at least one child
func (n *Node) HasChildren() bool {
	return len(n.order) > 0
}

// GetChild returns a direct child by name
func (n *Node) GetChild(name string) (child *Node, ok bool) {
	if n.kind != DirKind {
		return nil, false
	}
	child, ok = n.children[name]
	if ok && child == nil {
		panic(fmt.Sprintf("filesystem: nil child %q under %q", name, n.name))
	}
	return child, ok
}

func (n *Node) mustChild(name string) *Node {
	child, ok := n.GetChild(name)
	if !ok {
		panic(fmt.Sprintf("filesystem: child order lists %q missing from %q", name, n.name))
	}
	return child
}

// AddChild adds a child node to the node's children
// and sets the child's parent to this node
func (n *Node) AddChild(child *Node) error {
	switch {
	case n.kind != DirKind:
		return fmt.Errorf("%w: %s", ErrNotDir, n.name)
	case child == nil:
		return fmt.Errorf("%w: nil child", ErrInvalidPath)
	case child.name == "" || strings.Contains(child.name, Separator):
		return fmt.Errorf("%w: bad name %q", ErrInvalidPath, child.name)
	case child.parent != nil || child.isRoot:
		return fmt.Errorf("%w: %s is already attached", ErrDuplicateName, child.name)
	case n.isDel:
		return fmt.Errorf("%w: %s is deleted", ErrNotFound, n.name)
	}
	if _, exists := n.children[child.name]; exists {
		return fmt.Errorf("%w: %s/%s", ErrDuplicateName, n.name, child.name)
	}
	for a := n; a != nil; a = a.parent {
		if a == child {
			return fmt.Errorf("%w: %s would contain itself", ErrInvalidPath, child.name)
		}
	}
	n.children[child.name] = child
	n.order = append(n.order, child.name)
	child.parent = n
	return nil
}

// RemoveChild detaches a child and returns it. The removed subtree is marked
// deleted and must not be used afterwards.
func (n *Node) RemoveChild(name string) (*Node, bool) {
	child, ok := n.GetChild(name)
	if !ok {
		return nil, false
	}
	delete(n.children, name)
	for i, o := range n.order {
		if o == name {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
	child.Del()
	return child, true
}

// Path returns the path of the node relative from root.
// If the node is the root, returns ""
//
// Returns an error if the node or ancestor is detached or deleted with the path
// up to the first detached or deleted node
func (n *Node) Path() (string, error) {
	if n.isDel {
		return "", fmt.Errorf("deleted node: %s", n.name)
	}
	if n.isRoot {
		return "", nil
	}
	p := n.parent
	if p == nil {
		return n.name, fmt.Errorf("detached node: %s", n.name)
	}

	pPath, err := p.Path()
	if pPath == "" {
		return n.name, err
	}
	return pPath + Separator + n.name, err
}

func (n *Node) IsRoot() bool {
	return n.isRoot
}

func (n *Node) IsDel() bool {
	return n.isDel
}

// Del marks the node and its whole subtree as deleted and unlinks parents
func (n *Node) Del() {
	n.isDel = true
	n.isRoot = false
	n.parent = nil
	for _, name := range n.order {
		n.mustChild(name).Del()
	}
}
