package filesystem

import (
	"context"
	"fmt"

	"github.com/brettbedarf/memvfs"
	"github.com/brettbedarf/memvfs/config"
	"github.com/brettbedarf/memvfs/internal/util"
)

// Engine is the public query and mutation surface of the virtual filesystem.
// Every operation takes an external URL (see [Resolver]). Paths that do not
// resolve yield false or zero results rather than errors.
//
// An Engine holds exactly one tree and is not safe for concurrent use.
type Engine struct {
	cfg      *config.Config
	resolver *Resolver
	tree     Tree
	inval    memvfs.StatInvalidator
}

// NewEngine creates an engine with no root registered. A nil cfg uses defaults
func NewEngine(cfg *config.Config) *Engine {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	return &Engine{
		cfg:      cfg,
		resolver: NewResolver(cfg.Scheme),
	}
}

// SetStatInvalidator registers the external stat cache told about mutations
func (e *Engine) SetStatInvalidator(inval memvfs.StatInvalidator) {
	e.inval = inval
}

func (e *Engine) Resolver() *Resolver {
	return e.resolver
}

// URL builds an external URL, i.e. URL("foo", "bar") -> "vfs://foo/bar"
func (e *Engine) URL(parts ...string) string {
	return e.resolver.URL(parts...)
}

func (e *Engine) Dirname(url string) string {
	return e.resolver.Dirname(url)
}

func (e *Engine) Basename(url string) string {
	return e.resolver.Basename(url)
}

func (e *Engine) SplitParentAndLeaf(url string) (parent, leaf string) {
	return e.resolver.SplitParentAndLeaf(url)
}

/* Lifecycle */

// NewDir creates a detached directory using the configured default perms
func (e *Engine) NewDir(name string) *Node {
	return NewDirNode(name).Chmod(e.cfg.DirPerms)
}

// NewFile creates a detached file using the configured default perms
func (e *Engine) NewFile(name string, content []byte) *Node {
	return NewFileNode(name, content).Chmod(e.cfg.FilePerms)
}

// SetRoot replaces the registered root, discarding the previous tree.
// Passing nil is equivalent to [Engine.Register].
func (e *Engine) SetRoot(node *Node) error {
	logger := util.GetLogger("Engine.SetRoot")
	if err := e.tree.SetRoot(node); err != nil {
		logger.Debug().Err(err).Msg("Rejected root")
		return err
	}
	e.clearCache()
	if node != nil {
		logger.Debug().Str("root", node.name).Str("id", node.id).Msg("Registered root")
	}
	return nil
}

// Root returns the registered root or nil when there is none
func (e *Engine) Root() *Node {
	return e.tree.Root()
}

// Register resets the engine to the "no root" state
func (e *Engine) Register() {
	// a nil root never fails validation
	_ = e.tree.SetRoot(nil)
	e.clearCache()
	logger := util.GetLogger("Engine.Register")
	logger.Debug().Msg("Tree reset")
}

/* Queries */

func (e *Engine) lookup(url string) (*Node, bool) {
	authority, segments, ok := e.resolver.Split(url)
	if !ok {
		return nil, false
	}
	return e.tree.Resolve(authority, segments)
}

// Lookup returns the node at url
func (e *Engine) Lookup(url string) (*Node, bool) {
	return e.lookup(url)
}

func (e *Engine) Exists(url string) bool {
	_, ok := e.lookup(url)
	return ok
}

// Stat returns a snapshot of the node at url
func (e *Engine) Stat(url string) (Stat, bool) {
	n, ok := e.lookup(url)
	if !ok {
		logger := util.GetLogger("Engine.Stat")
		logger.Trace().Str("url", url).Msg("Not found")
		return Stat{}, false
	}
	return StatOf(n), true
}

// Size is the content length for files; 0 for directories and absent paths
func (e *Engine) Size(url string) int64 {
	st, _ := e.Stat(url)
	return st.Size
}

// ModifiedAt returns the stored mtime in epoch seconds; 0 if absent
func (e *Engine) ModifiedAt(url string) int64 {
	st, _ := e.Stat(url)
	return st.Mtime
}

// IsReadable is true for every existing path. Stored permission bits are not
// enforced.
func (e *Engine) IsReadable(url string) bool {
	return e.Exists(url)
}

// IsWritable is true for every existing path. Stored permission bits are not
// enforced.
func (e *Engine) IsWritable(url string) bool {
	return e.Exists(url)
}

// IsExecutable is true for existing files with an x bit set; never for dirs
func (e *Engine) IsExecutable(url string) bool {
	st, ok := e.Stat(url)
	return ok && st.IsExecutable()
}

func (e *Engine) IsDir(url string) bool {
	st, ok := e.Stat(url)
	return ok && st.Kind == DirKind
}

func (e *Engine) IsFile(url string) bool {
	st, ok := e.Stat(url)
	return ok && st.Kind == FileKind
}

// FilePerms returns the type bits merged with the permission bits, i.e.
// 040755 or 0100644
func (e *Engine) FilePerms(url string) (uint32, bool) {
	st, ok := e.Stat(url)
	if !ok {
		return 0, false
	}
	return st.Mode(), true
}

// ListChildren returns the direct children of the directory at url in
// insertion order; empty when absent or not a directory
func (e *Engine) ListChildren(url string) []*Node {
	n, ok := e.lookup(url)
	if !ok || !n.IsDir() {
		return []*Node{}
	}
	return n.Children()
}

/* Mutations */

// Chmod overwrites the permission bits of the node at url. No-op if absent
func (e *Engine) Chmod(url string, perms uint32) {
	logger := util.GetLogger("Engine.Chmod")
	n, ok := e.lookup(url)
	if !ok {
		logger.Debug().Str("url", url).Msg("Path not found; ignoring")
		return
	}
	n.Chmod(perms)
	e.invalidate(url)
	logger.Trace().Str("url", url).Uint32("perms", n.perms).Msg("Changed perms")
}

// Touch sets the mtime of the node at url. No-op if absent
func (e *Engine) Touch(url string, mtime int64) {
	logger := util.GetLogger("Engine.Touch")
	n, ok := e.lookup(url)
	if !ok {
		logger.Debug().Str("url", url).Msg("Path not found; ignoring")
		return
	}
	n.SetMtime(mtime)
	e.invalidate(url)
}

// Unlink detaches and destroys the node at url with its whole subtree.
// Unlinking the root leaves the engine with no root.
func (e *Engine) Unlink(url string) bool {
	logger := util.GetLogger("Engine.Unlink")

	n, ok := e.lookup(url)
	if !ok {
		logger.Debug().Str("url", url).Msg("Path not found")
		return false
	}
	var err error
	if n.isRoot {
		_, err = e.tree.Detach(nil, n.name)
	} else {
		_, err = e.tree.Detach(n.parent, n.name)
	}
	if err != nil {
		// resolved nodes are always attached
		panic(fmt.Sprintf("filesystem: detach of resolved node %q failed: %v", url, err))
	}
	e.invalidate(url)
	logger.Debug().Str("url", url).Str("id", n.id).Msg("Unlinked")
	return true
}

// AddDirNode creates every missing directory in the request path, like
// `mkdir -p`, and returns the leaf. The root is created when none is
// registered. Requested perms, mtime and uuid apply only to the leaf, and
// only if it is newly created.
func (e *Engine) AddDirNode(req *memvfs.DirCreateRequest) (*Node, error) {
	logger := util.GetLogger("Engine.AddDirNode")

	authority, segments, ok := e.resolver.Split(req.Path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPath, req.Path)
	}

	newCnt := 0
	firstNew := "" // url of the topmost created dir
	cur := e.tree.Root()
	if cur == nil {
		cur = e.NewDir(authority)
		if err := e.tree.SetRoot(cur); err != nil {
			return nil, err
		}
		newCnt++
		firstNew = e.resolver.URL(authority)
	} else if cur.name != authority {
		return nil, fmt.Errorf("%w: root %s does not match %s", ErrNotFound, cur.name, req.Path)
	}
	leafCreated := newCnt > 0 && len(segments) == 0

	for i, name := range segments {
		if child, ok := cur.GetChild(name); ok {
			if !child.IsDir() {
				return nil, fmt.Errorf("%w: %s in %s", ErrNotDir, name, req.Path)
			}
			cur = child
			continue
		}
		node := e.NewDir(name)
		if err := e.tree.Attach(cur, node); err != nil {
			return nil, err
		}
		if newCnt == 0 {
			firstNew = e.resolver.URL(append([]string{authority}, segments[:i+1]...)...)
		}
		newCnt++
		cur = node
		leafCreated = i == len(segments)-1
	}

	if leafCreated {
		cur.ApplyRequest(&req.NodeRequest)
	}
	if newCnt > 0 {
		e.invalidate(firstNew)
		logger.Debug().Str("path", req.Path).Int("created", newCnt).Msg("Created dir(s)")
	}
	return cur, nil
}

// AddFileNode creates a file at the request path, creating missing parent
// directories with default attributes. Content is read from req.Source once,
// before anything is created; on error the tree is unchanged.
// Fails if a node already exists at the path.
func (e *Engine) AddFileNode(ctx context.Context, req *memvfs.FileCreateRequest) (*Node, error) {
	logger := util.GetLogger("Engine.AddFileNode")

	authority, segments, ok := e.resolver.Split(req.Path)
	if !ok || len(segments) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPath, req.Path)
	}
	if _, exists := e.tree.Resolve(authority, segments); exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateName, req.Path)
	}

	// load before touching the tree so a failing source leaves no parents behind
	var (
		content []byte
		err     error
	)
	if req.Source != nil {
		if content, err = req.Source.Content(ctx); err != nil {
			return nil, fmt.Errorf("failed to load content for %s: %w", req.Path, err)
		}
	}

	name := segments[len(segments)-1]
	dirReq := memvfs.DirCreateRequest{NodeRequest: memvfs.NodeRequest{
		Path: e.resolver.URL(append([]string{authority}, segments[:len(segments)-1]...)...),
		Type: memvfs.DirNodeType,
	}}
	parent, err := e.AddDirNode(&dirReq)
	if err != nil {
		logger.Error().Err(err).Str("path", dirReq.Path).Msg("Failed to create file's ancestor directory(s)")
		return nil, err
	}

	node := e.NewFile(name, content)
	node.ApplyRequest(&req.NodeRequest)
	if err := e.tree.Attach(parent, node); err != nil {
		return nil, err
	}
	e.invalidate(req.Path)
	logger.Debug().Str("path", req.Path).Int64("size", node.Size()).Msg("Added new file node")
	return node, nil
}

func (e *Engine) invalidate(url string) {
	if e.inval == nil {
		return
	}
	e.inval.Invalidate(url)
	if canonical, ok := e.resolver.Canonical(url); ok && canonical != url {
		e.inval.Invalidate(canonical)
	}
}

func (e *Engine) clearCache() {
	if e.inval != nil {
		e.inval.Clear()
	}
}
