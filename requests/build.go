package requests

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/brettbedarf/memvfs"
	"github.com/brettbedarf/memvfs/adapters"
	"github.com/brettbedarf/memvfs/config"
	"github.com/brettbedarf/memvfs/filesystem"
	"github.com/brettbedarf/memvfs/internal/util"
)

var errNoRegistry = errors.New("source given but no adapters registry")

// Build creates a detached tree from the definition, ready for
// [filesystem.Engine.SetRoot]. Nodes without perms get the configured
// defaults; cfg may be nil.
func (d *Definition) Build(ctx context.Context, cfg *config.Config, reg *adapters.Registry) (*filesystem.Node, error) {
	logger := util.GetLogger("Definition.Build")
	// only used for its perm defaults
	factory := filesystem.NewEngine(cfg)

	root, err := buildNode(ctx, factory, reg, &d.Root)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("root", root.Name()).Msg("Built tree")
	return root, nil
}

func buildNode(ctx context.Context, e *filesystem.Engine, reg *adapters.Registry, dto *NodeDTO) (*filesystem.Node, error) {
	req, err := convertNodeDTO(dto, dto.Name)
	if err != nil {
		return nil, err
	}

	if req.Type == memvfs.FileNodeType {
		content, err := loadContent(ctx, reg, dto)
		if err != nil {
			return nil, err
		}
		return e.NewFile(dto.Name, content).ApplyRequest(&req), nil
	}

	dir := e.NewDir(dto.Name).ApplyRequest(&req)
	for i := range dto.Children {
		child, err := buildNode(ctx, e, reg, &dto.Children[i])
		if err != nil {
			return nil, err
		}
		if err := dir.AddChild(child); err != nil {
			return nil, err
		}
	}
	return dir, nil
}

func loadContent(ctx context.Context, reg *adapters.Registry, dto *NodeDTO) ([]byte, error) {
	provider, err := sourceProvider(reg, dto)
	if err != nil || provider == nil {
		return nil, err
	}
	content, err := provider.Content(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load content for %s: %w", dto.Name, err)
	}
	return content, nil
}

func sourceProvider(reg *adapters.Registry, dto *NodeDTO) (memvfs.ContentProvider, error) {
	if dto.Source == nil {
		return nil, nil
	}
	if reg == nil {
		return nil, fmt.Errorf("%w: %s", errNoRegistry, dto.Name)
	}
	raw, err := json.Marshal(dto.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to encode source of %s: %w", dto.Name, err)
	}
	return reg.GetProvider(raw)
}

// Requests flattens the definition into create requests addressed by URL.
// Directories come first in tree order so that each is created with its own
// attributes before anything lands inside it.
func (d *Definition) Requests(r *filesystem.Resolver, reg *adapters.Registry) ([]*memvfs.DirCreateRequest, []*memvfs.FileCreateRequest, error) {
	var (
		dirs  []*memvfs.DirCreateRequest
		files []*memvfs.FileCreateRequest
	)

	var walk func(dto *NodeDTO, url string) error
	walk = func(dto *NodeDTO, url string) error {
		req, err := convertNodeDTO(dto, url)
		if err != nil {
			return err
		}
		if req.Type == memvfs.FileNodeType {
			provider, err := sourceProvider(reg, dto)
			if err != nil {
				return err
			}
			files = append(files, &memvfs.FileCreateRequest{NodeRequest: req, Source: provider})
			return nil
		}
		dirs = append(dirs, &memvfs.DirCreateRequest{NodeRequest: req})
		for i := range dto.Children {
			child := &dto.Children[i]
			if err := walk(child, r.Join(url, child.Name)); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(&d.Root, r.URL(d.Root.Name)); err != nil {
		return nil, nil, err
	}
	return dirs, files, nil
}

// Apply adds every node of the definition to e. The engine must have no root
// or a root with the definition's root name. Existing directories keep their
// attributes; an existing file is an error.
func (d *Definition) Apply(ctx context.Context, e *filesystem.Engine, reg *adapters.Registry) error {
	logger := util.GetLogger("Definition.Apply")

	dirs, files, err := d.Requests(e.Resolver(), reg)
	if err != nil {
		return err
	}
	for _, req := range dirs {
		if _, err := e.AddDirNode(req); err != nil {
			return fmt.Errorf("failed to add dir %s: %w", req.Path, err)
		}
	}
	for _, req := range files {
		if _, err := e.AddFileNode(ctx, req); err != nil {
			return fmt.Errorf("failed to add file %s: %w", req.Path, err)
		}
	}
	logger.Info().Int("directories", len(dirs)).Int("files", len(files)).Msg("Added new nodes to filesystem")
	return nil
}

// convertNodeDTO applies defaults in the unmarshaling layer. path is only
// used for the request and error messages.
func convertNodeDTO(dto *NodeDTO, path string) (memvfs.NodeRequest, error) {
	req := memvfs.NodeRequest{
		Path:  path,
		Type:  dto.nodeType(),
		UUID:  util.ValueOrDefault(dto.UUID, uuid.NewString()),
		Mtime: dto.Mtime,
	}
	if dto.Perms != nil {
		perms, err := config.ParsePerms(*dto.Perms)
		if err != nil {
			return req, fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, path, err)
		}
		req.Perms = &perms
	}
	return req, nil
}
