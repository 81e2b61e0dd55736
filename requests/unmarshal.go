package requests

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/brettbedarf/memvfs"
	"github.com/brettbedarf/memvfs/config"
	"github.com/brettbedarf/memvfs/filesystem"
	"github.com/brettbedarf/memvfs/internal/util"
)

var (
	ErrUnsupportedVersion = errors.New("unsupported definition version")
	ErrInvalidDefinition  = errors.New("invalid definition")
)

var supported = mustConstraint(SupportedVersions)

func mustConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraint
}

// LoadDefinitionFile reads and validates a definition file. JSON is accepted
// as well as YAML regardless of the extension.
func LoadDefinitionFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	def, err := ParseDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger := util.GetLogger("requests.LoadDefinitionFile")
	logger.Debug().Str("path", path).Str("version", def.Version).Msg("Loaded definition")
	return def, nil
}

// ParseDefinition unmarshals and validates a YAML or JSON definition
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks the version and the shape of the node tree
func (d *Definition) Validate() error {
	if d.Version == "" {
		return fmt.Errorf("%w: missing version", ErrUnsupportedVersion)
	}
	v, err := semver.NewVersion(d.Version)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrUnsupportedVersion, d.Version, err)
	}
	if !supported.Check(v) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrUnsupportedVersion, v, SupportedVersions)
	}
	if d.Root.nodeType() != memvfs.DirNodeType {
		return fmt.Errorf("%w: root %q must be a dir", ErrInvalidDefinition, d.Root.Name)
	}
	return validateNode(&d.Root, d.Root.Name)
}

func validateNode(n *NodeDTO, at string) error {
	if n.Name == "" || n.Name == "." || n.Name == ".." || strings.Contains(n.Name, filesystem.Separator) {
		return fmt.Errorf("%w: bad name %q at %s", ErrInvalidDefinition, n.Name, at)
	}
	if n.Perms != nil {
		if _, err := config.ParsePerms(*n.Perms); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, at, err)
		}
	}

	switch n.nodeType() {
	case memvfs.FileNodeType:
		if len(n.Children) > 0 {
			return fmt.Errorf("%w: file %s has children", ErrInvalidDefinition, at)
		}
	case memvfs.DirNodeType:
		if n.Source != nil {
			return fmt.Errorf("%w: dir %s has a source", ErrInvalidDefinition, at)
		}
		seen := make(map[string]struct{}, len(n.Children))
		for i := range n.Children {
			child := &n.Children[i]
			childAt := at + filesystem.Separator + child.Name
			if _, dup := seen[child.Name]; dup {
				return fmt.Errorf("%w: duplicate name %s", ErrInvalidDefinition, childAt)
			}
			seen[child.Name] = struct{}{}
			if err := validateNode(child, childAt); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: unknown type %q at %s", ErrInvalidDefinition, n.Type, at)
	}
	return nil
}
