package requests

import (
	"github.com/brettbedarf/memvfs"
)

// SupportedVersions is the semver constraint definition files must satisfy
const SupportedVersions = "^1"

// Definition is the YAML/JSON representation of a whole tree.
//
// Ex.
//
//	version: "1.0"
//	root:
//	  name: foo
//	  children:
//	    - name: bar
//	      perms: "0755"
//	      children:
//	        - name: baz1
//	          mtime: 300
//	          source: {type: text, text: "baz 1"}
type Definition struct {
	Version string  `yaml:"version" json:"version"`
	Root    NodeDTO `yaml:"root" json:"root"`
}

// NodeDTO is the representation of a single node and, for directories, its
// children.
//
// An empty Type is inferred: "file" when Source is set, otherwise "dir".
type NodeDTO struct {
	Name  string                       `yaml:"name" json:"name"`
	Type  memvfs.NodeCreateRequestType `yaml:"type,omitempty" json:"type,omitempty"`
	UUID  *string                      `yaml:"uuid,omitempty" json:"uuid,omitempty"`   // Optional stable id
	Mtime *int64                       `yaml:"mtime,omitempty" json:"mtime,omitempty"` // Epoch seconds (Default current time)
	Perms *string                      `yaml:"perms,omitempty" json:"perms,omitempty"` // Octal, i.e. "0755" or "0o644"

	// Source is passed to the adapters registry as JSON.
	// The "type" key selects the adapter, i.e. {type: http, url: ...}
	Source map[string]any `yaml:"source,omitempty" json:"source,omitempty"`

	Children []NodeDTO `yaml:"children,omitempty" json:"children,omitempty"`
}

func (n *NodeDTO) nodeType() memvfs.NodeCreateRequestType {
	switch {
	case n.Type != "":
		return n.Type
	case n.Source != nil:
		return memvfs.FileNodeType
	default:
		return memvfs.DirNodeType
	}
}
