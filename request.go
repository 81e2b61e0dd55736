package memvfs

// NodeRequest has common fields embedded in concrete request types
type NodeRequest struct {
	// Path is the full external URL of the node, i.e. vfs://root/dir/file
	Path  string
	Type  NodeCreateRequestType
	UUID  string // Optional stable id; generated when empty
	Mtime *int64 // Modified at in epoch seconds (Default current time)
	Perms *uint32
}

// NodeCreateRequestType valid types are FileNodeType "file", DirNodeType "dir"
type NodeCreateRequestType string

const (
	FileNodeType NodeCreateRequestType = "file"
	DirNodeType  NodeCreateRequestType = "dir"
)

type FileCreateRequest struct {
	NodeRequest
	Source ContentProvider
}

type DirCreateRequest struct {
	NodeRequest
}
