package filesystem

import (
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
)

// execBits are the x bits of the owner, group and other triads
const execBits uint32 = 0o111

// Blksize reported by [Stat.Attr]
const Blksize = 4096

// Stat is a read-only snapshot of the conventional stat fields of a node
type Stat struct {
	Name  string
	Kind  Kind
	Size  int64
	Mtime int64 // epoch seconds
	Perms uint32
}

// StatOf projects n into a Stat
func StatOf(n *Node) Stat {
	return Stat{
		Name:  n.name,
		Kind:  n.kind,
		Size:  n.Size(),
		Mtime: n.mtime,
		Perms: n.perms,
	}
}

// Mode merges the type discriminant into the high bits and the permission
// bits into the low bits, i.e. 040777 for a directory and 0100644 for a file
func (s Stat) Mode() uint32 {
	switch s.Kind {
	case DirKind:
		return fuse.S_IFDIR | s.Perms
	case FileKind:
		return fuse.S_IFREG | s.Perms
	default:
		return s.Perms
	}
}

func (s Stat) IsDir() bool {
	return s.Kind == DirKind
}

// IsExecutable is true only for files with any x bit set. Directories are
// never reported executable, search permission is not emulated.
func (s Stat) IsExecutable() bool {
	return s.Kind == FileKind && s.Perms&execBits != 0
}

func (s Stat) ModTime() time.Time {
	return time.Unix(s.Mtime, 0)
}

// Attr converts the snapshot into FUSE wire attributes for host adapters
// that speak the FUSE protocol. Times other than mtime mirror mtime.
func (s Stat) Attr() fuse.Attr {
	mtime := uint64(max(s.Mtime, 0))
	size := uint64(max(s.Size, 0))
	return fuse.Attr{
		Size:    size,
		Blocks:  (size + 511) / 512,
		Atime:   mtime,
		Mtime:   mtime,
		Ctime:   mtime,
		Mode:    s.Mode(),
		Nlink:   1,
		Blksize: Blksize,
	}
}
