package filesystem

import (
	"path"
	"strings"
)

// Separator splits path segments. Segment names never contain it.
const Separator = "/"

const schemeSep = "://"

// Resolver translates between external URLs of the form
// <scheme>://<root>[/<segment>]* and path segments.
//
// All methods are lexical and never consult a tree, so they work for
// paths that do not exist.
type Resolver struct {
	scheme string
	prefix string
}

func NewResolver(scheme string) *Resolver {
	return &Resolver{scheme: scheme, prefix: scheme + schemeSep}
}

func (r *Resolver) Scheme() string {
	return r.scheme
}

// Prefix returns the scheme with its separator, i.e. "vfs://"
func (r *Resolver) Prefix() string {
	return r.prefix
}

// URL builds an external URL from the root name and segments.
// URL("foo", "bar") -> "vfs://foo/bar"
func (r *Resolver) URL(parts ...string) string {
	return r.prefix + strings.Join(parts, Separator)
}

// Join appends a child name to url
func (r *Resolver) Join(url, name string) string {
	if rest, ok := strings.CutPrefix(url, r.prefix); ok && strings.Trim(rest, Separator) == "" {
		return r.prefix + name
	}
	return strings.TrimRight(url, Separator) + Separator + name
}

// Split parses url into its authority (the root name) and the segments below
// it. "." segments are dropped, ".." pops the previous segment and repeated
// separators collapse. ok is false when the scheme does not match or no
// authority remains.
func (r *Resolver) Split(url string) (authority string, segments []string, ok bool) {
	rest, found := strings.CutPrefix(url, r.prefix)
	if !found {
		return "", nil, false
	}
	cleaned := path.Clean(Separator + rest)
	if cleaned == Separator {
		return "", nil, false
	}
	parts := strings.Split(cleaned[1:], Separator)
	return parts[0], parts[1:], true
}

// Canonical returns the single spelling of url that [Resolver.Split] maps
// to its segments, i.e. "vfs://foo//bar/./baz/" -> "vfs://foo/bar/baz".
// ok is false when url does not split.
func (r *Resolver) Canonical(url string) (string, bool) {
	authority, segments, ok := r.Split(url)
	if !ok {
		return "", false
	}
	return r.URL(append([]string{authority}, segments...)...), true
}

// SplitParentAndLeaf splits url into the parent URL and the leaf name.
//
//	vfs://foo/bar -> (vfs://foo, bar)
//	vfs://foo     -> (vfs://, foo)
//	vfs://        -> (vfs://, "")
//
// A URL with nothing after the prefix has an empty leaf; the prefix is its
// own parent. Trailing separators are ignored. Strings without the scheme prefix use
// plain slash path semantics.
func (r *Resolver) SplitParentAndLeaf(url string) (parent, leaf string) {
	rest, found := strings.CutPrefix(url, r.prefix)
	if !found {
		return path.Dir(url), path.Base(url)
	}
	rest = strings.TrimRight(rest, Separator)
	i := strings.LastIndex(rest, Separator)
	if i < 0 {
		return r.prefix, rest
	}
	return r.prefix + strings.TrimRight(rest[:i], Separator), rest[i+1:]
}

// Dirname returns the parent part of [Resolver.SplitParentAndLeaf]
func (r *Resolver) Dirname(url string) string {
	parent, _ := r.SplitParentAndLeaf(url)
	return parent
}

// Basename returns the leaf part of [Resolver.SplitParentAndLeaf]
func (r *Resolver) Basename(url string) string {
	_, leaf := r.SplitParentAndLeaf(url)
	return leaf
}
