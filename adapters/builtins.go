package adapters

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/brettbedarf/memvfs"
)

type BuiltInSourceType = string

const (
	TextSourceType     BuiltInSourceType = "text"
	Base64SourceType   BuiltInSourceType = "base64"
	HostFileSourceType BuiltInSourceType = "hostfile"
	HTTPSourceType     BuiltInSourceType = "http"
)

// RegisterBuiltins registers all built-in sources by default
// or only the specific ones if keys are provided.
// The http source uses [http.DefaultClient]; see [RegisterHTTP] to inject one.
func RegisterBuiltins(r *Registry, sources ...BuiltInSourceType) {
	if len(sources) == 0 {
		sources = []BuiltInSourceType{TextSourceType, Base64SourceType, HostFileSourceType, HTTPSourceType}
	}

	for _, key := range sources {
		switch key {
		case TextSourceType:
			r.Register(TextSourceType, newTextSource)
		case Base64SourceType:
			r.Register(Base64SourceType, newBase64Source)
		case HostFileSourceType:
			r.Register(HostFileSourceType, newHostFileSource)
		case HTTPSourceType:
			RegisterHTTP(r, http.DefaultClient)
		}
	}
}

// TextSource is inline file content
type TextSource struct {
	Text string `json:"text"`
}

func newTextSource(raw []byte) (memvfs.ContentProvider, error) {
	var src TextSource
	if err := json.Unmarshal(raw, &src); err != nil {
		return nil, err
	}
	return &src, nil
}

func (s *TextSource) Content(context.Context) ([]byte, error) {
	return []byte(s.Text), nil
}

// Base64Source is inline binary content, standard encoding with padding
type Base64Source struct {
	Data string `json:"data"`
}

func newBase64Source(raw []byte) (memvfs.ContentProvider, error) {
	var src Base64Source
	if err := json.Unmarshal(raw, &src); err != nil {
		return nil, err
	}
	// fail at definition time rather than at build time
	if _, err := base64.StdEncoding.DecodeString(src.Data); err != nil {
		return nil, fmt.Errorf("invalid base64 data: %w", err)
	}
	return &src, nil
}

func (s *Base64Source) Content(context.Context) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s.Data)
}

// HostFileSource copies a file from the host filesystem
type HostFileSource struct {
	Path string `json:"path"`
}

func newHostFileSource(raw []byte) (memvfs.ContentProvider, error) {
	var src HostFileSource
	if err := json.Unmarshal(raw, &src); err != nil {
		return nil, err
	}
	if src.Path == "" {
		return nil, errors.New("hostfile source requires a path")
	}
	return &src, nil
}

func (s *HostFileSource) Content(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(s.Path)
}
