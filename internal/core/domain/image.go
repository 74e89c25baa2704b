package domain

import (
	"errors"
	"strings"
)

var errEmptyWord = errors.New("word is empty")

const blobScheme = "blob:"

// ImageHandle points at a generated illustration.
//
// The zero value means no image. A "blob:" handle refers to transient bytes in
// the session blob store; any other value (a data: payload or an external URL)
// is already storable as-is.
type ImageHandle string

func NewBlobHandle(key string) ImageHandle {
	return ImageHandle(blobScheme + key)
}

func (h ImageHandle) Empty() bool {
	return strings.TrimSpace(string(h)) == ""
}

func (h ImageHandle) IsBlob() bool {
	return strings.HasPrefix(string(h), blobScheme)
}

// BlobKey returns the storage key of a blob handle.
func (h ImageHandle) BlobKey() (string, bool) {
	if !h.IsBlob() {
		return "", false
	}
	key := strings.TrimPrefix(string(h), blobScheme)
	if key == "" {
		return "", false
	}
	return key, true
}

// IsInline reports whether the handle is already a self-describing data: payload.
func (h ImageHandle) IsInline() bool {
	return strings.HasPrefix(string(h), "data:")
}
