package filestorage

import (
	"context"
	"strings"
)

// ImageStore is the binary storage collaborator: it accepts an image payload
// and returns a publicly resolvable reference.
type ImageStore interface {
	// SaveImage normalizes and stores raw image bytes under subPath.
	SaveImage(ctx context.Context, data []byte, subPath string) (string, error)

	// SaveDataURL decodes a "data:image/...;base64," payload and stores it.
	SaveDataURL(ctx context.Context, dataURL string, subPath string) (string, error)

	// DeleteFile removes a stored file by its public reference.
	DeleteFile(publicURL string) error

	// Owns reports whether publicURL points into this store.
	Owns(publicURL string) bool

	// Copy stores a new copy of an owned file under subPath.
	Copy(ctx context.Context, publicURL string, subPath string) (string, error)
}

// IsDataURL reports whether s is an inline base64 image.
func IsDataURL(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "data:")
}

// ResolveImage turns a request image field into a stored reference. Empty
// input stays empty and current (the record's existing image) is kept as is.
// Data URLs are uploaded. A reference the store owns is copied, so every
// record owns the files it may later delete. Anything else is an external
// URL and is returned as is. Uploads fail with ErrStorageUnavailable when
// store is nil.
func ResolveImage(ctx context.Context, store ImageStore, value, current, subPath string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == current {
		return value, nil
	}
	if IsDataURL(value) {
		if store == nil {
			return "", ErrStorageUnavailable
		}
		return store.SaveDataURL(ctx, value, subPath)
	}
	if store != nil && store.Owns(value) {
		return store.Copy(ctx, value, subPath)
	}
	return value, nil
}
