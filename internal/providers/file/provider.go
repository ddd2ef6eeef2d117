// Package file implements the File Provider capability contract: a
// read-only, streaming view over a project's file tree, polymorphic over
// a closed set of variants selected by a `type` discriminator in project
// configuration — never an open plugin interface.
package file

import (
	"context"
	"image"
	"path/filepath"
	"strings"
)

// scannableExtensions is the set of file extensions the Scan Pipeline's
// filesystem sync step will turn into documents; anything else (temp
// files, sidecar metadata, etc.) is ignored during a project scan.
var scannableExtensions = map[string]bool{
	".pdf": true, ".png": true, ".jpg": true, ".jpeg": true,
	".bmp": true, ".gif": true, ".tif": true, ".tiff": true,
}

// IsScannable reports whether path's extension is one the Scan Pipeline
// turns into a document.
func IsScannable(path string) bool {
	return scannableExtensions[strings.ToLower(filepath.Ext(path))]
}

// PageImage is one decoded page, ready for an OCR provider or for
// base64/format serialization.
type PageImage struct {
	Page  int // 1-based
	Image image.Image
}

// PageContent is the base64-serialized projection of a PageImage returned
// to API callers.
type PageContent struct {
	Content     string  `json:"content"` // base64
	Page        int     `json:"page"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspect_ratio"`
	Format      string  `json:"format"`
	Mode        string  `json:"mode"`
}

// Provider is the File Provider capability contract. A Provider instance
// is scoped to one path for its lifetime; Close releases every stream or
// handle it opened, on every exit path.
type Provider interface {
	// IsFile reports whether the scoped path is a file.
	IsFile(ctx context.Context) (bool, error)
	// IsFolder reports whether the scoped path is a folder.
	IsFolder(ctx context.Context) (bool, error)
	// List lazily yields child path names relative to the scoped path.
	// Directories are filtered out. Not restartable: call List again on
	// a fresh Provider for a second pass.
	List(ctx context.Context) (<-chan string, <-chan error)
	// Read lazily yields the file content in chunks. A chunkSize of 0
	// yields the whole file as a single chunk.
	Read(ctx context.Context, chunkSize int) (<-chan []byte, <-chan error)
	// ReadAsImages rasterizes the scoped file into decoded page images.
	// For PDFs each page yields its largest embedded raster image at that
	// image's native resolution; the configured DPI is not applied, and a
	// page without an embedded raster image fails with DecodeError. page,
	// if non-zero, restricts the result to that 1-based page. Non-PDF
	// files always yield exactly one image at page 1.
	ReadAsImages(ctx context.Context, page int) ([]PageImage, error)
	// ReadAsBase64Images is ReadAsImages with each image additionally
	// serialized to the configured image format and base64-encoded.
	ReadAsBase64Images(ctx context.Context, page int) ([]PageContent, error)
	// Close releases every stream or handle opened by this Provider.
	Close() error
}

// Factory builds a Provider scoped to path, given the resolved
// provider-specific configuration. Concrete variants (Local, ObjectStore)
// each implement one Factory, selected by the project's
// file_provider.type discriminator — see internal/providers/registry.go.
type Factory func(ctx context.Context, path string) (Provider, error)
