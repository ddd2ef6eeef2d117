package file

import (
	"bytes"
	"fmt"
	"image"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	mrkrerrors "github.com/adverant/mrkr-core/internal/errors"
)

// rasterizePDF turns a PDF's pages into decoded images. When page is
// non-zero, only that 1-based page is returned.
//
// pdfcpu has no general page-to-bitmap renderer (unlike the original
// Python implementation's pdf2image/poppler dependency), so each page is
// rasterized by extracting its largest embedded raster XObject at that
// image's native resolution; dpi is accepted for interface parity with
// the original but has no effect on pdfcpu's extraction path. A page
// built entirely from vector content with no embedded raster image is
// out of scope for this substitution and fails with DecodeError rather
// than silently returning a blank image.
func rasterizePDF(path string, dpi int, page int) ([]PageImage, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, mrkrerrors.NewNotFound("file", path)
	}
	if err != nil {
		return nil, mrkrerrors.NewIOError(path, err)
	}
	defer f.Close()

	ctx, err := api.ReadContext(f, model.NewDefaultConfiguration())
	if err != nil {
		return nil, mrkrerrors.NewDecodeError(path, err)
	}

	pageCount := ctx.PageCount
	pages := []int{}
	if page > 0 {
		if page > pageCount {
			return nil, mrkrerrors.NewDecodeError(path, fmt.Errorf("page %d exceeds page count %d", page, pageCount))
		}
		pages = []int{page}
	} else {
		for i := 1; i <= pageCount; i++ {
			pages = append(pages, i)
		}
	}

	tmpDir, err := os.MkdirTemp("", "mrkr-pdf-*")
	if err != nil {
		return nil, mrkrerrors.NewIOError(path, err)
	}
	defer os.RemoveAll(tmpDir)

	selected := make([]string, len(pages))
	for i, pg := range pages {
		selected[i] = fmt.Sprintf("%d", pg)
	}

	if err := api.ExtractImagesFile(path, tmpDir, selected, nil); err != nil {
		return nil, mrkrerrors.NewDecodeError(path, err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return nil, mrkrerrors.NewIOError(path, err)
	}
	if len(entries) == 0 {
		return nil, mrkrerrors.NewDecodeError(path, fmt.Errorf("no embedded raster image found on requested page(s)"))
	}

	byPage := make(map[int]image.Image)
	for _, entry := range entries {
		pg, img, err := decodeExtractedImage(tmpDir, entry.Name())
		if err != nil {
			continue
		}
		// Keep the largest image per page: a page may embed multiple
		// raster XObjects (e.g. a logo plus a full-page scan); the
		// scan is the one we want.
		if existing, ok := byPage[pg]; ok {
			if imageArea(existing) >= imageArea(img) {
				continue
			}
		}
		byPage[pg] = img
	}

	result := make([]PageImage, 0, len(pages))
	for _, pg := range pages {
		img, ok := byPage[pg]
		if !ok {
			return nil, mrkrerrors.NewDecodeError(path, fmt.Errorf("page %d has no extractable raster content", pg))
		}
		result = append(result, PageImage{Page: pg, Image: img})
	}

	return result, nil
}

// rasterizePDFBytes is rasterizePDF for in-memory PDF content (used by
// the ObjectStore variant, which has no local file to point pdfcpu at).
func rasterizePDFBytes(data []byte, dpi int, page int) ([]PageImage, error) {
	tmpFile, err := os.CreateTemp("", "mrkr-pdf-*.pdf")
	if err != nil {
		return nil, mrkrerrors.NewIOError("pdf", err)
	}
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	if _, err := tmpFile.Write(data); err != nil {
		return nil, mrkrerrors.NewIOError("pdf", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return nil, mrkrerrors.NewIOError("pdf", err)
	}

	return rasterizePDF(tmpFile.Name(), dpi, page)
}

func imageArea(img image.Image) int {
	b := img.Bounds()
	return b.Dx() * b.Dy()
}

// decodeExtractedImage loads one file pdfcpu wrote into tmpDir and returns
// the 1-based page number embedded in its filename (pdfcpu names
// extracted images "<basename>_<page>_<n>.<ext>").
func decodeExtractedImage(dir, name string) (int, image.Image, error) {
	data, err := os.ReadFile(dir + string(os.PathSeparator) + name)
	if err != nil {
		return 0, nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, nil, err
	}
	return pageNumberFromFilename(name), img, nil
}
