// Package ocr implements the OCR Provider capability contract: given a
// set of page images, produce a canonical OcrResult tree. Variants
// (LocalOCR/Tesseract, LayoutOCR/Textract-shaped) are a closed, tagged
// set selected by a project's ocr_provider.type discriminator.
package ocr

import (
	"context"

	"github.com/adverant/mrkr-core/internal/model"
	"github.com/adverant/mrkr-core/internal/providers/file"
)

// Provider is the OCR Provider capability contract.
type Provider interface {
	// OCR runs the engine over images and returns the canonical,
	// normalized OcrResult tree.
	OCR(ctx context.Context, images []file.PageImage) (*model.OcrResult, error)
}

// Factory builds a Provider given resolved, provider-specific config.
type Factory func() (Provider, error)

// mapItemType applies the shared type-map rule used by both variants:
// page -> page, line -> line, word -> word, anything else -> block.
func mapItemType(raw string) model.OcrItemType {
	switch raw {
	case "page", "PAGE":
		return model.OcrItemPage
	case "line", "LINE":
		return model.OcrItemLine
	case "word", "WORD":
		return model.OcrItemWord
	default:
		return model.OcrItemBlock
	}
}
