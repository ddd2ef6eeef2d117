package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/adverant/mrkr-core/internal/cloudsession"
	mrkrerrors "github.com/adverant/mrkr-core/internal/errors"
	"github.com/adverant/mrkr-core/internal/model"
	"github.com/adverant/mrkr-core/internal/providers/file"
)

// LayoutOCR is the hierarchical-block variant: the engine already
// returns a tree (via CHILD relationships), so this provider only maps
// block types and relationship types rather than reconstructing a
// hierarchy from a flat stream.
type LayoutProvider struct {
	session *cloudsession.Session
	breaker *gobreaker.CircuitBreaker
}

// NewLayoutFactory returns a Factory for the LayoutOCR variant, backed by
// the shared Cloud Session for credentials.
func NewLayoutFactory(session *cloudsession.Session) Factory {
	return func() (Provider, error) {
		return &LayoutProvider{
			session: session,
			breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
				Name:    "textract-ocr",
				Timeout: 30 * time.Second,
			}),
		}, nil
	}
}

func (p *LayoutProvider) OCR(ctx context.Context, images []file.PageImage) (*model.OcrResult, error) {
	result := &model.OcrResult{ID: uuid.New()}

	client, err := p.session.TextractClient(ctx)
	if err != nil {
		return nil, err
	}

	for _, pi := range images {
		items, err := p.runBreaker(ctx, client, pi)
		if err != nil {
			return nil, mrkrerrors.NewOcrError(0, err)
		}
		result.Items = append(result.Items, items...)
	}

	return result, nil
}

func (p *LayoutProvider) runBreaker(ctx context.Context, client *textract.Client, pi file.PageImage) ([]model.OcrItem, error) {
	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.analyzePage(ctx, client, pi)
	})
	if err != nil {
		return nil, err
	}
	return out.([]model.OcrItem), nil
}

func (p *LayoutProvider) analyzePage(ctx context.Context, client *textract.Client, pi file.PageImage) ([]model.OcrItem, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, pi.Image, &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("encode page %d for textract: %w", pi.Page, err)
	}

	out, err := client.AnalyzeDocument(ctx, &textract.AnalyzeDocumentInput{
		Document: &types.Document{Bytes: buf.Bytes()},
		FeatureTypes: []types.FeatureType{
			types.FeatureTypeLayout,
			types.FeatureTypeTables,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("analyze document: %w", err)
	}

	return convertBlocks(out.Blocks, pi.Page), nil
}

// convertBlocks maps AWS Textract's Block model onto the canonical
// OcrItem model, grounded on the original textract.py's map_block_type
// and map_relationship_type: page -> page, line -> line, word -> word,
// anything else -> block; only CHILD relationships are retained.
func convertBlocks(blocks []types.Block, page int) []model.OcrItem {
	idByBlockID := make(map[string]uuid.UUID, len(blocks))
	for _, b := range blocks {
		if b.Id != nil {
			idByBlockID[*b.Id] = uuid.New()
		}
	}

	items := make([]model.OcrItem, 0, len(blocks))
	for _, b := range blocks {
		if b.Id == nil {
			continue
		}

		var rels []model.OcrRelationship
		for _, rel := range b.Relationships {
			if rel.Type != types.RelationshipTypeChild {
				continue
			}
			for _, childID := range rel.Ids {
				if id, ok := idByBlockID[childID]; ok {
					rels = append(rels, model.OcrRelationship{
						Type: model.OcrRelationshipChild,
						ID:   id,
					})
				}
			}
		}

		itemType := mapBlockType(b.BlockType)

		var left, top, width, height float64
		if b.Geometry != nil && b.Geometry.BoundingBox != nil {
			box := b.Geometry.BoundingBox
			left = float64(deref32(box.Left))
			top = float64(deref32(box.Top))
			width = float64(deref32(box.Width))
			height = float64(deref32(box.Height))
		}

		var confidence *float64
		if b.Confidence != nil {
			c := float64(*b.Confidence)
			confidence = &c
		}

		var content *string
		if itemType == model.OcrItemWord && b.Text != nil {
			content = b.Text
		}

		items = append(items, model.OcrItem{
			ID:            idByBlockID[*b.Id],
			Type:          itemType,
			Page:          page,
			Left:          left,
			Top:           top,
			Width:         width,
			Height:        height,
			Confidence:    confidence,
			Content:       content,
			Relationships: rels,
		})
	}

	return items
}

func mapBlockType(bt types.BlockType) model.OcrItemType {
	switch bt {
	case types.BlockTypePage:
		return model.OcrItemPage
	case types.BlockTypeLine:
		return model.OcrItemLine
	case types.BlockTypeWord:
		return model.OcrItemWord
	default:
		return model.OcrItemBlock
	}
}

func deref32(v *float32) float32 {
	if v == nil {
		return 0
	}
	return *v
}
