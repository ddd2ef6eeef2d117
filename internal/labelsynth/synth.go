// Package labelsynth turns a canonical OcrResult into the initial,
// empty-labels DocumentLabelData a labeler starts from.
//
// The algorithm is a deterministic tree walk: every OcrItem of type page
// becomes a PageLabel; every OcrItem of type block is attached to its
// page's PageLabel unless one of its parents (discovered via a reverse
// scan of `child` relationships) is itself a block, which collapses
// nested layout blocks — produced by layout engines such as Textract,
// where a line can be the child of both a page and a layout block — into
// their outermost block only.
package labelsynth

import (
	"strings"

	"github.com/adverant/mrkr-core/internal/model"
	"github.com/google/uuid"
)

// index speeds up the parent/children lookups the walk needs repeatedly;
// built once per Synthesize call so the whole operation stays O(N)
// instead of the naive O(N²) re-scan of ocrResult.Items per item.
type index struct {
	byID     map[uuid.UUID]*model.OcrItem
	children map[uuid.UUID][]*model.OcrItem // parent id -> child items
	parents  map[uuid.UUID][]*model.OcrItem // child id -> parent items
}

func buildIndex(result *model.OcrResult) *index {
	idx := &index{
		byID:     make(map[uuid.UUID]*model.OcrItem, len(result.Items)),
		children: make(map[uuid.UUID][]*model.OcrItem),
		parents:  make(map[uuid.UUID][]*model.OcrItem),
	}

	for i := range result.Items {
		item := &result.Items[i]
		idx.byID[item.ID] = item
	}

	for i := range result.Items {
		item := &result.Items[i]
		for _, rel := range item.Relationships {
			if rel.Type != model.OcrRelationshipChild {
				continue
			}
			child, ok := idx.byID[rel.ID]
			if !ok {
				continue
			}
			idx.children[item.ID] = append(idx.children[item.ID], child)
			idx.parents[child.ID] = append(idx.parents[child.ID], item)
		}
	}

	return idx
}

// Synthesize runs the Label Synthesizer over an OcrResult, producing the
// initial DocumentLabelData (all label lists empty).
func Synthesize(result *model.OcrResult) *model.DocumentLabelData {
	idx := buildIndex(result)

	data := &model.DocumentLabelData{
		Labels:      []model.LabelEntry{},
		Pages:       initializePages(result, idx),
		LabelStatus: model.LabelStatusOpen,
	}

	return data
}

func initializePages(result *model.OcrResult, idx *index) []model.PageLabel {
	pages := make([]model.PageLabel, 0)

	for i := range result.Items {
		item := &result.Items[i]
		if item.Type != model.OcrItemPage {
			continue
		}

		pages = append(pages, model.PageLabel{
			ID:          item.ID,
			Page:        item.Page,
			Labels:      []model.LabelEntry{},
			Blocks:      initializeBlocks(result, idx, item.Page),
			LabelStatus: model.LabelStatusOpen,
		})
	}

	return pages
}

func initializeBlocks(result *model.OcrResult, idx *index, page int) []model.BlockLabel {
	blocks := make([]model.BlockLabel, 0)

	for i := range result.Items {
		item := &result.Items[i]
		if item.Type != model.OcrItemBlock || item.Page != page {
			continue
		}

		if hasBlockParent(idx, item.ID) {
			continue
		}

		blocks = append(blocks, model.BlockLabel{
			ID: item.ID,
			Position: model.Position{
				Left:   item.Left,
				Top:    item.Top,
				Width:  item.Width,
				Height: item.Height,
			},
			Content:     strings.TrimSpace(itemContent(idx, item, "")),
			Labels:      []model.LabelEntry{},
			LabelStatus: model.LabelStatusOpen,
		})
	}

	return blocks
}

// hasBlockParent reports whether any parent of itemID (via a `child`
// relationship pointing at it) is itself a block. Do not include blocks
// that are children of other blocks: in Textract-shaped layout output a
// line can be the child of both a page and a layout block, which would
// otherwise produce duplicate blocks in the label data.
func hasBlockParent(idx *index, itemID uuid.UUID) bool {
	for _, parent := range idx.parents[itemID] {
		if parent.Type == model.OcrItemBlock {
			return true
		}
	}
	return false
}

// itemContent recursively reconstructs plain text for item and its
// `child` closure. A paragraph child forces a blank line before it and a
// line child forces a single newline, each only if the buffer does not
// already end in a newline.
func itemContent(idx *index, item *model.OcrItem, content string) string {
	if item.Content != nil && len(*item.Content) > 0 {
		content += *item.Content + " "
	}

	for _, child := range idx.children[item.ID] {
		switch child.Type {
		case model.OcrItemParagraph:
			if len(content) > 0 && !strings.HasSuffix(content, "\n") {
				content = strings.TrimSpace(content) + "\n\n"
			}
		case model.OcrItemLine:
			if len(content) > 0 && !strings.HasSuffix(content, "\n") {
				content = strings.TrimSpace(content) + "\n"
			}
		}
		content = itemContent(idx, child, content)
	}

	return content
}
