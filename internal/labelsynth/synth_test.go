package labelsynth

import (
	"testing"

	"github.com/adverant/mrkr-core/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func childRel(id uuid.UUID) model.OcrRelationship {
	return model.OcrRelationship{Type: model.OcrRelationshipChild, ID: id}
}

func TestSynthesize_SimpleTree(t *testing.T) {
	pageID := uuid.New()
	blockID := uuid.New()
	lineID := uuid.New()
	wordID := uuid.New()

	result := &model.OcrResult{
		ID: uuid.New(),
		Items: []model.OcrItem{
			{ID: pageID, Type: model.OcrItemPage, Page: 1, Relationships: []model.OcrRelationship{childRel(blockID)}},
			{ID: blockID, Type: model.OcrItemBlock, Page: 1, Left: 0.1, Top: 0.2, Width: 0.3, Height: 0.1, Relationships: []model.OcrRelationship{childRel(lineID)}},
			{ID: lineID, Type: model.OcrItemLine, Page: 1, Relationships: []model.OcrRelationship{childRel(wordID)}},
			{ID: wordID, Type: model.OcrItemWord, Page: 1, Content: strPtr("Hello")},
		},
	}

	data := Synthesize(result)

	require.Len(t, data.Pages, 1)
	assert.Equal(t, pageID, data.Pages[0].ID)
	require.Len(t, data.Pages[0].Blocks, 1)

	block := data.Pages[0].Blocks[0]
	assert.Equal(t, blockID, block.ID)
	assert.Equal(t, "Hello", block.Content)
	assert.Equal(t, model.Position{Left: 0.1, Top: 0.2, Width: 0.3, Height: 0.1}, block.Position)
	assert.Empty(t, block.Labels)
}

// TestSynthesize_DedupesNestedBlocks grounds the block-dedup rule: a block
// that is the child of another block must not surface as a second
// top-level block for the page; only the outermost block remains.
func TestSynthesize_DedupesNestedBlocks(t *testing.T) {
	pageID := uuid.New()
	outerBlockID := uuid.New()
	innerBlockID := uuid.New()
	wordID := uuid.New()

	result := &model.OcrResult{
		ID: uuid.New(),
		Items: []model.OcrItem{
			{ID: pageID, Type: model.OcrItemPage, Page: 1, Relationships: []model.OcrRelationship{childRel(outerBlockID)}},
			{ID: outerBlockID, Type: model.OcrItemBlock, Page: 1, Relationships: []model.OcrRelationship{childRel(innerBlockID)}},
			{ID: innerBlockID, Type: model.OcrItemBlock, Page: 1, Relationships: []model.OcrRelationship{childRel(wordID)}},
			{ID: wordID, Type: model.OcrItemWord, Page: 1, Content: strPtr("nested")},
		},
	}

	data := Synthesize(result)

	require.Len(t, data.Pages, 1)
	require.Len(t, data.Pages[0].Blocks, 1)
	assert.Equal(t, outerBlockID, data.Pages[0].Blocks[0].ID)
}

func TestSynthesize_ParagraphAndLineSpacing(t *testing.T) {
	pageID := uuid.New()
	blockID := uuid.New()
	para1 := uuid.New()
	para2 := uuid.New()
	line1 := uuid.New()
	line2 := uuid.New()
	word1 := uuid.New()
	word2 := uuid.New()

	result := &model.OcrResult{
		ID: uuid.New(),
		Items: []model.OcrItem{
			{ID: pageID, Type: model.OcrItemPage, Page: 1, Relationships: []model.OcrRelationship{childRel(blockID)}},
			{ID: blockID, Type: model.OcrItemBlock, Page: 1, Relationships: []model.OcrRelationship{childRel(para1), childRel(para2)}},
			{ID: para1, Type: model.OcrItemParagraph, Page: 1, Relationships: []model.OcrRelationship{childRel(line1)}},
			{ID: para2, Type: model.OcrItemParagraph, Page: 1, Relationships: []model.OcrRelationship{childRel(line2)}},
			{ID: line1, Type: model.OcrItemLine, Page: 1, Relationships: []model.OcrRelationship{childRel(word1)}},
			{ID: line2, Type: model.OcrItemLine, Page: 1, Relationships: []model.OcrRelationship{childRel(word2)}},
			{ID: word1, Type: model.OcrItemWord, Page: 1, Content: strPtr("First")},
			{ID: word2, Type: model.OcrItemWord, Page: 1, Content: strPtr("Second")},
		},
	}

	data := Synthesize(result)

	require.Len(t, data.Pages[0].Blocks, 1)
	assert.Equal(t, "First\n\nSecond", data.Pages[0].Blocks[0].Content)
}

func TestSynthesize_Deterministic(t *testing.T) {
	pageID := uuid.New()
	blockID := uuid.New()

	result := &model.OcrResult{
		ID: uuid.New(),
		Items: []model.OcrItem{
			{ID: pageID, Type: model.OcrItemPage, Page: 1, Relationships: []model.OcrRelationship{childRel(blockID)}},
			{ID: blockID, Type: model.OcrItemBlock, Page: 1, Content: strPtr("x")},
		},
	}

	first := Synthesize(result)
	second := Synthesize(result)

	assert.Equal(t, first, second)
}
