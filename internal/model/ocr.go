package model

import "github.com/google/uuid"

// OcrItemType is the five-level taxonomy of nodes in an OCR result tree.
type OcrItemType string

const (
	OcrItemPage      OcrItemType = "page"
	OcrItemBlock     OcrItemType = "block"
	OcrItemParagraph OcrItemType = "paragraph"
	OcrItemLine      OcrItemType = "line"
	OcrItemWord      OcrItemType = "word"
)

// OcrRelationshipType enumerates the edge kinds between OCR items. Only
// `child` is retained after provider normalization.
type OcrRelationshipType string

const OcrRelationshipChild OcrRelationshipType = "child"

// OcrRelationship is a directed edge from the owning item to another item.
type OcrRelationship struct {
	Type OcrRelationshipType `json:"type"`
	ID   uuid.UUID           `json:"id"`
}

// OcrItem is a single node in the OCR result tree: a page, a layout block,
// a paragraph, a line, or a word. Bounding box fields are normalized to
// [0,1] against the source page image's dimensions.
type OcrItem struct {
	ID            uuid.UUID         `json:"id"`
	Type          OcrItemType       `json:"type"`
	Page          int               `json:"page"`
	Left          float64           `json:"left"`
	Top           float64           `json:"top"`
	Width         float64           `json:"width"`
	Height        float64           `json:"height"`
	Confidence    *float64          `json:"confidence,omitempty"`
	Content       *string           `json:"content,omitempty"`
	Relationships []OcrRelationship `json:"relationships"`
}

// OcrResult is the canonical, provider-agnostic OCR output: a DAG of
// OcrItems connected by `child` relationships, rooted at page items.
type OcrResult struct {
	ID    uuid.UUID `json:"id"`
	Items []OcrItem `json:"items"`
}
