package model

import "github.com/google/uuid"

// LabelStatus tracks review progress of a labelable scope (document, page,
// or block). Supplemented from the original implementation's per-scope
// status tracking; spec.md's invariants do not reference it. The Label
// Synthesizer initializes every scope to LabelStatusOpen.
type LabelStatus string

const (
	LabelStatusOpen LabelStatus = "open"
	LabelStatusDone LabelStatus = "done"
)

// LabelEntry is an applied label. It is used uniformly at document, page,
// and block scope. ContentStart/ContentEnd are set only for text-span
// labels applied to a block's content; they are nil for classification
// labels, which is what lets BlockLabel.Labels hold both kinds in a single
// list as spec.md requires.
type LabelEntry struct {
	Name         string `json:"name"`
	ContentStart *int   `json:"content_start,omitempty"`
	ContentEnd   *int   `json:"content_end,omitempty"`
}

// Position is a normalized bounding box, copied verbatim from the
// originating OcrItem.
type Position struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// BlockLabel is the labelable unit: the coarsest OCR item that still
// corresponds to a contiguous text region. Its id is always the id of an
// OcrItem of type `block`.
type BlockLabel struct {
	ID          uuid.UUID    `json:"id"`
	Position    Position     `json:"position"`
	Content     string       `json:"content"`
	Labels      []LabelEntry `json:"labels"`
	LabelStatus LabelStatus  `json:"label_status"`
}

// PageLabel groups the blocks synthesized for one page. Its id is the id
// of the OcrItem of type `page` it was derived from.
type PageLabel struct {
	ID          uuid.UUID    `json:"id"`
	Page        int          `json:"page"`
	Labels      []LabelEntry `json:"labels"`
	Blocks      []BlockLabel `json:"blocks"`
	LabelStatus LabelStatus  `json:"label_status"`
}

// DocumentLabelData is the single JSON value that holds everything a
// labeler can see and mutate for one document.
type DocumentLabelData struct {
	Labels      []LabelEntry `json:"labels"`
	Pages       []PageLabel  `json:"pages"`
	LabelStatus LabelStatus  `json:"label_status"`
}

// LabelDefinitionType enumerates the kinds of label a project may declare.
type LabelDefinitionType string

const (
	LabelDefinitionClassificationSingle   LabelDefinitionType = "classification_single"
	LabelDefinitionClassificationMultiple LabelDefinitionType = "classification_multiple"
	LabelDefinitionText                   LabelDefinitionType = "text"
)

// LabelDefinitionTarget enumerates the scope a label definition applies to.
type LabelDefinitionTarget string

const (
	LabelDefinitionTargetDocument LabelDefinitionTarget = "document"
	LabelDefinitionTargetPage    LabelDefinitionTarget = "page"
	LabelDefinitionTargetBlock   LabelDefinitionTarget = "block"
)

// LabelDefinition declares a kind of label users may apply within a
// project. Invariant: Type == LabelDefinitionText implies Target ==
// LabelDefinitionTargetBlock.
type LabelDefinition struct {
	Type   LabelDefinitionType   `json:"type"`
	Target LabelDefinitionTarget `json:"target"`
	Name   string                `json:"name"`
	Color  string                `json:"color"`
}
