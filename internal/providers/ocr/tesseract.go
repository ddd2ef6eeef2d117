package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/otiai10/gosseract/v2"
	"github.com/sony/gobreaker"
	"golang.org/x/net/html"

	mrkrerrors "github.com/adverant/mrkr-core/internal/errors"
	"github.com/adverant/mrkr-core/internal/model"
	"github.com/adverant/mrkr-core/internal/providers/file"
)

// TesseractConfig is the resolved configuration for the LocalOCR variant.
type TesseractConfig struct {
	Language      string
	TesseractPath string
}

// TesseractProvider runs the local Tesseract engine over full-page images
// and rebuilds the hOCR hierarchy (page/block/paragraph/line/word) it
// emits into the canonical OcrResult tree.
type TesseractProvider struct {
	cfg     TesseractConfig
	breaker *gobreaker.CircuitBreaker
}

// NewTesseractFactory returns a Factory for the LocalOCR variant.
func NewTesseractFactory(cfg TesseractConfig) Factory {
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	return func() (Provider, error) {
		return &TesseractProvider{
			cfg: cfg,
			breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
				Name:    "tesseract-ocr",
				Timeout: 30 * time.Second,
			}),
		}, nil
	}
}

// OCR runs Tesseract's full-layout page-segmentation mode over every
// image, one page at a time, and merges the resulting item trees.
func (p *TesseractProvider) OCR(ctx context.Context, images []file.PageImage) (*model.OcrResult, error) {
	result := &model.OcrResult{ID: uuid.New()}

	for _, pi := range images {
		items, err := p.runBreaker(ctx, pi)
		if err != nil {
			return nil, mrkrerrors.NewOcrError(0, err)
		}
		result.Items = append(result.Items, items...)
	}

	return result, nil
}

func (p *TesseractProvider) runBreaker(ctx context.Context, pi file.PageImage) ([]model.OcrItem, error) {
	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.ocrPage(pi)
	})
	if err != nil {
		return nil, err
	}
	return out.([]model.OcrItem), nil
}

func (p *TesseractProvider) ocrPage(pi file.PageImage) ([]model.OcrItem, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, pi.Image, &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("encode page %d for tesseract: %w", pi.Page, err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	client.SetLanguage(p.cfg.Language)
	client.SetPageSegMode(gosseract.PSM_AUTO)

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	hocr, err := client.HOCRText()
	if err != nil {
		return nil, fmt.Errorf("tesseract hocr: %w", err)
	}

	bounds := pi.Image.Bounds()
	return parseHOCR(hocr, pi.Page, bounds.Dx(), bounds.Dy())
}

// hocrRow is one (page,block,par,line,word) keyed row reconstructed from
// the hOCR class hierarchy, mirroring the original implementation's
// parallel-array model (level, page_num, block_num, par_num, line_num,
// word_num, bbox, confidence, text).
type hocrRow struct {
	itemType     model.OcrItemType
	compositeKey string
	parentKey    string
	left, top, right, bottom float64
	confidence   *float64
	content      *string
}

// parseHOCR walks Tesseract's hOCR output and reconstructs the OCR item
// tree: ocr_page -> ocr_carea (block) -> ocr_par -> ocr_line -> ocrx_word.
// Composite keys follow the original tesseract.py convention of chaining
// each level's within-parent ordinal onto its parent's key, so that a
// repeated key (which cannot happen with this construction, but would
// indicate a malformed hOCR document) is treated as DuplicateItemError.
func parseHOCR(hocrDoc string, page, width, height int) ([]model.OcrItem, error) {
	doc, err := html.Parse(strings.NewReader(hocrDoc))
	if err != nil {
		return nil, fmt.Errorf("parse hocr: %w", err)
	}

	counters := map[string]int{}
	var rows []hocrRow

	pageKey := fmt.Sprintf("p%d", page)
	rows = append(rows, hocrRow{
		itemType:     model.OcrItemPage,
		compositeKey: pageKey,
		left:         0, top: 0, right: float64(width), bottom: float64(height),
	})

	var walk func(n *html.Node, parentKey string)
	walk = func(n *html.Node, parentKey string) {
		if n.Type == html.ElementNode {
			class := attr(n, "class")
			itemType, ok := hocrClassType(class)
			if ok {
				counters[parentKey]++
				key := fmt.Sprintf("%s.%d", parentKey, counters[parentKey])
				box := parseBBox(attr(n, "title"))
				row := hocrRow{
					itemType:     itemType,
					compositeKey: key,
					parentKey:    parentKey,
					left:         box[0], top: box[1], right: box[2], bottom: box[3],
				}
				if itemType == model.OcrItemWord {
					text := strings.TrimSpace(textContent(n))
					if text != "" {
						row.content = &text
					}
					if conf := parseConfidence(attr(n, "title")); conf != nil {
						row.confidence = conf
					}
				}
				rows = append(rows, row)
				parentKey = key
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, parentKey)
		}
	}
	walk(doc, pageKey)

	return rowsToItems(rows, page, width, height)
}

func hocrClassType(class string) (model.OcrItemType, bool) {
	switch {
	case strings.Contains(class, "ocr_carea"):
		return model.OcrItemBlock, true
	case strings.Contains(class, "ocr_par"):
		return model.OcrItemParagraph, true
	case strings.Contains(class, "ocr_line"):
		return model.OcrItemLine, true
	case strings.Contains(class, "ocrx_word"):
		return model.OcrItemWord, true
	default:
		return "", false
	}
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

// parseBBox extracts "bbox l t r b" out of an hOCR title attribute such as
// "bbox 10 20 110 40; x_wconf 92".
func parseBBox(title string) [4]float64 {
	var box [4]float64
	idx := strings.Index(title, "bbox")
	if idx == -1 {
		return box
	}
	fields := strings.Fields(title[idx+len("bbox"):])
	for i := 0; i < 4 && i < len(fields); i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			break
		}
		box[i] = v
	}
	return box
}

func parseConfidence(title string) *float64 {
	idx := strings.Index(title, "x_wconf")
	if idx == -1 {
		return nil
	}
	fields := strings.Fields(title[idx+len("x_wconf"):])
	if len(fields) == 0 {
		return nil
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return nil
	}
	return &v
}

// rowsToItems converts the flat hocrRow list into normalized OcrItems
// with `child` relationships, raising DuplicateItemErr on a composite-key
// collision exactly as the original tesseract.py's _create_item_map does.
func rowsToItems(rows []hocrRow, page, width, height int) ([]model.OcrItem, error) {
	ids := make(map[string]uuid.UUID, len(rows))
	seen := make(map[string]bool, len(rows))

	for _, r := range rows {
		if seen[r.compositeKey] {
			return nil, &mrkrerrors.DuplicateItemErr{Key: r.compositeKey}
		}
		seen[r.compositeKey] = true
		ids[r.compositeKey] = uuid.New()
	}

	childrenByParent := make(map[string][]string)
	for _, r := range rows {
		if r.parentKey != "" {
			childrenByParent[r.parentKey] = append(childrenByParent[r.parentKey], r.compositeKey)
		}
	}

	items := make([]model.OcrItem, 0, len(rows))
	for _, r := range rows {
		var rels []model.OcrRelationship
		for _, childKey := range childrenByParent[r.compositeKey] {
			rels = append(rels, model.OcrRelationship{
				Type: model.OcrRelationshipChild,
				ID:   ids[childKey],
			})
		}

		items = append(items, model.OcrItem{
			ID:            ids[r.compositeKey],
			Type:          r.itemType,
			Page:          page,
			Left:          normalize(r.left, float64(width)),
			Top:           normalize(r.top, float64(height)),
			Width:         normalize(r.right-r.left, float64(width)),
			Height:        normalize(r.bottom-r.top, float64(height)),
			Confidence:    r.confidence,
			Content:       r.content,
			Relationships: rels,
		})
	}

	return items, nil
}

func normalize(v, dim float64) float64 {
	if dim == 0 {
		return 0
	}
	return v / dim
}
