package file

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	mrkrerrors "github.com/adverant/mrkr-core/internal/errors"
)

func encodeBase64(images []PageImage, format string) ([]PageContent, error) {
	result := make([]PageContent, 0, len(images))

	for _, pi := range images {
		var buf bytes.Buffer

		switch strings.ToUpper(format) {
		case "PNG":
			if err := png.Encode(&buf, pi.Image); err != nil {
				return nil, mrkrerrors.NewDecodeError("encode", err)
			}
		case "GIF":
			if err := gif.Encode(&buf, pi.Image, nil); err != nil {
				return nil, mrkrerrors.NewDecodeError("encode", err)
			}
		default: // JPEG, WebP-requested-but-unsupported-for-encode falls back to JPEG
			if err := jpeg.Encode(&buf, pi.Image, &jpeg.Options{Quality: 90}); err != nil {
				return nil, mrkrerrors.NewDecodeError("encode", err)
			}
			format = "JPEG"
		}

		b := pi.Image.Bounds()
		width, height := b.Dx(), b.Dy()
		aspect := 0.0
		if height != 0 {
			aspect = float64(width) / float64(height)
		}

		result = append(result, PageContent{
			Content:     base64.StdEncoding.EncodeToString(buf.Bytes()),
			Page:        pi.Page,
			Width:       width,
			Height:      height,
			AspectRatio: aspect,
			Format:      strings.ToUpper(format),
			Mode:        colorModeName(pi.Image),
		})
	}

	return result, nil
}

func colorModeName(img image.Image) string {
	switch img.ColorModel() {
	case image.NRGBAModel, image.RGBAModel:
		return "RGBA"
	case image.GrayModel, image.Gray16Model:
		return "L"
	default:
		return "RGB"
	}
}
