package sticker

import (
	"bytes"
	"fmt"
	"image"

	"github.com/chai2010/webp"
)

// encodeQuality is the lossy WebP quality factor. 80 keeps stickers well
// under the platform's size ceiling while staying visually clean.
const encodeQuality = 80

// EncodeWebP serializes a composited canvas as lossy WebP with alpha.
func EncodeWebP(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: encodeQuality}); err != nil {
		return nil, fmt.Errorf("sticker: webp encode: %w", err)
	}
	return buf.Bytes(), nil
}
