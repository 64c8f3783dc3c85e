// Package sticker turns arbitrary raster image bytes into a WhatsApp
// sticker: a 512x512 transparent-padded WebP carrying an XMP pack metadata
// packet.
package sticker

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	// Register the WebP decoder so incoming stickers and screenshots saved
	// as WebP decode through image.Decode like any other format.
	_ "golang.org/x/image/webp"
)

// CanvasSize is the sticker canvas edge length required by WhatsApp.
const CanvasSize = 512

var ErrImageDecode = errors.New("sticker: cannot decode image data")

// Compose decodes raw image bytes and centers them on a fully transparent
// 512x512 canvas. Images larger than the canvas on either side are scaled
// down so the longer side is exactly 512, aspect ratio preserved; smaller
// images are never upscaled.
func Compose(raw []byte) (*image.NRGBA, error) {
	src, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}

	bounds := src.Bounds()
	if bounds.Dx() > CanvasSize || bounds.Dy() > CanvasSize {
		src = imaging.Fit(src, CanvasSize, CanvasSize, imaging.Lanczos)
		bounds = src.Bounds()
	}

	canvas := imaging.New(CanvasSize, CanvasSize, color.NRGBA{})
	offset := image.Pt((CanvasSize-bounds.Dx())/2, (CanvasSize-bounds.Dy())/2)
	return imaging.Paste(canvas, src, offset), nil
}
