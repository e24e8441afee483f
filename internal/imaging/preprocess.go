package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// Foreground returns a binary mask of the dark strokes of a drawing.
//
// The image is converted to grayscale and inverted, so dark ink on a light
// background becomes bright, then thresholded at level (0-255). Mask pixels
// are 255 for foreground and 0 otherwise. The mask always starts at (0, 0).
func Foreground(img image.Image, level uint8) *image.Gray {
	inverted := imaging.Invert(imaging.Grayscale(img))
	return segment.Threshold(inverted, level)
}

// CropRegion extracts a rectangular region of interest.
//
// The region (x1,y1)-(x2,y2) is inclusive at the top-left and exclusive at the
// bottom-right, in the source image's coordinates. The result starts at (0, 0).
func CropRegion(img image.Image, x1, y1, x2, y2 int) (image.Image, error) {
	bounds := img.Bounds()
	if x1 < bounds.Min.X || y1 < bounds.Min.Y || x2 > bounds.Max.X || y2 > bounds.Max.Y {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			x1, y1, x2, y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}
	return imaging.Crop(img, image.Rect(x1, y1, x2, y2)), nil
}

// EncodePNGBase64 encodes img as a base64 PNG for transport in JSON.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
