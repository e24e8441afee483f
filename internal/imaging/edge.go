package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// EdgeMap performs Canny edge detection and returns a binary mask where edge
// pixels are 255 and everything else is 0.
//
// It is the alternative to Foreground for drawings whose strokes are filled
// shapes or photographs of paper: instead of the ink itself, the outline of the
// ink is kept, so each stroke yields two parallel segments that the
// consolidator later merges.
//
// Parameters:
//   - img: Source image (color or grayscale).
//   - thresholdLow: Low hysteresis threshold (0-255). Gradient magnitudes
//     below this are discarded. Typical value: 50.
//   - thresholdHigh: High hysteresis threshold (0-255). Magnitudes above this
//     are always kept. Typical value: 150.
//
// # Algorithm
//
//  1. Grayscale conversion and a Gaussian blur (sigma 1.4) to reduce noise.
//  2. Sobel gradients: magnitude = sqrt(Gx² + Gy²), direction = atan2(Gy, Gx).
//  3. Non-maximum suppression thins edges to one pixel by keeping only local
//     maxima along the gradient direction.
//  4. Hysteresis: strong pixels (>= thresholdHigh) seed edges, and weak pixels
//     (>= thresholdLow) are kept when 8-connected to a seed through other
//     weak pixels.
//
// The mask always starts at (0, 0).
func EdgeMap(img image.Image, thresholdLow, thresholdHigh int) *image.Gray {
	blurred := imaging.Blur(imaging.Grayscale(img), 1.4)
	width := blurred.Bounds().Dx()
	height := blurred.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, width, height))
	if width < 3 || height < 3 {
		return out
	}

	lum := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			// Grayscale leaves R == G == B.
			lum[y*width+x] = float64(blurred.Pix[y*blurred.Stride+x*4]) / 255.0
		}
	}

	at := func(x, y int) float64 {
		return lum[clamp(y, 0, height-1)*width+clamp(x, 0, width-1)]
	}

	magnitude := make([]float64, width*height)
	direction := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) -
				2*at(x-1, y) + 2*at(x+1, y) -
				at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
				at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			magnitude[y*width+x] = math.Sqrt(gx*gx + gy*gy)
			direction[y*width+x] = math.Atan2(gy, gx)
		}
	}

	suppressed := make([]float64, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			dx1, dy1, dx2, dy2 := neighbors(direction[i])
			n1 := magnitude[(y+dy1)*width+x+dx1]
			n2 := magnitude[(y+dy2)*width+x+dx2]
			if magnitude[i] >= n1 && magnitude[i] >= n2 {
				suppressed[i] = magnitude[i]
			}
		}
	}

	low := float64(thresholdLow) / 255.0
	high := float64(thresholdHigh) / 255.0

	var stack []int
	for i, v := range suppressed {
		if v >= high {
			out.Pix[(i/width)*out.Stride+i%width] = 255
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%width, i/width
		for ky := -1; ky <= 1; ky++ {
			for kx := -1; kx <= 1; kx++ {
				px, py := x+kx, y+ky
				if px < 0 || py < 0 || px >= width || py >= height {
					continue
				}
				j := py*width + px
				if suppressed[j] >= low && out.GrayAt(px, py).Y == 0 {
					out.SetGray(px, py, color.Gray{Y: 255})
					stack = append(stack, j)
				}
			}
		}
	}

	return out
}

// neighbors returns the two pixel offsets along the gradient direction,
// quantized to one of four orientations. Y grows downward, so a positive
// angle points down and to the right.
func neighbors(angle float64) (dx1, dy1, dx2, dy2 int) {
	a := math.Abs(angle)
	switch {
	case a < math.Pi/8 || a >= 7*math.Pi/8:
		return -1, 0, 1, 0
	case a >= 3*math.Pi/8 && a < 5*math.Pi/8:
		return 0, -1, 0, 1
	case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
		return -1, -1, 1, 1
	default:
		return 1, -1, -1, 1
	}
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
