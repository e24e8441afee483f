// Package imaging prepares raster drawings for line detection.
//
// A drawing arrives as a PNG, JPEG or GIF file. The package loads and caches
// it, optionally crops a region of interest, and reduces it to a binary mask
// that the detection package scans for straight strokes. Two reductions are
// offered:
//   - Foreground: grayscale, invert, threshold. Dark ink on a light page
//     becomes a white-on-black mask of the ink itself.
//   - EdgeMap: Canny edge detection. Each stroke becomes its outline.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// Masks and crops are always rebased so that their bounds start at (0, 0).
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. The mask and encoding
// functions are stateless and never modify their input.
//
// # Error Handling
//
// Functions return errors for:
//   - File I/O and decode errors during loading
//   - Crop regions outside the image or with x1 >= x2 or y1 >= y2
//   - Encoding errors during PNG output
//
// # Performance Considerations
//
// Large images may consume significant memory when cached. Use Evict() or
// Clear() to manage memory for long-running processes.
package imaging
