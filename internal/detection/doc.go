// Package detection finds straight strokes in raster drawings and reports
// them as line segments.
//
// It is the front end of the field pipeline: the segments it returns are raw
// and typically contain near-duplicates (both sides of a thick stroke, or
// neighboring Hough cells) that the consolidate package later merges.
//
// # Algorithm Overview
//
//  1. Mask: reduce the image to foreground pixels, either the ink itself
//     (grayscale, invert, threshold) or its Canny outline.
//  2. Vote: every mask pixel votes for the (rho, theta) lines through it,
//     with one-degree theta bins and one-pixel rho bins.
//  3. Peaks: accumulator cells above the vote threshold that are maximal in
//     their 5x5 neighborhood, strongest first.
//  4. Runs: the mask pixels on each peak line are ordered along it and split
//     wherever the gap exceeds MaxGap. Runs at least MinLength long become
//     segments, and their pixels are not reused by weaker peaks.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// Segments are returned in these pixel coordinates with z = 0, even when
// detection is restricted to a Region.
//
// # Limitations
//
// Hough voting works best on clean, high-contrast drawings with solid strokes.
// Curves are approximated by whatever short straight runs clear MinLength.
// Endpoints are rounded to whole pixels.
package detection
