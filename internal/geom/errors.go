package geom

import (
	"errors"
	"fmt"
)

// ErrDegenerateVector is returned when an operation needs a non-zero length
// and gets a zero vector.
var ErrDegenerateVector = errors.New("degenerate vector")

// ErrParallelLines is returned by DistanceToLine when the two directions are
// parallel and the cross product vanishes.
var ErrParallelLines = fmt.Errorf("parallel lines: %w", ErrDegenerateVector)
