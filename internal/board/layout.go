package board

const (
	gridColumns = 6
	gridOriginX = 40.0
	gridOriginY = 40.0
	gridStepX   = 120.0
	gridStepY   = 120.0
)

// FallbackPosition places the index-th unplaced entity on a fixed grid. It is
// only used for display and never written back to the store.
func FallbackPosition(index int) Point {
	if index < 0 {
		index = 0
	}
	col := index % gridColumns
	row := index / gridColumns
	return Point{
		X: gridOriginX + float64(col)*gridStepX,
		Y: gridOriginY + float64(row)*gridStepY,
	}
}
