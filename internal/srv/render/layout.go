package render

import (
	"image"
)

const StatusBarHeight = 16

// Layout splits the panel into the regions the scheduler repaints.
type Layout struct {
	Bounds  image.Rectangle
	Columns int
}

func NewLayout(bounds image.Rectangle, columns int) Layout {
	if columns < 1 {
		columns = 1
	}
	return Layout{Bounds: bounds, Columns: columns}
}

func (l Layout) StatusBar() image.Rectangle {
	return image.Rect(l.Bounds.Min.X, l.Bounds.Min.Y, l.Bounds.Max.X, l.Bounds.Min.Y+StatusBarHeight).Intersect(l.Bounds)
}

func (l Layout) Content() image.Rectangle {
	return image.Rect(l.Bounds.Min.X, l.Bounds.Min.Y+StatusBarHeight, l.Bounds.Max.X, l.Bounds.Max.Y).Intersect(l.Bounds)
}

// Tile returns the rectangle of tile i in a grid of total tiles.
func (l Layout) Tile(i, total int) image.Rectangle {
	content := l.Content()
	if total <= 0 {
		return image.Rectangle{}
	}
	rows := (total + l.Columns - 1) / l.Columns
	w := content.Dx() / l.Columns
	h := content.Dy() / rows
	row, col := i/l.Columns, i%l.Columns
	x := content.Min.X + col*w
	y := content.Min.Y + row*h
	return image.Rect(x, y, x+w, y+h)
}
