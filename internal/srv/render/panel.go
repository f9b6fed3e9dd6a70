package render

import (
	"image"
)

// Panel is the display driver. Both refresh calls are slow and may fail
// transiently; the scheduler never calls them while holding the state lock.
type Panel interface {
	Bounds() image.Rectangle
	FullRefresh(img image.Image) error
	PartialRefresh(img image.Image, r image.Rectangle) error
}
