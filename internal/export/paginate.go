package export

import "fmt"

// A4 portrait, in millimetres.
const (
	PageWidthMM  = 210.0
	PageHeightMM = 297.0
)

// Layout places one tall image over consecutive A4 pages. Every page holds
// the whole image, shifted up by the page's offset.
type Layout struct {
	ImageWidth  float64 // mm
	ImageHeight float64 // mm
	// Offsets holds the vertical position of the image on each page, in mm.
	// The first is 0, the rest are negative.
	Offsets []float64
}

// Pages returns the number of pages in the layout.
func (l Layout) Pages() int {
	return len(l.Offsets)
}

// Paginate lays out an image of pxWidth×pxHeight pixels scaled to the page
// width. A new page is added while the remaining height is zero or more, so
// an image whose height is an exact multiple of the page height ends with an
// empty page.
func Paginate(pxWidth, pxHeight int) (Layout, error) {
	if pxWidth <= 0 || pxHeight <= 0 {
		return Layout{}, fmt.Errorf("export: invalid image size %dx%d", pxWidth, pxHeight)
	}

	imgHeight := float64(pxHeight) * PageWidthMM / float64(pxWidth)
	l := Layout{
		ImageWidth:  PageWidthMM,
		ImageHeight: imgHeight,
		Offsets:     []float64{0},
	}

	left := imgHeight - PageHeightMM
	for left >= 0 {
		l.Offsets = append(l.Offsets, left-imgHeight)
		left -= PageHeightMM
	}
	return l, nil
}
