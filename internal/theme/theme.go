package theme

import (
	"image/color"
)

// Theme holds the overlay colors used when drawing regions over an image.
type Theme struct {
	Name string

	// Canvas
	Background   color.RGBA // Window area around the image
	CheckerLight color.RGBA
	CheckerDark  color.RGBA

	// Regions
	Highlight    color.RGBA // Outline of the highlighted region
	Handle       color.RGBA // Fill of drag handles
	HandleBorder color.RGBA
	Skeleton     color.RGBA // Keypoint edges without a landmark color
	RegionFill   color.RGBA // Translucent fill of closed shapes, alpha included

	// Labels
	LabelBackground color.RGBA
	LabelText       color.RGBA

	// Outside the allowed area
	Dim color.RGBA
}

// Default returns the built-in light theme.
func Default() *Theme {
	return &Theme{
		Name:            "Default",
		Background:      color.RGBA{220, 220, 220, 255},
		CheckerLight:    color.RGBA{220, 220, 220, 255},
		CheckerDark:     color.RGBA{192, 192, 192, 255},
		Highlight:       color.RGBA{0, 120, 255, 255},
		Handle:          color.RGBA{255, 255, 255, 255},
		HandleBorder:    color.RGBA{0, 0, 0, 255},
		Skeleton:        color.RGBA{255, 255, 255, 255},
		RegionFill:      color.RGBA{255, 255, 255, 40},
		LabelBackground: color.RGBA{255, 255, 255, 220},
		LabelText:       color.RGBA{0, 0, 0, 255},
		Dim:             color.RGBA{0, 0, 0, 128},
	}
}
