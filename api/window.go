package vmcore

import "fmt"

// SurfaceType is the kind of render surface handed to the core.
type SurfaceType int

const (
	SurfaceNone SurfaceType = iota
	Surfaceless
	SurfaceWindow
)

// String returns the display name of the surface type.
func (s SurfaceType) String() string {
	switch s {
	case Surfaceless:
		return "Surfaceless"
	case SurfaceWindow:
		return "Window"
	default:
		return "None"
	}
}

// Reference display the UI layout is designed against.
const (
	ReferenceWidth  = 1920
	ReferenceHeight = 1080
)

// WindowInfo describes the surface the core renders into.
type WindowInfo struct {
	Type   SurfaceType
	Width  int
	Height int
	// Scale is the surface scale factor; 1.0 for a plain window.
	Scale float64
	// UIScale is the zoom applied to the fullscreen UI relative to
	// ReferenceWidth.
	UIScale float64
}

// SurfacelessInfo returns the info used when no window exists.
func SurfacelessInfo() WindowInfo {
	return WindowInfo{Type: Surfaceless, Scale: 1.0, UIScale: 1.0}
}

// UIScaleFor returns the fullscreen UI zoom for a display of the given
// width. Wide displays get an extra 80% zoom so the 1080p layout stays
// readable from a couch.
func UIScaleFor(width int) float64 {
	if width <= 0 {
		return 1.0
	}
	return (float64(width) / ReferenceWidth) * 1.8
}

func (w WindowInfo) String() string {
	if w.Type != SurfaceWindow {
		return w.Type.String()
	}
	return fmt.Sprintf("%s %dx%d scale %.2f", w.Type, w.Width, w.Height, w.Scale)
}
